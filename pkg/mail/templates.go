package mail

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// ErrUnknownTemplate is returned when rendering a template that was never registered.
var ErrUnknownTemplate = errors.New("mail: unknown template")

// Template pairs a subject line with a plain-text body, both using text/template syntax.
type Template struct {
	Subject string
	Body    string
}

type compiledTemplate struct {
	subject *template.Template
	body    *template.Template
}

// Renderer compiles named templates once and renders them into Messages.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]compiledTemplate
}

// NewRenderer compiles the supplied templates. Parsing errors are reported eagerly.
func NewRenderer(templates map[string]Template) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]compiledTemplate, len(templates))}
	for name, tpl := range templates {
		if err := r.Register(name, tpl); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a named template.
func (r *Renderer) Register(name string, tpl Template) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("mail: template name is required")
	}

	subject, err := template.New(name + ":subject").Option("missingkey=error").Parse(tpl.Subject)
	if err != nil {
		return fmt.Errorf("mail: parse %s subject: %w", name, err)
	}
	body, err := template.New(name + ":body").Option("missingkey=error").Parse(tpl.Body)
	if err != nil {
		return fmt.Errorf("mail: parse %s body: %w", name, err)
	}

	r.mu.Lock()
	r.templates[name] = compiledTemplate{subject: subject, body: body}
	r.mu.Unlock()
	return nil
}

// Render executes the named template against data and returns a message addressed to recipient.
func (r *Renderer) Render(name, recipient string, data map[string]string) (Message, error) {
	r.mu.RLock()
	tpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s subject: %w", name, err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s body: %w", name, err)
	}

	return Message{
		To:      []string{recipient},
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
	}, nil
}
