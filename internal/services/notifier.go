package services

import (
	"context"
	"errors"
	"strings"

	"github.com/charlesng35/taskflow/pkg/mail"
)

// NotificationKind names an outbound email template.
type NotificationKind string

const (
	NotifyVerifyEmail      NotificationKind = "verify-email"
	NotifyApproveEmployee  NotificationKind = "approve-employee"
	NotifyActivateAccount  NotificationKind = "activate-account"
	NotifyEmployeeRejected NotificationKind = "employee-rejected"
	NotifyResetPassword    NotificationKind = "reset-password"
	NotifyContactRequest   NotificationKind = "contact-request"
	NotifyTaskAssigned     NotificationKind = "task-assigned"
)

// ParamReplyTo is the params key MailNotifier maps onto the Reply-To header.
const ParamReplyTo = "replyTo"

// Notifier delivers a templated message to a single recipient.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, recipient string, params map[string]string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, kind NotificationKind, recipient string, params map[string]string) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, kind NotificationKind, recipient string, params map[string]string) error {
	return f(ctx, kind, recipient, params)
}

// MailNotifier renders notification templates and hands them to a mail.Mailer.
type MailNotifier struct {
	mailer   mail.Mailer
	renderer *mail.Renderer
}

// NewMailNotifier builds a notifier using the default TaskFlow templates.
func NewMailNotifier(mailer mail.Mailer) (*MailNotifier, error) {
	if mailer == nil {
		return nil, errors.New("mail notifier: mailer is required")
	}

	renderer, err := mail.NewRenderer(DefaultNotificationTemplates())
	if err != nil {
		return nil, err
	}

	return &MailNotifier{mailer: mailer, renderer: renderer}, nil
}

// Notify renders the template for kind and sends it to recipient.
func (n *MailNotifier) Notify(ctx context.Context, kind NotificationKind, recipient string, params map[string]string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return errors.New("mail notifier: recipient is required")
	}

	msg, err := n.renderer.Render(string(kind), recipient, params)
	if err != nil {
		return err
	}
	msg.ReplyTo = strings.TrimSpace(params[ParamReplyTo])

	return n.mailer.Send(ensureContext(ctx), msg)
}
