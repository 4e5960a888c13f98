package app

import (
	"strings"

	"github.com/charlesng35/taskflow/pkg/mail"
)

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     strings.TrimSpace(c.SMTP.Host),
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     strings.TrimSpace(c.SMTP.From),
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// ContactRecipient returns the inbox for contact form submissions, defaulting to the
// SMTP sender address.
func (c EmailConfig) ContactRecipient() string {
	if addr := strings.TrimSpace(c.ContactAddress); addr != "" {
		return addr
	}
	return strings.TrimSpace(c.SMTP.From)
}
