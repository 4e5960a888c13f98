package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/charlesng35/taskflow/pkg/errors"
	"github.com/charlesng35/taskflow/pkg/logger"
	"github.com/charlesng35/taskflow/pkg/metrics"
	"github.com/charlesng35/taskflow/pkg/validator"
)

// ContactInput is a message submitted through the public contact form.
type ContactInput struct {
	Name    string
	Email   string
	Message string
}

// ContactService forwards contact form submissions to the configured inbox. Unlike lifecycle
// notifications, delivery is the whole operation, so failures are returned to the caller.
type ContactService struct {
	notifier  Notifier
	recipient string
	audit     *AuditService
}

// NewContactService builds a contact service delivering to recipient.
func NewContactService(notifier Notifier, recipient string, audit *AuditService) (*ContactService, error) {
	if notifier == nil {
		return nil, errors.New("contact service: notifier is required")
	}
	return &ContactService{
		notifier:  notifier,
		recipient: strings.TrimSpace(recipient),
		audit:     audit,
	}, nil
}

// Submit validates and delivers input. Any delivery problem, including disabled SMTP,
// surfaces as ErrDeliveryFailed.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) error {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || message == "" {
		return apperrors.NewBadRequest("Name, email and message are required")
	}
	if err := validator.ValidateVar(email, "email"); err != nil {
		return apperrors.NewBadRequest("Email must be a valid email address")
	}

	template := string(NotifyContactRequest)
	if s.recipient == "" {
		metrics.Notifications.WithLabelValues(template, "failed").Inc()
		return ErrDeliveryFailed.WithInternal(errors.New("contact service: no recipient configured"))
	}

	err := s.notifier.Notify(ctx, NotifyContactRequest, s.recipient, map[string]string{
		"name":       name,
		"email":      email,
		"message":    message,
		ParamReplyTo: email,
	})
	if err != nil {
		metrics.Notifications.WithLabelValues(template, "failed").Inc()
		logger.WithModule("contact").Warn("contact request delivery failed", zap.Error(err))
		recordAudit(s.audit, ctx, AuditEntry{
			Email:    email,
			Action:   "contact.submit",
			Resource: "contact",
			Result:   auditResultFailure,
		})
		return ErrDeliveryFailed.WithInternal(err)
	}

	metrics.Notifications.WithLabelValues(template, "sent").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		Email:    email,
		Action:   "contact.submit",
		Resource: "contact",
		Result:   auditResultSuccess,
	})
	return nil
}
