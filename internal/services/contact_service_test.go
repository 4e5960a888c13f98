package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskflow/internal/models"
	apperrors "github.com/charlesng35/taskflow/pkg/errors"
	"github.com/charlesng35/taskflow/pkg/mail"
)

func TestContactSubmitDelivers(t *testing.T) {
	f := newLifecycleFixture(t)
	svc, err := NewContactService(f.notifier, "hello@taskflow.test", f.audit)
	require.NoError(t, err)

	err = svc.Submit(context.Background(), ContactInput{Name: "Ada", Email: "ada@example.com", Message: "Interested in a demo"})
	require.NoError(t, err)

	sent := f.notifier.last(t, NotifyContactRequest)
	require.Equal(t, "hello@taskflow.test", sent.Recipient)
	require.Equal(t, "ada@example.com", sent.Params[ParamReplyTo])

	var entry models.AuditLog
	require.NoError(t, f.db.Where("action = ?", "contact.submit").Take(&entry).Error)
	require.Equal(t, "success", entry.Result)
}

func TestContactSubmitSurfacesDeliveryFailure(t *testing.T) {
	cases := map[string]error{
		"transport":     errors.New("dial tcp: connection refused"),
		"smtp disabled": mail.ErrSMTPDisabled,
	}

	for name, deliveryErr := range cases {
		t.Run(name, func(t *testing.T) {
			notifier := &recordingNotifier{err: deliveryErr}
			svc, err := NewContactService(notifier, "hello@taskflow.test", nil)
			require.NoError(t, err)

			err = svc.Submit(context.Background(), ContactInput{Name: "Ada", Email: "ada@example.com", Message: "Hi"})
			require.ErrorIs(t, err, ErrDeliveryFailed)
			require.ErrorIs(t, err, deliveryErr)

			appErr := apperrors.FromError(err)
			require.Equal(t, 502, appErr.StatusCode)
			require.Equal(t, "EMAIL_DELIVERY_FAILED", appErr.Code)
		})
	}
}

func TestContactSubmitValidation(t *testing.T) {
	svc, err := NewContactService(&recordingNotifier{}, "hello@taskflow.test", nil)
	require.NoError(t, err)

	err = svc.Submit(context.Background(), ContactInput{Name: "Ada", Email: "ada@example.com"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	err = svc.Submit(context.Background(), ContactInput{Name: "Ada", Email: "not-an-email", Message: "Hi"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestContactSubmitWithoutRecipient(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, err := NewContactService(notifier, "", nil)
	require.NoError(t, err)

	err = svc.Submit(context.Background(), ContactInput{Name: "Ada", Email: "ada@example.com", Message: "Hi"})
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.Zero(t, notifier.count(NotifyContactRequest))

	_, err = NewContactService(nil, "x@y.z", nil)
	require.Error(t, err)
}
