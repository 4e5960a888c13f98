package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskflow/internal/models"
	apperrors "github.com/charlesng35/taskflow/pkg/errors"
)

func TestEvaluateLoginGate(t *testing.T) {
	cases := []struct {
		name  string
		role  models.AccountRole
		flags GateFlags
		code  string
	}{
		{"owner unverified", models.RoleOwner, GateFlags{Approved: true}, ReasonEmailNotVerified},
		{"owner verified", models.RoleOwner, GateFlags{Approved: true, EmailVerified: true, Active: true}, ""},
		{"owner verified inactive", models.RoleOwner, GateFlags{Approved: true, EmailVerified: true}, ReasonAccountInactive},
		{"member unapproved", models.RoleMember, GateFlags{}, ReasonPendingApproval},
		{"member unapproved but verified", models.RoleMember, GateFlags{EmailVerified: true, Active: true}, ReasonPendingApproval},
		{"member approved unverified", models.RoleMember, GateFlags{Approved: true}, ReasonPendingActivation},
		{"member active", models.RoleMember, GateFlags{Approved: true, EmailVerified: true, Active: true}, ""},
		{"unknown role", models.AccountRole("admin"), GateFlags{Approved: true, EmailVerified: true, Active: true}, ReasonAccountInactive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := EvaluateLoginGate(tc.role, tc.flags)
			if tc.code == "" {
				require.True(t, decision.Allowed)
				require.NoError(t, decision.Err())
				return
			}
			require.False(t, decision.Allowed)
			require.Equal(t, tc.code, decision.Code)
			require.NotEmpty(t, decision.Message)
		})
	}
}

func TestGateMessages(t *testing.T) {
	owner := EvaluateLoginGate(models.RoleOwner, GateFlags{})
	require.Equal(t, "Please verify your email address before logging in", owner.Message)

	pending := EvaluateLoginGate(models.RoleMember, GateFlags{})
	require.Equal(t, "Your account is pending CEO approval", pending.Message)

	activation := EvaluateLoginGate(models.RoleMember, GateFlags{Approved: true})
	require.Equal(t, "Your account has been approved. Please check your email for the activation link", activation.Message)
}

func TestDecisionErrIsForbidden(t *testing.T) {
	err := EvaluateAccount(&models.Account{Role: models.RoleMember}).Err()
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, 403, appErr.StatusCode)
	require.Equal(t, ReasonPendingApproval, appErr.Code)

	require.Equal(t, ReasonAccountInactive, EvaluateAccount(nil).Code)
}

func TestEvaluateAccountHonoursActiveFlag(t *testing.T) {
	owner := &models.Account{Role: models.RoleOwner, Approved: true, EmailVerified: true}
	require.Equal(t, ReasonAccountInactive, EvaluateAccount(owner).Code)

	member := &models.Account{Role: models.RoleMember, Approved: true, EmailVerified: true}
	require.Equal(t, ReasonAccountInactive, EvaluateAccount(member).Code)

	member.Active = true
	require.True(t, EvaluateAccount(member).Allowed)
}
