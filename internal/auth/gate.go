package auth

import (
	"github.com/charlesng35/taskflow/internal/models"
	apperrors "github.com/charlesng35/taskflow/pkg/errors"
)

// Reason codes returned when the login gate denies access.
const (
	ReasonEmailNotVerified  = "EMAIL_NOT_VERIFIED"
	ReasonPendingApproval   = "PENDING_APPROVAL"
	ReasonPendingActivation = "PENDING_ACTIVATION"
	ReasonAccountInactive   = "ACCOUNT_INACTIVE"
)

// GateFlags are the account booleans consulted by the login gate.
type GateFlags struct {
	EmailVerified bool
	Approved      bool
	Active        bool
}

// Decision is the outcome of the login gate.
type Decision struct {
	Allowed bool
	Code    string
	Message string
}

// Err converts a denial into a 403 AppError; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperrors.NewForbidden(d.Code, d.Message)
}

func deny(code, message string) Decision {
	return Decision{Code: code, Message: message}
}

// EvaluateLoginGate is the single authorization policy for logging in and for using an
// existing session. Members are checked for approval before activation because an
// unapproved member cannot hold an activation link yet.
func EvaluateLoginGate(role models.AccountRole, flags GateFlags) Decision {
	switch role {
	case models.RoleOwner:
		if !flags.EmailVerified {
			return deny(ReasonEmailNotVerified, "Please verify your email address before logging in")
		}
	case models.RoleMember:
		if !flags.Approved {
			return deny(ReasonPendingApproval, "Your account is pending CEO approval")
		}
		if !flags.EmailVerified {
			return deny(ReasonPendingActivation, "Your account has been approved. Please check your email for the activation link")
		}
	default:
		return deny(ReasonAccountInactive, "Your account is inactive")
	}

	if !flags.Active {
		return deny(ReasonAccountInactive, "Your account is inactive")
	}
	return Decision{Allowed: true}
}

// EvaluateAccount applies EvaluateLoginGate to a stored account.
func EvaluateAccount(account *models.Account) Decision {
	if account == nil {
		return deny(ReasonAccountInactive, "Your account is inactive")
	}
	return EvaluateLoginGate(account.Role, GateFlags{
		EmailVerified: account.EmailVerified,
		Approved:      account.Approved,
		Active:        account.Active,
	})
}
