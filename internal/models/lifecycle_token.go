package models

import (
	"strings"
	"time"
)

// TokenPurpose names the lifecycle transition a token unlocks.
type TokenPurpose string

const (
	PurposeVerifyEmail     TokenPurpose = "verify-email"
	PurposeApproveEmployee TokenPurpose = "approve-employee"
	PurposeActivateAccount TokenPurpose = "activate-account"
	PurposeResetPassword   TokenPurpose = "reset-password"
)

// TokenPurposes lists every purpose in a stable order.
var TokenPurposes = []TokenPurpose{
	PurposeVerifyEmail,
	PurposeApproveEmployee,
	PurposeActivateAccount,
	PurposeResetPassword,
}

// Valid reports whether p is a known purpose.
func (p TokenPurpose) Valid() bool {
	for _, known := range TokenPurposes {
		if p == known {
			return true
		}
	}
	return false
}

func (p TokenPurpose) columnPrefix() string {
	return strings.ReplaceAll(string(p), "-", "_") + "_"
}

// HashColumn is the accounts column holding the token digest for p.
func (p TokenPurpose) HashColumn() string {
	return p.columnPrefix() + "token_hash"
}

// ExpiryColumn is the accounts column holding the token expiry for p.
func (p TokenPurpose) ExpiryColumn() string {
	return p.columnPrefix() + "expires_at"
}

// LifecycleToken is the pending token record embedded in Account once per purpose.
// Only the SHA-256 digest of the raw value is persisted.
type LifecycleToken struct {
	TokenHash *string    `gorm:"size:64;index" json:"-"`
	ExpiresAt *time.Time `json:"-"`
}
