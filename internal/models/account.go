package models

import (
	"strings"
	"time"
)

// AccountRole distinguishes organisation owners from members.
type AccountRole string

const (
	RoleOwner  AccountRole = "owner"
	RoleMember AccountRole = "member"
)

// Valid reports whether r is a known role.
func (r AccountRole) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// Account is a single login identity. Gates flip from false to true as lifecycle tokens
// are consumed; Active is recomputed whenever the role's gates are all satisfied.
type Account struct {
	BaseModel

	Email        string      `gorm:"size:320;not null;uniqueIndex" json:"email"`
	Username     string      `gorm:"size:120;not null" json:"username"`
	PasswordHash string      `gorm:"not null" json:"-"`
	Role         AccountRole `gorm:"size:16;not null;index" json:"role"`

	OrganizationID string        `gorm:"size:36;not null;index" json:"organizationId"`
	Organization   *Organization `json:"organization,omitempty"`

	EmailVerified bool `gorm:"not null;default:false" json:"emailVerified"`
	Approved      bool `gorm:"not null;default:false" json:"approved"`
	Active        bool `gorm:"not null;default:false" json:"active"`

	VerifyEmailToken     LifecycleToken `gorm:"embedded;embeddedPrefix:verify_email_" json:"-"`
	ApproveEmployeeToken LifecycleToken `gorm:"embedded;embeddedPrefix:approve_employee_" json:"-"`
	ActivateAccountToken LifecycleToken `gorm:"embedded;embeddedPrefix:activate_account_" json:"-"`
	ResetPasswordToken   LifecycleToken `gorm:"embedded;embeddedPrefix:reset_password_" json:"-"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// NormaliseEmail lower-cases and trims an address for storage and lookup.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
