package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/pkg/crypto"
	apperrors "github.com/charlesng35/taskflow/pkg/errors"
)

// LocalConfig defines tunable behaviour for the local authenticator.
type LocalConfig struct {
	Clock func() time.Time
}

// LocalAuthenticator verifies email/password credentials against stored accounts and
// applies the login gate.
type LocalAuthenticator struct {
	db    *gorm.DB
	clock func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewLocalAuthenticator builds an authenticator with sane defaults.
func NewLocalAuthenticator(db *gorm.DB, cfg LocalConfig) (*LocalAuthenticator, error) {
	if db == nil {
		return nil, errors.New("local authenticator: db is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LocalAuthenticator{db: db, clock: clock}, nil
}

// Authenticate returns the account for valid credentials. Wrong credentials yield
// ErrInvalidCredentials; correct credentials on a gated account yield the gate's 403.
func (p *LocalAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = models.NormaliseEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var account models.Account
	err := p.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Spend comparable time on unknown emails.
		crypto.VerifyPassword(p.placeholderHash(), password)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local authenticator: query account: %w", err)
	}

	if !crypto.VerifyPassword(account.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if decision := EvaluateAccount(&account); !decision.Allowed {
		return &account, decision.Err()
	}

	now := p.clock().UTC()
	if err := p.db.WithContext(ctx).
		Model(&account).
		UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("local authenticator: record login: %w", err)
	}
	account.LastLoginAt = &now

	return &account, nil
}

// Lookup loads an account by id with its organisation, returning ErrUnauthorized when it no
// longer exists.
func (p *LocalAuthenticator) Lookup(ctx context.Context, accountID string) (*models.Account, error) {
	if accountID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var account models.Account
	err := p.db.WithContext(ctx).Preload("Organization").Take(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("local authenticator: load account: %w", err)
	}
	return &account, nil
}

func (p *LocalAuthenticator) placeholderHash() string {
	p.dummyOnce.Do(func() {
		p.dummyHash, _ = crypto.HashPassword("taskflow-placeholder-password")
	})
	return p.dummyHash
}
