package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/pkg/crypto"
)

const defaultLifecycleTokenBytes = 32

var defaultTokenTTLs = map[models.TokenPurpose]time.Duration{
	models.PurposeVerifyEmail:     24 * time.Hour,
	models.PurposeApproveEmployee: 7 * 24 * time.Hour,
	models.PurposeActivateAccount: 24 * time.Hour,
	models.PurposeResetPassword:   time.Hour,
}

// TokenTTL returns the lifetime of tokens issued for purpose.
func TokenTTL(purpose models.TokenPurpose) time.Duration {
	return defaultTokenTTLs[purpose]
}

// TokenOption customises LifecycleTokens.
type TokenOption func(*LifecycleTokens)

// WithTokenClock injects a custom time source.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(t *LifecycleTokens) {
		if clock != nil {
			t.now = clock
		}
	}
}

// WithTokenSize adjusts the number of random bytes in generated tokens. The crypto package
// enforces a floor of 16 bytes regardless.
func WithTokenSize(size int) TokenOption {
	return func(t *LifecycleTokens) {
		if size > 0 {
			t.size = size
		}
	}
}

// LifecycleTokens issues, validates and redeems the single-use tokens stored on accounts.
type LifecycleTokens struct {
	db   *gorm.DB
	now  func() time.Time
	size int
}

// Redemption describes the state change applied when a token is consumed. Guard holds
// column/value pairs the account must still match; Set holds the columns to write.
type Redemption struct {
	Guard map[string]any
	Set   map[string]any
}

// NewLifecycleTokens constructs the token store over the accounts table.
func NewLifecycleTokens(db *gorm.DB, opts ...TokenOption) (*LifecycleTokens, error) {
	if db == nil {
		return nil, errors.New("lifecycle tokens: db is required")
	}

	t := &LifecycleTokens{
		db:   db,
		now:  time.Now,
		size: defaultLifecycleTokenBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Mint generates a raw token and the record to persist for it without touching storage.
func (t *LifecycleTokens) Mint(purpose models.TokenPurpose) (string, models.LifecycleToken, error) {
	if !purpose.Valid() {
		return "", models.LifecycleToken{}, fmt.Errorf("lifecycle tokens: unknown purpose %q", purpose)
	}

	raw, err := crypto.GenerateToken(t.size)
	if err != nil {
		return "", models.LifecycleToken{}, fmt.Errorf("lifecycle tokens: generate token: %w", err)
	}

	hash := crypto.HashToken(raw)
	expires := t.now().UTC().Add(TokenTTL(purpose))
	return raw, models.LifecycleToken{TokenHash: &hash, ExpiresAt: &expires}, nil
}

// Issue mints a token for purpose and stores it on the account, replacing any previous
// token of the same purpose.
func (t *LifecycleTokens) Issue(ctx context.Context, accountID string, purpose models.TokenPurpose) (string, error) {
	ctx = ensureContext(ctx)

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", ErrAccountNotFound
	}

	raw, record, err := t.Mint(purpose)
	if err != nil {
		return "", err
	}

	result := t.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(tokenColumns(purpose, record))
	if result.Error != nil {
		return "", fmt.Errorf("lifecycle tokens: store %s token: %w", purpose, result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrAccountNotFound
	}

	return raw, nil
}

// Validate resolves raw to the account holding it for purpose. Unknown, expired and
// consumed tokens all yield ErrInvalidToken.
func (t *LifecycleTokens) Validate(ctx context.Context, raw string, purpose models.TokenPurpose) (*models.Account, error) {
	ctx = ensureContext(ctx)

	raw = strings.TrimSpace(raw)
	if raw == "" || !purpose.Valid() {
		return nil, ErrInvalidToken
	}

	var account models.Account
	err := t.db.WithContext(ctx).
		Preload("Organization").
		Where(purpose.HashColumn()+" = ?", crypto.HashToken(raw)).
		Where(purpose.ExpiryColumn()+" > ?", t.now().UTC()).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("lifecycle tokens: lookup %s token: %w", purpose, err)
	}

	return &account, nil
}

// Redeem consumes raw for the account in a single conditional update that also applies
// r.Set. Exactly one concurrent caller can win; every other caller receives ErrInvalidToken.
func (t *LifecycleTokens) Redeem(ctx context.Context, accountID, raw string, purpose models.TokenPurpose, r Redemption) error {
	ctx = ensureContext(ctx)

	updates := clearedTokenColumns(purpose)
	for column, value := range r.Set {
		updates[column] = value
	}

	result := t.redemptionScope(ctx, accountID, raw, purpose, r.Guard).
		Model(&models.Account{}).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("lifecycle tokens: redeem %s token: %w", purpose, result.Error)
	}
	if result.RowsAffected != 1 {
		return ErrInvalidToken
	}
	return nil
}

// RedeemByDelete consumes raw by deleting the account that holds it.
func (t *LifecycleTokens) RedeemByDelete(ctx context.Context, accountID, raw string, purpose models.TokenPurpose, guard map[string]any) error {
	ctx = ensureContext(ctx)

	result := t.redemptionScope(ctx, accountID, raw, purpose, guard).Delete(&models.Account{})
	if result.Error != nil {
		return fmt.Errorf("lifecycle tokens: redeem %s token by delete: %w", purpose, result.Error)
	}
	if result.RowsAffected != 1 {
		return ErrInvalidToken
	}
	return nil
}

// ClearExpired nulls token columns whose expiry has passed. Gates are never touched.
func (t *LifecycleTokens) ClearExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	now := t.now().UTC()

	var total int64
	for _, purpose := range models.TokenPurposes {
		result := t.db.WithContext(ctx).
			Model(&models.Account{}).
			Where(purpose.ExpiryColumn()+" <= ?", now).
			UpdateColumns(clearedTokenColumns(purpose))
		if result.Error != nil {
			return total, fmt.Errorf("lifecycle tokens: clear expired %s tokens: %w", purpose, result.Error)
		}
		total += result.RowsAffected
	}
	return total, nil
}

func (t *LifecycleTokens) redemptionScope(ctx context.Context, accountID, raw string, purpose models.TokenPurpose, guard map[string]any) *gorm.DB {
	raw = strings.TrimSpace(raw)
	query := t.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(accountID)).
		Where(purpose.HashColumn()+" = ?", crypto.HashToken(raw)).
		Where(purpose.ExpiryColumn()+" > ?", t.now().UTC())
	if len(guard) > 0 {
		query = query.Where(guard)
	}
	return query
}

func tokenColumns(purpose models.TokenPurpose, record models.LifecycleToken) map[string]any {
	return map[string]any{
		purpose.HashColumn():   record.TokenHash,
		purpose.ExpiryColumn(): record.ExpiresAt,
	}
}

func clearedTokenColumns(purpose models.TokenPurpose) map[string]any {
	return map[string]any{
		purpose.HashColumn():   nil,
		purpose.ExpiryColumn(): nil,
	}
}
