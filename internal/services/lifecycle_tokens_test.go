package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/pkg/crypto"
)

func seedAccount(t *testing.T, f *lifecycleFixture, email string, role models.AccountRole) *models.Account {
	t.Helper()

	org := &models.Organization{Name: "Org " + email}
	require.NoError(t, f.db.Create(org).Error)

	account := &models.Account{
		Email:          email,
		Username:       "user",
		PasswordHash:   "hash",
		Role:           role,
		OrganizationID: org.ID,
		Approved:       role == models.RoleOwner,
	}
	require.NoError(t, f.db.Omit("Organization").Create(account).Error)
	return account
}

func reloadAccount(t *testing.T, f *lifecycleFixture, id string) *models.Account {
	t.Helper()
	var account models.Account
	require.NoError(t, f.db.Take(&account, "id = ?", id).Error)
	return &account
}

func TestTokenTTLs(t *testing.T) {
	require.Equal(t, 24*time.Hour, TokenTTL(models.PurposeVerifyEmail))
	require.Equal(t, 7*24*time.Hour, TokenTTL(models.PurposeApproveEmployee))
	require.Equal(t, 24*time.Hour, TokenTTL(models.PurposeActivateAccount))
	require.Equal(t, time.Hour, TokenTTL(models.PurposeResetPassword))
}

func TestMintProducesHashedRecord(t *testing.T) {
	f := newLifecycleFixture(t)

	raw, record, err := f.tokens.Mint(models.PurposeResetPassword)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotNil(t, record.TokenHash)
	require.Equal(t, crypto.HashToken(raw), *record.TokenHash)
	require.NotEqual(t, raw, *record.TokenHash)
	require.True(t, record.ExpiresAt.Equal(f.clock.Now().Add(time.Hour)))

	_, _, err = f.tokens.Mint(models.TokenPurpose("invite"))
	require.Error(t, err)
}

func TestIssueStoresDigestAndOverwritesPrevious(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "owner@acme.com", models.RoleOwner)

	first, err := f.tokens.Issue(ctx, account.ID, models.PurposeResetPassword)
	require.NoError(t, err)

	stored := reloadAccount(t, f, account.ID)
	require.NotNil(t, stored.ResetPasswordToken.TokenHash)
	require.Equal(t, crypto.HashToken(first), *stored.ResetPasswordToken.TokenHash)
	require.WithinDuration(t, f.clock.Now().Add(time.Hour), *stored.ResetPasswordToken.ExpiresAt, time.Second)

	second, err := f.tokens.Issue(ctx, account.ID, models.PurposeResetPassword)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = f.tokens.Validate(ctx, first, models.PurposeResetPassword)
	require.ErrorIs(t, err, ErrInvalidToken)

	resolved, err := f.tokens.Validate(ctx, second, models.PurposeResetPassword)
	require.NoError(t, err)
	require.Equal(t, account.ID, resolved.ID)
}

func TestIssueUnknownAccount(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.tokens.Issue(context.Background(), "missing", models.PurposeVerifyEmail)
	require.ErrorIs(t, err, ErrAccountNotFound)

	_, err = f.tokens.Issue(context.Background(), " ", models.PurposeVerifyEmail)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestValidateIsPurposeScoped(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "owner@acme.com", models.RoleOwner)

	raw, err := f.tokens.Issue(ctx, account.ID, models.PurposeVerifyEmail)
	require.NoError(t, err)

	_, err = f.tokens.Validate(ctx, raw, models.PurposeResetPassword)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.tokens.Validate(ctx, "", models.PurposeVerifyEmail)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenIsIndistinguishableFromUnknown(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "owner@acme.com", models.RoleOwner)

	raw, err := f.tokens.Issue(ctx, account.ID, models.PurposeResetPassword)
	require.NoError(t, err)

	f.clock.Advance(time.Hour - time.Second)
	_, err = f.tokens.Validate(ctx, raw, models.PurposeResetPassword)
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	_, expiredErr := f.tokens.Validate(ctx, raw, models.PurposeResetPassword)
	_, unknownErr := f.tokens.Validate(ctx, "not-a-token", models.PurposeResetPassword)

	require.ErrorIs(t, expiredErr, ErrInvalidToken)
	require.ErrorIs(t, unknownErr, ErrInvalidToken)
	require.Equal(t, unknownErr.Error(), expiredErr.Error())

	err = f.tokens.Redeem(ctx, account.ID, raw, models.PurposeResetPassword, Redemption{})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemIsSingleUse(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "owner@acme.com", models.RoleOwner)

	raw, err := f.tokens.Issue(ctx, account.ID, models.PurposeVerifyEmail)
	require.NoError(t, err)

	redemption := Redemption{Set: map[string]any{"email_verified": true}}
	require.NoError(t, f.tokens.Redeem(ctx, account.ID, raw, models.PurposeVerifyEmail, redemption))

	stored := reloadAccount(t, f, account.ID)
	require.True(t, stored.EmailVerified)
	require.Nil(t, stored.VerifyEmailToken.TokenHash)
	require.Nil(t, stored.VerifyEmailToken.ExpiresAt)

	err = f.tokens.Redeem(ctx, account.ID, raw, models.PurposeVerifyEmail, redemption)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemHonoursGuard(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "member@acme.com", models.RoleMember)

	raw, err := f.tokens.Issue(ctx, account.ID, models.PurposeActivateAccount)
	require.NoError(t, err)

	err = f.tokens.Redeem(ctx, account.ID, raw, models.PurposeActivateAccount, Redemption{
		Guard: map[string]any{"approved": true},
		Set:   map[string]any{"email_verified": true},
	})
	require.ErrorIs(t, err, ErrInvalidToken)

	stored := reloadAccount(t, f, account.ID)
	require.False(t, stored.EmailVerified)
	require.NotNil(t, stored.ActivateAccountToken.TokenHash, "token must survive a failed guard")
}

func TestRedeemConcurrentCallersHaveOneWinner(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "owner@acme.com", models.RoleOwner)

	raw, err := f.tokens.Issue(ctx, account.ID, models.PurposeVerifyEmail)
	require.NoError(t, err)

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		invalid int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.tokens.Redeem(ctx, account.ID, raw, models.PurposeVerifyEmail, Redemption{
				Guard: map[string]any{"email_verified": false},
				Set:   map[string]any{"email_verified": true},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrInvalidToken):
				invalid++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, callers-1, invalid)
}

func TestRedeemByDelete(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "member@acme.com", models.RoleMember)

	raw, err := f.tokens.Issue(ctx, account.ID, models.PurposeApproveEmployee)
	require.NoError(t, err)

	require.NoError(t, f.tokens.RedeemByDelete(ctx, account.ID, raw, models.PurposeApproveEmployee, map[string]any{"approved": false}))

	var count int64
	require.NoError(t, f.db.Model(&models.Account{}).Where("id = ?", account.ID).Count(&count).Error)
	require.Zero(t, count)

	err = f.tokens.RedeemByDelete(ctx, account.ID, raw, models.PurposeApproveEmployee, nil)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestClearExpiredLeavesGatesAndLiveTokens(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	account := seedAccount(t, f, "owner@acme.com", models.RoleOwner)

	_, err := f.tokens.Issue(ctx, account.ID, models.PurposeResetPassword)
	require.NoError(t, err)
	_, err = f.tokens.Issue(ctx, account.ID, models.PurposeVerifyEmail)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	cleared, err := f.tokens.ClearExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared)

	stored := reloadAccount(t, f, account.ID)
	require.Nil(t, stored.ResetPasswordToken.TokenHash)
	require.NotNil(t, stored.VerifyEmailToken.TokenHash)
	require.True(t, stored.Approved)
}
