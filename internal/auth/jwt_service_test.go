package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskflow/internal/models"
)

func sessionAccount() *models.Account {
	return &models.Account{
		BaseModel:      models.BaseModel{ID: "acc-123"},
		Role:           models.RoleMember,
		OrganizationID: "org-9",
	}
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestNewJWTServiceDefaultsToOneDay(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, svc.TTL())
}

func TestIssueAndValidateSession(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret: "super-secret",
		Issuer: "taskflow",
		Clock:  now,
	})
	require.NoError(t, err)

	token, expiresAt, err := svc.IssueSession(sessionAccount())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.Equal(current.Add(24*time.Hour)))

	claims, err := svc.ValidateSession(token)
	require.NoError(t, err)

	require.Equal(t, "acc-123", claims.AccountID)
	require.Equal(t, models.RoleMember, claims.Role)
	require.Equal(t, "org-9", claims.OrganizationID)
	require.Equal(t, "taskflow", claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(24*time.Hour)))
}

func TestIssueSessionRequiresAccount(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	_, _, err = svc.IssueSession(nil)
	require.Error(t, err)
	_, _, err = svc.IssueSession(&models.Account{})
	require.Error(t, err)
}

func TestValidateSessionInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: now})
	require.NoError(t, err)

	token, _, err := issuer.IssueSession(sessionAccount())
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", Clock: now})
	require.NoError(t, err)

	_, err = verifier.ValidateSession(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestValidateSessionWrongIssuer(t *testing.T) {
	issuer, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "elsewhere"})
	require.NoError(t, err)
	token, _, err := issuer.IssueSession(sessionAccount())
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "taskflow"})
	require.NoError(t, err)
	_, err = verifier.ValidateSession(token)
	require.EqualError(t, err, "jwt: invalid issuer")
}

func TestValidateSessionExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:     "secret",
		SessionTTL: time.Minute,
		Clock:      now,
	})
	require.NoError(t, err)

	token, _, err := svc.IssueSession(sessionAccount())
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.ValidateSession(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))

	_, err = svc.ValidateSession("")
	require.Error(t, err)
}
