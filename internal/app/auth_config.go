package app

import (
	"fmt"

	"github.com/charlesng35/taskflow/internal/auth"
)

const (
	defaultCookieName    = "taskflow_session"
	minJWTSecretBytes    = 32
	defaultMinPasswordSz = 8
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.SessionTTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.JWTConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// CookieName returns the session cookie name, falling back to the default.
func (c AuthConfig) CookieName() string {
	if c.Cookie.Name == "" {
		return defaultCookieName
	}
	return c.Cookie.Name
}

// PasswordMinLength returns the minimum accepted password length.
func (c AuthConfig) PasswordMinLength() int {
	if c.Password.MinLength <= 0 {
		return defaultMinPasswordSz
	}
	return c.Password.MinLength
}

// ValidateSecret rejects signing secrets too short to resist brute force.
func (c AuthConfig) ValidateSecret() error {
	n, err := KeyByteLength(c.JWT.Secret)
	if err != nil {
		return err
	}
	if n < minJWTSecretBytes {
		return fmt.Errorf("auth.jwt.secret must decode to at least %d bytes, got %d", minJWTSecretBytes, n)
	}
	return nil
}
