package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/taskflow/internal/auth"
	"github.com/charlesng35/taskflow/internal/models"
)

// SessionCookie configures how the session credential is mirrored into a cookie.
type SessionCookie struct {
	Name   string
	Secure bool
}

// sessionIssuer mints session credentials and attaches them to responses.
type sessionIssuer struct {
	jwt    *iauth.JWTService
	cookie SessionCookie
}

// sessionPayload is returned by every endpoint that logs the caller in.
type sessionPayload struct {
	Message      string      `json:"message"`
	User         accountView `json:"user"`
	SessionToken string      `json:"sessionToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
}

func (s sessionIssuer) issue(c *gin.Context, account *models.Account, message string) (sessionPayload, error) {
	token, expiresAt, err := s.jwt.IssueSession(account)
	if err != nil {
		return sessionPayload{}, err
	}

	s.setCookie(c, token, int(time.Until(expiresAt).Seconds()))

	return sessionPayload{
		Message:      message,
		User:         newAccountView(account),
		SessionToken: token,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s sessionIssuer) clear(c *gin.Context) {
	s.setCookie(c, "", -1)
}

func (s sessionIssuer) setCookie(c *gin.Context, value string, maxAge int) {
	if s.cookie.Name == "" {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cookie.Secure || isSecureRequest(c.Request),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// accountView is the public representation of an account.
type accountView struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	Role             string     `json:"role"`
	OrganizationID   string     `json:"organizationId"`
	OrganizationName string     `json:"organizationName,omitempty"`
	EmailVerified    bool       `json:"emailVerified"`
	Approved         bool       `json:"approved"`
	Active           bool       `json:"active"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

func newAccountView(account *models.Account) accountView {
	view := accountView{
		ID:             account.ID,
		Email:          account.Email,
		Username:       account.Username,
		Role:           string(account.Role),
		OrganizationID: account.OrganizationID,
		EmailVerified:  account.EmailVerified,
		Approved:       account.Approved,
		Active:         account.Active,
		LastLoginAt:    account.LastLoginAt,
	}
	if account.Organization != nil {
		view.OrganizationName = account.Organization.Name
	}
	return view
}
