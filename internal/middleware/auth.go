package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/taskflow/internal/auth"
	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/pkg/errors"
	"github.com/charlesng35/taskflow/pkg/response"
)

// AccountLoader resolves the account behind a session.
type AccountLoader interface {
	Lookup(ctx context.Context, accountID string) (*models.Account, error)
}

// Auth enforces session authentication. The credential is read from the Authorization
// bearer header, falling back to the session cookie. The account must still exist and
// pass the login gate.
func Auth(jwt *iauth.JWTService, accounts AccountLoader, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateSession(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		account, err := accounts.Lookup(c.Request.Context(), claims.AccountID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if decision := iauth.EvaluateAccount(account); !decision.Allowed {
			response.Error(c, decision.Err())
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxAccountIDKey, account.ID)
		c.Set(CtxAccountKey, account)

		c.Next()
	}
}

// CurrentAccount returns the account stored by Auth.
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	v, ok := c.Get(CtxAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok && account != nil
}

func sessionToken(c *gin.Context, cookieName string) string {
	authz := c.GetHeader("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if cookieName == "" {
		return ""
	}
	if value, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(value)
	}
	return ""
}
