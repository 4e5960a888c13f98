package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/taskflow/internal/auth"
	"github.com/charlesng35/taskflow/internal/middleware"
	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/internal/services"
	apperrors "github.com/charlesng35/taskflow/pkg/errors"
	"github.com/charlesng35/taskflow/pkg/logger"
	"github.com/charlesng35/taskflow/pkg/metrics"
	"github.com/charlesng35/taskflow/pkg/response"
)

// AuthHandler manages login, logout and the current-account endpoint.
type AuthHandler struct {
	authenticator *iauth.LocalAuthenticator
	sessions      sessionIssuer
	audit         *services.AuditService
}

// NewAuthHandler wires the handler. audit may be nil.
func NewAuthHandler(authenticator *iauth.LocalAuthenticator, jwt *iauth.JWTService, cookie SessionCookie, audit *services.AuditService) (*AuthHandler, error) {
	if authenticator == nil {
		return nil, errors.New("auth handler: authenticator is required")
	}
	if jwt == nil {
		return nil, errors.New("auth handler: jwt service is required")
	}
	return &AuthHandler{
		authenticator: authenticator,
		sessions:      sessionIssuer{jwt: jwt, cookie: cookie},
		audit:         audit,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	account, err := h.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		appErr := apperrors.FromError(err)
		result := "error"
		switch appErr.StatusCode {
		case http.StatusUnauthorized:
			result = "invalid"
		case http.StatusForbidden:
			result = "denied"
		}
		metrics.AuthAttempts.WithLabelValues(result).Inc()
		h.recordLogin(c, req.Email, account, result)
		response.Error(c, err)
		return
	}

	payload, err := h.sessions.issue(c, account, "Login successful")
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.recordLogin(c, account.Email, account, "success")
	response.Success(c, http.StatusOK, payload)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.clear(c)
	response.Message(c, http.StatusOK, "Logged out successfully")
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, newAccountView(account))
}

func (h *AuthHandler) recordLogin(c *gin.Context, email string, account *models.Account, result string) {
	if h.audit == nil {
		return
	}
	entry := services.AuditEntry{
		Email:    models.NormaliseEmail(email),
		Action:   "auth.login",
		Resource: "session",
		Result:   "success",
	}
	if result != "success" {
		entry.Result = "failure"
		entry.Metadata = map[string]any{"reason": result}
	}
	if account != nil {
		id := account.ID
		entry.AccountID = &id
	}
	if err := h.audit.Log(requestContext(c), entry); err != nil {
		logger.WithModule("auth").Warn("failed to record login audit", zap.Error(err))
	}
}
