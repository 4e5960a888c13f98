package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/taskflow/internal/auth"
	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/internal/services"
	apperrors "github.com/charlesng35/taskflow/pkg/errors"
	"github.com/charlesng35/taskflow/pkg/logger"
	"github.com/charlesng35/taskflow/pkg/response"
)

const (
	msgOwnerRegistered   = "Registration successful. Please check your email to verify your account."
	msgMemberRegistered  = "Registration successful. Your account is pending approval by your organization's CEO."
	msgEmailVerified     = "Email verified successfully"
	msgEmployeeApproved  = "Employee approved. An activation link has been sent to their email."
	msgEmployeeRejected  = "Employee registration rejected"
	msgAccountActivated  = "Account activated successfully"
	msgResetRequested    = "If an account with that email exists, a password reset link has been sent."
	msgPasswordResetDone = "Password has been reset successfully. You can now log in."
)

// LifecycleHandler exposes signup and the token-driven account lifecycle.
type LifecycleHandler struct {
	lifecycle *services.LifecycleService
	sessions  sessionIssuer
}

// NewLifecycleHandler wires the lifecycle endpoints.
func NewLifecycleHandler(lifecycle *services.LifecycleService, jwt *iauth.JWTService, cookie SessionCookie) (*LifecycleHandler, error) {
	if lifecycle == nil {
		return nil, errors.New("lifecycle handler: service is required")
	}
	if jwt == nil {
		return nil, errors.New("lifecycle handler: jwt service is required")
	}
	return &LifecycleHandler{
		lifecycle: lifecycle,
		sessions:  sessionIssuer{jwt: jwt, cookie: cookie},
	}, nil
}

type registerOwnerRequest struct {
	Email            string `json:"email" validate:"required,notblank"`
	Username         string `json:"username" validate:"required,notblank,max=100"`
	Password         string `json:"password" validate:"required"`
	OrganizationName string `json:"organizationName" validate:"required,notblank,max=160"`
}

type registerMemberRequest struct {
	Email          string `json:"email" validate:"required,notblank"`
	Username       string `json:"username" validate:"required,notblank,max=100"`
	Password       string `json:"password" validate:"required"`
	OrganizationID string `json:"organizationId" validate:"required,notblank"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type reviewRequest struct {
	Token  string `json:"token" validate:"required"`
	Action string `json:"action" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,notblank"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type registrationResponse struct {
	Message              string `json:"message"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
	RequiresApproval     bool   `json:"requiresApproval,omitempty"`
}

// POST /api/auth/register/owner
func (h *LifecycleHandler) RegisterOwner(c *gin.Context) {
	var req registerOwnerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, err := h.lifecycle.RegisterOwner(requestContext(c), services.RegisterOwnerInput{
		Email:            req.Email,
		Username:         req.Username,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, registrationResponse{
		Message:              msgOwnerRegistered,
		RequiresVerification: true,
	})
}

// POST /api/auth/register/member
func (h *LifecycleHandler) RegisterMember(c *gin.Context) {
	var req registerMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, err := h.lifecycle.RegisterMember(requestContext(c), services.RegisterMemberInput{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, registrationResponse{
		Message:          msgMemberRegistered,
		RequiresApproval: true,
	})
}

// POST /api/auth/verify-email
func (h *LifecycleHandler) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, err := h.lifecycle.VerifyEmail(requestContext(c), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondWithSession(c, account, msgEmailVerified)
}

// POST /api/auth/approve-employee
func (h *LifecycleHandler) ReviewEmployee(c *gin.Context) {
	var req reviewRequest
	if !bindAndValidate(c, &req) {
		return
	}

	outcome, err := h.lifecycle.ReviewEmployee(requestContext(c), req.Token, req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := msgEmployeeApproved
	if outcome.Action == services.ReviewReject {
		message = msgEmployeeRejected
	}
	response.Message(c, http.StatusOK, message)
}

// POST /api/auth/activate-account
func (h *LifecycleHandler) ActivateAccount(c *gin.Context) {
	var req tokenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, err := h.lifecycle.ActivateAccount(requestContext(c), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondWithSession(c, account, msgAccountActivated)
}

// POST /api/auth/forgot-password
func (h *LifecycleHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.lifecycle.ForgotPassword(requestContext(c), req.Email); err != nil {
		// Validation problems are safe to echo; anything else would distinguish
		// addresses, so the caller still gets the generic message.
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.StatusCode == http.StatusBadRequest {
			response.Error(c, err)
			return
		}
		logger.WithModule("lifecycle").Error("forgot password failed", zap.Error(err))
	}

	response.Message(c, http.StatusOK, msgResetRequested)
}

// POST /api/auth/reset-password
func (h *LifecycleHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.lifecycle.ResetPassword(requestContext(c), req.Token, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, msgPasswordResetDone)
}

func (h *LifecycleHandler) respondWithSession(c *gin.Context, account *models.Account, message string) {
	payload, err := h.sessions.issue(c, account, message)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, payload)
}
