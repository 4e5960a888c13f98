package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskflow/internal/services"
	"github.com/charlesng35/taskflow/pkg/response"
)

// ContactHandler relays the public contact form.
type ContactHandler struct {
	svc *services.ContactService
}

func NewContactHandler(svc *services.ContactService) (*ContactHandler, error) {
	if svc == nil {
		return nil, errors.New("contact handler: service is required")
	}
	return &ContactHandler{svc: svc}, nil
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=120"`
	Email   string `json:"email" validate:"required,notblank"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

// POST /api/contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.svc.Submit(requestContext(c), services.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Your message has been sent")
}
