package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskflow/internal/services"
	"github.com/charlesng35/taskflow/pkg/response"
)

// OrganizationHandler serves the public organisation directory used by member signup.
type OrganizationHandler struct {
	svc *services.OrganizationService
}

func NewOrganizationHandler(svc *services.OrganizationService) (*OrganizationHandler, error) {
	if svc == nil {
		return nil, errors.New("organization handler: service is required")
	}
	return &OrganizationHandler{svc: svc}, nil
}

// GET /api/organizations
func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.svc.ListPublic(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, orgs)
}
