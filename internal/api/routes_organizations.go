package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskflow/internal/handlers"
)

func registerOrganizationRoutes(engine *gin.Engine, orgHandler *handlers.OrganizationHandler) {
	engine.GET("/api/organizations", orgHandler.List)
}
