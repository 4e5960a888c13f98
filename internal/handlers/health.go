package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/database"
	"github.com/charlesng35/taskflow/pkg/response"
)

const healthCheckTimeout = 2 * time.Second

// Health reports readiness, including a database round trip.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(requestContext(c), healthCheckTimeout)
		defer cancel()

		checkedAt := time.Now().UTC()
		if err := database.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    gin.H{"status": "degraded", "database": "unavailable", "checkedAt": checkedAt},
				Error:   &response.ErrorInfo{Code: "SERVICE_UNAVAILABLE", Message: "database unavailable"},
			})
			return
		}

		response.Success(c, http.StatusOK, gin.H{"status": "ok", "database": "ok", "checkedAt": checkedAt})
	}
}
