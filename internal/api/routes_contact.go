package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskflow/internal/handlers"
)

var errContactUnavailable = errors.New("contact: no notifier configured")

func registerContactRoutes(engine *gin.Engine, contactHandler *handlers.ContactHandler, throttle gin.HandlerFunc) {
	engine.POST("/api/contact", throttle, contactHandler.Submit)
}
