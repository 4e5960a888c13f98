package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskflow/internal/auditctx"
	"github.com/charlesng35/taskflow/internal/middleware"
)

// requestContext returns the request context with audit actor metadata attached.
// Routes mounted without the RequestID middleware still record the client address,
// and the caller's account id is added once the auth middleware has run.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}

	ctx := c.Request.Context()
	actor, ok := auditctx.FromContext(ctx)
	if !ok {
		actor = auditctx.Actor{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	}
	if actor.AccountID == "" {
		actor.AccountID = c.GetString(middleware.CtxAccountIDKey)
	}
	return auditctx.WithActor(ctx, actor)
}
