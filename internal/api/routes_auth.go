package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskflow/internal/handlers"
)

type authRouteDeps struct {
	AuthHandler      *handlers.AuthHandler
	LifecycleHandler *handlers.LifecycleHandler
	Throttle         gin.HandlerFunc
	RequireAuth      gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, deps authRouteDeps) {
	auth := engine.Group("/api/auth")
	{
		// Unauthenticated endpoints that create accounts, send mail or redeem tokens
		// share the per-client throttle.
		public := auth.Group("", deps.Throttle)
		public.POST("/register/owner", deps.LifecycleHandler.RegisterOwner)
		public.POST("/register/member", deps.LifecycleHandler.RegisterMember)
		public.POST("/verify-email", deps.LifecycleHandler.VerifyEmail)
		public.POST("/approve-employee", deps.LifecycleHandler.ReviewEmployee)
		public.POST("/activate-account", deps.LifecycleHandler.ActivateAccount)
		public.POST("/forgot-password", deps.LifecycleHandler.ForgotPassword)
		public.POST("/reset-password", deps.LifecycleHandler.ResetPassword)
		public.POST("/login", deps.AuthHandler.Login)

		auth.POST("/logout", deps.AuthHandler.Logout)
		auth.GET("/me", deps.RequireAuth, deps.AuthHandler.Me)
	}
}
