package api

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/app"
	iauth "github.com/charlesng35/taskflow/internal/auth"
	"github.com/charlesng35/taskflow/internal/cache"
	"github.com/charlesng35/taskflow/internal/handlers"
	"github.com/charlesng35/taskflow/internal/middleware"
	"github.com/charlesng35/taskflow/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the lifecycle routes.
// notifier may be nil, in which case lifecycle emails are skipped and the contact form
// reports delivery failure.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, notifier services.Notifier, rateStore cache.Store) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	svc, err := newServiceSet(db, cfg, notifier)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	if rateStore != nil {
		r.Use(middleware.RateLimit(rateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}

	registerHealthRoutes(r, db)

	cookie := handlers.SessionCookie{Name: cfg.Auth.CookieName(), Secure: cfg.Auth.Cookie.Secure}
	authenticator, err := iauth.NewLocalAuthenticator(db, iauth.LocalConfig{})
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(authenticator, jwt, cookie, svc.audit)
	if err != nil {
		return nil, err
	}
	lifecycleHandler, err := handlers.NewLifecycleHandler(svc.lifecycle, jwt, cookie)
	if err != nil {
		return nil, err
	}
	orgHandler, err := handlers.NewOrganizationHandler(svc.organizations)
	if err != nil {
		return nil, err
	}
	contactHandler, err := handlers.NewContactHandler(svc.contact)
	if err != nil {
		return nil, err
	}

	throttle := middleware.Throttle(cfg.Server.Throttle.PerSecond, cfg.Server.Throttle.Burst)
	requireAuth := middleware.Auth(jwt, authenticator, cookie.Name)

	registerAuthRoutes(r, authRouteDeps{
		AuthHandler:      authHandler,
		LifecycleHandler: lifecycleHandler,
		Throttle:         throttle,
		RequireAuth:      requireAuth,
	})
	registerOrganizationRoutes(r, orgHandler)
	registerContactRoutes(r, contactHandler, throttle)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

type serviceSet struct {
	audit         *services.AuditService
	lifecycle     *services.LifecycleService
	organizations *services.OrganizationService
	contact       *services.ContactService
}

func newServiceSet(db *gorm.DB, cfg *app.Config, notifier services.Notifier) (*serviceSet, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	tokens, err := services.NewLifecycleTokens(db)
	if err != nil {
		return nil, err
	}
	lifecycle, err := services.NewLifecycleService(db, tokens, notifier,
		services.WithLifecycleBaseURL(cfg.Server.PublicURL),
		services.WithLifecycleAudit(audit),
		services.WithPasswordMinLength(cfg.Auth.PasswordMinLength()),
	)
	if err != nil {
		return nil, err
	}
	orgs, err := services.NewOrganizationService(db)
	if err != nil {
		return nil, err
	}

	var contactNotifier services.Notifier = services.NotifierFunc(func(context.Context, services.NotificationKind, string, map[string]string) error {
		return errContactUnavailable
	})
	if notifier != nil {
		contactNotifier = notifier
	}
	contact, err := services.NewContactService(contactNotifier, cfg.Email.ContactRecipient(), audit)
	if err != nil {
		return nil, err
	}

	return &serviceSet{
		audit:         audit,
		lifecycle:     lifecycle,
		organizations: orgs,
		contact:       contact,
	}, nil
}
