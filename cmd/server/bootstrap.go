package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/api"
	"github.com/charlesng35/taskflow/internal/app"
	"github.com/charlesng35/taskflow/internal/app/maintenance"
	iauth "github.com/charlesng35/taskflow/internal/auth"
	"github.com/charlesng35/taskflow/internal/cache"
	"github.com/charlesng35/taskflow/internal/database"
	"github.com/charlesng35/taskflow/internal/security"
	"github.com/charlesng35/taskflow/internal/services"
	"github.com/charlesng35/taskflow/pkg/logger"
	"github.com/charlesng35/taskflow/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	RateStore *cache.DatabaseStore
	Notifier  services.Notifier
	Cleaner   *maintenance.Cleaner
	Router    *gin.Engine
	Audit     security.Result
}

// bootstrapRuntime opens the database, audits the deployment, builds the notifier,
// schedules maintenance and assembles the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	audit := security.NewAuditor(stack.DB, cfg).Run(context.Background())
	audit.Log(logger.WithModule("security"))
	stack.Audit = audit

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Notifier, err = buildNotifier(cfg.Email, log)
	if err != nil {
		return nil, err
	}

	stack.RateStore = cache.NewDatabaseStore(stack.DB)

	if cfg.Maintenance.Enabled {
		stack.Cleaner, err = buildCleaner(stack.DB, stack.RateStore, cfg.Maintenance)
		if err != nil {
			return nil, err
		}
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.Notifier, stack.RateStore)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs, runs a final sweep and releases the database.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

// buildNotifier returns nil when SMTP is disabled so lifecycle emails are skipped.
func buildNotifier(cfg app.EmailConfig, log *zap.Logger) (services.Notifier, error) {
	if !cfg.SMTP.Enabled {
		log.Warn("smtp disabled; lifecycle emails will not be delivered")
		return nil, nil
	}

	mailer, err := mail.NewSMTPMailer(cfg.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("configure smtp mailer: %w", err)
	}
	notifier, err := services.NewMailNotifier(mailer)
	if err != nil {
		return nil, fmt.Errorf("configure mail notifier: %w", err)
	}

	log.Info("smtp mailer configured",
		zap.String("host", strings.TrimSpace(cfg.SMTP.Host)),
		zap.Int("port", cfg.SMTP.Port),
	)
	return notifier, nil
}

func buildCleaner(db *gorm.DB, store *cache.DatabaseStore, cfg app.MaintenanceConfig) (*maintenance.Cleaner, error) {
	tokens, err := services.NewLifecycleTokens(db)
	if err != nil {
		return nil, fmt.Errorf("initialise token sweeper: %w", err)
	}
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	return maintenance.NewCleaner(tokens, audit, store,
		maintenance.WithTokenSchedule(cfg.TokenSchedule),
		maintenance.WithAuditSchedule(cfg.AuditSchedule),
		maintenance.WithCacheSchedule(cfg.CacheSchedule),
		maintenance.WithAuditRetentionDays(cfg.AuditRetentionDays),
	), nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}

	dbCfg := cfg.Database.DatabaseSettings()
	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		return nil, err
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
