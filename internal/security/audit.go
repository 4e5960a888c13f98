package security

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/app"
	"github.com/charlesng35/taskflow/internal/models"
)

// CheckStatus captures the outcome of a security audit check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check identifiers.
const (
	CheckJWTSecret    = "jwt_secret_strength"
	CheckSessionTTL   = "session_ttl"
	CheckCookieSecure = "session_cookie_secure"
	CheckCSRF         = "csrf_protection"
	CheckStaleTokens  = "expired_tokens_pending"
)

const (
	maxRecommendedTTL  = 7 * 24 * time.Hour
	minJWTSecretBytes  = 32
	goodJWTSecretBytes = 48
)

// Check contains the result of a single audit verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates all checks with a simple status summary.
type Result struct {
	CheckedAt time.Time      `json:"checkedAt"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Failed reports whether any check failed outright.
func (r Result) Failed() bool {
	return r.Summary[string(StatusFail)] > 0
}

// Auditor evaluates the deployment's session and token hygiene.
type Auditor struct {
	db  *gorm.DB
	cfg *app.Config
	now func() time.Time
}

// NewAuditor constructs the auditor. A nil database degrades the token check to a warning.
func NewAuditor(db *gorm.DB, cfg *app.Config) *Auditor {
	return &Auditor{db: db, cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used in results and expiry comparisons.
func (a *Auditor) WithClock(clock func() time.Time) {
	if clock != nil {
		a.now = clock
	}
}

// Run executes all audit checks and returns their outcome.
func (a *Auditor) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := a.cfg
	if cfg == nil {
		cfg = &app.Config{}
	}

	checks := []Check{
		checkJWTSecret(cfg.Auth),
		checkSessionTTL(cfg.Auth),
		checkCookieSecure(cfg),
		checkCSRF(cfg.Server),
		a.checkStaleTokens(ctx, cfg.Maintenance),
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: a.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

// Log writes every non-passing check to log.
func (r Result) Log(log *zap.Logger) {
	for _, check := range r.Checks {
		fields := []zap.Field{zap.String("check", check.ID), zap.String("remediation", check.Remediation)}
		switch check.Status {
		case StatusFail:
			log.Error(check.Message, fields...)
		case StatusWarn:
			log.Warn(check.Message, fields...)
		}
	}
}

func checkJWTSecret(cfg app.AuthConfig) Check {
	length, err := app.KeyByteLength(cfg.JWT.Secret)
	switch {
	case err != nil || length == 0:
		return Check{
			ID:          CheckJWTSecret,
			Status:      StatusFail,
			Message:     "Missing JWT signing secret.",
			Remediation: "Set TASKFLOW_AUTH_JWT_SECRET to a random value of at least 32 bytes.",
		}
	case length < minJWTSecretBytes:
		return Check{
			ID:          CheckJWTSecret,
			Status:      StatusFail,
			Message:     fmt.Sprintf("JWT signing secret is too short (%d bytes).", length),
			Remediation: "Use a randomly generated secret of at least 32 bytes.",
			Details:     map[string]any{"length": length},
		}
	case length < goodJWTSecretBytes:
		return Check{
			ID:          CheckJWTSecret,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("JWT signing secret is %d bytes. Consider increasing to 48+ bytes.", length),
			Remediation: "Increase the length of TASKFLOW_AUTH_JWT_SECRET to at least 48 bytes.",
			Details:     map[string]any{"length": length},
		}
	default:
		return Check{
			ID:      CheckJWTSecret,
			Status:  StatusPass,
			Message: fmt.Sprintf("JWT signing secret length is %d bytes.", length),
			Details: map[string]any{"length": length},
		}
	}
}

func checkSessionTTL(cfg app.AuthConfig) Check {
	ttl := cfg.JWT.SessionTTL
	if ttl <= 0 {
		return Check{
			ID:      CheckSessionTTL,
			Status:  StatusPass,
			Message: "Session lifetime uses the default duration.",
		}
	}
	if ttl > maxRecommendedTTL {
		return Check{
			ID:          CheckSessionTTL,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Session lifetime (%s) exceeds recommended maximum (%s).", ttl, maxRecommendedTTL),
			Remediation: "Reduce auth.jwt.session_ttl; sessions cannot be revoked before expiry.",
			Details:     map[string]any{"ttl": ttl.String()},
		}
	}
	return Check{
		ID:      CheckSessionTTL,
		Status:  StatusPass,
		Message: fmt.Sprintf("Session lifetime is %s.", ttl),
		Details: map[string]any{"ttl": ttl.String()},
	}
}

func checkCookieSecure(cfg *app.Config) Check {
	public, err := url.Parse(strings.TrimSpace(cfg.Server.PublicURL))
	if err != nil || public.Host == "" {
		return Check{
			ID:          CheckCookieSecure,
			Status:      StatusWarn,
			Message:     "Public URL is not configured; emailed links may be unusable.",
			Remediation: "Set server.public_url to the externally reachable origin.",
		}
	}

	host := public.Hostname()
	local := host == "localhost" || host == "127.0.0.1" || host == "::1"

	switch {
	case public.Scheme != "https" && !local:
		return Check{
			ID:          CheckCookieSecure,
			Status:      StatusWarn,
			Message:     "Public URL is not served over HTTPS; session cookies and emailed tokens travel in clear text.",
			Remediation: "Terminate TLS in front of the server and use an https public URL.",
			Details:     map[string]any{"publicUrl": public.String()},
		}
	case public.Scheme == "https" && !cfg.Auth.Cookie.Secure:
		return Check{
			ID:          CheckCookieSecure,
			Status:      StatusWarn,
			Message:     "Session cookie Secure flag relies on per-request TLS detection.",
			Remediation: "Set auth.cookie.secure when a proxy does not forward X-Forwarded-Proto.",
		}
	default:
		return Check{
			ID:      CheckCookieSecure,
			Status:  StatusPass,
			Message: "Session cookie transport is consistent with the public URL.",
		}
	}
}

func checkCSRF(cfg app.ServerConfig) Check {
	if !cfg.CSRF.Enabled {
		return Check{
			ID:          CheckCSRF,
			Status:      StatusWarn,
			Message:     "CSRF protection is disabled for cookie-authenticated requests.",
			Remediation: "Enable server.csrf.enabled when browsers authenticate with the session cookie.",
		}
	}
	return Check{ID: CheckCSRF, Status: StatusPass, Message: "CSRF protection enabled."}
}

func (a *Auditor) checkStaleTokens(ctx context.Context, cfg app.MaintenanceConfig) Check {
	if a.db == nil {
		return Check{
			ID:          CheckStaleTokens,
			Status:      StatusWarn,
			Message:     "Database unavailable; unable to count expired lifecycle tokens.",
			Remediation: "Ensure database connectivity before running the audit.",
		}
	}

	now := a.now().UTC()
	query := a.db.WithContext(ctx).Model(&models.Account{})
	conditions := a.db.Where(models.TokenPurposes[0].ExpiryColumn()+" <= ?", now)
	for _, purpose := range models.TokenPurposes[1:] {
		conditions = conditions.Or(purpose.ExpiryColumn()+" <= ?", now)
	}

	var count int64
	if err := query.Where(conditions).Count(&count).Error; err != nil {
		return Check{
			ID:          CheckStaleTokens,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Could not count expired lifecycle tokens: %v", err),
			Remediation: "Retry after resolving database errors.",
		}
	}

	if count > 0 && !cfg.Enabled {
		return Check{
			ID:          CheckStaleTokens,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("%d accounts hold expired lifecycle tokens and maintenance is disabled.", count),
			Remediation: "Enable maintenance so expired token digests are cleared.",
			Details:     map[string]any{"accounts": count},
		}
	}

	return Check{
		ID:      CheckStaleTokens,
		Status:  StatusPass,
		Message: "Expired lifecycle tokens are swept.",
		Details: map[string]any{"accounts": count},
	}
}
