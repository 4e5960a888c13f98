package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/api"
	"github.com/charlesng35/taskflow/internal/app"
	iauth "github.com/charlesng35/taskflow/internal/auth"
	"github.com/charlesng35/taskflow/internal/cache"
	sharedtestutil "github.com/charlesng35/taskflow/internal/database/testutil"
	"github.com/charlesng35/taskflow/internal/middleware"
	"github.com/charlesng35/taskflow/internal/services"
	"github.com/charlesng35/taskflow/pkg/response"
)

// SessionCookieName is the cookie the test router issues sessions under.
const SessionCookieName = "taskflow_session"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Router     *gin.Engine
	JWT        *iauth.JWTService
	Config     *app.Config
	Mail       *RecordingNotifier
	csrfToken  string
	csrfCookie *http.Cookie
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:     jwtSecret,
		Issuer:     "test-suite",
		SessionTTL: time.Hour,
	})
	require.NoError(t, err)

	cfg := &app.Config{
		Server: app.ServerConfig{
			PublicURL: "https://app.taskflow.test",
			CSRF:      app.CSRFConfig{Enabled: true},
		},
		Auth: app.AuthConfig{
			JWT:    app.JWTSettings{Secret: jwtSecret, Issuer: "test-suite", SessionTTL: time.Hour},
			Cookie: app.CookieSettings{Name: SessionCookieName},
		},
		Email: app.EmailConfig{ContactAddress: "support@taskflow.test"},
	}

	mail := &RecordingNotifier{}
	router, err := api.NewRouter(db, jwtSvc, cfg, mail, cache.NewMemoryStore())
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Config: cfg,
		Mail:   mail,
	}
}

// SentMail is a notification captured by RecordingNotifier.
type SentMail struct {
	Kind      services.NotificationKind
	Recipient string
	Params    map[string]string
}

// RecordingNotifier captures notifications instead of sending them.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []SentMail
	err  error
}

// Notify records the notification and returns the configured error.
func (n *RecordingNotifier) Notify(_ context.Context, kind services.NotificationKind, recipient string, params map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, SentMail{Kind: kind, Recipient: recipient, Params: params})
	return n.err
}

// FailWith makes subsequent notifications return err.
func (n *RecordingNotifier) FailWith(err error) {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}

// Count returns how many notifications of kind were recorded.
func (n *RecordingNotifier) Count(kind services.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, m := range n.sent {
		if m.Kind == kind {
			total++
		}
	}
	return total
}

// Last returns the most recent notification of kind.
func (n *RecordingNotifier) Last(t *testing.T, kind services.NotificationKind) SentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i]
		}
	}
	t.Fatalf("no %s notification recorded", kind)
	return SentMail{}
}

// Token extracts the raw token from the link in the most recent notification of kind.
func (n *RecordingNotifier) Token(t *testing.T, kind services.NotificationKind) string {
	t.Helper()
	link := n.Last(t, kind).Params["link"]
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token, link)
	return token
}

// AccountPayload captures the account fields returned from auth endpoints.
type AccountPayload struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	Role             string `json:"role"`
	OrganizationID   string `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
	EmailVerified    bool   `json:"emailVerified"`
	Approved         bool   `json:"approved"`
	Active           bool   `json:"active"`
}

// SessionResult bundles the JSON response of endpoints that log the caller in.
type SessionResult struct {
	Message      string         `json:"message"`
	User         AccountPayload `json:"user"`
	SessionToken string         `json:"sessionToken"`
}

// MessageResult is the payload of endpoints that only report an outcome.
type MessageResult struct {
	Message              string `json:"message"`
	RequiresVerification bool   `json:"requiresVerification"`
	RequiresApproval     bool   `json:"requiresApproval"`
}

// Login authenticates with email and password and returns the issued session.
func (e *Env) Login(email, password string) SessionResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result SessionResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.SessionToken)
	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, token, nil, false)
}

// RequestWithCookie executes a request authenticated by the session cookie instead of a bearer header.
func (e *Env) RequestWithCookie(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, "", cookie, false)
}

func (e *Env) request(method, path string, body any, token string, cookie *http.Cookie, skipCSRF bool) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	if !skipCSRF && requiresCSRFAttestation(method) {
		e.ensureCSRFToken()
		if e.csrfCookie != nil {
			req.AddCookie(e.csrfCookie)
		}
		if e.csrfToken != "" {
			req.Header.Set(middleware.CSRFHeaderName, e.csrfToken)
		}
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	e.captureCSRF(w.Result())
	return w
}

// SessionCookie returns the session cookie set on a recorded response, if any.
func SessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func (e *Env) ensureCSRFToken() {
	if e.csrfToken != "" && e.csrfCookie != nil {
		return
	}
	resp := e.request(http.MethodGet, "/health", nil, "", nil, true)
	require.Equal(e.T, http.StatusOK, resp.Code, resp.Body.String())
}

func (e *Env) captureCSRF(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	if token := resp.Header.Get(middleware.CSRFHeaderName); token != "" {
		e.csrfToken = token
	}
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CSRFCookieName {
			// Clone to avoid unintended mutations between tests
			e.csrfCookie = &http.Cookie{
				Name:  c.Name,
				Value: c.Value,
				Path:  c.Path,
			}
			break
		}
	}
}

func requiresCSRFAttestation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
