package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskflow/internal/auditctx"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var actor auditctx.Actor
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		actor, _ = auditctx.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("User-Agent", "taskflow-test")
	r.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	require.Len(t, id, 26)
	require.Equal(t, id, actor.RequestID)
	require.Equal(t, "taskflow-test", actor.UserAgent)
	require.NotEmpty(t, actor.IPAddress)
}

func TestRequestIDKeepsValidInboundHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "edge-123")
	r.ServeHTTP(w, req)
	require.Equal(t, "edge-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	r.ServeHTTP(w, req)
	require.NotEqual(t, "bad id\nwith newline", w.Header().Get(RequestIDHeader))
	require.Len(t, w.Header().Get(RequestIDHeader), 26)
}

func TestNewRequestIDIsMonotonic(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()
	require.Less(t, a, b)
}
