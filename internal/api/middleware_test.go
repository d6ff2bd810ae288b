package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefrontapp/storefront-server/internal/ratelimit"
)

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, withLimiter(limiter))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/content-types").Code)
	}

	resp := ts.api.Get("/api/v1/content-types")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)

	// A different client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/content-types", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 10))

	limiter := NewRateLimiter(60, 0)
	require.NotNil(t, limiter)
	defer limiter.Stop()
	assert.True(t, limiter.Allow("a"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", getClientIP(req))

	req.RemoteAddr = "198.51.100.7"
	assert.Equal(t, "198.51.100.7", getClientIP(req))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.attach(t, "product", 7, "sale")
	ts.api.Get("/api/v1/tagged/product/7")

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `storefront_http_requests_total{method="GET",route="/api/v1/tagged/{type}/{id}",status="200"} 1`)
	assert.Contains(t, body, `storefront_tag_operations_total{op="attach",result="ok"} 1`)
	assert.NotContains(t, body, `route="/api/v1/tagged/product/7"`)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeEnvelope[HealthResponse](t, resp).Data
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["tag_backend"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is closed") }

func TestHealthCheck_Statuses(t *testing.T) {
	ts := setupTestServer(t, withoutSearch())

	resp := ts.api.Get("/health")
	health := decodeEnvelope[HealthResponse](t, resp).Data
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "search disabled", health.Components["search"].Message)

	ts.deps.TagBackend = failingPinger{}
	resp = ts.api.Get("/health")
	health = decodeEnvelope[HealthResponse](t, resp).Data
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "database is closed", health.Components["tag_backend"].Message)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/widgets")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestRecoverer(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL"`)
}
