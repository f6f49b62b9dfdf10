package app

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbovets/taskboard/internal/observability"
	"github.com/turbovets/taskboard/internal/platform/httpx"
	"github.com/turbovets/taskboard/internal/tasks"
)

func testRouter(t *testing.T, params RouterParams) http.Handler {
	t.Helper()
	if params.Logger == nil {
		params.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if params.Config == nil {
		params.Config = &Config{RateLimitPerMinute: 100}
	}
	return NewRouter(params)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := testRouter(t, RouterParams{})
	rr := get(h, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestHealthzReportsFailingDependency(t *testing.T) {
	h := testRouter(t, RouterParams{HealthChecks: map[string]HealthCheck{
		"postgres": func(*http.Request) error { return nil },
		"redis":    func(*http.Request) error { return errors.New("dial tcp: refused") },
	}})
	rr := get(h, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","postgres":"ok","redis":"unavailable"}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := testRouter(t, RouterParams{Metrics: observability.NewMetrics()})
	get(h, "/healthz")
	rr := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `taskboard_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestUnknownRouteIsProblem(t *testing.T) {
	rr := get(testRouter(t, RouterParams{}), "/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestAuthenticatorGuardsAPIRoutes(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
		})
	}
	h := testRouter(t, RouterParams{
		Authenticator: deny,
		AuthRoutes: func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
		},
		TasksHandler: tasks.NewHandler(nil, tasks.NewService(nil), nil, nil),
	})
	assert.Equal(t, http.StatusNoContent, get(h, "/auth/ping").Code)
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/tasks").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/tasks/board").Code)
}

func TestRateLimit(t *testing.T) {
	h := testRouter(t, RouterParams{Config: &Config{RateLimitPerMinute: 2}})
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	rr := get(h, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}
