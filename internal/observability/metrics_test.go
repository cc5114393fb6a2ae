package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.JobProcessed("identity:logout_notify", "ok")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "portal_jobs_total") {
		t.Fatalf("expected body to contain portal_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, "portal_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "portal_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestDomainCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.GuardDecision("/dashboard/agencies", "role_mismatch")
	metrics.GuardDecision("/dashboard/agencies", "role_mismatch")
	metrics.LoginAttempt("invalid_credentials")
	metrics.SessionResolution("unresolved")
	metrics.ThemeResolution("system", "dark")
	metrics.BackendCall("validate", "ok", 20*time.Millisecond)

	if got := testutil.ToFloat64(metrics.guardDecisions.WithLabelValues("/dashboard/agencies", "role_mismatch")); got != 2 {
		t.Fatalf("expected 2 guard decisions, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.loginAttempts.WithLabelValues("invalid_credentials")); got != 1 {
		t.Fatalf("expected 1 login attempt, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.resolutions.WithLabelValues("unresolved")); got != 1 {
		t.Fatalf("expected 1 resolution, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.themeResolutions.WithLabelValues("system", "dark")); got != 1 {
		t.Fatalf("expected 1 theme resolution, got %v", got)
	}
	if n := testutil.CollectAndCount(metrics.backendDuration); n != 1 {
		t.Fatalf("expected 1 backend series, got %d", n)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.GuardDecision("/", "allowed")
	metrics.LoginAttempt("success")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
