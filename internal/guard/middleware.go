package guard

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/platform/httpx"
	"github.com/roadassist/portal/internal/routes"
)

// RetryAfterSeconds is advertised while a session cannot be resolved.
const RetryAfterSeconds = 3

// Guard enforces Evaluate on HTTP handlers.
type Guard struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	loading http.Handler
}

// New constructs a Guard. loading renders the neutral page shown while the
// session is unresolved and must answer 503.
func New(logger *slog.Logger, metrics *observability.Metrics, loading http.Handler) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if loading == nil {
		loading = http.HandlerFunc(defaultLoading)
	}
	return &Guard{logger: logger, metrics: metrics, loading: loading}
}

// Protect wraps next with the guard for descriptor d.
func (g *Guard) Protect(d routes.Descriptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := identity.ResolutionFromContext(r.Context())
			if err := r.Context().Err(); err != nil {
				// The client left before the session resolved; the decision
				// belongs to a navigation that no longer exists.
				g.logger.Debug("discarding stale guard decision", slog.String("route", d.Pattern), slog.Any("error", err))
				g.metrics.GuardDecision(d.Pattern, "stale")
				return
			}

			decision := Evaluate(d, res, d.SkipContractCheck)
			g.metrics.GuardDecision(d.Pattern, decision.Outcome.String())

			switch decision.Outcome {
			case Allowed:
				next.ServeHTTP(w, r)
			case Unresolved:
				g.unresolved(w, r)
			default:
				g.deny(w, r, decision)
			}
		})
	}
}

func (g *Guard) unresolved(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	w.Header().Set("Cache-Control", "no-store")
	if httpx.WantsJSON(r) {
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Type:   "about:blank#session-unresolved",
			Title:  "Session Unresolved",
			Status: http.StatusServiceUnavailable,
			Detail: "session could not be verified yet",
		})
		return
	}
	g.loading.ServeHTTP(w, r)
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, decision Decision) {
	if httpx.WantsJSON(r) {
		status := http.StatusForbidden
		title := "Forbidden"
		if decision.Outcome == DeniedNoSession {
			status = http.StatusUnauthorized
			title = "Unauthorized"
		}
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Type:     "about:blank#" + decision.Outcome.String(),
			Title:    title,
			Status:   status,
			Detail:   decision.Outcome.String(),
			Location: decision.Redirect,
		})
		return
	}
	if httpx.IsHTMX(r) {
		w.Header().Set("HX-Redirect", decision.Redirect)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
}

func defaultLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`<!doctype html><meta http-equiv="refresh" content="` + strconv.Itoa(RetryAfterSeconds) + `"><p>Loading…</p>`))
}

// Route is Protect for a pattern registered in the route table.
func (g *Guard) Route(pattern string) func(http.Handler) http.Handler {
	return g.Protect(routes.MustLookup(pattern))
}
