package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/roadassist/portal/internal/api"
	"github.com/roadassist/portal/internal/auth"
	"github.com/roadassist/portal/internal/guard"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/pages"
	"github.com/roadassist/portal/internal/routes"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
	"github.com/roadassist/portal/internal/theme"
	"github.com/roadassist/portal/jobs"
	"github.com/roadassist/portal/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Identity       *identity.Store
	Themes         *theme.Resolver
	Composer       *shell.Composer
	AuthHandler    *auth.Handler
	PagesHandler   *pages.Handler
	APIHandler     *api.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults. Every page route
// is registered through the guard; health, metrics and static assets sit
// outside the route table.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Identity:       params.Identity,
		Themes:         params.Themes,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	var loading http.Handler
	if params.Composer != nil {
		loading = http.HandlerFunc(params.Composer.Loading)
	}
	g := guard.New(params.Logger, params.Metrics, loading)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.PagesHandler != nil {
		public := []struct {
			pattern, title, template string
		}{
			{routes.PathHome, "Roadside assistance", "pages/home.html"},
			{routes.PathAbout, "About", "pages/about.html"},
			{routes.PathServices, "Services", "pages/services.html"},
			{routes.PathContact, "Contact", "pages/contact.html"},
		}
		for _, p := range public {
			r.With(g.Route(p.pattern)).Get(p.pattern, params.PagesHandler.Public(p.title, p.template))
		}
		params.PagesHandler.MountRoutes(r, g)
	}

	if h := params.AuthHandler; h != nil {
		r.With(g.Route(routes.PathLogin)).Get(routes.PathLogin, h.ShowLogin)
		r.With(g.Route(routes.PathLogin)).Post(routes.PathLogin, h.Login)
		r.With(g.Route(routes.PathLogout)).Post(routes.PathLogout, h.Logout)
		r.With(g.Route(routes.PathContract)).Get(routes.PathContract, h.ShowContract)
		r.With(g.Route(routes.PathContract)).Post(routes.PathContract, h.AcceptContract)
	}

	if params.Themes != nil {
		r.With(g.Route(routes.PathTheme)).Post(routes.PathTheme, params.Themes.Handler)
	}

	if params.APIHandler != nil {
		params.APIHandler.MountRoutes(r, g)
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.NotFound(routes.NotFound)

	return r
}

// staticCacheHandler lets browsers cache embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
