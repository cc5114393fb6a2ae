// Package api exposes the session, navigation and theme state as JSON for
// client-side widgets.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roadassist/portal/internal/guard"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/navigation"
	"github.com/roadassist/portal/internal/platform/httpx"
	"github.com/roadassist/portal/internal/routes"
	"github.com/roadassist/portal/internal/shell"
	"github.com/roadassist/portal/internal/theme"
)

// Handler serves the introspection endpoints.
type Handler struct {
	composer *shell.Composer
	themes   *theme.Resolver
}

// NewHandler builds Handler instance.
func NewHandler(composer *shell.Composer, themes *theme.Resolver) *Handler {
	return &Handler{composer: composer, themes: themes}
}

// MountRoutes registers the API routes behind the guard.
func (h *Handler) MountRoutes(r chi.Router, g *guard.Guard) {
	r.With(g.Route(routes.PathAPIMe)).Get(routes.PathAPIMe, h.me)
	r.With(g.Route(routes.PathAPINavigation)).Get(routes.PathAPINavigation, h.navigation)
	r.With(g.Route(routes.PathAPITheme)).Get(routes.PathAPITheme, h.theme)
}

// MeResponse describes the signed-in principal.
type MeResponse struct {
	identity.Principal
	RoleLabel string `json:"role_label"`
	Landing   string `json:"landing"`
}

// Item is a navigation entry as sent to clients.
type Item struct {
	Icon   string `json:"icon"`
	Label  string `json:"label"`
	Path   string `json:"path"`
	Active bool   `json:"active,omitempty"`
}

// NavigationResponse is the projected menu of the caller.
type NavigationResponse struct {
	Variant  shell.Variant `json:"variant"`
	Primary  []Item        `json:"primary"`
	Overflow []Item        `json:"overflow"`
	Mobile   []Item        `json:"mobile"`
}

// ThemeResponse is the resolved theme of the caller.
type ThemeResponse struct {
	Preference theme.Preference `json:"preference"`
	Resolved   theme.Resolved   `json:"resolved"`
	Public     bool             `json:"public"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.PrincipalFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, MeResponse{
		Principal: p,
		RoleLabel: p.Role.Label(),
		Landing:   guard.LandingPath(p.Role),
	})
}

func (h *Handler) navigation(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.PrincipalFromContext(r.Context())
	sh := h.composer.Shell(forPage(r), shell.VariantFor(p.Role))
	httpx.JSON(w, http.StatusOK, NavigationResponse{
		Variant:  sh.Variant,
		Primary:  items(sh.Nav.Primary),
		Overflow: items(sh.Nav.Overflow),
		Mobile:   items(sh.Nav.Mobile),
	})
}

func (h *Handler) theme(w http.ResponseWriter, r *http.Request) {
	st := theme.FromContext(r.Context())
	if h.themes != nil && r.URL.Query().Get("path") != "" {
		st = h.themes.StateFor(forPage(r))
	}
	httpx.JSON(w, http.StatusOK, ThemeResponse{Preference: st.Preference, Resolved: st.Resolved, Public: st.Public})
}

// forPage rewrites r to the page named by the "path" query parameter, the
// page the calling widget is rendered on.
func forPage(r *http.Request) *http.Request {
	page := r.URL.Query().Get("path")
	if page == "" || page[0] != '/' {
		return r
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = page
	return r2
}

func items(entries []navigation.Entry) []Item {
	out := make([]Item, 0, len(entries))
	for _, e := range entries {
		out = append(out, Item{Icon: navigation.IconSymbol(e.Icon), Label: e.Label, Path: e.Path, Active: e.Active})
	}
	return out
}
