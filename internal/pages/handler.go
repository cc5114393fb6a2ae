// Package pages serves the dashboard and support pages. Each page fetches
// its own data from the backend with the principal's token; a failed fetch
// is reported inside the shell and never affects navigation.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/guard"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/routes"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
)

// DefaultPerPage is the list page size.
const DefaultPerPage = 25

// Backend is the subset of the sales backend the pages read and write.
type Backend interface {
	List(ctx context.Context, token, resource string, q backend.ListQuery) (backend.ListResult, error)
	Get(ctx context.Context, token, resource, id string) (backend.Record, error)
	Create(ctx context.Context, token, resource string, payload any) (backend.Record, error)
}

// Sessions gives access to the token of the request session.
type Sessions interface {
	Token(sess *shared.Session) string
	Logout(ctx context.Context, sess *shared.Session) error
}

// Handler serves dashboard and support pages.
type Handler struct {
	logger    *slog.Logger
	backend   Backend
	sessions  Sessions
	composer  *shell.Composer
	idem      *shared.IdempotencyStore
	validator *validator.Validate
	perPage   int
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, be Backend, sessions Sessions, composer *shell.Composer, idem *shared.IdempotencyStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		backend:   be,
		sessions:  sessions,
		composer:  composer,
		idem:      idem,
		validator: newValidator(),
		perPage:   DefaultPerPage,
	}
}

// MountRoutes registers every dashboard route behind the guard.
func (h *Handler) MountRoutes(r chi.Router, g *guard.Guard) {
	r.With(g.Route(routes.PathDashboard)).Get(routes.PathDashboard, h.dashboard)
	r.With(g.Route(routes.PathProfile)).Get(routes.PathProfile, h.profile)

	for _, res := range Dashboard() {
		r.With(g.Route(res.ListPath)).Get(res.ListPath, h.list(res, shell.VariantAdmin))
		if res.DetailPattern != "" {
			r.With(g.Route(res.DetailPattern)).Get(res.DetailPattern, h.detail(res, shell.VariantAdmin))
		}
	}
	r.With(g.Route(routes.PathSaleNew)).Get(routes.PathSaleNew, h.newSale)
	r.With(g.Route(routes.PathSaleNew)).Post(routes.PathSaleNew, h.createSale)

	r.With(g.Route(routes.PathSupport)).Get(routes.PathSupport, h.supportQuery)
	r.With(g.Route(routes.PathSupportFiles)).Get(routes.PathSupportFiles, h.list(SupportFiles, shell.VariantSupport))
	r.With(g.Route(routes.PathSupportFileNew)).Get(routes.PathSupportFileNew, h.newFile)
	r.With(g.Route(routes.PathSupportFileNew)).Post(routes.PathSupportFileNew, h.createFile)
	r.With(g.Route(routes.PathSupportFileView)).Get(routes.PathSupportFileView, h.detail(SupportFiles, shell.VariantSupport))
}

// ListPageData feeds pages/resource_list.html.
type ListPageData struct {
	Heading    string
	NewHref    string
	NewLabel   string
	Columns    []HeaderCell
	Rows       []Row
	Pagination shared.Pagination
}

// DetailPageData feeds pages/resource_detail.html.
type DetailPageData struct {
	Heading  string
	BackHref string
	Fields   []Field
}

// Card is one dashboard counter.
type Card struct {
	Label string
	Value string
	Href  string
}

// DashboardData feeds pages/dashboard.html.
type DashboardData struct {
	Greeting string
	Cards    []Card
}

// ProfileData feeds pages/profile.html.
type ProfileData struct {
	Principal identity.Principal
}

func (h *Handler) list(res Resource, variant shell.Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := shared.PageFromQuery(r.URL.Query())
		result, err := h.backend.List(r.Context(), h.token(r), res.Name, backend.ListQuery{
			Page:    page,
			PerPage: h.perPage,
			Search:  r.URL.Query().Get("q"),
		})
		if h.sessionRejected(w, r, err) {
			return
		}
		var data ListPageData
		if err == nil {
			table := BuildTable(res, result.Items)
			data = ListPageData{
				Heading:    res.Heading,
				NewHref:    res.NewPath,
				NewLabel:   res.NewLabel,
				Columns:    table.Columns,
				Rows:       table.Rows,
				Pagination: shared.NewPagination(page, h.perPage, result.Total),
			}
		}
		h.composer.Render(w, r, variant, shell.Page{Title: res.Heading, Template: "pages/resource_list.html", Data: data, Err: err})
	}
}

func (h *Handler) detail(res Resource, variant shell.Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := h.backend.Get(r.Context(), h.token(r), res.Name, id)
		if h.sessionRejected(w, r, err) {
			return
		}
		page := shell.Page{Title: res.Heading, Template: "pages/resource_detail.html", Err: err}
		if errors.Is(err, shared.ErrNotFound) {
			page.Status = http.StatusNotFound
		}
		if err == nil {
			page.Data = DetailPageData{
				Heading:  fmt.Sprintf("%s %s", singular(res.Heading), id),
				BackHref: res.ListPath,
				Fields:   BuildFields(res.Fields, rec),
			}
		}
		h.composer.Render(w, r, variant, page)
	}
}

var dashboardCards = []Resource{Sales, Customers, Payments, Tickets}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.PrincipalFromContext(r.Context())
	token := h.token(r)

	var visible []Resource
	for _, res := range dashboardCards {
		d := routes.MustLookup(res.ListPath)
		if !d.Allows(p.Role) || (d.RequiresContract && !p.ContractAccepted) {
			continue
		}
		visible = append(visible, res)
	}

	cards := make([]Card, len(visible))
	g, ctx := errgroup.WithContext(r.Context())
	for i, res := range visible {
		g.Go(func() error {
			result, err := h.backend.List(ctx, token, res.Name, backend.ListQuery{Page: 1, PerPage: 1})
			if err != nil {
				return fmt.Errorf("pages: count %s: %w", res.Name, err)
			}
			cards[i] = Card{Label: res.Heading, Value: fmt.Sprint(result.Total), Href: res.ListPath}
			return nil
		})
	}
	err := g.Wait()
	if h.sessionRejected(w, r, err) {
		return
	}

	greeting := "Welcome"
	if p.Name != "" {
		greeting += ", " + p.Name
	}
	h.composer.Render(w, r, shell.VariantAdmin, shell.Page{
		Title:    "Dashboard",
		Template: "pages/dashboard.html",
		Data:     DashboardData{Greeting: greeting, Cards: cards},
		Err:      err,
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.PrincipalFromContext(r.Context())
	h.composer.RenderFor(w, r, shell.Page{Title: "Profile", Template: "pages/profile.html", Data: ProfileData{Principal: p}})
}

// Public serves a static public page.
func (h *Handler) Public(title, template string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.composer.Public(w, r, shell.Page{Title: title, Template: template})
	}
}

func (h *Handler) token(r *http.Request) string {
	return h.sessions.Token(shared.SessionFromContext(r.Context()))
}

// sessionRejected ends the session when the backend no longer accepts its
// token and sends the visitor to sign in again.
func (h *Handler) sessionRejected(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	sess := shared.SessionFromContext(r.Context())
	if logoutErr := h.sessions.Logout(r.Context(), sess); logoutErr != nil {
		h.logger.Warn("logout after rejected token", slog.Any("error", logoutErr))
	}
	http.Redirect(w, r, routes.PathLogin, http.StatusSeeOther)
	return true
}

func singular(heading string) string {
	switch heading {
	case "Agencies":
		return "Agency"
	case "Files":
		return "File"
	}
	if n := len(heading); n > 1 && heading[n-1] == 's' {
		return heading[:n-1]
	}
	return heading
}
