// Package shell composes the chrome around private pages: the projected
// navigation, the user menu and a single content outlet.
package shell

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/navigation"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/theme"
	"github.com/roadassist/portal/internal/view"
)

// ErrorTemplate renders a page-local failure inside the outlet.
const ErrorTemplate = "partials/page_error.html"

// LoadingTemplate is the neutral page shown while a session is unresolved.
const LoadingTemplate = "pages/loading.html"

// Variant selects the shell flavour.
type Variant string

const (
	VariantAdmin   Variant = "admin"
	VariantSupport Variant = "support"
)

// VariantFor picks the shell a role is served.
func VariantFor(role identity.Role) Variant {
	if role == identity.RoleSupport {
		return VariantSupport
	}
	return VariantAdmin
}

// Shell is the layout state of one private render.
type Shell struct {
	Variant    Variant
	Principal  identity.Principal
	Nav        navigation.Projection
	ActivePath string
	Theme      theme.State
	// Error is the user-facing message of a failed page; the outlet shows it
	// instead of the page body.
	Error string
}

// Support reports whether the support shell is in use.
func (s Shell) Support() bool { return s.Variant == VariantSupport }

// Page is the content a handler places into the outlet.
type Page struct {
	Title    string
	Template string
	Data     any
	// Err is a failure of the page's own data fetch.
	Err    error
	Status int
}

// Composer builds shells and renders pages into them.
type Composer struct {
	engine       *view.Engine
	csrf         *shared.CSRFManager
	primaryItems int
	logger       *slog.Logger
}

// NewComposer constructs a Composer. primaryItems is the inline menu size.
func NewComposer(engine *view.Engine, csrf *shared.CSRFManager, primaryItems int, logger *slog.Logger) *Composer {
	if primaryItems <= 0 {
		primaryItems = navigation.DefaultPrimaryItems
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{engine: engine, csrf: csrf, primaryItems: primaryItems, logger: logger}
}

// Admin builds the general admin shell for the request principal.
func (c *Composer) Admin(r *http.Request) Shell {
	p, _ := identity.PrincipalFromContext(r.Context())
	entries := navigation.MarkActive(navigation.AdminMenu(), r.URL.Path)
	return Shell{
		Variant:    VariantAdmin,
		Principal:  p,
		Nav:        navigation.Project(entries, p.Role, c.primaryItems),
		ActivePath: r.URL.Path,
		Theme:      theme.FromContext(r.Context()),
	}
}

// Support builds the support shell. Its menu is fixed and never filtered.
func (c *Composer) Support(r *http.Request) Shell {
	p, _ := identity.PrincipalFromContext(r.Context())
	entries := navigation.MarkActive(navigation.SupportMenu(), r.URL.Path)
	return Shell{
		Variant:    VariantSupport,
		Principal:  p,
		Nav:        navigation.Projection{Primary: entries, Mobile: entries},
		ActivePath: r.URL.Path,
		Theme:      theme.FromContext(r.Context()),
	}
}

// Shell builds the shell of the given variant.
func (c *Composer) Shell(r *http.Request, variant Variant) Shell {
	if variant == VariantSupport {
		return c.Support(r)
	}
	return c.Admin(r)
}

// Render writes page inside the shell. Failures of the page never blank the
// shell: the outlet shows an error panel and the chrome stays intact.
func (c *Composer) Render(w http.ResponseWriter, r *http.Request, variant Variant, page Page) {
	sh := c.Shell(r, variant)
	data := c.templateData(r, page)
	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}

	var body template.HTML
	if page.Err != nil {
		c.logger.Warn("page data unavailable", slog.String("path", r.URL.Path), slog.Any("error", page.Err))
		sh.Error = shared.UserSafeMessage(page.Err)
		if page.Status == 0 {
			status = http.StatusBadGateway
		}
	} else {
		data.Shell = sh
		rendered, err := c.engine.Fragment(page.Template, data)
		if err != nil {
			c.logger.Error("render page", slog.String("template", page.Template), slog.Any("error", err))
			sh.Error = shared.UserSafeMessage(err)
			status = http.StatusInternalServerError
		} else {
			body = rendered
		}
	}

	if sh.Error != "" {
		data.Shell = sh
		rendered, err := c.engine.Fragment(ErrorTemplate, data)
		if err != nil {
			c.logger.Error("render error panel", slog.Any("error", err))
			rendered = template.HTML("<p>" + template.HTMLEscapeString(sh.Error) + "</p>")
		}
		body = rendered
	}

	data.Shell = sh
	data.Body = body
	if err := c.engine.RenderLayout(w, status, data); err != nil {
		c.logger.Error("render layout", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// RenderFor renders page in the shell matching the request principal.
func (c *Composer) RenderFor(w http.ResponseWriter, r *http.Request, page Page) {
	p, _ := identity.PrincipalFromContext(r.Context())
	c.Render(w, r, VariantFor(p.Role), page)
}

// Public renders page without navigation chrome.
func (c *Composer) Public(w http.ResponseWriter, r *http.Request, page Page) {
	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}
	if err := c.engine.RenderPage(w, status, page.Template, c.templateData(r, page)); err != nil {
		c.logger.Error("render public page", slog.String("template", page.Template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Loading renders the neutral placeholder served while the session cannot be
// resolved. It never redirects.
func (c *Composer) Loading(w http.ResponseWriter, r *http.Request) {
	c.Public(w, r, Page{Title: "Loading", Template: LoadingTemplate, Status: http.StatusServiceUnavailable})
}

func (c *Composer) templateData(r *http.Request, page Page) view.TemplateData {
	data := view.TemplateData{
		Title:       page.Title,
		CurrentPath: r.URL.Path,
		Theme:       theme.FromContext(r.Context()),
		Data:        page.Data,
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if c.csrf != nil {
			if token, err := c.csrf.EnsureToken(r.Context(), sess); err == nil {
				data.CSRFToken = token
			}
		}
		data.Flash = sess.PopFlash()
	}
	return data
}
