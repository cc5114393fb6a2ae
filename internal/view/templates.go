package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/navigation"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/theme"
	"github.com/roadassist/portal/web"
)

// LayoutTemplate wraps every full page.
const LayoutTemplate = "layouts/base.html"

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Theme       theme.State
	// Shell is the navigation chrome of private pages; nil on public pages.
	Shell any
	// Body is the pre-rendered page content placed into the layout.
	Body template.HTML
	Data any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"icon":      navigation.IconSymbol,
		"money":     formatMoney,
		"roleLabel": func(r identity.Role) string { return r.Label() },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// Fragment executes name into an HTML fragment.
func (e *Engine) Fragment(name string, data TemplateData) (template.HTML, error) {
	if e == nil {
		return "", fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// RenderPage renders page into the layout and writes it with status. Nothing
// is written when rendering fails.
func (e *Engine) RenderPage(w http.ResponseWriter, status int, page string, data TemplateData) error {
	body, err := e.Fragment(page, data)
	if err != nil {
		return fmt.Errorf("view: render %s: %w", page, err)
	}
	data.Body = body
	return e.RenderLayout(w, status, data)
}

// RenderLayout writes the layout around data.Body.
func (e *Engine) RenderLayout(w http.ResponseWriter, status int, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, LayoutTemplate, data); err != nil {
		return fmt.Errorf("view: render layout: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func formatMoney(v any) string {
	switch m := v.(type) {
	case decimal.Decimal:
		return m.StringFixed(2)
	case *decimal.Decimal:
		if m == nil {
			return ""
		}
		return m.StringFixed(2)
	case string:
		d, err := decimal.NewFromString(m)
		if err != nil {
			return m
		}
		return d.StringFixed(2)
	case float64:
		return decimal.NewFromFloat(m).StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}
