package auth

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/roadassist/portal/internal/guard"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/routes"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
	"github.com/roadassist/portal/web"
)

// Login attempt results recorded on the login counter.
const (
	resultSuccess     = "success"
	resultInvalid     = "invalid_credentials"
	resultUnavailable = "network_error"
	resultBadInput    = "bad_input"
)

// SignedOutParam marks the login page reached through a logout.
const SignedOutParam = "signed_out"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	store     *identity.Store
	composer  *shell.Composer
	csrf      *shared.CSRFManager
	metrics   *observability.Metrics
	validator *validator.Validate
	terms     template.HTML
}

// NewHandler constructs a Handler instance. terms is the rendered contract.
func NewHandler(logger *slog.Logger, store *identity.Store, composer *shell.Composer, csrf *shared.CSRFManager, metrics *observability.Metrics, terms template.HTML) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		store:     store,
		composer:  composer,
		csrf:      csrf,
		metrics:   metrics,
		validator: validator.New(),
		terms:     terms,
	}
}

type loginForm struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=256"`
}

// LoginPageData feeds pages/login.html.
type LoginPageData struct {
	Email  string
	Error  string
	Notice string
}

// ContractPageData feeds pages/contract.html.
type ContractPageData struct {
	Terms    template.HTML
	Error    string
	Accepted bool
}

// ShowLogin renders the sign-in form. Signed-in visitors go to their landing route.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if p, ok := identity.PrincipalFromContext(r.Context()); ok {
		http.Redirect(w, r, guard.LandingPath(p.Role), http.StatusSeeOther)
		return
	}
	data := LoginPageData{}
	if r.URL.Query().Has(SignedOutParam) {
		data.Notice = "You have been signed out."
	}
	h.renderLogin(w, r, http.StatusOK, data)
}

// Login authenticates the posted credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := LoginPageData{Email: form.Email}

	if err := h.validator.Struct(form); err != nil {
		h.metrics.LoginAttempt(resultBadInput)
		data.Error = "Enter a valid email address and your password."
		h.renderLogin(w, r, http.StatusBadRequest, data)
		return
	}

	p, err := h.store.Login(r.Context(), sess, identity.Credentials{Email: form.Email, Password: form.Password})
	switch {
	case err == nil:
	case identity.IsAuthKind(err, identity.AuthNetworkError):
		h.metrics.LoginAttempt(resultUnavailable)
		h.logger.Warn("login backend unavailable", slog.Any("error", err))
		data.Error = shared.UserSafeMessage(shared.ErrUpstreamUnavailable)
		h.renderLogin(w, r, http.StatusServiceUnavailable, data)
		return
	case identity.IsAuthKind(err, identity.AuthInvalidCredentials):
		h.metrics.LoginAttempt(resultInvalid)
		data.Error = shared.UserSafeMessage(shared.ErrInvalidCredentials)
		h.renderLogin(w, r, http.StatusBadRequest, data)
		return
	default:
		h.logger.Error("login failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.metrics.LoginAttempt(resultSuccess)
	h.csrf.Rotate(sess)
	greeting := "Welcome back"
	if name := strings.TrimSpace(p.Name); name != "" {
		greeting += ", " + name
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: greeting + "."})
	http.Redirect(w, r, guard.LandingPath(p.Role), http.StatusSeeOther)
}

// Logout ends the session. It succeeds for anonymous visitors too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.store.Logout(r.Context(), sess); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	http.Redirect(w, r, routes.PathLogin+"?"+SignedOutParam+"=1", http.StatusSeeOther)
}

// ShowContract renders the agency contract inside the shell.
func (h *Handler) ShowContract(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.PrincipalFromContext(r.Context())
	h.renderContract(w, r, http.StatusOK, ContractPageData{Terms: h.terms, Accepted: p.ContractAccepted})
}

// AcceptContract records acceptance and forwards to the landing route.
func (h *Handler) AcceptContract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if r.PostFormValue("accept") != "yes" {
		h.renderContract(w, r, http.StatusBadRequest, ContractPageData{
			Terms: h.terms,
			Error: "Tick the box to confirm you accept the contract terms.",
		})
		return
	}

	sess := shared.SessionFromContext(r.Context())
	p, err := h.store.AcceptContract(r.Context(), sess)
	if err != nil {
		if errors.Is(err, identity.ErrRoleChanged) || errors.Is(err, identity.ErrNoSession) {
			http.Redirect(w, r, routes.PathLogin, http.StatusSeeOther)
			return
		}
		h.logger.Warn("accept contract", slog.Any("error", err))
		status := http.StatusBadGateway
		msg := shared.UserSafeMessage(shared.ErrUpstreamUnavailable)
		if errors.Is(err, identity.ErrInvalidToken) {
			status = http.StatusUnauthorized
			msg = "Your session has ended. Please sign in again."
		}
		h.renderContract(w, r, status, ContractPageData{Terms: h.terms, Error: msg})
		return
	}

	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Contract accepted."})
	http.Redirect(w, r, guard.LandingPath(p.Role), http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginPageData) {
	h.composer.Public(w, r, shell.Page{Title: "Sign in", Template: "pages/login.html", Data: data, Status: status})
}

func (h *Handler) renderContract(w http.ResponseWriter, r *http.Request, status int, data ContractPageData) {
	h.composer.RenderFor(w, r, shell.Page{Title: "Agency contract", Template: "pages/contract.html", Data: data, Status: status})
}

// RenderTerms converts contract markdown to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func RenderTerms(src []byte) (template.HTML, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Typographer))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("auth: render contract terms: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// LoadTerms reads the contract from path, or the bundled contract when path is empty.
func LoadTerms(path string) (template.HTML, error) {
	var (
		src []byte
		err error
	)
	if path == "" {
		src, err = fs.ReadFile(web.Content, "content/contract.md")
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("auth: read contract terms: %w", err)
	}
	return RenderTerms(src)
}
