package theme

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/platform/httpx"
)

const (
	// CookieName holds the preference of visitors without a principal.
	CookieName = "theme"
	// ClientHintHeader carries the OS color scheme.
	ClientHintHeader = "Sec-CH-Prefers-Color-Scheme"
	// FormField is the field posted by the theme toggle.
	FormField = "theme"

	cookieMaxAge = 365 * 24 * time.Hour
)

// State is the theme information attached to a request.
type State struct {
	Preference Preference
	Resolved   Resolved
	Public     bool
}

// Dark reports whether the dark mode is in effect.
func (s State) Dark() bool { return s.Resolved == Dark }

type stateContextKey struct{}

// WithState stores s in ctx.
func WithState(ctx context.Context, s State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, s)
}

// FromContext returns the request theme, defaulting to light.
func FromContext(ctx context.Context) State {
	if s, ok := ctx.Value(stateContextKey{}).(State); ok {
		return s
	}
	return State{Preference: PreferenceSystem, Resolved: Light}
}

// Resolver wires the classifier and preference store into HTTP.
type Resolver struct {
	classifier Classifier
	store      PreferenceStore
	metrics    *observability.Metrics
	logger     *slog.Logger
	secure     bool
}

// NewResolver constructs a Resolver. store may be nil, in which case only the
// cookie is used.
func NewResolver(classifier Classifier, store PreferenceStore, metrics *observability.Metrics, logger *slog.Logger, secureCookie bool) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{classifier: classifier, store: store, metrics: metrics, logger: logger, secure: secureCookie}
}

// Middleware re-resolves the theme for every request.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-CH", ClientHintHeader)
		w.Header().Add("Vary", ClientHintHeader)

		state := rv.StateFor(r)
		rv.metrics.ThemeResolution(string(state.Preference), string(state.Resolved))
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), state)))
	})
}

// StateFor computes the theme state of r.
func (rv *Resolver) StateFor(r *http.Request) State {
	pref := rv.preference(r)
	public := rv.classifier.IsPublic(r.URL.Path)
	osDark := false
	if pref == PreferenceSystem && !public {
		osDark = strings.EqualFold(strings.Trim(r.Header.Get(ClientHintHeader), `" `), "dark")
	}
	return State{
		Preference: pref,
		Resolved:   rv.classifier.Resolve(pref, r.URL.Path, osDark),
		Public:     public,
	}
}

// Handler stores a new preference posted by the theme toggle.
func (rv *Resolver) Handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	pref, err := ParsePreference(r.PostFormValue(FormField))
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(pref),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   rv.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if p, ok := identity.PrincipalFromContext(r.Context()); ok && rv.store != nil {
		if err := rv.store.Set(r.Context(), p.ID, pref); err != nil {
			rv.logger.Error("store theme preference", slog.String("principal_id", p.ID), slog.Any("error", err))
		}
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"preference": string(pref)})
		return
	}
	http.Redirect(w, r, safeReturn(r.PostFormValue("return")), http.StatusSeeOther)
}

func (rv *Resolver) preference(r *http.Request) Preference {
	if p, ok := identity.PrincipalFromContext(r.Context()); ok && rv.store != nil {
		pref, found, err := rv.store.Get(r.Context(), p.ID)
		if err != nil {
			rv.logger.Warn("load theme preference", slog.String("principal_id", p.ID), slog.Any("error", err))
		} else if found {
			return pref
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		if pref, err := ParsePreference(c.Value); err == nil {
			return pref
		}
	}
	return PreferenceSystem
}

func safeReturn(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
