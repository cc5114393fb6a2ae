package theme_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/theme"
)

func newResolver(t *testing.T) (*theme.Resolver, *theme.RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := theme.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return theme.NewResolver(theme.DefaultClassifier(), store, nil, nil, false), store
}

func resolve(rv *theme.Resolver, req *http.Request) (theme.State, *httptest.ResponseRecorder) {
	var got theme.State
	h := rv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = theme.FromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec
}

func TestMiddlewareReadsClientHintOnPrivatePaths(t *testing.T) {
	rv, _ := newResolver(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard/support", nil)
	req.Header.Set(theme.ClientHintHeader, `"dark"`)

	state, rec := resolve(rv, req)
	assert.Equal(t, theme.Dark, state.Resolved)
	assert.Equal(t, theme.PreferenceSystem, state.Preference)
	assert.Equal(t, theme.ClientHintHeader, rec.Header().Get("Accept-CH"))
	assert.Contains(t, rec.Header().Values("Vary"), theme.ClientHintHeader)
}

func TestMiddlewarePublicPathIgnoresEverything(t *testing.T) {
	rv, _ := newResolver(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(theme.ClientHintHeader, "dark")
	req.AddCookie(&http.Cookie{Name: theme.CookieName, Value: "dark"})

	state, _ := resolve(rv, req)
	assert.Equal(t, theme.Light, state.Resolved)
	assert.True(t, state.Public)
}

func TestMiddlewarePrefersStoredPrincipalPreference(t *testing.T) {
	rv, store := newResolver(t)
	require.NoError(t, store.Set(context.Background(), "u-1", theme.PreferenceDark))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: theme.CookieName, Value: "light"})
	ctx := identity.ContextWithResolution(req.Context(), identity.Authenticated(identity.Principal{ID: "u-1", Role: identity.RoleBranchUser}))

	state, _ := resolve(rv, req.WithContext(ctx))
	assert.Equal(t, theme.PreferenceDark, state.Preference)
	assert.Equal(t, theme.Dark, state.Resolved)
}

func TestHandlerPersistsPreference(t *testing.T) {
	rv, store := newResolver(t)
	form := url.Values{theme.FormField: {"dark"}, "return": {"/dashboard/sales"}}
	req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx := identity.ContextWithResolution(req.Context(), identity.Authenticated(identity.Principal{ID: "u-2", Role: identity.RoleAgencyAdmin}))
	rec := httptest.NewRecorder()

	rv.Handler(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/sales", rec.Header().Get("Location"))
	pref, found, err := store.Get(context.Background(), "u-2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, theme.PreferenceDark, pref)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "dark", cookies[0].Value)
}

func TestHandlerRejectsOpenRedirect(t *testing.T) {
	rv, _ := newResolver(t)
	form := url.Values{theme.FormField: {"light"}, "return": {"//evil.example"}}
	req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	rv.Handler(rec, req)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHandlerRejectsUnknownPreference(t *testing.T) {
	rv, _ := newResolver(t)
	form := url.Values{theme.FormField: {"sepia"}}
	req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	rv.Handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
