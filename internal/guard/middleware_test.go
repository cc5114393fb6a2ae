package guard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roadassist/portal/internal/guard"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/routes"
)

func serve(t *testing.T, d routes.Descriptor, req *http.Request, res identity.Resolution) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	reached := false
	g := guard.New(nil, observability.NewMetrics(), nil)
	h := g.Protect(d)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	req = req.WithContext(identity.ContextWithResolution(req.Context(), res))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

func TestProtectRedirectsBrowsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/agencies", nil)
	rec, reached := serve(t, routes.MustLookup(routes.PathAgencies), req, principal(identity.RoleBranchUser, true))
	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestProtectAnswersProblemsToJSONCallers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/sales/new", nil)
	req.Header.Set("Accept", "application/json")
	rec, _ := serve(t, routes.MustLookup(routes.PathSaleNew), req, identity.Anonymous())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"location":"/login"`)

	req = httptest.NewRequest(http.MethodGet, "/dashboard/agencies", nil)
	req.Header.Set("Accept", "application/json")
	rec, _ = serve(t, routes.MustLookup(routes.PathAgencies), req, principal(identity.RoleBranchUser, true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProtectHTMXRedirect(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/sales", nil)
	req.Header.Set("HX-Request", "true")
	rec, _ := serve(t, routes.MustLookup(routes.PathSales), req, principal(identity.RoleBranchUser, false))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/contract", rec.Header().Get("HX-Redirect"))
}

func TestProtectRendersLoadingWhileUnresolved(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec, reached := serve(t, routes.MustLookup(routes.PathDashboard), req, identity.Unresolved())
	assert.False(t, reached)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestProtectDiscardsStaleDecision(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/agencies", nil).WithContext(ctx)
	rec, reached := serve(t, routes.MustLookup(routes.PathAgencies), req, identity.Anonymous())
	assert.False(t, reached)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Equal(t, 0, rec.Body.Len())
}

func TestProtectAllowsMatchingRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/agencies", nil)
	rec, reached := serve(t, routes.MustLookup(routes.PathAgencies), req, principal(identity.RoleSuperAdmin, true))
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}
