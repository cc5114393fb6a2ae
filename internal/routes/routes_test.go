package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/routes"
)

func TestTablePatternsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range routes.Table() {
		require.False(t, seen[d.Pattern], "duplicate pattern %s", d.Pattern)
		seen[d.Pattern] = true
	}
}

func TestDashboardPathsAreNeverPublic(t *testing.T) {
	for _, d := range routes.Table() {
		if strings.HasPrefix(d.Pattern, routes.PrivatePrefix) {
			assert.NotEqual(t, routes.KindPublic, d.Kind(), d.Pattern)
		}
	}
}

func TestRoleRestrictionsOnlyNameKnownRoles(t *testing.T) {
	for _, d := range routes.Table() {
		for _, role := range d.Roles {
			assert.True(t, role.Valid(), "%s lists %s", d.Pattern, role)
		}
		if d.Public {
			assert.False(t, d.RequiresContract, d.Pattern)
		}
	}
}

func TestAgenciesRestrictedToPlatformAdmins(t *testing.T) {
	d := routes.MustLookup(routes.PathAgencies)
	assert.Equal(t, routes.KindGuardedRoles, d.Kind())
	assert.True(t, d.Allows(identity.RoleSuperAdmin))
	assert.True(t, d.Allows(identity.RoleSuperAgencyAdmin))
	assert.False(t, d.Allows(identity.RoleBranchUser))
}

func TestMatchResolvesParameters(t *testing.T) {
	d, ok := routes.Match("/dashboard/customers/42")
	require.True(t, ok)
	assert.Equal(t, routes.PathCustomer, d.Pattern)

	d, ok = routes.Match("/dashboard/sales/new")
	require.True(t, ok)
	assert.Equal(t, routes.PathSaleNew, d.Pattern)

	_, ok = routes.Match("/nowhere")
	assert.False(t, ok)
}

func TestPublicPathsIncludeRoot(t *testing.T) {
	paths := routes.PublicPaths()
	assert.Contains(t, paths, routes.PathHome)
	assert.Contains(t, paths, routes.PathLogin)
	assert.NotContains(t, paths, routes.PathDashboard)
}

func TestNotFoundRedirectsHome(t *testing.T) {
	rec := httptest.NewRecorder()
	routes.NotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestExpandFillsParameters(t *testing.T) {
	assert.Equal(t, "/dashboard/sales/42", routes.Expand(routes.PathSale, "42"))
	assert.Equal(t, "/dashboard/support/files/a%2Fb", routes.Expand(routes.PathSupportFileView, "a/b"))
	assert.Equal(t, routes.PathSales, routes.Expand(routes.PathSales, "ignored"))
}
