package shell_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/navigation"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
	"github.com/roadassist/portal/internal/theme"
	"github.com/roadassist/portal/internal/view"
)

func newComposer(t *testing.T) *shell.Composer {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	return shell.NewComposer(engine, shared.NewCSRFManager("csrf"), navigation.DefaultPrimaryItems, nil)
}

func requestAs(path string, role identity.Role) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	p := identity.Principal{ID: "u", Name: "Rita", Surname: "Moss", Role: role, ContractAccepted: true}
	ctx := identity.ContextWithResolution(req.Context(), identity.Authenticated(p))
	ctx = theme.WithState(ctx, theme.State{Preference: theme.PreferenceDark, Resolved: theme.Dark})
	return req.WithContext(ctx)
}

func TestAdminShellProjectsForRole(t *testing.T) {
	c := newComposer(t)
	sh := c.Admin(requestAs("/dashboard/customers", identity.RoleBranchUser))
	assert.Equal(t, shell.VariantAdmin, sh.Variant)
	for _, e := range sh.Nav.Mobile {
		assert.True(t, e.Roles.Has(identity.RoleBranchUser))
		assert.Equal(t, e.Path == "/dashboard/customers", e.Active)
	}
	assert.Equal(t, theme.Dark, sh.Theme.Resolved)
}

func TestSupportShellHasExactlyThreeEntries(t *testing.T) {
	c := newComposer(t)
	sh := c.Support(requestAs("/dashboard/support", identity.RoleSupport))
	require.Len(t, sh.Nav.Mobile, 3)
	assert.Equal(t, navigation.SupportMenu()[0].Path, sh.Nav.Mobile[0].Path)
	assert.False(t, sh.Nav.HasOverflow())

	rec := httptest.NewRecorder()
	c.Render(rec, requestAs("/dashboard/support", identity.RoleSupport), shell.VariantSupport, shell.Page{
		Title: "Sales query", Template: "pages/support_query.html", Data: map[string]any{"Query": "", "Searched": false},
	})
	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	// Three inline entries plus the same three in the mobile sheet.
	assert.Equal(t, 6, strings.Count(body, "<li><a "))
	assert.Contains(t, body, "Create file")
	assert.NotContains(t, body, "Commissions")
}

func TestRenderKeepsShellOnPageFailure(t *testing.T) {
	c := newComposer(t)
	rec := httptest.NewRecorder()
	c.Render(rec, requestAs("/dashboard/sales", identity.RoleAgencyAdmin), shell.VariantAdmin, shell.Page{
		Title: "Sales", Template: "pages/resource_list.html", Err: shared.ErrUpstreamUnavailable,
	})
	body := rec.Body.String()
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body, `class="page-error"`)
	assert.Contains(t, body, "temporarily unavailable")
	assert.Contains(t, body, `href="/dashboard/sales"`)
	assert.Contains(t, body, "Sign out")
}

func TestRenderContainsTemplateErrors(t *testing.T) {
	c := newComposer(t)
	rec := httptest.NewRecorder()
	c.Render(rec, requestAs("/dashboard", identity.RoleAgencyAdmin), shell.VariantAdmin, shell.Page{
		Title: "Dashboard", Template: "pages/does_not_exist.html",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign out")
}

func TestLoadingNeverRedirects(t *testing.T) {
	c := newComposer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Loading(rec, req.WithContext(context.Background()))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "Loading")
}

func TestVariantFor(t *testing.T) {
	assert.Equal(t, shell.VariantSupport, shell.VariantFor(identity.RoleSupport))
	assert.Equal(t, shell.VariantAdmin, shell.VariantFor(identity.RoleBranchAdmin))
}
