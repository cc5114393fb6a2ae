package pages_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/guard"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/pages"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
	"github.com/roadassist/portal/internal/view"
)

type fakeBackend struct {
	mu      sync.Mutex
	lists   map[string]backend.ListResult
	records map[string]backend.Record
	listErr error
	getErr  error
	create  func(resource string, payload any) (backend.Record, error)
	created []any
	queries []backend.ListQuery
}

func (f *fakeBackend) List(_ context.Context, token, resource string, q backend.ListQuery) (backend.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return backend.ListResult{}, f.listErr
	}
	return f.lists[resource], nil
}

func (f *fakeBackend) Get(_ context.Context, token, resource, id string) (backend.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[resource+"/"+id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return rec, nil
}

func (f *fakeBackend) Create(_ context.Context, token, resource string, payload any) (backend.Record, error) {
	f.mu.Lock()
	f.created = append(f.created, payload)
	f.mu.Unlock()
	if f.create != nil {
		return f.create(resource, payload)
	}
	return backend.Record{"id": json.Number("99")}, nil
}

type fakeSessions struct {
	loggedOut bool
}

func (s *fakeSessions) Token(*shared.Session) string { return "token" }

func (s *fakeSessions) Logout(context.Context, *shared.Session) error {
	s.loggedOut = true
	return nil
}

type harness struct {
	router   chi.Router
	backend  *fakeBackend
	sessions *fakeSessions
	manager  *shared.SessionManager
	session  *shared.Session
}

func newHarness(t *testing.T, p identity.Principal) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := view.NewEngine()
	require.NoError(t, err)
	csrf := shared.NewCSRFManager("csrf")
	manager := shared.NewSessionManager(client, "portal_session", "secret", time.Hour, false)
	sess, err := manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	h := &harness{
		backend:  &fakeBackend{lists: map[string]backend.ListResult{}, records: map[string]backend.Record{}},
		sessions: &fakeSessions{},
		manager:  manager,
		session:  sess,
	}
	handler := pages.NewHandler(nil, h.backend, h.sessions, shell.NewComposer(engine, csrf, 0, nil), shared.NewIdempotencyStore(client, time.Hour))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), h.session)
			ctx = identity.ContextWithResolution(ctx, identity.Authenticated(p))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r, guard.New(nil, nil, nil))
	h.router = r
	return h
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
	return res
}

func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res
}

func agencyAdmin() identity.Principal {
	return identity.Principal{ID: "1", Name: "Lena", Role: identity.RoleAgencyAdmin, ContractAccepted: true}
}

func supportAgent() identity.Principal {
	return identity.Principal{ID: "2", Name: "Sam", Role: identity.RoleSupport}
}

func TestListRendersMoneyAndDetailLinks(t *testing.T) {
	h := newHarness(t, agencyAdmin())
	h.backend.lists["sales"] = backend.ListResult{Total: 60, Items: []backend.Record{
		{"id": json.Number("7"), "number": "S-0007", "customer_name": "Ann", "package_name": "Gold", "start_date": "2026-03-01", "total": json.Number("1234.5")},
	}}

	res := h.get("/dashboard/sales?page=2")

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, `<a href="/dashboard/sales/7">S-0007</a>`)
	assert.Contains(t, body, "1234.50")
	assert.Contains(t, body, "01 Mar 2026")
	assert.Contains(t, body, "Page 2 of 3")
	assert.Contains(t, body, `href="/dashboard/sales/new"`)
	require.Len(t, h.backend.queries, 1)
	assert.Equal(t, 2, h.backend.queries[0].Page)
}

func TestListFailureStaysInsideShell(t *testing.T) {
	h := newHarness(t, agencyAdmin())
	h.backend.listErr = shared.ErrUpstreamUnavailable

	res := h.get("/dashboard/customers")

	assert.Equal(t, http.StatusBadGateway, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "temporarily unavailable")
	assert.Contains(t, body, `href="/dashboard/sales"`)
}

func TestRejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t, agencyAdmin())
	h.backend.listErr = backend.ErrUnauthorized

	res := h.get("/dashboard/customers")

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
	assert.True(t, h.sessions.loggedOut)
}

func TestDetailNotFound(t *testing.T) {
	h := newHarness(t, agencyAdmin())

	res := h.get("/dashboard/customers/404")

	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), "could not be found")
}

func TestDetailRendersFields(t *testing.T) {
	h := newHarness(t, agencyAdmin())
	h.backend.records["vehicles/3"] = backend.Record{"id": json.Number("3"), "plate": "AB123CD", "brand": "Fiat", "year": json.Number("2019")}

	res := h.get("/dashboard/vehicles/3")

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<h1>Vehicle 3</h1>")
	assert.Contains(t, res.Body.String(), "<dd>AB123CD</dd>")
}

func TestDashboardCountsVisibleCollections(t *testing.T) {
	h := newHarness(t, identity.Principal{ID: "3", Name: "Bo", Role: identity.RoleBranchUser, ContractAccepted: true})
	h.backend.lists["sales"] = backend.ListResult{Total: 12}
	h.backend.lists["customers"] = backend.ListResult{Total: 5}
	h.backend.lists["tickets"] = backend.ListResult{Total: 1}

	res := h.get("/dashboard")

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Welcome, Bo")
	assert.Contains(t, body, `<span class="card-value">12</span>`)
	assert.NotContains(t, body, `href="/dashboard/payments"><span`)
}

func TestRoleMismatchRedirectsToLanding(t *testing.T) {
	h := newHarness(t, supportAgent())

	res := h.get("/dashboard/customers")

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard/support", res.Header().Get("Location"))
}

func TestCreateSaleValidates(t *testing.T) {
	h := newHarness(t, agencyAdmin())
	h.backend.lists["packages"] = backend.ListResult{Items: []backend.Record{{"id": json.Number("1"), "name": "Gold"}}}

	res := h.post("/dashboard/sales/new", url.Values{
		"customer_document": {"30111222"},
		"vehicle_plate":     {"AB 123 CD"},
		"package_id":        {"1"},
		"start_date":        {"01/03/2026"},
		"price":             {"-4"},
		"idempotency_key":   {"k1"},
	})

	assert.Equal(t, http.StatusBadRequest, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Enter a date as YYYY-MM-DD.")
	assert.Contains(t, body, "Enter a positive amount")
	assert.Contains(t, body, `value="AB123CD"`)
	assert.Empty(t, h.backend.created)
}

func TestCreateSaleIsIdempotent(t *testing.T) {
	h := newHarness(t, agencyAdmin())
	h.backend.lists["packages"] = backend.ListResult{Items: []backend.Record{{"id": json.Number("1"), "name": "Gold"}}}
	form := url.Values{
		"customer_document": {"30111222"},
		"vehicle_plate":     {"AB123CD"},
		"package_id":        {"1"},
		"start_date":        {"2026-03-01"},
		"price":             {"129.9"},
		"idempotency_key":   {"same-key"},
	}

	first := h.post("/dashboard/sales/new", form)
	second := h.post("/dashboard/sales/new", form)

	assert.Equal(t, http.StatusSeeOther, first.Code)
	assert.Equal(t, "/dashboard/sales/99", first.Header().Get("Location"))
	assert.Equal(t, http.StatusSeeOther, second.Code)
	assert.Equal(t, "/dashboard/sales", second.Header().Get("Location"))
	require.Len(t, h.backend.created, 1)
	raw, err := json.Marshal(h.backend.created[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":"129.9"`)
}

func TestCreateSaleReleasesKeyOnFailure(t *testing.T) {
	h := newHarness(t, agencyAdmin())
	h.backend.lists["packages"] = backend.ListResult{Items: []backend.Record{{"id": json.Number("1"), "name": "Gold"}}}
	calls := 0
	h.backend.create = func(string, any) (backend.Record, error) {
		calls++
		if calls == 1 {
			return nil, &backend.ValidationError{Message: "Vehicle already covered", Fields: map[string]string{"vehicle_plate": "Active plan exists"}}
		}
		return backend.Record{"id": json.Number("5")}, nil
	}
	form := url.Values{
		"customer_document": {"30111222"},
		"vehicle_plate":     {"AB123CD"},
		"package_id":        {"1"},
		"start_date":        {"2026-03-01"},
		"price":             {"99"},
		"idempotency_key":   {"retry-key"},
	}

	first := h.post("/dashboard/sales/new", form)
	assert.Equal(t, http.StatusUnprocessableEntity, first.Code)
	assert.Contains(t, first.Body.String(), "Active plan exists")

	second := h.post("/dashboard/sales/new", form)
	assert.Equal(t, http.StatusSeeOther, second.Code)
}

func TestSupportQuery(t *testing.T) {
	h := newHarness(t, supportAgent())
	h.backend.lists["sales"] = backend.ListResult{Items: []backend.Record{{"id": json.Number("1"), "number": "S-1", "vehicle_plate": "AB123CD"}}}

	res := h.get("/dashboard/support?q=AB123CD")

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "<td>S-1</td>")
	assert.NotContains(t, body, `href="/dashboard/sales/1"`)
	require.Len(t, h.backend.queries, 1)
	assert.Equal(t, "AB123CD", h.backend.queries[0].Search)
}

func TestSupportQueryWithoutTermSkipsBackend(t *testing.T) {
	h := newHarness(t, supportAgent())

	res := h.get("/dashboard/support")

	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, h.backend.queries)
}

func TestCreateFile(t *testing.T) {
	h := newHarness(t, supportAgent())

	bad := h.post("/dashboard/support/files/new", url.Values{"plate": {""}, "priority": {"whenever"}, "idempotency_key": {"f1"}})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, bad.Body.String(), "Choose one of the listed options.")

	ok := h.post("/dashboard/support/files/new", url.Values{
		"plate": {"ab123cd"}, "priority": {"urgent"}, "description": {"Flat tyre on the highway"}, "idempotency_key": {"f2"},
	})
	assert.Equal(t, http.StatusSeeOther, ok.Code)
	assert.Equal(t, "/dashboard/support/files/99", ok.Header().Get("Location"))
	flash := h.session.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "File created.", flash.Message)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "10.00", pages.FormatValue(json.Number("10"), pages.KindMoney))
	assert.Equal(t, "0.30", pages.FormatValue(json.Number("0.299999"), pages.KindMoney))
	assert.Equal(t, "Yes", pages.FormatValue(true, pages.KindBool))
	assert.Equal(t, "-", pages.FormatValue(nil, pages.KindText))
	assert.Equal(t, "not a date", pages.FormatValue("not a date", pages.KindDate))
	assert.Equal(t, "05 Jan 2026", pages.FormatValue("2026-01-05T10:00:00Z", pages.KindDate))
}

func TestFormatValueFallsBackForUnparsableMoney(t *testing.T) {
	assert.Equal(t, "n/a", pages.FormatValue("n/a", pages.KindMoney))
}
