// ABOUTME: Tests for the generic resource client and typed entity clients
// ABOUTME: Runs against the in-memory fake backend over a real HTTP listener
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/credentials"
	"github.com/harperreed/mbgctl/fakeapi"
	"github.com/harperreed/mbgctl/models"
)

type fixture struct {
	backend *fakeapi.Server
	store   *credentials.MemoryStore
	client  *api.Client
	set     *Set
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := fakeapi.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	store := credentials.NewMemoryStore()
	client, err := api.New(srv.URL+fakeapi.BasePath, store)
	require.NoError(t, err)

	data, err := client.Send(context.Background(), http.MethodPost, "/auth/login", nil,
		map[string]string{"email": fakeapi.DefaultEmail, "password": fakeapi.DefaultPassword})
	require.NoError(t, err)
	var resp struct {
		Data struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))
	require.NoError(t, store.Replace(credentials.Credential{
		AccessToken:  resp.Data.AccessToken,
		RefreshToken: resp.Data.RefreshToken,
	}))

	return &fixture{backend: backend, store: store, client: client, set: NewSet(client)}
}

// recordingSender captures calls without a network.
type recordingSender struct {
	mu     sync.Mutex
	calls  []sentCall
	answer []byte
	err    error
}

type sentCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

func (r *recordingSender) Send(_ context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sentCall{method, path, query, body})
	return r.answer, r.err
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := models.CreateSchoolRequest{
		Name:     "SDN 1 Bandung",
		Address:  "Jl. Merdeka 1",
		City:     "Bandung",
		District: "Sumur Bandung",
		Phone:    "022-123",
		Email:    "sdn1@example.id",
	}
	created, err := f.set.Schools.Create(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := f.set.Schools.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Name, got.Name)
	assert.Equal(t, req.Address, got.Address)
	assert.Equal(t, req.City, got.City)
	assert.Equal(t, req.District, got.District)
	assert.Equal(t, req.Phone, got.Phone)
	assert.Equal(t, req.Email, got.Email)
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.set.Suppliers.Create(ctx, models.CreateSupplierRequest{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, f.set.Suppliers.Delete(ctx, s.ID))

	_, err = f.set.Suppliers.Get(ctx, s.ID)
	assert.True(t, errors.Is(err, api.ErrNotFound))

	err = f.set.Suppliers.Delete(ctx, s.ID)
	assert.True(t, api.Absent(err))
}

func TestListEmptyCollection(t *testing.T) {
	f := newFixture(t)

	listing, err := f.set.Meals.List(context.Background(), WithPage(0, 10))
	require.NoError(t, err)
	assert.Empty(t, listing.Items)
	assert.Equal(t, int64(0), listing.TotalElements)
	assert.NotEmpty(t, listing.Raw)
}

func TestListPassesEnvelopeThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		_, err := f.set.Suppliers.Create(ctx, models.CreateSupplierRequest{Name: name})
		require.NoError(t, err)
	}

	listing, err := f.set.Suppliers.List(ctx, WithPage(1, 2))
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "c", listing.Items[0].Name)
	assert.Equal(t, int64(3), listing.TotalElements)
	assert.Equal(t, 2, listing.TotalPages)
	assert.Equal(t, &Page{Page: 1, Size: 2}, listing.Page)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(listing.Raw, &raw))
	assert.Equal(t, true, raw["success"])
	assert.Contains(t, raw["data"], "content")
}

func TestListDefaultsAndFilters(t *testing.T) {
	rs := &recordingSender{answer: []byte(`[]`)}
	students := NewStudents(rs)

	_, err := students.List(context.Background(), WithFilter("schoolId", "s1"))
	require.NoError(t, err)

	call := rs.calls[0]
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "/students", call.Path)
	assert.Equal(t, "0", call.Query.Get("page"))
	assert.Equal(t, "10", call.Query.Get("size"))
	assert.Equal(t, "s1", call.Query.Get("schoolId"))
}

func TestListRejectsInvalidPage(t *testing.T) {
	rs := &recordingSender{answer: []byte(`[]`)}
	schools := NewSchools(rs)

	_, err := schools.List(context.Background(), WithPage(-1, 10))
	assert.True(t, errors.Is(err, api.ErrValidation))
	_, err = schools.List(context.Background(), WithPage(0, 0))
	assert.True(t, errors.Is(err, api.ErrValidation))
	assert.Empty(t, rs.calls)
}

func TestEmptyIDRejectedLocally(t *testing.T) {
	rs := &recordingSender{}
	meals := NewMeals(rs)
	ctx := context.Background()

	_, err := meals.Get(ctx, "")
	assert.True(t, errors.Is(err, api.ErrValidation))
	_, err = meals.Update(ctx, " ", models.CreateMealRequest{SchoolID: "s"})
	assert.True(t, errors.Is(err, api.ErrValidation))
	err = meals.Delete(ctx, "")
	assert.True(t, errors.Is(err, api.ErrValidation))
	assert.Empty(t, rs.calls)
}

func TestMissingForeignKeyNeverSent(t *testing.T) {
	rs := &recordingSender{}
	ctx := context.Background()

	_, err := NewStudents(rs).Create(ctx, models.CreateStudentRequest{Name: "Ana"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, err = NewMeals(rs).Create(ctx, models.CreateMealRequest{Name: "Rice"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, err = NewMealPlans(rs).Create(ctx, models.CreateMealPlanRequest{StudentID: "st"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, err = NewOrders(rs).Update(ctx, "o1", models.CreateOrderRequest{Quantity: 1})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, err = NewBranches(rs, "")
	assert.True(t, errors.Is(err, api.ErrValidation))

	var missing *models.MissingFieldError
	_, err = NewStudents(rs).Create(ctx, models.CreateStudentRequest{Name: "Ana"})
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "schoolId", missing.Field)

	assert.Empty(t, rs.calls)
}

func TestBackendValidationPayloadPropagates(t *testing.T) {
	f := newFixture(t)

	_, err := f.set.Organizations.Create(context.Background(), models.CreateOrganizationRequest{Name: "No code"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrValidation))

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "must not be blank", apiErr.FieldErrors["code"])
	assert.Contains(t, string(apiErr.Body), `"validationErrors":{"code":"must not be blank"}`)
}

func TestOrganizationActivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.set.Organizations.Create(ctx, models.CreateOrganizationRequest{Name: "Yayasan", Code: "YYS"})
	require.NoError(t, err)
	assert.True(t, org.IsActive)

	org, err = f.set.Organizations.Deactivate(ctx, org.ID)
	require.NoError(t, err)
	assert.False(t, org.IsActive)

	org, err = f.set.Organizations.SetActive(ctx, org.ID, true)
	require.NoError(t, err)
	assert.True(t, org.IsActive)

	_, err = f.set.Organizations.Activate(ctx, "missing")
	assert.True(t, errors.Is(err, api.ErrNotFound))
}

func TestTransitionPath(t *testing.T) {
	rs := &recordingSender{answer: []byte(`{"success":true,"data":{"id":"o1","status":"CONFIRMED"}}`)}
	orders := NewOrders(rs)

	order, err := orders.UpdateStatus(context.Background(), "o1", models.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.Status)

	call := rs.calls[0]
	assert.Equal(t, http.MethodPut, call.Method)
	assert.Equal(t, "/orders/o1/status", call.Path)
	assert.Equal(t, "CONFIRMED", call.Query.Get("status"))

	_, err = orders.UpdateStatus(context.Background(), "o1", "LOST")
	assert.True(t, errors.Is(err, api.ErrValidation))
	assert.Len(t, rs.calls, 1)
}

func TestBranchesNestedUnderOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.set.Organizations.Create(ctx, models.CreateOrganizationRequest{Name: "Yayasan", Code: "YYS"})
	require.NoError(t, err)

	branches, err := f.set.Branches(org.ID)
	require.NoError(t, err)
	assert.False(t, branches.Paged())

	b, err := branches.Create(ctx, models.CreateBranchRequest{Name: "Pusat", Code: "HQ", IsHeadquarters: true})
	require.NoError(t, err)
	assert.Equal(t, org.ID, b.OrganizationID)

	listing, err := branches.List(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Nil(t, listing.Page)
	assert.True(t, listing.Items[0].IsHeadquarters)
}

func TestRequestsCarryCurrentToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.set.Schools.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+f.store.Get().AccessToken, f.backend.LastAuthorization())

	require.NoError(t, f.store.Clear())
	_, err = f.set.Schools.List(ctx)
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.Empty(t, f.backend.LastAuthorization())
}

func TestUpdateReplacesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.set.Announcements.Create(ctx, models.CreateAnnouncementRequest{Title: "Libur", Content: "Sekolah libur"})
	require.NoError(t, err)
	assert.Equal(t, fakeapi.DefaultEmail, a.CreatedBy)

	updated, err := f.set.Announcements.Update(ctx, a.ID, models.CreateAnnouncementRequest{Title: "Libur", Content: "Diundur"})
	require.NoError(t, err)
	assert.Equal(t, "Diundur", updated.Content)
	assert.Equal(t, a.CreatedAt, updated.CreatedAt)
}

func TestDecodeListingEnvelopes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		items int
		total int64
		pages int
	}{
		{"bare array", `[{"id":"1"},{"id":"2"}]`, 2, 2, 1},
		{"data array", `{"success":true,"data":[{"id":"1"}]}`, 1, 1, 1},
		{"spring page", `{"content":[{"id":"1"}],"totalElements":11,"totalPages":2}`, 1, 11, 2},
		{"wrapped spring page", `{"success":true,"data":{"content":[],"totalElements":0,"totalPages":0}}`, 0, 0, 0},
		{"items with meta", `{"items":[{"id":"1"}],"meta":{"total":30}}`, 1, 30, 3},
		{"unknown", `{"weird":true}`, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := DefaultPage()
			l, err := decodeListing[models.School]([]byte(tt.body), &page)
			require.NoError(t, err)
			assert.Len(t, l.Items, tt.items)
			assert.Equal(t, tt.total, l.TotalElements)
			assert.Equal(t, tt.pages, l.TotalPages)
			assert.Equal(t, tt.body, string(l.Raw))
		})
	}
}

func TestListItemDecodeErrorSurfaces(t *testing.T) {
	body := `{"content":[{"id":"s1","name":"Ani","age":"7"}],"totalElements":1}`
	rs := &recordingSender{answer: []byte(body)}

	listing, err := NewStudents(rs).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode list items")
	require.NotNil(t, listing)
	assert.Empty(t, listing.Items)
	assert.Equal(t, body, string(listing.Raw))

	_, err = NewStudents(rs).All(context.Background(), 10, 0)
	assert.Error(t, err)
}

func TestFieldFallsBackToEmbeddedID(t *testing.T) {
	obj := map[string]any{
		"id":       "o1",
		"supplier": map[string]any{"id": "sup1", "name": "Dapur Sehat"},
		"schoolId": "sch1",
	}
	assert.Equal(t, "sup1", Cell(Field(obj, "supplierId")))
	assert.Equal(t, "sch1", Cell(Field(obj, "schoolId")))
	assert.Equal(t, "-", Cell(Field(obj, "mealId")))
	assert.Nil(t, Field(nil, "id"))
}

func TestDynamicAdapter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.set.Dynamic(NameMeals, "")
	require.NoError(t, err)

	_, err = d.Create(ctx, json.RawMessage(`{"name":"Nasi"}`))
	assert.True(t, errors.Is(err, api.ErrValidation))

	created, err := d.Create(ctx, json.RawMessage(`{"name":"Nasi","schoolId":"sch-1"}`))
	require.NoError(t, err)
	var meal models.Meal
	require.NoError(t, json.Unmarshal(created, &meal))
	assert.Equal(t, "Nasi", meal.Name)

	got, err := d.Get(ctx, meal.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(created), string(got))

	listing, err := d.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listing.Items, 1)

	require.NoError(t, d.Delete(ctx, meal.ID))

	_, err = f.set.Dynamic("widgets", "")
	assert.True(t, errors.Is(err, api.ErrValidation))
	_, err = f.set.Dynamic(NameBranches, "")
	assert.True(t, errors.Is(err, api.ErrValidation))
}

func TestAllWalksPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := f.set.Schools.Create(ctx, models.CreateSchoolRequest{Name: "s"})
		require.NoError(t, err)
	}

	all, err := f.set.Schools.All(ctx, 3, 0)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	some, err := f.set.Schools.All(ctx, 3, 4)
	require.NoError(t, err)
	assert.Len(t, some, 4)
}
