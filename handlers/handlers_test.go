// ABOUTME: Tests for the MCP tool, resource, prompt, and graph handlers
// ABOUTME: Drives every handler against the in-process fake backend
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/credentials"
	"github.com/harperreed/mbgctl/fakeapi"
	"github.com/harperreed/mbgctl/models"
	"github.com/harperreed/mbgctl/resources"
	"github.com/harperreed/mbgctl/session"
)

type fixture struct {
	set      *resources.Set
	sessions *session.Manager
	entities *EntityHandlers
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := fakeapi.NewTestEnv(t)
	set := resources.NewSet(env.Client)
	mgr := session.NewManager(env.Client, session.WithPath(""))
	return &fixture{set: set, sessions: mgr, entities: NewEntityHandlers(set, mgr)}
}

func TestEntityLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, created, err := f.entities.CreateResource(ctx, nil, CreateResourceInput{
		Resource: "schools",
		Data:     map[string]any{"name": "SDN Cibaduyut", "city": "Bandung"},
	})
	require.NoError(t, err)
	id, _ := created.Entity["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "schools", created.Resource)

	_, got, err := f.entities.GetResource(ctx, nil, GetResourceInput{Resource: "schools", ID: id})
	require.NoError(t, err)
	assert.Equal(t, "SDN Cibaduyut", got.Entity["name"])

	_, updated, err := f.entities.UpdateResource(ctx, nil, UpdateResourceInput{
		Resource: "schools",
		ID:       id,
		Data:     map[string]any{"name": "SDN Cibaduyut 2", "city": "Bandung"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SDN Cibaduyut 2", updated.Entity["name"])

	_, list, err := f.entities.ListResources(ctx, nil, ListResourcesInput{Resource: "schools"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.EqualValues(t, 1, list.TotalElements)
	assert.Equal(t, resources.DefaultPageSize, list.Size)

	_, del, err := f.entities.DeleteResource(ctx, nil, DeleteResourceInput{Resource: "schools", ID: id})
	require.NoError(t, err)
	assert.False(t, del.AlreadyAbsent)

	_, del, err = f.entities.DeleteResource(ctx, nil, DeleteResourceInput{Resource: "schools", ID: id})
	require.NoError(t, err)
	assert.True(t, del.AlreadyAbsent)

	_, _, err = f.entities.GetResource(ctx, nil, GetResourceInput{Resource: "schools", ID: id})
	assert.True(t, api.IsNotFound(err))
}

func TestEntityToolsRejectBadInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.entities.ListResources(ctx, nil, ListResourcesInput{})
	assert.Error(t, err)

	_, _, err = f.entities.ListResources(ctx, nil, ListResourcesInput{Resource: "contacts"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, _, err = f.entities.ListResources(ctx, nil, ListResourcesInput{Resource: "branches"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, _, err = f.entities.GetResource(ctx, nil, GetResourceInput{Resource: "schools"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, _, err = f.entities.CreateResource(ctx, nil, CreateResourceInput{
		Resource: "students",
		Data:     map[string]any{"name": "Budi"},
	})
	assert.True(t, errors.Is(err, api.ErrValidation))
}

func TestListFiltersAndBranches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	org, err := f.set.Organizations.Create(ctx, models.CreateOrganizationRequest{Name: "Yayasan", Code: "YY"})
	require.NoError(t, err)

	_, _, err = f.entities.CreateResource(ctx, nil, CreateResourceInput{
		Resource:       "branches",
		OrganizationID: org.ID,
		Data:           map[string]any{"name": "Pusat", "code": "HQ", "isHeadquarters": true},
	})
	require.NoError(t, err)

	_, list, err := f.entities.ListResources(ctx, nil, ListResourcesInput{Resource: "branches", OrganizationID: org.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, org.ID, list.Items[0]["organizationId"])

	a, err := f.set.Schools.Create(ctx, models.CreateSchoolRequest{Name: "A"})
	require.NoError(t, err)
	b, err := f.set.Schools.Create(ctx, models.CreateSchoolRequest{Name: "B"})
	require.NoError(t, err)
	_, err = f.set.Students.Create(ctx, models.CreateStudentRequest{Name: "Siti", SchoolID: a.ID})
	require.NoError(t, err)
	_, err = f.set.Students.Create(ctx, models.CreateStudentRequest{Name: "Andi", SchoolID: b.ID})
	require.NoError(t, err)

	_, list, err = f.entities.ListResources(ctx, nil, ListResourcesInput{
		Resource: "students",
		Filters:  map[string]string{"schoolId": a.ID},
	})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Siti", list.Items[0]["name"])
}

func TestTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	org, err := f.set.Organizations.Create(ctx, models.CreateOrganizationRequest{Name: "Yayasan", Code: "YY"})
	require.NoError(t, err)

	_, out, err := f.entities.SetOrganizationActive(ctx, nil, SetOrganizationActiveInput{OrganizationID: org.ID, Active: false})
	require.NoError(t, err)
	assert.False(t, out.IsActive)

	supplier, err := f.set.Suppliers.Create(ctx, models.CreateSupplierRequest{Name: "Dapur"})
	require.NoError(t, err)
	order, err := f.set.Orders.Create(ctx, models.CreateOrderRequest{SupplierID: supplier.ID, Quantity: 10})
	require.NoError(t, err)

	_, updated, err := f.entities.UpdateOrderStatus(ctx, nil, UpdateOrderStatusInput{OrderID: order.ID, Status: "delivered"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.Status)

	_, _, err = f.entities.UpdateOrderStatus(ctx, nil, UpdateOrderStatusInput{OrderID: order.ID, Status: "LOST"})
	assert.True(t, errors.Is(err, api.ErrValidation))
}

func TestWhoAmI(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, out, err := f.entities.WhoAmI(ctx, nil, WhoAmIInput{})
	require.NoError(t, err)
	assert.False(t, out.LoggedIn)

	_, err = f.sessions.Login(ctx, fakeapi.DefaultEmail, fakeapi.DefaultPassword)
	require.NoError(t, err)

	_, out, err = f.entities.WhoAmI(ctx, nil, WhoAmIInput{})
	require.NoError(t, err)
	assert.True(t, out.LoggedIn)
	require.NotNil(t, out.User)
	assert.Equal(t, fakeapi.DefaultEmail, out.User.Email)
}

func readURI(t *testing.T, h *ResourceHandlers, uri string) string {
	t.Helper()
	res, err := h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, uri, res.Contents[0].URI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	return res.Contents[0].Text
}

func TestReadResource(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h := NewResourceHandlers(f.set, f.sessions)

	sdn, err := f.set.Schools.Create(ctx, models.CreateSchoolRequest{Name: "SDN 5"})
	require.NoError(t, err)

	var collection struct {
		Resource      string            `json:"resource"`
		Items         []json.RawMessage `json:"items"`
		TotalElements int64             `json:"total_elements"`
	}
	require.NoError(t, json.Unmarshal([]byte(readURI(t, h, "mbg://schools")), &collection))
	assert.Equal(t, "schools", collection.Resource)
	assert.Len(t, collection.Items, 1)
	assert.EqualValues(t, 1, collection.TotalElements)

	var school models.School
	require.NoError(t, json.Unmarshal([]byte(readURI(t, h, "mbg://schools/"+sdn.ID)), &school))
	assert.Equal(t, "SDN 5", school.Name)

	org, err := f.set.Organizations.Create(ctx, models.CreateOrganizationRequest{Name: "Yayasan", Code: "YY"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(readURI(t, h, "mbg://organizations/"+org.ID+"/branches")), &collection))
	assert.Equal(t, "branches", collection.Resource)
	assert.Empty(t, collection.Items)

	var sess map[string]any
	require.NoError(t, json.Unmarshal([]byte(readURI(t, h, SessionURI)), &sess))
	assert.Equal(t, false, sess["logged_in"])

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://contacts"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "mbg://contacts"}})
	assert.Error(t, err)
}

func getPrompt(h *PromptHandlers, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	return h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: name, Arguments: args},
	})
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestPrompts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h := NewPromptHandlers(f.set)

	org, err := f.set.Organizations.Create(ctx, models.CreateOrganizationRequest{Name: "Yayasan Gizi", Code: "YG", MaxBranches: 3})
	require.NoError(t, err)
	branches, err := f.set.Branches(org.ID)
	require.NoError(t, err)
	_, err = branches.Create(ctx, models.CreateBranchRequest{Name: "Cabang Garut", Code: "GRT", IsHeadquarters: true})
	require.NoError(t, err)

	res, err := getPrompt(h, "organization-overview", map[string]string{"organization_id": org.ID})
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, "Yayasan Gizi (YG)")
	assert.Contains(t, text, "Branches: 1 of 3 allowed")
	assert.Contains(t, text, "Cabang Garut (GRT) [HQ]")

	school, err := f.set.Schools.Create(ctx, models.CreateSchoolRequest{Name: "SDN Garut"})
	require.NoError(t, err)
	student, err := f.set.Students.Create(ctx, models.CreateStudentRequest{Name: "Rina", Grade: "4", SchoolID: school.ID})
	require.NoError(t, err)
	_, err = f.set.Students.Create(ctx, models.CreateStudentRequest{Name: "Dedi", SchoolID: school.ID})
	require.NoError(t, err)
	meal, err := f.set.Meals.Create(ctx, models.CreateMealRequest{Name: "Nasi Sayur", SchoolID: school.ID})
	require.NoError(t, err)
	_, err = f.set.MealPlans.Create(ctx, models.CreateMealPlanRequest{StudentID: student.ID, MealID: meal.ID})
	require.NoError(t, err)

	res, err = getPrompt(h, "school-roster", map[string]string{"school_id": school.ID})
	require.NoError(t, err)
	text = promptText(t, res)
	assert.Contains(t, text, "Students: 2")
	assert.Contains(t, text, "Rina (grade 4): 1 meal plan(s)")
	assert.Contains(t, text, "Students without a meal plan: 1")

	res, err = getPrompt(h, "order-pipeline", nil)
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), "PENDING: 0 orders")

	_, err = getPrompt(h, "school-roster", nil)
	assert.Error(t, err)
	_, err = getPrompt(h, "contact-summary", nil)
	assert.Error(t, err)

	assert.Len(t, Prompts(), 3)
}

func TestGenerateGraph(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h := NewVizHandlers(f.set)

	_, err := f.set.Organizations.Create(ctx, models.CreateOrganizationRequest{Name: "Yayasan", Code: "YY"})
	require.NoError(t, err)

	_, out, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "organizations"})
	require.NoError(t, err)
	assert.Equal(t, "organizations", out.GraphType)
	assert.Contains(t, out.DOTSource, "Yayasan")

	_, out, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "orders"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.DOTSource)

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{})
	assert.Error(t, err)
	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline"})
	assert.Error(t, err)
}

func TestUpdateWithNoContentResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, credentials.NewMemoryStore())
	require.NoError(t, err)
	h := NewEntityHandlers(resources.NewSet(client), nil)

	_, out, err := h.UpdateResource(context.Background(), nil, UpdateResourceInput{
		Resource: "schools",
		ID:       "s1",
		Data:     map[string]any{"name": "SDN Cibaduyut"},
	})
	require.NoError(t, err)
	assert.Equal(t, "schools", out.Resource)
	assert.Empty(t, out.Entity)
}

func TestDocumentReviewTools(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	doc, err := f.set.Documents.Create(ctx, models.SubmitDocumentRequest{
		Title:        "Sertifikat Halal",
		DocumentType: "CERTIFICATE",
		DocumentURL:  "https://files.mbg.local/halal.pdf",
	})
	require.NoError(t, err)

	_, _, err = f.entities.ReviewDocument(ctx, nil, ReviewDocumentInput{DocumentID: doc.ID, Decision: "reject"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, _, err = f.entities.ReviewDocument(ctx, nil, ReviewDocumentInput{DocumentID: doc.ID, Decision: "defer"})
	assert.True(t, errors.Is(err, api.ErrValidation))

	_, reviewed, err := f.entities.ReviewDocument(ctx, nil, ReviewDocumentInput{DocumentID: doc.ID, Decision: "Reject", Reason: "scan unreadable"})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentRejected, reviewed.Status)
	assert.Equal(t, "scan unreadable", reviewed.RejectionReason)

	_, stats, err := f.entities.DocumentStats(ctx, nil, DocumentStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RejectedDocuments)
	assert.Equal(t, int64(0), stats.PendingDocuments)
}

func TestGetProfileTool(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.entities.GetProfile(ctx, nil, GetProfileInput{})
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = f.sessions.Login(ctx, fakeapi.DefaultEmail, fakeapi.DefaultPassword)
	require.NoError(t, err)

	_, user, err := f.entities.GetProfile(ctx, nil, GetProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, fakeapi.DefaultEmail, user.Email)
	assert.Equal(t, "SUPER_ADMIN", user.Role)
}
