// ABOUTME: Resource MCP tool handlers
// ABOUTME: Implements list/get/create/update/delete over every MBG collection plus transitions, document review and profile
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/models"
	"github.com/harperreed/mbgctl/resources"
	"github.com/harperreed/mbgctl/session"
)

type EntityHandlers struct {
	set      *resources.Set
	sessions *session.Manager
}

func NewEntityHandlers(set *resources.Set, sessions *session.Manager) *EntityHandlers {
	return &EntityHandlers{set: set, sessions: sessions}
}

const resourceHelp = "Resource name: organizations, branches, schools, students, meals, meal-plans, orders, suppliers, announcements, documents"

type ListResourcesInput struct {
	Resource       string            `json:"resource" jsonschema:"Resource name: organizations, branches, schools, students, meals, meal-plans, orders, suppliers, announcements, documents"`
	OrganizationID string            `json:"organization_id,omitempty" jsonschema:"Parent organization ID (required for branches)"`
	Page           int               `json:"page,omitempty" jsonschema:"Page number, 0-indexed (default 0)"`
	Size           int               `json:"size,omitempty" jsonschema:"Page size (default 10)"`
	Filters        map[string]string `json:"filters,omitempty" jsonschema:"Extra query parameters passed to the backend, e.g. schoolId"`
}

type ListResourcesOutput struct {
	Resource      string           `json:"resource"`
	Items         []map[string]any `json:"items"`
	TotalElements int64            `json:"total_elements"`
	TotalPages    int              `json:"total_pages"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
}

func (h *EntityHandlers) ListResources(ctx context.Context, request *mcp.CallToolRequest, input ListResourcesInput) (*mcp.CallToolResult, ListResourcesOutput, error) {
	d, err := h.dynamic(input.Resource, input.OrganizationID)
	if err != nil {
		return nil, ListResourcesOutput{}, err
	}

	size := input.Size
	if size == 0 {
		size = resources.DefaultPageSize
	}
	opts := []resources.ListOption{resources.WithPage(input.Page, size)}
	for k, v := range input.Filters {
		opts = append(opts, resources.WithFilter(k, v))
	}

	listing, err := d.List(ctx, opts...)
	if err != nil {
		return nil, ListResourcesOutput{}, fmt.Errorf("failed to list %s: %w", input.Resource, err)
	}

	out := ListResourcesOutput{
		Resource:      d.Name(),
		Items:         make([]map[string]any, 0, len(listing.Items)),
		TotalElements: listing.TotalElements,
		TotalPages:    listing.TotalPages,
	}
	if listing.Page != nil {
		out.Page = listing.Page.Page
		out.Size = listing.Page.Size
	}
	for _, raw := range listing.Items {
		obj, err := toObject(raw)
		if err != nil {
			return nil, ListResourcesOutput{}, err
		}
		out.Items = append(out.Items, obj)
	}
	return nil, out, nil
}

type GetResourceInput struct {
	Resource       string `json:"resource" jsonschema:"Resource name"`
	ID             string `json:"id" jsonschema:"Entity ID (required)"`
	OrganizationID string `json:"organization_id,omitempty" jsonschema:"Parent organization ID (required for branches)"`
}

type EntityOutput struct {
	Resource string         `json:"resource"`
	Entity   map[string]any `json:"entity"`
}

func (h *EntityHandlers) GetResource(ctx context.Context, request *mcp.CallToolRequest, input GetResourceInput) (*mcp.CallToolResult, EntityOutput, error) {
	d, err := h.dynamic(input.Resource, input.OrganizationID)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	raw, err := d.Get(ctx, input.ID)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	return entityOutput(d.Name(), raw)
}

type CreateResourceInput struct {
	Resource       string         `json:"resource" jsonschema:"Resource name"`
	OrganizationID string         `json:"organization_id,omitempty" jsonschema:"Parent organization ID (required for branches)"`
	Data           map[string]any `json:"data" jsonschema:"Entity fields in camelCase, e.g. {\"name\": \"SDN 1\", \"schoolId\": \"...\"}"`
}

func (h *EntityHandlers) CreateResource(ctx context.Context, request *mcp.CallToolRequest, input CreateResourceInput) (*mcp.CallToolResult, EntityOutput, error) {
	d, err := h.dynamic(input.Resource, input.OrganizationID)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	body, err := json.Marshal(input.Data)
	if err != nil {
		return nil, EntityOutput{}, fmt.Errorf("failed to encode data: %w", err)
	}
	raw, err := d.Create(ctx, body)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	return entityOutput(d.Name(), raw)
}

type UpdateResourceInput struct {
	Resource       string         `json:"resource" jsonschema:"Resource name"`
	ID             string         `json:"id" jsonschema:"Entity ID (required)"`
	OrganizationID string         `json:"organization_id,omitempty" jsonschema:"Parent organization ID (required for branches)"`
	Data           map[string]any `json:"data" jsonschema:"Complete entity fields in camelCase; the update replaces the entity"`
}

func (h *EntityHandlers) UpdateResource(ctx context.Context, request *mcp.CallToolRequest, input UpdateResourceInput) (*mcp.CallToolResult, EntityOutput, error) {
	d, err := h.dynamic(input.Resource, input.OrganizationID)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	body, err := json.Marshal(input.Data)
	if err != nil {
		return nil, EntityOutput{}, fmt.Errorf("failed to encode data: %w", err)
	}
	raw, err := d.Update(ctx, input.ID, body)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	return entityOutput(d.Name(), raw)
}

type DeleteResourceInput struct {
	Resource       string `json:"resource" jsonschema:"Resource name"`
	ID             string `json:"id" jsonschema:"Entity ID (required)"`
	OrganizationID string `json:"organization_id,omitempty" jsonschema:"Parent organization ID (required for branches)"`
}

type DeleteResourceOutput struct {
	Resource      string `json:"resource"`
	ID            string `json:"id"`
	AlreadyAbsent bool   `json:"already_absent"`
}

func (h *EntityHandlers) DeleteResource(ctx context.Context, request *mcp.CallToolRequest, input DeleteResourceInput) (*mcp.CallToolResult, DeleteResourceOutput, error) {
	d, err := h.dynamic(input.Resource, input.OrganizationID)
	if err != nil {
		return nil, DeleteResourceOutput{}, err
	}

	err = d.Delete(ctx, input.ID)
	if !api.Absent(err) {
		return nil, DeleteResourceOutput{}, err
	}
	return nil, DeleteResourceOutput{
		Resource:      d.Name(),
		ID:            input.ID,
		AlreadyAbsent: err != nil,
	}, nil
}

type SetOrganizationActiveInput struct {
	OrganizationID string `json:"organization_id" jsonschema:"Organization ID (required)"`
	Active         bool   `json:"active" jsonschema:"true to activate, false to deactivate"`
}

func (h *EntityHandlers) SetOrganizationActive(ctx context.Context, request *mcp.CallToolRequest, input SetOrganizationActiveInput) (*mcp.CallToolResult, models.Organization, error) {
	org, err := h.set.Organizations.SetActive(ctx, input.OrganizationID, input.Active)
	if err != nil {
		return nil, models.Organization{}, err
	}
	return nil, *org, nil
}

type UpdateOrderStatusInput struct {
	OrderID string `json:"order_id" jsonschema:"Order ID (required)"`
	Status  string `json:"status" jsonschema:"New status: PENDING, CONFIRMED, IN_PROGRESS, DELIVERED, CANCELLED"`
}

func (h *EntityHandlers) UpdateOrderStatus(ctx context.Context, request *mcp.CallToolRequest, input UpdateOrderStatusInput) (*mcp.CallToolResult, models.Order, error) {
	status := models.OrderStatus(strings.ToUpper(input.Status))
	order, err := h.set.Orders.UpdateStatus(ctx, input.OrderID, status)
	if err != nil {
		return nil, models.Order{}, err
	}
	return nil, *order, nil
}

type WhoAmIInput struct{}

type WhoAmIOutput struct {
	LoggedIn  bool         `json:"logged_in"`
	User      *models.User `json:"user,omitempty"`
	ExpiresAt string       `json:"expires_at,omitempty"`
}

func (h *EntityHandlers) WhoAmI(_ context.Context, request *mcp.CallToolRequest, _ WhoAmIInput) (*mcp.CallToolResult, WhoAmIOutput, error) {
	sess := h.sessions.Current()
	if !sess.HasTokens() {
		return nil, WhoAmIOutput{}, nil
	}
	out := WhoAmIOutput{LoggedIn: true, User: sess.User}
	if !sess.Token.Expiry.IsZero() {
		out.ExpiresAt = sess.Token.Expiry.UTC().Format("2006-01-02T15:04:05Z")
	}
	return nil, out, nil
}

type ReviewDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"Document ID (required)"`
	Decision   string `json:"decision" jsonschema:"approve or reject"`
	Reason     string `json:"reason,omitempty" jsonschema:"Rejection reason (required when rejecting)"`
}

func (h *EntityHandlers) ReviewDocument(ctx context.Context, request *mcp.CallToolRequest, input ReviewDocumentInput) (*mcp.CallToolResult, models.Document, error) {
	var (
		doc *models.Document
		err error
	)
	switch strings.ToLower(input.Decision) {
	case "approve":
		doc, err = h.set.Documents.Approve(ctx, input.DocumentID)
	case "reject":
		doc, err = h.set.Documents.Reject(ctx, input.DocumentID, input.Reason)
	default:
		err = api.NewValidationError(fmt.Errorf("decision must be approve or reject, got %q", input.Decision))
	}
	if err != nil {
		return nil, models.Document{}, err
	}
	return nil, *doc, nil
}

type DocumentStatsInput struct{}

func (h *EntityHandlers) DocumentStats(ctx context.Context, request *mcp.CallToolRequest, _ DocumentStatsInput) (*mcp.CallToolResult, models.DocumentStats, error) {
	stats, err := h.set.Documents.Stats(ctx)
	if err != nil {
		return nil, models.DocumentStats{}, err
	}
	return nil, *stats, nil
}

type GetProfileInput struct{}

// GetProfile fetches the signed-in account from the backend, unlike WhoAmI
// which reports what the session already holds.
func (h *EntityHandlers) GetProfile(ctx context.Context, request *mcp.CallToolRequest, _ GetProfileInput) (*mcp.CallToolResult, models.User, error) {
	user, err := h.sessions.Profile(ctx)
	if err != nil {
		return nil, models.User{}, err
	}
	return nil, *user, nil
}

func (h *EntityHandlers) dynamic(name, organizationID string) (resources.Dynamic, error) {
	if name == "" {
		return nil, fmt.Errorf("resource is required (%s)", resourceHelp)
	}
	return h.set.Dynamic(name, organizationID)
}

// toObject decodes an entity body. An empty body (204 No Content) is an empty entity.
func toObject(raw json.RawMessage) (map[string]any, error) {
	obj := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return obj, nil
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}
	return obj, nil
}

func entityOutput(name string, raw json.RawMessage) (*mcp.CallToolResult, EntityOutput, error) {
	obj, err := toObject(raw)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	return nil, EntityOutput{Resource: name, Entity: obj}, nil
}
