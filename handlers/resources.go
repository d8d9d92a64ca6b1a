// ABOUTME: MCP resource handlers for exposing MBG data
// ABOUTME: Serves mbg://<resource>[/<id>] and mbg://session as read-only JSON documents
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/mbgctl/resources"
	"github.com/harperreed/mbgctl/session"
)

const (
	URIScheme  = "mbg://"
	SessionURI = URIScheme + "session"
)

// resourceListSize bounds how many entities a collection URI returns.
const resourceListSize = 100

type ResourceHandlers struct {
	set      *resources.Set
	sessions *session.Manager
}

func NewResourceHandlers(set *resources.Set, sessions *session.Manager) *ResourceHandlers {
	return &ResourceHandlers{set: set, sessions: sessions}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, URIScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", URIScheme)
	}

	if uri == SessionURI {
		return h.readSession(uri)
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(uri, URIScheme), "/"), "/")

	// mbg://organizations/<orgId>/branches[/<id>]
	if len(parts) >= 3 && parts[0] == resources.NameOrganizations && parts[2] == resources.NameBranches {
		d, err := h.set.Dynamic(resources.NameBranches, parts[1])
		if err != nil {
			return nil, err
		}
		if len(parts) == 3 {
			return h.readCollection(ctx, uri, d)
		}
		return h.readEntity(ctx, uri, d, parts[3])
	}

	d, err := h.set.Dynamic(parts[0], "")
	if err != nil {
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	switch len(parts) {
	case 1:
		return h.readCollection(ctx, uri, d)
	case 2:
		return h.readEntity(ctx, uri, d, parts[1])
	default:
		return nil, fmt.Errorf("unsupported resource URI: %s", uri)
	}
}

func (h *ResourceHandlers) readCollection(ctx context.Context, uri string, d resources.Dynamic) (*mcp.ReadResourceResult, error) {
	opts := []resources.ListOption{}
	if d.Paged() {
		opts = append(opts, resources.WithPage(0, resourceListSize))
	}
	listing, err := d.List(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", d.Name(), err)
	}

	return jsonContents(uri, map[string]any{
		"resource":       d.Name(),
		"items":          listing.Items,
		"total_elements": listing.TotalElements,
		"total_pages":    listing.TotalPages,
	})
}

func (h *ResourceHandlers) readEntity(ctx context.Context, uri string, d resources.Dynamic, id string) (*mcp.ReadResourceResult, error) {
	raw, err := d.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", d.Name(), id, err)
	}
	return textContents(uri, string(raw)), nil
}

func (h *ResourceHandlers) readSession(uri string) (*mcp.ReadResourceResult, error) {
	sess := h.sessions.Current()
	doc := map[string]any{"logged_in": sess.HasTokens()}
	if sess.HasTokens() {
		doc["user"] = sess.User
		if !sess.Token.Expiry.IsZero() {
			doc["expires_at"] = sess.Token.Expiry.UTC()
		}
	}
	return jsonContents(uri, doc)
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return textContents(uri, string(data)), nil
}

func textContents(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}}
}
