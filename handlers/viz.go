// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/mbgctl/resources"
	"github.com/harperreed/mbgctl/viz"
)

type VizHandlers struct {
	set *resources.Set
}

func NewVizHandlers(set *resources.Set) *VizHandlers {
	return &VizHandlers{set: set}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: organizations or orders"`
	EntityID string `json:"entity_id,omitempty" jsonschema:"Organization ID to focus on (optional for organizations)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	generator := viz.NewGraphGenerator(h.set)
	var dot string
	var err error

	switch input.Type {
	case "organizations":
		dot, err = generator.GenerateOrganizationGraph(ctx, input.EntityID)
	case "orders":
		dot, err = generator.GenerateOrderGraph(ctx)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: organizations, orders)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}
