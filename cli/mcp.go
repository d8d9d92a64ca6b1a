// ABOUTME: MCP server subcommand
// ABOUTME: Serves the MBG tools, resources, and prompts over stdio, with optional Prometheus metrics
package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harperreed/mbgctl/handlers"
	"github.com/harperreed/mbgctl/resources"
)

// NewMCPServer builds the MCP server with every tool, resource, and prompt registered.
func NewMCPServer(app *App, version string) *mcp.Server {
	entityHandlers := handlers.NewEntityHandlers(app.Set, app.Sessions)
	resourceHandlers := handlers.NewResourceHandlers(app.Set, app.Sessions)
	promptHandlers := handlers.NewPromptHandlers(app.Set)
	vizHandlers := handlers.NewVizHandlers(app.Set)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mbg",
		Version: version,
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_resources",
		Description: "List one page of an MBG collection (organizations, branches, schools, students, meals, meal-plans, orders, suppliers, announcements, documents)",
	}, entityHandlers.ListResources)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_resource",
		Description: "Fetch a single entity by ID",
	}, entityHandlers.GetResource)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_resource",
		Description: "Create an entity in an MBG collection",
	}, entityHandlers.CreateResource)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_resource",
		Description: "Replace an existing entity's fields",
	}, entityHandlers.UpdateResource)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_resource",
		Description: "Delete an entity; deleting an already-missing entity succeeds",
	}, entityHandlers.DeleteResource)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_organization_active",
		Description: "Activate or deactivate an organization",
	}, entityHandlers.SetOrganizationActive)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_order_status",
		Description: "Move an order to a new status",
	}, entityHandlers.UpdateOrderStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "whoami",
		Description: "Show the signed-in user and when the session expires",
	}, entityHandlers.WhoAmI)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_profile",
		Description: "Fetch the signed-in account from the backend",
	}, entityHandlers.GetProfile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_document",
		Description: "Approve or reject a pending governance document; rejecting needs a reason",
	}, entityHandlers.ReviewDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "document_stats",
		Description: "Count governance documents by review status",
	}, entityHandlers.DocumentStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render an organization/branch or supplier/school order graph as GraphViz source",
	}, vizHandlers.GenerateGraph)

	// Register resources
	server.AddResource(&mcp.Resource{
		URI:         handlers.SessionURI,
		Name:        "session",
		Description: "The current session and signed-in user",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	for _, name := range resources.Names() {
		if name == resources.NameBranches {
			continue
		}
		server.AddResource(&mcp.Resource{
			URI:         handlers.URIScheme + name,
			Name:        name,
			Description: "First page of " + name,
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
		server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: handlers.URIScheme + name + "/{id}",
			Name:        singular(name),
			Description: "A single entity from " + name,
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.URIScheme + "organizations/{orgId}/branches",
		Name:        "branches",
		Description: "Branches of one organization",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Register prompts
	for _, prompt := range handlers.Prompts() {
		server.AddPrompt(prompt, promptHandlers.GetPrompt)
	}

	return server
}

// MCPCommand starts the MCP server on stdio. When a metrics address is
// configured and gatherer is set, /metrics is served alongside it.
func MCPCommand(app *App, version string, gatherer prometheus.Gatherer) error {
	app.Logger.Info("starting MBG MCP server", "api_url", app.Client.BaseURL())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if app.Config.MetricsAddr != "" && gatherer != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: app.Config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Run server on stdio transport
	return NewMCPServer(app, version).Run(ctx, &mcp.StdioTransport{})
}
