// ABOUTME: Visualization CLI commands
// ABOUTME: Renders the organization and order graphs and the terminal dashboard
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/mbgctl/viz"
)

// GraphCommand prints DOT for `graph organizations [id]` or `graph orders`.
func GraphCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("graph", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("graph type required: organizations or orders")
	}

	generator := viz.NewGraphGenerator(app.Set)
	ctx := context.Background()

	var dot string
	switch positional[0] {
	case "organizations":
		orgID := ""
		if len(positional) > 1 {
			orgID = positional[1]
		}
		dot, err = generator.GenerateOrganizationGraph(ctx, orgID)
	case "orders":
		dot, err = generator.GenerateOrderGraph(ctx)
	default:
		return fmt.Errorf("unknown graph type: %s (valid types: organizations, orders)", positional[0])
	}
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}
	fmt.Fprintln(app.Out, dot)
	return nil
}

// DashboardCommand prints collection totals and the order pipeline.
func DashboardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := viz.GenerateDashboardStats(context.Background(), app.Set)
	if err != nil {
		return err
	}
	fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	return nil
}
