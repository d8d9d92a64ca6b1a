// ABOUTME: Generic resource CLI commands
// ABOUTME: list/get/create/update/delete for every MBG collection plus organization, order and document transitions
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/hooks"
	"github.com/harperreed/mbgctl/models"
	"github.com/harperreed/mbgctl/resources"
)

// parseInterspersed parses flags that may appear after positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

type filterFlag []string

func (f *filterFlag) String() string { return strings.Join(*f, ",") }

func (f *filterFlag) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("filter must be key=value, got %q", v)
	}
	*f = append(*f, v)
	return nil
}

// ResourceCommand dispatches `mbgctl <resource> <action> ...`.
func ResourceCommand(app *App, name string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s requires an action: list, get, create, update, delete", name)
	}
	action, rest := args[0], args[1:]

	switch {
	case name == resources.NameOrganizations && (action == "activate" || action == "deactivate"):
		return OrganizationActivationCommand(app, action == "activate", rest)
	case name == resources.NameOrders && action == "status":
		return OrderStatusCommand(app, rest)
	case name == resources.NameDocuments && (action == "pending" || action == "approve" || action == "reject" || action == "stats"):
		return DocumentReviewCommand(app, action, rest)
	}

	fs := flag.NewFlagSet(name+" "+action, flag.ContinueOnError)
	org := fs.String("org", "", "Organization ID (branches only)")
	page := fs.Int("page", resources.DefaultPageNumber, "Page number, 0-indexed")
	size := fs.Int("size", resources.DefaultPageSize, "Page size")
	asJSON := fs.Bool("json", false, "Print the backend response as JSON")
	data := fs.String("data", "", "Request body as JSON")
	file := fs.String("file", "", "Read the request body from a file (- for stdin)")
	var filters filterFlag
	fs.Var(&filters, "filter", "Filter as key=value (repeatable)")

	positional, err := parseInterspersed(fs, rest)
	if err != nil {
		return err
	}

	d, err := app.Set.Dynamic(name, *org)
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch action {
	case "list":
		var opts []resources.ListOption
		for _, f := range filters {
			k, v, _ := strings.Cut(f, "=")
			opts = append(opts, resources.WithFilter(k, v))
		}
		return listResource(ctx, app, d, *asJSON, *page, *size, opts)

	case "get":
		id, err := requireID(positional)
		if err != nil {
			return err
		}
		q := hooks.NewQuery(func(ctx context.Context) (*json.RawMessage, error) {
			raw, err := d.Get(ctx, id)
			return &raw, err
		})
		raw, err := q.Fetch(ctx)
		if err != nil {
			return err
		}
		return printJSON(app.Out, *raw)

	case "create":
		body, err := readBody(app, *data, *file)
		if err != nil {
			return err
		}
		h := hooks.NewCreate(func(ctx context.Context, body json.RawMessage) (*json.RawMessage, error) {
			raw, err := d.Create(ctx, body)
			return &raw, err
		})
		raw, err := h.Create(ctx, body)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "✓ Created %s\n", singular(name))
		return printJSON(app.Out, *raw)

	case "update":
		id, err := requireID(positional)
		if err != nil {
			return err
		}
		body, err := readBody(app, *data, *file)
		if err != nil {
			return err
		}
		h := hooks.NewUpdate(func(ctx context.Context, id string, body json.RawMessage) (*json.RawMessage, error) {
			raw, err := d.Update(ctx, id, body)
			return &raw, err
		})
		raw, err := h.Update(ctx, id, body)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "✓ Updated %s %s\n", singular(name), id)
		return printJSON(app.Out, *raw)

	case "delete":
		id, err := requireID(positional)
		if err != nil {
			return err
		}
		if err := hooks.NewDelete(d.Delete).Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "✓ Deleted %s %s\n", singular(name), id)
		return nil
	}

	return fmt.Errorf("unknown %s action: %s", name, action)
}

func listResource(ctx context.Context, app *App, d resources.Dynamic, asJSON bool, page, size int, opts []resources.ListOption) error {
	l := hooks.NewList(func(ctx context.Context, p resources.Page) (*resources.Listing[json.RawMessage], error) {
		return d.List(ctx, append(opts, resources.WithPage(p.Page, p.Size))...)
	})
	listing, err := l.FetchPage(ctx, page, size)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(app.Out, listing.Raw)
	}

	if len(listing.Items) == 0 {
		fmt.Fprintf(app.Out, "No %s found.\n", d.Name())
		return nil
	}

	columns := resources.Columns(d.Name())
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))
	for _, item := range listing.Items {
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = resources.Cell(resources.Field(obj, col))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if listing.Page != nil {
		fmt.Fprintf(app.Out, "\nPage %d, %d of %d total\n", listing.Page.Page, len(listing.Items), listing.TotalElements)
	}
	return nil
}

// OrganizationActivationCommand activates or deactivates an organization.
func OrganizationActivationCommand(app *App, active bool, args []string) error {
	verb := "deactivate"
	if active {
		verb = "activate"
	}
	fs := flag.NewFlagSet("organizations "+verb, flag.ContinueOnError)
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID(positional)
	if err != nil {
		return err
	}

	org, err := app.Set.Organizations.SetActive(context.Background(), id, active)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "✓ Organization %s %sd (active: %v)\n", org.Name, verb, org.IsActive)
	return nil
}

// OrderStatusCommand moves an order to a new status.
func OrderStatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("orders status", flag.ContinueOnError)
	status := fs.String("status", "", "New status: PENDING, CONFIRMED, IN_PROGRESS, DELIVERED, CANCELLED (required)")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID(positional)
	if err != nil {
		return err
	}
	if *status == "" && len(positional) > 1 {
		*status = positional[1]
	}
	if *status == "" {
		return fmt.Errorf("--status is required")
	}

	order, err := app.Set.Orders.UpdateStatus(context.Background(), id, models.OrderStatus(strings.ToUpper(*status)))
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "✓ Order %s is now %s\n", order.ID, order.Status)
	return nil
}

func requireID(positional []string) (string, error) {
	if len(positional) == 0 || strings.TrimSpace(positional[0]) == "" {
		return "", api.NewValidationError(resources.ErrEmptyID)
	}
	return positional[0], nil
}

func readBody(app *App, data, file string) (json.RawMessage, error) {
	switch {
	case data != "" && file != "":
		return nil, fmt.Errorf("use either --data or --file, not both")
	case data != "":
		return json.RawMessage(data), nil
	case file == "-":
		b, err := io.ReadAll(app.In)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return json.RawMessage(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		return json.RawMessage(b), nil
	}
	return nil, fmt.Errorf("--data or --file is required")
}

func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	_, err := fmt.Fprintln(w, buf.String())
	return err
}

func singular(name string) string {
	switch name {
	case resources.NameBranches:
		return "branch"
	case resources.NameMealPlans:
		return "meal plan"
	}
	return strings.TrimSuffix(name, "s")
}
