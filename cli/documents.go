// ABOUTME: Governance document review commands
// ABOUTME: pending queue, approve, reject with a reason, and review stats
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/mbgctl/resources"
)

// DocumentReviewCommand handles `mbgctl documents pending|approve|reject|stats`.
func DocumentReviewCommand(app *App, action string, args []string) error {
	fs := flag.NewFlagSet("documents "+action, flag.ContinueOnError)
	reason := fs.String("reason", "", "Rejection reason (reject only)")
	asJSON := fs.Bool("json", false, "Print the backend response as JSON")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	ctx := context.Background()
	docs := app.Set.Documents

	switch action {
	case "pending":
		listing, err := docs.Pending(ctx)
		if err != nil {
			return err
		}
		if *asJSON {
			return printJSON(app.Out, listing.Raw)
		}
		if len(listing.Items) == 0 {
			fmt.Fprintln(app.Out, "No documents awaiting review.")
			return nil
		}
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSUBMITTED BY\tSUBMITTED AT")
		for _, d := range listing.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Title, d.DocumentType, d.SubmittedBy, d.SubmittedAt)
		}
		return w.Flush()

	case "approve":
		id, err := requireID(positional)
		if err != nil {
			return err
		}
		doc, err := docs.Approve(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "✓ Approved %q (%s)\n", doc.Title, doc.ID)
		return nil

	case "reject":
		id, err := requireID(positional)
		if err != nil {
			return err
		}
		if *reason == "" && len(positional) > 1 {
			*reason = strings.Join(positional[1:], " ")
		}
		doc, err := docs.Reject(ctx, id, *reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "✓ Rejected %q (%s): %s\n", doc.Title, doc.ID, doc.RejectionReason)
		return nil

	case "stats":
		stats, err := docs.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "Total:    %d\n", stats.TotalDocuments)
		fmt.Fprintf(app.Out, "Pending:  %d\n", stats.PendingDocuments)
		fmt.Fprintf(app.Out, "Approved: %d\n", stats.ApprovedDocuments)
		fmt.Fprintf(app.Out, "Rejected: %d\n", stats.RejectedDocuments)
		return nil
	}
	return fmt.Errorf("unknown %s action: %s", resources.NameDocuments, action)
}
