// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes collection sizes and the order status pipeline
package viz

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/mbgctl/models"
	"github.com/harperreed/mbgctl/resources"
)

type DashboardStats struct {
	Totals        map[string]int64
	OrdersByState map[models.OrderStatus]int
	Organizations ActiveCount
}

type ActiveCount struct {
	Active   int
	Inactive int
}

var orderStates = []models.OrderStatus{
	models.OrderPending,
	models.OrderConfirmed,
	models.OrderInProgress,
	models.OrderDelivered,
	models.OrderCancelled,
}

// GenerateDashboardStats asks every paged collection for its total and walks
// orders and organizations for the breakdowns.
func GenerateDashboardStats(ctx context.Context, set *resources.Set) (*DashboardStats, error) {
	stats := &DashboardStats{
		Totals:        make(map[string]int64),
		OrdersByState: make(map[models.OrderStatus]int),
	}

	for _, name := range resources.Names() {
		if name == resources.NameBranches {
			continue
		}
		d, err := set.Dynamic(name, "")
		if err != nil {
			return nil, err
		}
		l, err := d.List(ctx, resources.WithPage(0, 1))
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		stats.Totals[name] = l.TotalElements
	}

	orders, err := set.Orders.All(ctx, 100, maxEntities)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	for _, o := range orders {
		stats.OrdersByState[o.Status]++
	}

	orgs, err := set.Organizations.All(ctx, 100, maxEntities)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizations: %w", err)
	}
	for _, o := range orgs {
		if o.IsActive {
			stats.Organizations.Active++
		} else {
			stats.Organizations.Inactive++
		}
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  MBG ADMIN DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("ORDER PIPELINE\n")
	renderPipeline(&out, stats.OrdersByState)
	out.WriteString("\n")

	out.WriteString("COLLECTIONS\n")
	for _, name := range resources.Names() {
		total, ok := stats.Totals[name]
		if !ok {
			continue
		}
		out.WriteString(fmt.Sprintf("  %-14s %d\n", name, total))
	}
	out.WriteString("\n")

	out.WriteString(fmt.Sprintf("ORGANIZATIONS  %d active, %d inactive\n",
		stats.Organizations.Active, stats.Organizations.Inactive))

	return out.String()
}

func renderPipeline(out *strings.Builder, counts map[models.OrderStatus]int) {
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, state := range orderStates {
		count := counts[state]
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-12s %s  %2d\n", state, bar, count))
	}
}
