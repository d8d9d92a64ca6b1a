// ABOUTME: MCP prompt handlers built from live MBG data
// ABOUTME: Provides organization overview, school roster, and order pipeline review templates
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/mbgctl/models"
	"github.com/harperreed/mbgctl/resources"
)

// promptFetchLimit bounds how many entities a prompt pulls into its text.
const promptFetchLimit = 200

type PromptHandlers struct {
	set *resources.Set
}

func NewPromptHandlers(set *resources.Set) *PromptHandlers {
	return &PromptHandlers{set: set}
}

// Prompts lists the templates GetPrompt serves, for registration.
func Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "organization-overview",
			Description: "Summarize an organization, its branches, and subscription headroom",
			Arguments: []*mcp.PromptArgument{
				{Name: "organization_id", Description: "Organization ID", Required: true},
			},
		},
		{
			Name:        "school-roster",
			Description: "Review a school's students and the meal plans covering them",
			Arguments: []*mcp.PromptArgument{
				{Name: "school_id", Description: "School ID", Required: true},
			},
		},
		{
			Name:        "order-pipeline",
			Description: "Analyze supplier orders by status and flag stalled deliveries",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "organization-overview":
		return h.getOrganizationOverviewPrompt(ctx, arguments)
	case "school-roster":
		return h.getSchoolRosterPrompt(ctx, arguments)
	case "order-pipeline":
		return h.getOrderPipelinePrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getOrganizationOverviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	orgID, ok := args["organization_id"]
	if !ok || orgID == "" {
		return nil, fmt.Errorf("organization_id is required")
	}

	org, err := h.set.Organizations.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization: %w", err)
	}

	branchClient, err := h.set.Branches(orgID)
	if err != nil {
		return nil, err
	}
	branches, err := branchClient.All(ctx, 0, promptFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch branches: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please provide an overview of this organization:\n\n")
	promptText.WriteString(fmt.Sprintf("Name: %s (%s)\n", org.Name, org.Code))
	promptText.WriteString(fmt.Sprintf("Active: %t\n", org.IsActive))
	if org.SubscriptionType != "" {
		promptText.WriteString(fmt.Sprintf("Subscription: %s", org.SubscriptionType))
		if org.SubscriptionExpiresAt != "" {
			promptText.WriteString(fmt.Sprintf(" (expires %s)", org.SubscriptionExpiresAt))
		}
		promptText.WriteString("\n")
	}
	if org.MaxBranches > 0 {
		promptText.WriteString(fmt.Sprintf("Branches: %d of %d allowed\n", len(branches), org.MaxBranches))
	}
	if org.MaxUsers > 0 {
		promptText.WriteString(fmt.Sprintf("Users: %d of %d allowed\n", org.CurrentUsers, org.MaxUsers))
	}

	if len(branches) > 0 {
		promptText.WriteString("\nBranches:\n")
		for _, b := range branches {
			marker := ""
			if b.IsHeadquarters {
				marker = " [HQ]"
			}
			if !b.IsActive {
				marker += " [inactive]"
			}
			promptText.WriteString(fmt.Sprintf("- %s (%s)%s", b.Name, b.Code, marker))
			if b.City != "" {
				promptText.WriteString(fmt.Sprintf(", %s", b.City))
			}
			promptText.WriteString("\n")
		}
	}

	promptText.WriteString("\nPlease analyze this organization and provide:")
	promptText.WriteString("\n1. A brief summary of its footprint")
	promptText.WriteString("\n2. Whether it is close to its subscription limits")
	promptText.WriteString("\n3. Branches that need attention")

	return userPrompt(fmt.Sprintf("Overview for organization: %s", org.Name), promptText.String()), nil
}

func (h *PromptHandlers) getSchoolRosterPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	schoolID, ok := args["school_id"]
	if !ok || schoolID == "" {
		return nil, fmt.Errorf("school_id is required")
	}

	school, err := h.set.Schools.Get(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch school: %w", err)
	}

	all, err := h.set.Students.All(ctx, 100, promptFetchLimit, resources.WithFilter("schoolId", schoolID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch students: %w", err)
	}
	// Not every backend honours the schoolId filter.
	var students []models.Student
	for _, s := range all {
		if id := s.ResolvedSchoolID(); id == "" || id == schoolID {
			students = append(students, s)
		}
	}

	plans, err := h.set.MealPlans.All(ctx, 100, promptFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meal plans: %w", err)
	}
	covered := make(map[string]int)
	for _, p := range plans {
		covered[p.ResolvedStudentID()]++
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the roster of this school:\n\n")
	promptText.WriteString(fmt.Sprintf("School: %s\n", school.Name))
	if school.City != "" {
		promptText.WriteString(fmt.Sprintf("City: %s\n", school.City))
	}
	promptText.WriteString(fmt.Sprintf("Students: %d\n\n", len(students)))

	uncovered := 0
	for _, s := range students {
		n := covered[s.ID]
		if n == 0 {
			uncovered++
		}
		promptText.WriteString(fmt.Sprintf("- %s (grade %s): %d meal plan(s)\n", s.Name, orDash(s.Grade), n))
	}
	promptText.WriteString(fmt.Sprintf("\nStudents without a meal plan: %d\n", uncovered))

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A summary of meal plan coverage")
	promptText.WriteString("\n2. Students who should be enrolled next")

	return userPrompt(fmt.Sprintf("Roster for school: %s", school.Name), promptText.String()), nil
}

func (h *PromptHandlers) getOrderPipelinePrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	orders, err := h.set.Orders.All(ctx, 100, promptFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	byStatus := make(map[models.OrderStatus][]models.Order)
	for _, o := range orders {
		byStatus[o.Status] = append(byStatus[o.Status], o)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please analyze this order pipeline of %d orders:\n\n", len(orders)))
	for _, status := range []models.OrderStatus{
		models.OrderPending,
		models.OrderConfirmed,
		models.OrderInProgress,
		models.OrderDelivered,
		models.OrderCancelled,
	} {
		group := byStatus[status]
		var value float64
		for _, o := range group {
			value += o.TotalPrice
		}
		promptText.WriteString(fmt.Sprintf("%s: %d orders, total %.2f\n", status, len(group), value))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Where orders are stalling")
	promptText.WriteString("\n2. Suppliers or deliveries to follow up on")

	return userPrompt("Order pipeline analysis", promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
