// ABOUTME: Typed resource clients for each MBG admin entity
// ABOUTME: Adds organization activation, order status and document review transitions on top of the generic client
package resources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/models"
)

const (
	OrganizationsPath = "/governance/organizations"
	SchoolsPath       = "/schools"
	StudentsPath      = "/students"
	MealsPath         = "/meals"
	MealPlansPath     = "/meal-plans"
	OrdersPath        = "/orders"
	SuppliersPath     = "/suppliers"
	AnnouncementsPath = "/announcements"
	DocumentsPath     = "/governance/documents"
)

// ErrEmptyOrganization is returned when a branch client has no parent organization.
var ErrEmptyOrganization = errors.New("organizationId is required")

type (
	Schools       = Resource[models.School, models.CreateSchoolRequest]
	Students      = Resource[models.Student, models.CreateStudentRequest]
	Meals         = Resource[models.Meal, models.CreateMealRequest]
	MealPlans     = Resource[models.MealPlan, models.CreateMealPlanRequest]
	Suppliers     = Resource[models.Supplier, models.CreateSupplierRequest]
	Announcements = Resource[models.Announcement, models.CreateAnnouncementRequest]
	Branches      = Resource[models.Branch, models.CreateBranchRequest]
)

// Organizations adds activate/deactivate to the organization resource.
type Organizations struct {
	*Resource[models.Organization, models.CreateOrganizationRequest]
}

func NewOrganizations(s Sender) *Organizations {
	return &Organizations{New[models.Organization, models.CreateOrganizationRequest](s, OrganizationsPath, true)}
}

func (o *Organizations) Activate(ctx context.Context, id string) (*models.Organization, error) {
	return o.Transition(ctx, id, "activate", nil)
}

func (o *Organizations) Deactivate(ctx context.Context, id string) (*models.Organization, error) {
	return o.Transition(ctx, id, "deactivate", nil)
}

// SetActive calls Activate or Deactivate.
func (o *Organizations) SetActive(ctx context.Context, id string, active bool) (*models.Organization, error) {
	if active {
		return o.Activate(ctx, id)
	}
	return o.Deactivate(ctx, id)
}

// Orders adds the status transition to the order resource.
type Orders struct {
	*Resource[models.Order, models.CreateOrderRequest]
}

func NewOrders(s Sender) *Orders {
	return &Orders{New[models.Order, models.CreateOrderRequest](s, OrdersPath, true)}
}

// UpdateStatus PUTs /orders/{id}/status?status=X.
func (o *Orders) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, api.NewValidationError(fmt.Errorf("invalid order status %q", status))
	}
	return o.Transition(ctx, id, "status", url.Values{"status": {string(status)}})
}

// Documents adds the governance review queue to the document resource.
type Documents struct {
	*Resource[models.Document, models.SubmitDocumentRequest]
}

func NewDocuments(s Sender) *Documents {
	return &Documents{New[models.Document, models.SubmitDocumentRequest](s, DocumentsPath, true)}
}

// Pending lists documents still awaiting review.
func (d *Documents) Pending(ctx context.Context, opts ...ListOption) (*Listing[models.Document], error) {
	return d.ListAt(ctx, "pending", opts...)
}

func (d *Documents) Approve(ctx context.Context, id string) (*models.Document, error) {
	return d.Transition(ctx, id, "approve", nil)
}

// Reject PUTs the reason to /governance/documents/{id}/reject.
func (d *Documents) Reject(ctx context.Context, id, reason string) (*models.Document, error) {
	return d.TransitionWithBody(ctx, id, "reject", nil, models.RejectDocumentRequest{RejectionReason: reason})
}

// Stats returns the per-status document counts.
func (d *Documents) Stats(ctx context.Context) (*models.DocumentStats, error) {
	path := d.Path() + "/stats"
	data, err := d.sender.Send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	return decodeEntity[models.DocumentStats](data)
}

// NewBranches returns the branch client nested under one organization.
func NewBranches(s Sender, organizationID string) (*Branches, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, api.NewValidationError(ErrEmptyOrganization)
	}
	path := OrganizationsPathForBranches(organizationID)
	return New[models.Branch, models.CreateBranchRequest](s, path, false), nil
}

// OrganizationsPathForBranches returns /organizations/{id}/branches.
func OrganizationsPathForBranches(organizationID string) string {
	return "/organizations/" + url.PathEscape(organizationID) + "/branches"
}

func NewSchools(s Sender) *Schools {
	return New[models.School, models.CreateSchoolRequest](s, SchoolsPath, true)
}

func NewStudents(s Sender) *Students {
	return New[models.Student, models.CreateStudentRequest](s, StudentsPath, true)
}

func NewMeals(s Sender) *Meals {
	return New[models.Meal, models.CreateMealRequest](s, MealsPath, true)
}

func NewMealPlans(s Sender) *MealPlans {
	return New[models.MealPlan, models.CreateMealPlanRequest](s, MealPlansPath, true)
}

func NewSuppliers(s Sender) *Suppliers {
	return New[models.Supplier, models.CreateSupplierRequest](s, SuppliersPath, true)
}

func NewAnnouncements(s Sender) *Announcements {
	return New[models.Announcement, models.CreateAnnouncementRequest](s, AnnouncementsPath, true)
}
