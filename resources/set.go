// ABOUTME: Bundle of every resource client plus a raw-JSON adapter addressed by name
// ABOUTME: Lets the CLI and MCP surfaces drive any resource without per-entity code
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/harperreed/mbgctl/api"
)

// Resource names accepted by Set.Dynamic.
const (
	NameOrganizations = "organizations"
	NameBranches      = "branches"
	NameSchools       = "schools"
	NameStudents      = "students"
	NameMeals         = "meals"
	NameMealPlans     = "meal-plans"
	NameOrders        = "orders"
	NameSuppliers     = "suppliers"
	NameAnnouncements = "announcements"
	NameDocuments     = "documents"
)

// Set holds one client per resource, all sharing a Sender.
type Set struct {
	sender Sender

	Organizations *Organizations
	Schools       *Schools
	Students      *Students
	Meals         *Meals
	MealPlans     *MealPlans
	Orders        *Orders
	Suppliers     *Suppliers
	Announcements *Announcements
	Documents     *Documents
}

func NewSet(s Sender) *Set {
	return &Set{
		sender:        s,
		Organizations: NewOrganizations(s),
		Schools:       NewSchools(s),
		Students:      NewStudents(s),
		Meals:         NewMeals(s),
		MealPlans:     NewMealPlans(s),
		Orders:        NewOrders(s),
		Suppliers:     NewSuppliers(s),
		Announcements: NewAnnouncements(s),
		Documents:     NewDocuments(s),
	}
}

// Branches returns the branch client for one organization.
func (s *Set) Branches(organizationID string) (*Branches, error) {
	return NewBranches(s.sender, organizationID)
}

// Names lists every resource name Dynamic accepts, sorted.
func Names() []string {
	names := []string{
		NameOrganizations, NameBranches, NameSchools, NameStudents, NameMeals,
		NameMealPlans, NameOrders, NameSuppliers, NameAnnouncements, NameDocuments,
	}
	sort.Strings(names)
	return names
}

// Dynamic drives one resource with raw JSON. Request bodies are decoded into
// the typed create request, so local validation still applies.
type Dynamic interface {
	Name() string
	Paged() bool
	List(ctx context.Context, opts ...ListOption) (*Listing[json.RawMessage], error)
	Get(ctx context.Context, id string) (json.RawMessage, error)
	Create(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, id string, body json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, id string) error
}

// Dynamic returns the adapter for name. parent is the organization id and is
// only used for branches.
func (s *Set) Dynamic(name, parent string) (Dynamic, error) {
	switch name {
	case NameOrganizations:
		return wrapDynamic(name, s.Organizations.Resource), nil
	case NameBranches:
		b, err := s.Branches(parent)
		if err != nil {
			return nil, err
		}
		return wrapDynamic(name, b), nil
	case NameSchools:
		return wrapDynamic(name, s.Schools), nil
	case NameStudents:
		return wrapDynamic(name, s.Students), nil
	case NameMeals:
		return wrapDynamic(name, s.Meals), nil
	case NameMealPlans:
		return wrapDynamic(name, s.MealPlans), nil
	case NameOrders:
		return wrapDynamic(name, s.Orders.Resource), nil
	case NameSuppliers:
		return wrapDynamic(name, s.Suppliers), nil
	case NameAnnouncements:
		return wrapDynamic(name, s.Announcements), nil
	case NameDocuments:
		return wrapDynamic(name, s.Documents.Resource), nil
	}
	return nil, api.NewValidationError(fmt.Errorf("unknown resource %q (expected one of %v)", name, Names()))
}

type dynamic[T any, C any] struct {
	name string
	res  *Resource[T, C]
}

func wrapDynamic[T any, C any](name string, res *Resource[T, C]) Dynamic {
	return &dynamic[T, C]{name: name, res: res}
}

func (d *dynamic[T, C]) Name() string { return d.name }

func (d *dynamic[T, C]) Paged() bool { return d.res.Paged() }

func (d *dynamic[T, C]) List(ctx context.Context, opts ...ListOption) (*Listing[json.RawMessage], error) {
	data, page, err := d.res.listRaw(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return decodeListing[json.RawMessage](data, page)
}

func (d *dynamic[T, C]) Get(ctx context.Context, id string) (json.RawMessage, error) {
	data, err := d.res.getRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return unwrapData(data), nil
}

func (d *dynamic[T, C]) Create(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	req, err := decodeRequest[C](body)
	if err != nil {
		return nil, err
	}
	data, err := d.res.createRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	return unwrapData(data), nil
}

func (d *dynamic[T, C]) Update(ctx context.Context, id string, body json.RawMessage) (json.RawMessage, error) {
	req, err := decodeRequest[C](body)
	if err != nil {
		return nil, err
	}
	data, err := d.res.updateRaw(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return unwrapData(data), nil
}

func (d *dynamic[T, C]) Delete(ctx context.Context, id string) error {
	return d.res.Delete(ctx, id)
}

func decodeRequest[C any](body json.RawMessage) (C, error) {
	var req C
	if len(body) == 0 {
		return req, api.NewValidationError(fmt.Errorf("request body is required"))
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, api.NewValidationError(fmt.Errorf("invalid request body: %w", err))
	}
	return req, nil
}
