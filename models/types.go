// ABOUTME: Data models for MBG admin entities
// ABOUTME: Defines organizations, branches, schools, students, meals, orders, suppliers, announcements and governance documents
package models

type Organization struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Code                  string `json:"code"`
	Description           string `json:"description,omitempty"`
	Website               string `json:"website,omitempty"`
	Email                 string `json:"email,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	Address               string `json:"address,omitempty"`
	IsActive              bool   `json:"isActive"`
	SubscriptionType      string `json:"subscriptionType,omitempty"`
	SubscriptionExpiresAt string `json:"subscriptionExpiresAt,omitempty"`
	MaxBranches           int    `json:"maxBranches,omitempty"`
	MaxUsers              int    `json:"maxUsers,omitempty"`
	CreatedAt             string `json:"createdAt,omitempty"`
	CurrentBranches       int    `json:"currentBranches,omitempty"`
	CurrentUsers          int    `json:"currentUsers,omitempty"`
}

type Branch struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	IsActive       bool   `json:"isActive"`
	IsHeadquarters bool   `json:"isHeadquarters"`
	ManagerID      string `json:"managerId,omitempty"`
	ManagerName    string `json:"managerName,omitempty"`
}

type School struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	District       string `json:"district,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
	BranchID       string `json:"branchId,omitempty"`
}

// SchoolRef is the abbreviated school embedded in other entities.
type SchoolRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type StudentRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type MealRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type SupplierRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Backends send either the flat foreign key or the embedded entity; the
// Resolved* accessors return whichever is present.

func (r *SchoolRef) id() string {
	if r == nil {
		return ""
	}
	return r.ID
}

func (r *StudentRef) id() string {
	if r == nil {
		return ""
	}
	return r.ID
}

func (r *MealRef) id() string {
	if r == nil {
		return ""
	}
	return r.ID
}

func (r *SupplierRef) id() string {
	if r == nil {
		return ""
	}
	return r.ID
}

func firstID(flat, nested string) string {
	if flat != "" {
		return flat
	}
	return nested
}

type Student struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Age            int        `json:"age,omitempty"`
	Grade          string     `json:"grade,omitempty"`
	ParentID       string     `json:"parentId,omitempty"`
	OrganizationID string     `json:"organizationId,omitempty"`
	SchoolID       string     `json:"schoolId,omitempty"`
	School         *SchoolRef `json:"school,omitempty"`
}

func (s Student) ResolvedSchoolID() string { return firstID(s.SchoolID, s.School.id()) }

type Meal struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	NutritionalInfo string     `json:"nutritionalInfo,omitempty"`
	OrganizationID  string     `json:"organizationId,omitempty"`
	BranchID        string     `json:"branchId,omitempty"`
	SchoolID        string     `json:"schoolId,omitempty"`
	School          *SchoolRef `json:"school,omitempty"`
}

func (m Meal) ResolvedSchoolID() string { return firstID(m.SchoolID, m.School.id()) }

type MealPlan struct {
	ID             string      `json:"id"`
	StudentID      string      `json:"studentId,omitempty"`
	Student        *StudentRef `json:"student,omitempty"`
	MealID         string      `json:"mealId,omitempty"`
	Meal           *MealRef    `json:"meal,omitempty"`
	StartDate      string      `json:"startDate"`
	EndDate        string      `json:"endDate"`
	DaysOfWeek     string      `json:"daysOfWeek,omitempty"`
	OrganizationID string      `json:"organizationId,omitempty"`
}

func (p MealPlan) ResolvedStudentID() string { return firstID(p.StudentID, p.Student.id()) }

func (p MealPlan) ResolvedMealID() string { return firstID(p.MealID, p.Meal.id()) }

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the statuses the backend accepts.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderInProgress, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID             string       `json:"id"`
	SupplierID     string       `json:"supplierId,omitempty"`
	Supplier       *SupplierRef `json:"supplier,omitempty"`
	SchoolID       string       `json:"schoolId,omitempty"`
	School         *SchoolRef   `json:"school,omitempty"`
	MealID         string       `json:"mealId,omitempty"`
	Meal           *MealRef     `json:"meal,omitempty"`
	StudentID      string       `json:"studentId,omitempty"`
	Quantity       int          `json:"quantity"`
	TotalPrice     float64      `json:"totalPrice"`
	Status         OrderStatus  `json:"status,omitempty"`
	DeliveryDate   string       `json:"deliveryDate,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	OrganizationID string       `json:"organizationId,omitempty"`
}

func (o Order) ResolvedSupplierID() string { return firstID(o.SupplierID, o.Supplier.id()) }

func (o Order) ResolvedSchoolID() string { return firstID(o.SchoolID, o.School.id()) }

func (o Order) ResolvedMealID() string { return firstID(o.MealID, o.Meal.id()) }

// SupplierName is the embedded supplier's name, if the backend sent one.
func (o Order) SupplierName() string {
	if o.Supplier == nil {
		return ""
	}
	return o.Supplier.Name
}

func (o Order) SchoolName() string {
	if o.School == nil {
		return ""
	}
	return o.School.Name
}

type Supplier struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	ContactPerson  string `json:"contactPerson,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Category       string `json:"category,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
	BranchID       string `json:"branchId,omitempty"`
}

type Announcement struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	SchoolID       string `json:"schoolId,omitempty"`
	CreatedBy      string `json:"createdBy,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "PENDING"
	DocumentApproved DocumentStatus = "APPROVED"
	DocumentRejected DocumentStatus = "REJECTED"
)

// Document is a governance document awaiting or past review.
type Document struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	DocumentType      string         `json:"documentType"`
	Status            DocumentStatus `json:"status"`
	SubmittedBy       string         `json:"submittedBy,omitempty"`
	ReviewedBy        string         `json:"reviewedBy,omitempty"`
	ApprovedBy        string         `json:"approvedBy,omitempty"`
	SubmittedAt       string         `json:"submittedAt,omitempty"`
	ReviewedAt        string         `json:"reviewedAt,omitempty"`
	RelatedEntityType string         `json:"relatedEntityType,omitempty"`
	RelatedEntityID   string         `json:"relatedEntityId,omitempty"`
	DocumentURL       string         `json:"documentUrl,omitempty"`
	RejectionReason   string         `json:"rejectionReason,omitempty"`
	CreatedAt         string         `json:"createdAt,omitempty"`
}

type DocumentStats struct {
	TotalDocuments    int64 `json:"totalDocuments"`
	PendingDocuments  int64 `json:"pendingDocuments"`
	ApprovedDocuments int64 `json:"approvedDocuments"`
	RejectedDocuments int64 `json:"rejectedDocuments"`
}

// User is the account returned alongside an authenticated session.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Role      string `json:"role,omitempty"`
}
