// ABOUTME: Create/update request payloads for MBG admin entities
// ABOUTME: Each request omits server-generated fields and validates required foreign keys
package models

import (
	"errors"
	"fmt"
	"strings"
)

// MissingFieldError reports a required field that was empty before a request was sent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func requireFields(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return &MissingFieldError{Field: fields[i]}
		}
	}
	return nil
}

type CreateOrganizationRequest struct {
	Name             string `json:"name"`
	Code             string `json:"code"`
	Description      string `json:"description,omitempty"`
	Website          string `json:"website,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	SubscriptionType string `json:"subscriptionType,omitempty"`
	MaxBranches      int    `json:"maxBranches,omitempty"`
	MaxUsers         int    `json:"maxUsers,omitempty"`
}

type CreateBranchRequest struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	IsHeadquarters bool   `json:"isHeadquarters,omitempty"`
	ManagerID      string `json:"managerId,omitempty"`
}

type CreateSchoolRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	District       string `json:"district,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
	BranchID       string `json:"branchId,omitempty"`
}

type CreateStudentRequest struct {
	Name           string `json:"name"`
	Age            int    `json:"age,omitempty"`
	Grade          string `json:"grade,omitempty"`
	ParentID       string `json:"parentId,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
	SchoolID       string `json:"schoolId"`
}

func (r CreateStudentRequest) Validate() error {
	return requireFields("schoolId", r.SchoolID)
}

type CreateMealRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	NutritionalInfo string `json:"nutritionalInfo,omitempty"`
	OrganizationID  string `json:"organizationId,omitempty"`
	BranchID        string `json:"branchId,omitempty"`
	SchoolID        string `json:"schoolId"`
}

func (r CreateMealRequest) Validate() error {
	return requireFields("schoolId", r.SchoolID)
}

type CreateMealPlanRequest struct {
	StudentID      string `json:"studentId"`
	MealID         string `json:"mealId"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
	DaysOfWeek     string `json:"daysOfWeek,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

func (r CreateMealPlanRequest) Validate() error {
	return requireFields("studentId", r.StudentID, "mealId", r.MealID)
}

type CreateOrderRequest struct {
	SupplierID     string  `json:"supplierId"`
	SchoolID       string  `json:"schoolId,omitempty"`
	MealID         string  `json:"mealId,omitempty"`
	StudentID      string  `json:"studentId,omitempty"`
	Quantity       int     `json:"quantity"`
	TotalPrice     float64 `json:"totalPrice"`
	DeliveryDate   string  `json:"deliveryDate,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	OrganizationID string  `json:"organizationId,omitempty"`
}

func (r CreateOrderRequest) Validate() error {
	return requireFields("supplierId", r.SupplierID)
}

type CreateSupplierRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	ContactPerson  string `json:"contactPerson,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Category       string `json:"category,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
	BranchID       string `json:"branchId,omitempty"`
}

type CreateAnnouncementRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	SchoolID       string `json:"schoolId,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

type SubmitDocumentRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	DocumentType      string `json:"documentType"`
	RelatedEntityType string `json:"relatedEntityType,omitempty"`
	RelatedEntityID   string `json:"relatedEntityId,omitempty"`
	DocumentURL       string `json:"documentUrl"`
}

func (r SubmitDocumentRequest) Validate() error {
	return requireFields("title", r.Title, "documentType", r.DocumentType, "documentUrl", r.DocumentURL)
}

type RejectDocumentRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

func (r RejectDocumentRequest) Validate() error {
	return requireFields("rejectionReason", r.RejectionReason)
}

// UpdateProfileRequest changes the signed-in user's own details. Empty
// fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

var ErrEmptyProfileUpdate = errors.New("at least one profile field is required")

func (r UpdateProfileRequest) Validate() error {
	if r == (UpdateProfileRequest{}) {
		return ErrEmptyProfileUpdate
	}
	return nil
}

var ErrPasswordMismatch = errors.New("new password and confirmation do not match")

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	if err := requireFields("oldPassword", r.OldPassword, "newPassword", r.NewPassword); err != nil {
		return err
	}
	if r.NewPassword != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}
