// ABOUTME: Display metadata shared by the table and form surfaces
// ABOUTME: Which fields each resource shows in listings and accepts in create/update forms
package resources

import (
	"encoding/json"
	"strconv"
	"strings"
)

var columns = map[string][]string{
	NameOrganizations: {"id", "name", "code", "isActive", "currentBranches"},
	NameBranches:      {"id", "name", "code", "city", "isHeadquarters"},
	NameSchools:       {"id", "name", "city", "district"},
	NameStudents:      {"id", "name", "grade", "schoolId"},
	NameMeals:         {"id", "name", "schoolId"},
	NameMealPlans:     {"id", "studentId", "mealId", "startDate", "endDate"},
	NameOrders:        {"id", "supplierId", "schoolId", "quantity", "status"},
	NameSuppliers:     {"id", "name", "category", "phone"},
	NameAnnouncements: {"id", "title", "createdBy", "createdAt"},
	NameDocuments:     {"id", "title", "documentType", "status", "submittedAt"},
}

// Request fields, in the order a form asks for them.
var formFields = map[string][]string{
	NameOrganizations: {"name", "code", "description", "email", "phone", "address", "subscriptionType", "maxBranches", "maxUsers"},
	NameBranches:      {"name", "code", "address", "city", "phone", "email", "isHeadquarters"},
	NameSchools:       {"name", "address", "city", "district", "phone", "email"},
	NameStudents:      {"name", "age", "grade", "schoolId"},
	NameMeals:         {"name", "description", "nutritionalInfo", "schoolId"},
	NameMealPlans:     {"studentId", "mealId", "startDate", "endDate", "daysOfWeek"},
	NameOrders:        {"supplierId", "schoolId", "mealId", "quantity", "totalPrice", "deliveryDate", "notes"},
	NameSuppliers:     {"name", "address", "contactPerson", "phone", "email", "category"},
	NameAnnouncements: {"title", "content", "schoolId"},
	NameDocuments:     {"title", "description", "documentType", "relatedEntityType", "relatedEntityId", "documentUrl"},
}

// Columns returns the fields a listing of name shows.
func Columns(name string) []string {
	return columns[name]
}

// FormFields returns the request fields name accepts on create and update.
func FormFields(name string) []string {
	return formFields[name]
}

// Field reads column from a decoded entity. A missing fooId column falls
// back to the id of an embedded foo object.
func Field(obj map[string]any, column string) any {
	if v, ok := obj[column]; ok {
		return v
	}
	if ref, found := strings.CutSuffix(column, "Id"); found {
		if nested, ok := obj[ref].(map[string]any); ok {
			return nested["id"]
		}
	}
	return nil
}

// Cell renders one decoded JSON value for a table cell.
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	b, _ := json.Marshal(v)
	return string(b)
}
