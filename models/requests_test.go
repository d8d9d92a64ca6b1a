// ABOUTME: Tests for request payload validation
// ABOUTME: Covers required foreign keys and order status values
package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeignKeyValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   interface{ Validate() error }
		field string
	}{
		{"student without school", CreateStudentRequest{Name: "Ana"}, "schoolId"},
		{"meal without school", CreateMealRequest{Name: "Rice"}, "schoolId"},
		{"meal plan without student", CreateMealPlanRequest{MealID: "m1"}, "studentId"},
		{"meal plan without meal", CreateMealPlanRequest{StudentID: "s1"}, "mealId"},
		{"order without supplier", CreateOrderRequest{Quantity: 3}, "supplierId"},
		{"blank supplier", CreateOrderRequest{SupplierID: "   "}, "supplierId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)

			var missing *MissingFieldError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestValidRequestsPass(t *testing.T) {
	assert.NoError(t, CreateStudentRequest{SchoolID: "sch-1"}.Validate())
	assert.NoError(t, CreateMealRequest{SchoolID: "sch-1"}.Validate())
	assert.NoError(t, CreateMealPlanRequest{StudentID: "st-1", MealID: "m-1"}.Validate())
	assert.NoError(t, CreateOrderRequest{SupplierID: "sup-1"}.Validate())
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderInProgress.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
}

func TestCreateRequestsOmitServerFields(t *testing.T) {
	data, err := json.Marshal(CreateOrganizationRequest{Name: "MBG", Code: "MBG01"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "createdAt", "currentBranches", "currentUsers"} {
		assert.NotContains(t, fields, key)
	}
}

func TestNestedRelationsResolve(t *testing.T) {
	var order Order
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "o1",
		"supplier": {"id": "sup1", "name": "Dapur Sehat"},
		"school": {"id": "sch1", "name": "SDN Sukajadi"},
		"meal": {"id": "m1", "name": "Nasi Ayam"},
		"quantity": 40, "totalPrice": 600000, "status": "PENDING"
	}`), &order))
	assert.Equal(t, "sup1", order.ResolvedSupplierID())
	assert.Equal(t, "sch1", order.ResolvedSchoolID())
	assert.Equal(t, "m1", order.ResolvedMealID())
	assert.Equal(t, "Dapur Sehat", order.SupplierName())
	assert.Equal(t, "SDN Sukajadi", order.SchoolName())

	var plan MealPlan
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","student":{"id":"st1"},"meal":{"id":"m1"},"startDate":"2025-01-06","endDate":"2025-06-30"}`), &plan))
	assert.Equal(t, "st1", plan.ResolvedStudentID())
	assert.Equal(t, "m1", plan.ResolvedMealID())

	var meal Meal
	require.NoError(t, json.Unmarshal([]byte(`{"id":"m1","name":"Nasi Ayam","school":{"id":"sch1"}}`), &meal))
	assert.Equal(t, "sch1", meal.ResolvedSchoolID())

	flat := Order{SupplierID: "a", Supplier: &SupplierRef{ID: "b"}}
	assert.Equal(t, "a", flat.ResolvedSupplierID())
	assert.Empty(t, Order{}.ResolvedSchoolID())
	assert.Empty(t, Student{}.ResolvedSchoolID())
}
