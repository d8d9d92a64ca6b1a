// ABOUTME: Tests for the fake backend's auth, paging and nested routes
// ABOUTME: Drives the gin engine directly through httptest recorders
package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	StatusCode       int               `json:"statusCode"`
	ValidationErrors map[string]string `json:"validationErrors"`
	Data             json.RawMessage   `json:"data"`
}

func do(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, BasePath+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func login(t *testing.T, s *Server) authResponse {
	t.Helper()
	rec, env := do(t, s, http.MethodPost, "/auth/login", "", loginRequest{Email: DefaultEmail, Password: DefaultPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestLoginIssuesTokens(t *testing.T) {
	s := New()
	resp := login(t, s)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, DefaultEmail, resp.User.Email)

	rec, _ := do(t, s, http.MethodPost, "/auth/login", "", loginRequest{Email: DefaultEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	s := New()
	first := login(t, s)

	rec, env := do(t, s, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var second authResponse
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	rec, _ = do(t, s, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := New()

	rec, env := do(t, s, http.MethodGet, "/schools", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Empty(t, s.LastAuthorization())

	rec, _ = do(t, s, http.MethodGet, "/schools", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer garbage", s.LastAuthorization())
}

func TestExpiredTokenRejected(t *testing.T) {
	current := time.Now()
	s := New(WithClock(func() time.Time { return current }), WithTokenLifetime(time.Minute))
	token := login(t, s).AccessToken

	rec, _ := do(t, s, http.MethodGet, "/schools", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	current = current.Add(2 * time.Minute)
	rec, _ = do(t, s, http.MethodGet, "/schools", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPagedListEnvelope(t *testing.T) {
	s := New()
	token := login(t, s).AccessToken
	for i := 0; i < 12; i++ {
		s.Seed("schools", Object{"name": "School"})
	}

	rec, env := do(t, s, http.MethodGet, "/schools?page=1&size=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Content       []Object `json:"content"`
		TotalElements int      `json:"totalElements"`
		TotalPages    int      `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Content, 2)
	assert.Equal(t, 12, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	rec, _ = do(t, s, http.MethodGet, "/schools?page=-1&size=10", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	s := New()
	token := login(t, s).AccessToken

	rec, env := do(t, s, http.MethodPost, "/students", token, Object{"name": "Ana"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must not be blank", env.ValidationErrors["schoolId"])
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.False(t, env.Success)
}

func TestNestedBranches(t *testing.T) {
	s := New()
	token := login(t, s).AccessToken
	org := s.Seed("organizations", Object{"name": "Org", "code": "ORG"})
	orgID := org.str("id")

	rec, env := do(t, s, http.MethodPost, "/organizations/"+orgID+"/branches", token, Object{"name": "HQ", "code": "HQ", "organizationId": "spoofed"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var branch Object
	require.NoError(t, json.Unmarshal(env.Data, &branch))
	assert.Equal(t, orgID, branch.str("organizationId"))

	rec, env = do(t, s, http.MethodGet, "/governance/organizations/"+orgID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored Object
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, float64(1), stored["currentBranches"])

	rec, _ = do(t, s, http.MethodGet, "/organizations/missing/branches", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderStatusTransition(t *testing.T) {
	s := New()
	token := login(t, s).AccessToken

	rec, env := do(t, s, http.MethodPost, "/orders", token, Object{"supplierId": "sup-1", "quantity": 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order Object
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "PENDING", order.str("status"))

	rec, env = do(t, s, http.MethodPut, "/orders/"+order.str("id")+"/status?status=DELIVERED", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "DELIVERED", order.str("status"))

	rec, _ = do(t, s, http.MethodPut, "/orders/"+order.str("id")+"/status?status=LOST", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
