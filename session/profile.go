// ABOUTME: Profile calls for the signed-in user
// ABOUTME: Fetch and update the account behind the session, and change its password
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/models"
)

const (
	ProfilePath        = "/auth/me"
	UpdateProfilePath  = "/auth/profile"
	ChangePasswordPath = "/auth/change-password"
)

// Profile fetches the signed-in user and records it on the session.
func (m *Manager) Profile(ctx context.Context) (*models.User, error) {
	sess := m.Current()
	if !sess.HasTokens() {
		return nil, ErrNoSession
	}

	data, err := m.sender.Send(ctx, http.MethodGet, ProfilePath, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	user, err := decodeUser(data)
	if err != nil {
		return nil, err
	}
	return user, m.setUser(sess.AccessToken(), user)
}

// UpdateProfile changes the signed-in user's details.
func (m *Manager) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	sess := m.Current()
	if !sess.HasTokens() {
		return nil, ErrNoSession
	}
	if err := req.Validate(); err != nil {
		return nil, api.NewValidationError(err)
	}

	data, err := m.sender.Send(ctx, http.MethodPut, UpdateProfilePath, nil, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	user, err := decodeUser(data)
	if err != nil {
		return nil, err
	}
	return user, m.setUser(sess.AccessToken(), user)
}

// ChangePassword changes the signed-in user's password. The session and its
// tokens are left as they are.
func (m *Manager) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if !m.Current().HasTokens() {
		return ErrNoSession
	}
	if err := req.Validate(); err != nil {
		return api.NewValidationError(err)
	}
	if _, err := m.sender.Send(ctx, http.MethodPost, ChangePasswordPath, nil, req); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	m.logger.Info("password changed")
	return nil
}

// setUser attaches user to the session issued for accessToken. A session
// that changed in the meantime is left alone.
func (m *Manager) setUser(accessToken string, user *models.User) error {
	sess := m.Current()
	if sess.AccessToken() != accessToken {
		return nil
	}
	sess.User = user
	return m.set(sess)
}

func decodeUser(data []byte) (*models.User, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if len(wrapper.Data) > 0 && wrapper.Data[0] == '{' {
		data = wrapper.Data
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &user, nil
}
