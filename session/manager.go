// ABOUTME: Identity provider that owns the signed-in session
// ABOUTME: Logs in and refreshes against the backend, persists the session and notifies subscribers in order
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/models"
)

const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"
)

// ErrNoSession is returned when an operation needs a signed-in session.
var ErrNoSession = errors.New("not logged in")

// Sender issues backend requests. *api.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error)
}

// DefaultPath returns $XDG_STATE_HOME/mbgctl/session.json.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, "mbgctl", "session.json")
}

// Manager is the identity provider. It is safe for concurrent use; change
// notifications are delivered one at a time in the order the changes happened.
type Manager struct {
	sender Sender
	path   string
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	current  *Session
	handlers map[int]func(*Session)
	nextID   int

	dispatch sync.Mutex
}

type ManagerOption func(*Manager)

// WithPath sets the session file. An empty path disables persistence.
func WithPath(path string) ManagerOption {
	return func(m *Manager) { m.path = path }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

func NewManager(sender Sender, opts ...ManagerOption) *Manager {
	m := &Manager{
		sender:   sender,
		path:     DefaultPath(),
		now:      time.Now,
		logger:   slog.Default(),
		handlers: make(map[int]func(*Session)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.clone()
}

func (m *Manager) OnSessionChange(handler func(*Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.handlers[id] = handler

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}

// Token implements oauth2.TokenSource over the active session.
func (m *Manager) Token() (*oauth2.Token, error) {
	sess := m.Current()
	if !sess.HasTokens() {
		return nil, ErrNoSession
	}
	return sess.Token, nil
}

// Login exchanges credentials for a session.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, api.NewValidationError(errors.New("email and password are required"))
	}

	data, err := m.sender.Send(ctx, http.MethodPost, LoginPath, nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	sess, err := m.parseAuth(data, nil)
	if err != nil {
		return nil, err
	}
	if err := m.set(sess); err != nil {
		return sess, err
	}
	m.logger.Info("logged in", "email", email)
	return sess.clone(), nil
}

// Refresh trades the refresh token for a new session. A rejected refresh
// token ends the session.
func (m *Manager) Refresh(ctx context.Context) (*Session, error) {
	prev := m.Current()
	if prev.RefreshToken() == "" {
		return nil, ErrNoSession
	}

	data, err := m.sender.Send(ctx, http.MethodPost, RefreshPath, nil, map[string]string{
		"refresh_token": prev.RefreshToken(),
	})
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			if clearErr := m.set(nil); clearErr != nil {
				m.logger.Error("failed to end rejected session", "error", clearErr)
			}
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	sess, err := m.parseAuth(data, prev)
	if err != nil {
		return nil, err
	}
	if err := m.set(sess); err != nil {
		return sess, err
	}
	m.logger.Debug("session refreshed")
	return sess.clone(), nil
}

// Logout ends the session.
func (m *Manager) Logout() error {
	return m.set(nil)
}

// ExpireIfStale ends the session when its access token expired at or before
// now. It reports whether the session was ended.
func (m *Manager) ExpireIfStale(now time.Time) (bool, error) {
	sess := m.Current()
	if sess == nil || sess.Token == nil || sess.Token.Expiry.IsZero() {
		return false, nil
	}
	if now.Before(sess.Token.Expiry) {
		return false, nil
	}
	m.logger.Info("session expired", "expiry", sess.Token.Expiry)
	return true, m.set(nil)
}

// Load restores the persisted session, if any, and announces it.
func (m *Manager) Load() error {
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}
	if !sess.HasTokens() {
		return m.set(nil)
	}
	return m.set(&sess)
}

// set records sess, persists it and notifies subscribers. dispatch is held
// across the whole step so subscribers observe transitions in order.
func (m *Manager) set(sess *Session) error {
	m.dispatch.Lock()
	defer m.dispatch.Unlock()

	if !sess.HasTokens() {
		sess = nil
	}

	m.mu.Lock()
	m.current = sess.clone()
	handlers := make([]func(*Session), 0, len(m.handlers))
	ids := make([]int, 0, len(m.handlers))
	for id := range m.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, m.handlers[id])
	}
	m.mu.Unlock()

	err := m.persist(sess)

	for _, h := range handlers {
		h(sess.clone())
	}
	return err
}

func (m *Manager) persist(sess *Session) error {
	if m.path == "" {
		return nil
	}
	if sess == nil {
		if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// authResponse accepts both the camelCase and snake_case token payloads,
// with or without a {success, data} wrapper.
type authResponse struct {
	AccessToken       string       `json:"accessToken"`
	AccessTokenSnake  string       `json:"access_token"`
	RefreshToken      string       `json:"refreshToken"`
	RefreshTokenSnake string       `json:"refresh_token"`
	TokenType         string       `json:"tokenType"`
	TokenTypeSnake    string       `json:"token_type"`
	ExpiresIn         int64        `json:"expiresIn"`
	ExpiresInSnake    int64        `json:"expires_in"`
	User              *models.User `json:"user"`
}

func (m *Manager) parseAuth(data []byte, prev *Session) (*Session, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if len(wrapper.Data) > 0 && wrapper.Data[0] == '{' {
		data = wrapper.Data
	}

	var resp authResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  firstNonEmpty(resp.AccessToken, resp.AccessTokenSnake),
		RefreshToken: firstNonEmpty(resp.RefreshToken, resp.RefreshTokenSnake),
		TokenType:    firstNonEmpty(resp.TokenType, resp.TokenTypeSnake, "Bearer"),
	}
	if tok.AccessToken == "" {
		return nil, errors.New("auth response has no access token")
	}
	if tok.RefreshToken == "" && prev != nil {
		tok.RefreshToken = prev.RefreshToken()
	}

	claims := parseClaims(tok.AccessToken)

	expiresIn := resp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = resp.ExpiresInSnake
	}
	switch {
	case expiresIn > 0:
		tok.Expiry = m.now().Add(time.Duration(expiresIn) * time.Second)
	case claims != nil && claims.ExpiresAt != nil:
		tok.Expiry = claims.ExpiresAt.Time
	}

	user := resp.User
	if user == nil && prev != nil {
		user = prev.User
	}
	if user == nil && claims != nil {
		user = &models.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}
	}

	return &Session{Token: tok, User: user}, nil
}

// Claims are the access-token fields the client reads. The signature is not
// checked; the backend remains the authority on validity.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func parseClaims(token string) *Claims {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	return &claims
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
