// ABOUTME: Credential store contract and in-memory implementation
// ABOUTME: Holds the access/refresh token pair consulted by every resource client
package credentials

import "sync"

// Well-known keys under which persistent backends keep the token pair.
const (
	AccessTokenKey  = "mbg_access_token"
	RefreshTokenKey = "mbg_refresh_token"
)

// Credential is the token pair currently issued to this process.
// An empty string means the token is absent.
type Credential struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// IsEmpty reports whether neither token is present.
func (c Credential) IsEmpty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store is the single source of truth for the bearer token.
//
// Get never fails; a backend that cannot be read reports an empty Credential.
// Replace overwrites both tokens as one step so readers never observe a pair
// assembled from two different sessions.
type Store interface {
	Get() Credential
	SetAccessToken(token string) error
	SetRefreshToken(token string) error
	Replace(c Credential) error
	Clear() error
}

// MemoryStore keeps credentials in process memory only.
type MemoryStore struct {
	mu   sync.RWMutex
	cred Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

func (s *MemoryStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred.AccessToken = token
	return nil
}

func (s *MemoryStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred.RefreshToken = token
	return nil
}

func (s *MemoryStore) Replace(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = c
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Replace(Credential{})
}
