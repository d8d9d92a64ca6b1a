// ABOUTME: Credential store over a byte-oriented key/value backend
// ABOUTME: Used with the charm KV client (BadgerDB underneath) under the well-known token keys
package credentials

import (
	"fmt"
	"sync"
)

// KV is the subset of the charm client the store needs.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore keeps each token under its own well-known key.
type KVStore struct {
	kv KV
	mu sync.RWMutex
}

func NewKVStore(kv KV) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Get() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Credential{
		AccessToken:  s.value(AccessTokenKey),
		RefreshToken: s.value(RefreshTokenKey),
	}
}

func (s *KVStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(AccessTokenKey, token)
}

func (s *KVStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(RefreshTokenKey, token)
}

func (s *KVStore) Replace(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.put(AccessTokenKey, c.AccessToken)
	if err == nil {
		err = s.put(RefreshTokenKey, c.RefreshToken)
	}
	if err != nil {
		// Never leave one session's access token beside another's refresh token.
		_ = s.kv.Delete([]byte(AccessTokenKey))
		_ = s.kv.Delete([]byte(RefreshTokenKey))
		return err
	}
	return nil
}

func (s *KVStore) Clear() error {
	return s.Replace(Credential{})
}

// value reports a missing or unreadable key as absent.
func (s *KVStore) value(key string) string {
	v, err := s.kv.Get([]byte(key))
	if err != nil {
		return ""
	}
	return string(v)
}

func (s *KVStore) put(key, token string) error {
	if token == "" {
		if err := s.kv.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	}
	if err := s.kv.Set([]byte(key), []byte(token)); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}
