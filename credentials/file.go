// ABOUTME: File-backed credential store at an XDG data path
// ABOUTME: Persists the token pair as JSON with 0600 permissions, written atomically
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
)

// DefaultFilePath returns the XDG-compliant location of the credentials file.
func DefaultFilePath() string {
	return filepath.Join(xdg.DataHome, "mbgctl", "credentials.json")
}

// FileStore persists credentials to a single JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path, or at DefaultFilePath when path is empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath()
	}
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get() Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred := s.read()
	cred.AccessToken = token
	return s.write(cred)
}

func (s *FileStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred := s.read()
	cred.RefreshToken = token
	return s.write(cred)
}

func (s *FileStore) Replace(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(c)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// read treats a missing or unreadable file as an empty credential.
func (s *FileStore) read() Credential {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Credential{}
	}

	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return Credential{}
	}
	return Credential{
		AccessToken:  fields[AccessTokenKey],
		RefreshToken: fields[RefreshTokenKey],
	}
}

func (s *FileStore) write(c Credential) error {
	if c.IsEmpty() {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	fields := map[string]string{}
	if c.AccessToken != "" {
		fields[AccessTokenKey] = c.AccessToken
	}
	if c.RefreshToken != "" {
		fields[RefreshTokenKey] = c.RefreshToken
	}
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict credentials file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
