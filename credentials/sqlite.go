// ABOUTME: SQLite-backed credential store
// ABOUTME: Stores each token as a row in the credentials table; Replace runs in one transaction
package credentials

import (
	"database/sql"
	"fmt"
	"sync"
)

// SQLiteStore persists tokens in the credentials table created by db.InitSchema.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Get() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cred Credential
	rows, err := s.db.Query(`SELECT key, value FROM credentials WHERE key IN (?, ?)`, AccessTokenKey, RefreshTokenKey)
	if err != nil {
		return cred
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Credential{}
		}
		switch key {
		case AccessTokenKey:
			cred.AccessToken = value
		case RefreshTokenKey:
			cred.RefreshToken = value
		}
	}
	return cred
}

func (s *SQLiteStore) SetAccessToken(token string) error {
	return s.update(func(tx *sql.Tx) error { return putRow(tx, AccessTokenKey, token) })
}

func (s *SQLiteStore) SetRefreshToken(token string) error {
	return s.update(func(tx *sql.Tx) error { return putRow(tx, RefreshTokenKey, token) })
}

func (s *SQLiteStore) Replace(c Credential) error {
	return s.update(func(tx *sql.Tx) error {
		if err := putRow(tx, AccessTokenKey, c.AccessToken); err != nil {
			return err
		}
		return putRow(tx, RefreshTokenKey, c.RefreshToken)
	})
}

func (s *SQLiteStore) Clear() error {
	return s.Replace(Credential{})
}

func (s *SQLiteStore) update(fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

func putRow(tx *sql.Tx, key, value string) error {
	if value == "" {
		if _, err := tx.Exec(`DELETE FROM credentials WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	}
	_, err := tx.Exec(`
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}
