// ABOUTME: Tests for database schema creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	// Verify credentials table exists
	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='credentials'").Scan(&name)
	if err != nil {
		t.Errorf("Table credentials not found: %v", err)
	}

	// Running twice is a no-op
	if err := InitSchema(db); err != nil {
		t.Errorf("second InitSchema failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO credentials (key, value) VALUES ('mbg_access_token', 'a')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var updated string
	if err := db.QueryRow("SELECT updated_at FROM credentials WHERE key = 'mbg_access_token'").Scan(&updated); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if updated == "" {
		t.Error("updated_at default not applied")
	}
}
