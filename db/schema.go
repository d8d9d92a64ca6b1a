// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for locally persisted client state
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
