// ABOUTME: Credential backend selection by name
// ABOUTME: Opens memory, file, charm, or sqlite stores from configuration
package credentials

import (
	"fmt"

	"github.com/harperreed/mbgctl/charm"
	"github.com/harperreed/mbgctl/db"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendCharm  = "charm"
	BackendSQLite = "sqlite"
)

// Options selects and locates a credential backend.
type Options struct {
	Backend  string
	FilePath string
	DBPath   string
}

// Open returns the configured store and a function releasing its resources.
func Open(opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.FilePath), noop, nil

	case BackendMemory:
		return NewMemoryStore(), noop, nil

	case BackendCharm:
		cfg, err := charm.LoadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load charm config: %w", err)
		}
		c, err := charm.NewClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewKVStore(c), noop, nil

	case BackendSQLite:
		path := opts.DBPath
		if path == "" {
			path = db.DefaultPath()
		}
		database, err := db.OpenDatabase(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open credentials database: %w", err)
		}
		return NewSQLiteStore(database), database.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown credential backend %q (want memory, file, charm, or sqlite)", opts.Backend)
}
