// ABOUTME: Charm backend settings: which server holds the token KV and whether writes sync
// ABOUTME: Read from charm-config.json under the XDG data dir, with MBG_CHARM_* environment overrides

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v6"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the KV database and the data directory.
	AppName = "mbgctl"

	ConfigFileName = "charm-config.json"
)

// Config selects the charm server and the sync policy for stored tokens.
// A synced token follows the charm account to every linked device, so
// AutoSync is off unless the user turns it on.
type Config struct {
	Host     string `json:"host,omitempty" env:"MBG_CHARM_HOST"`
	AutoSync bool   `json:"auto_sync" env:"MBG_CHARM_AUTO_SYNC"`

	path string
}

func DefaultConfig() *Config {
	return &Config{Host: DefaultCharmHost}
}

// DefaultConfigPath is $XDG_DATA_HOME/mbgctl/charm-config.json.
func DefaultConfigPath() string {
	return filepath.Join(xdg.DataHome, AppName, ConfigFileName)
}

// LoadConfig reads the settings at DefaultConfigPath.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigPath())
}

// LoadConfigFrom reads the settings at path. A missing file yields the
// defaults; an unreadable or malformed one is an error rather than a silent
// reset, since a reset could flip AutoSync. Environment variables win over
// the file.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read charm config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse charm config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to read charm environment: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	cfg.path = path
	return cfg, nil
}

// Path reports where Save writes.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultConfigPath()
	}
	return c.path
}

// Save writes the settings back to the file they were loaded from.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create charm config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode charm config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write charm config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write charm config: %w", err)
	}
	return nil
}

func (c *Config) SetHost(host string) error {
	c.Host = host
	return c.Save()
}

func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
