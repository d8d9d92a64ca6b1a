// ABOUTME: mbgctl configuration loaded from YAML, .env and environment variables
// ABOUTME: Later sources win: defaults, then config.yaml, then .env, then the process environment
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/credentials"
)

// Config holds every user-tunable setting.
type Config struct {
	APIURL            string `yaml:"api_url" env:"MBG_API_URL"`
	CredentialBackend string `yaml:"credential_backend" env:"MBG_CREDENTIAL_BACKEND"`
	CredentialFile    string `yaml:"credential_file,omitempty" env:"MBG_CREDENTIAL_FILE"`
	DBPath            string `yaml:"db_path,omitempty" env:"MBG_DB_PATH"`
	SessionFile       string `yaml:"session_file,omitempty" env:"MBG_SESSION_FILE"`
	LogLevel          string `yaml:"log_level" env:"LOG_LEVEL"`
	DevServerAddr     string `yaml:"dev_server_addr" env:"MBG_DEV_SERVER_ADDR"`
	MetricsAddr       string `yaml:"metrics_addr,omitempty" env:"MBG_METRICS_ADDR"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:            api.DefaultBaseURL,
		CredentialBackend: credentials.BackendFile,
		LogLevel:          "info",
		DevServerAddr:     "127.0.0.1:8080",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/mbgctl/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "mbgctl", "config.yaml")
}

// Load reads the config at path (DefaultPath when empty). A missing file is
// not an error. envFile names a dotenv file to load first; a missing one is ignored.
func Load(path, envFile string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the API URL and credential backend.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	switch c.CredentialBackend {
	case credentials.BackendMemory, credentials.BackendFile, credentials.BackendCharm, credentials.BackendSQLite:
	default:
		return fmt.Errorf("unknown credential_backend %q", c.CredentialBackend)
	}
	return nil
}

// CredentialOptions maps the config onto credential store options.
func (c *Config) CredentialOptions() credentials.Options {
	return credentials.Options{
		Backend:  c.CredentialBackend,
		FilePath: c.CredentialFile,
		DBPath:   c.DBPath,
	}
}

// Save writes the config to path (DefaultPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
