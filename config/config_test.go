package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/credentials"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MBG_API_URL", "MBG_CREDENTIAL_BACKEND", "MBG_CREDENTIAL_FILE", "MBG_DB_PATH",
		"MBG_SESSION_FILE", "LOG_LEVEL", "MBG_DEV_SERVER_ADDR", "MBG_METRICS_ADDR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, api.DefaultBaseURL, cfg.APIURL)
	assert.Equal(t, credentials.BackendFile, cfg.CredentialBackend)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://file.example/api/v1\ncredential_backend: sqlite\nlog_level: warn\n"), 0600))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MBG_API_URL=http://dotenv.example/api/v1\n"), 0600))

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.example/api/v1", cfg.APIURL)
	assert.Equal(t, credentials.BackendSQLite, cfg.CredentialBackend)
	assert.Equal(t, "warn", cfg.LogLevel)

	t.Setenv("MBG_API_URL", "https://env.example/api/v1")
	cfg, err = Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example/api/v1", cfg.APIURL, "process env beats .env")
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("MBG_CREDENTIAL_BACKEND", "keychain")
	_, err := Load(filepath.Join(dir, "none.yaml"), "")
	assert.Error(t, err)

	t.Setenv("MBG_CREDENTIAL_BACKEND", "memory")
	t.Setenv("MBG_API_URL", "localhost:8080")
	_, err = Load(filepath.Join(dir, "none.yaml"), "")
	assert.Error(t, err)

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [oops"), 0600))
	_, err = Load(path, "")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.CredentialBackend = credentials.BackendCharm
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
