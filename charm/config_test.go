// ABOUTME: Tests for charm backend settings
// ABOUTME: Defaults, save/reload, malformed files and environment overrides
package charm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.False(t, cfg.AutoSync)
	assert.Equal(t, path, cfg.Path())
}

func TestConfigSaveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	require.NoError(t, cfg.SetHost("charm.example.id"))
	require.NoError(t, cfg.SetAutoSync(true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	again, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "charm.example.id", again.Host)
	assert.True(t, again.AutoSync)
}

func TestMalformedConfigIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"auto_sync": tru`), 0600))

	_, err := LoadConfigFrom(path)
	assert.ErrorContains(t, err, "failed to parse charm config")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"host": "charm.file.id", "auto_sync": true}`), 0600))
	t.Setenv("MBG_CHARM_HOST", "charm.env.id")
	t.Setenv("MBG_CHARM_AUTO_SYNC", "false")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "charm.env.id", cfg.Host)
	assert.False(t, cfg.AutoSync)
}
