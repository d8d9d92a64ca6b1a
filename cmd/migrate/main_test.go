// ABOUTME: Tests for the credential migration utility
// ABOUTME: Copies tokens between file and sqlite stores in temp directories

package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mbgctl/credentials"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrateFileToSQLite(t *testing.T) {
	dir := t.TempDir()
	from := options(credentials.BackendFile, filepath.Join(dir, "credentials.json"))
	to := options(credentials.BackendSQLite, filepath.Join(dir, "mbgctl.db"))

	src := credentials.NewFileStore(from.FilePath)
	want := credentials.Credential{AccessToken: "access", RefreshToken: "refresh"}
	require.NoError(t, src.Replace(want))

	require.NoError(t, migrate(quiet(), from, to, false, true))

	dst, closeDst, err := credentials.Open(to)
	require.NoError(t, err)
	defer func() { _ = closeDst() }()
	assert.Equal(t, want, dst.Get())
	assert.True(t, src.Get().IsEmpty())
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	from := options(credentials.BackendFile, filepath.Join(dir, "a.json"))
	to := options(credentials.BackendFile, filepath.Join(dir, "b.json"))

	require.NoError(t, credentials.NewFileStore(from.FilePath).Replace(credentials.Credential{AccessToken: "access"}))
	require.NoError(t, migrate(quiet(), from, to, true, true))

	assert.True(t, credentials.NewFileStore(to.FilePath).Get().IsEmpty())
	assert.Equal(t, "access", credentials.NewFileStore(from.FilePath).Get().AccessToken)
}

func TestMigrateRejectsSameStore(t *testing.T) {
	opts := options(credentials.BackendFile, filepath.Join(t.TempDir(), "a.json"))
	assert.Error(t, migrate(quiet(), opts, opts, false, false))
}

func TestMigrateEmptySource(t *testing.T) {
	dir := t.TempDir()
	from := options(credentials.BackendFile, filepath.Join(dir, "missing.json"))
	to := options(credentials.BackendFile, filepath.Join(dir, "b.json"))
	assert.NoError(t, migrate(quiet(), from, to, false, false))
	assert.True(t, credentials.NewFileStore(to.FilePath).Get().IsEmpty())
}
