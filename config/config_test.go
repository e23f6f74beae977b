package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfigAndKeystore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "chainforge-local", cfg.NetworkName)
	require.FileExists(t, path)
	require.FileExists(t, cfg.ValidatorKeystorePath)
}

func TestLoadRoundTripsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	first, err := Load(path)
	require.NoError(t, err)

	second, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, first.ValidatorKeystorePath, second.ValidatorKeystorePath)
	require.Equal(t, first.NetworkName, second.NetworkName)
	require.NotEmpty(t, first.NodeID)
	require.Equal(t, first.NodeID, second.NodeID)
}

func TestLoadRejectsDeprecatedValidatorKeyField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("ValidatorKey = \"deadbeef\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
