package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_FreshDirectoryWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	for _, sub := range []string{"logs", "backups", "scripts"} {
		assert.DirExists(t, filepath.Join(dir, sub))
	}
	assert.FileExists(t, filepath.Join(dir, fileName))
}

func TestLoadOrCreate_FillsMissingFieldsFromDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	partial := "[node]\nbinary_path = \"/opt/nockchain/bin/nockchain\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(partial), 0o600))

	cfg, err := LoadOrCreate(dir)
	require.NoError(t, err)

	assert.Equal(t, "/opt/nockchain/bin/nockchain", cfg.Node.BinaryPath)
	assert.Equal(t, Default().Logging, cfg.Logging)
	assert.Equal(t, Default().Benchmarking, cfg.Benchmarking)
}

// TestSaveRoundTrip exercises testable property #1: for all
// configurations C, save(load_or_create(save(C))) is byte-equal to
// save(C).
func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Node.BinaryPath = "/custom/path/nockchain"
	cfg.Network.BootstrapPeers = []string{"/ip4/1.2.3.4/udp/1234/quic-v1"}

	require.NoError(t, Save(cfg, dir))
	first, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)

	loaded, err := LoadOrCreate(dir)
	require.NoError(t, err)

	require.NoError(t, Save(loaded, dir))
	second, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestLoadOrCreate_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("not = [valid toml"), 0o600))

	_, err := LoadOrCreate(dir)
	require.Error(t, err)
}
