package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Setenv("AGENTDECK_ADDR", "")
		t.Setenv("AGENTDECK_TOKEN", "")
		t.Setenv("DEBUG", "")

		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.AuthToken)
	})

	t.Run("file values are read", func(t *testing.T) {
		t.Setenv("AGENTDECK_ADDR", "")
		t.Setenv("AGENTDECK_TOKEN", "")
		t.Setenv("DEBUG", "")

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("listen_addr: 0.0.0.0:9000\nauth_token: s3cret\nlog_level: warn\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
		assert.Equal(t, "s3cret", cfg.AuthToken)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("AGENTDECK_ADDR", "127.0.0.1:1234")
		t.Setenv("AGENTDECK_TOKEN", "from-env")
		t.Setenv("DEBUG", "1")

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("auth_token: from-file\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:1234", cfg.ListenAddr)
		assert.Equal(t, "from-env", cfg.AuthToken)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("listen_addr: [oops\n"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("AGENTDECK_ADDR", "")
	t.Setenv("AGENTDECK_TOKEN", "")
	t.Setenv("DEBUG", "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.AuthToken = "abc"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.AuthToken)
}
