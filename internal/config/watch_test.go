package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	t.Setenv("AGENTDECK_TOKEN", "")
	t.Setenv("AGENTDECK_ADDR", "")
	t.Setenv("DEBUG", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth_token: first\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, func(c *Config) { got <- c }))

	require.NoError(t, os.WriteFile(path, []byte("auth_token: second\nlog_level: debug\n"), 0o600))

	select {
	case cfg := <-got:
		assert.Equal(t, "second", cfg.AuthToken)
		assert.Equal(t, "debug", cfg.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 1)
	require.NoError(t, Watch(ctx, path, func(c *Config) { got <- c }))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case <-got:
		t.Fatal("unexpected reload")
	case <-time.After(3 * reloadDebounce):
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "config.yaml"), func(*Config) {})
	assert.Error(t, err)
}

func TestFilePath(t *testing.T) {
	assert.Equal(t, "/etc/agentdeck.yaml", FilePath("/etc/agentdeck.yaml"))
	assert.Equal(t, filepath.Join(DefaultDataDir(), "config.yaml"), FilePath(""))
}
