package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanpelt/agentdeck/internal/config"
	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/handlers"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/pty"
	"github.com/vanpelt/agentdeck/internal/sessions"
)

func newReloadServer(t *testing.T, token string) *handlers.Server {
	t.Helper()
	hub := events.NewHub(16)
	manager := sessions.NewManager(sessions.Options{Backend: pty.NewFake(), Sink: hub})
	t.Cleanup(manager.Shutdown)

	srv, err := handlers.NewServer(handlers.Config{Token: token, Manager: manager, Hub: hub})
	require.NoError(t, err)
	return srv
}

func accepts(srv *handlers.Server, token string) bool {
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		return false
	}
	return resp.StatusCode == http.StatusOK
}

func TestReloadRotatesTokenBackAndForth(t *testing.T) {
	t.Setenv("AGENTDECK_TOKEN", "")
	t.Setenv("AGENTDECK_ADDR", "")
	t.Setenv("DEBUG", "")
	t.Cleanup(func() { logger.Configure(logger.LevelInfo, false) })

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth_token: alpha\n"), 0o600))

	srv := newReloadServer(t, "alpha")
	rl := &reloader{srv: srv, out: io.Discard, current: "alpha"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, config.Watch(ctx, path, rl.apply))

	for _, step := range []struct{ next, old string }{
		{"bravo", "alpha"},
		{"alpha", "bravo"},
		{"bravo", "alpha"},
	} {
		require.NoError(t, os.WriteFile(path, []byte("auth_token: "+step.next+"\n"), 0o600))
		assert.Eventually(t, func() bool { return accepts(srv, step.next) }, 5*time.Second, 20*time.Millisecond, "token %s", step.next)
		assert.False(t, accepts(srv, step.old))
	}
}

func TestReloadKeepsPinnedToken(t *testing.T) {
	t.Cleanup(func() { logger.Configure(logger.LevelInfo, false) })

	srv := newReloadServer(t, "flag-token")
	rl := &reloader{srv: srv, out: io.Discard, pinned: true, current: "flag-token"}

	rl.apply(&config.Config{AuthToken: "from-file"})
	assert.True(t, accepts(srv, "flag-token"))
	assert.False(t, accepts(srv, "from-file"))
}

func TestReloadIgnoresEmptyToken(t *testing.T) {
	t.Cleanup(func() { logger.Configure(logger.LevelInfo, false) })

	srv := newReloadServer(t, "alpha")
	rl := &reloader{srv: srv, out: io.Discard, current: "alpha"}

	rl.apply(&config.Config{})
	assert.True(t, accepts(srv, "alpha"))
}

func TestServeLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		dev   bool
		debug string
		want  logger.LogLevel
	}{
		{"default", "info", false, "", logger.LevelInfo},
		{"explicit warn", "warn", false, "", logger.LevelWarn},
		{"dev defaults to debug", "info", true, "", logger.LevelDebug},
		{"dev with DEBUG=false", "info", true, "false", logger.LevelInfo},
		{"dev keeps explicit level", "error", true, "", logger.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEBUG", tt.debug)
			assert.Equal(t, tt.want, serveLogLevel(&config.Config{LogLevel: tt.level}, tt.dev))
		})
	}
}

func TestReloadInDevModeKeepsDebug(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Cleanup(func() { logger.Configure(logger.LevelInfo, false) })

	rl := &reloader{out: io.Discard, dev: true}
	rl.apply(&config.Config{LogLevel: "info"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestOpenLogFileUnderDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	f, err := openLogFile(dataDir, "logs/serve.log")
	require.NoError(t, err)
	_, err = f.WriteString("line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dataDir, "logs", "serve.log"))
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}

func TestInitWritesTokenOnce(t *testing.T) {
	t.Setenv("AGENTDECK_TOKEN", "")
	t.Setenv("AGENTDECK_ADDR", "")
	t.Setenv("DEBUG", "")
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := run(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.AuthToken, 64)
	first := cfg.AuthToken

	_, err = run(t, "init", "--config", path)
	assert.Error(t, err)

	_, err = run(t, "init", "--config", path, "--force")
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, cfg.AuthToken)
}
