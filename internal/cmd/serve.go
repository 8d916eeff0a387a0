package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/config"
	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/handlers"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/sessions"
	"github.com/vanpelt/agentdeck/internal/worktree"
)

var (
	serveInsecure bool
	serveDev      bool
	serveLogFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "🚀 Start the session server",
	Long: `# 🚀 Session Server

**Host agent and shell sessions and expose them over HTTP and websockets.**

## 🔒 Authentication

Every route except **/health** needs **Authorization: Bearer <token>**.
The token comes from **--token**, **AGENTDECK_TOKEN** or **auth_token** in
the config file. Running without a token requires **--insecure**.

## 🛑 Shutdown

SIGINT or SIGTERM stops accepting requests and kills every running session.

## 🔄 Reload

Edits to the config file apply while serving: **log_level** and
**auth_token** take effect without a restart. A token passed with
**--token** stays fixed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveInsecure, "insecure", false, "allow running without an auth token")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "human-readable logs and request logging")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "write logs to this file (relative paths live under the data dir)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dev := cfg.Dev || serveDev

	var logOut io.Writer = os.Stderr
	if serveLogFile != "" {
		f, err := openLogFile(cfg.DataDir, serveLogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	rl := &reloader{dev: dev, out: logOut, pinned: authToken != "", current: cfg.AuthToken}
	rl.configureLogging(cfg)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub(events.DefaultBuffer)
	manager := sessions.NewManager(sessions.Options{Sink: hub})
	defer manager.Shutdown()

	srv, err := handlers.NewServer(handlers.Config{
		Token:      cfg.AuthToken,
		Insecure:   serveInsecure,
		Manager:    manager,
		Hub:        hub,
		Worktrees:  worktree.NewManager(nil),
		RequestLog: dev,
	})
	if errors.Is(err, handlers.ErrNoToken) {
		return fmt.Errorf("%w: set --token, AGENTDECK_TOKEN or pass --insecure", err)
	}
	if err != nil {
		return err
	}
	if cfg.AuthToken == "" {
		logger.Warnf("⚠️ Authentication disabled: anyone who can reach %s controls your terminals", cfg.ListenAddr)
	}

	rl.srv = srv
	if err := config.Watch(ctx, config.FilePath(configPath), rl.apply); err != nil {
		logger.Debugf("Config hot reload disabled: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.ListenAddr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openLogFile opens name for appending. Relative names resolve under dataDir.
func openLogFile(dataDir, name string) (*os.File, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// serveLogLevel picks the level for cfg. An explicit log_level wins; in dev
// mode an info default follows DEBUG instead.
func serveLogLevel(cfg *config.Config, dev bool) logger.LogLevel {
	level := logger.ParseLevel(cfg.LogLevel)
	if dev && level == logger.LevelInfo {
		level = logger.GetLogLevelFromEnv(true)
	}
	return level
}

type tokenRotator interface {
	RotateToken(token string) bool
}

// reloader applies config file changes to a running server.
type reloader struct {
	srv    tokenRotator
	dev    bool
	out    io.Writer
	pinned bool

	mu      sync.Mutex
	current string
}

func (r *reloader) configureLogging(cfg *config.Config) {
	logger.ConfigureWriter(serveLogLevel(cfg, r.dev), r.dev, r.out)
}

func (r *reloader) apply(next *config.Config) {
	r.configureLogging(next)
	if r.pinned || r.srv == nil || next.AuthToken == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if next.AuthToken == r.current {
		return
	}
	if r.srv.RotateToken(next.AuthToken) {
		r.current = next.AuthToken
		logger.Info("🔑 Auth token rotated")
	}
}
