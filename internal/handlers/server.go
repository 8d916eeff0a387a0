// Package handlers is the remote-control HTTP surface over a session
// manager: REST routes for the registry, a websocket per session stream,
// and worktree provisioning.
package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/middleware"
	"github.com/vanpelt/agentdeck/internal/sessions"
	"github.com/vanpelt/agentdeck/internal/worktree"
)

// ErrNoToken is returned by NewServer when no auth token is configured and
// Insecure is not set.
var ErrNoToken = errors.New("an auth token is required unless running insecure")

// Config wires a Server.
type Config struct {
	Token    string
	Insecure bool

	Manager   *sessions.Manager
	Hub       *events.Hub
	Worktrees *worktree.Manager

	// RequestLog enables the sampling request logger.
	RequestLog bool
}

// Server owns the fiber app.
type Server struct {
	app       *fiber.App
	auth      *middleware.AuthMiddleware
	manager   *sessions.Manager
	hub       *events.Hub
	worktrees *worktree.Manager
}

// NewServer builds the app and registers every route.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Token == "" && !cfg.Insecure {
		return nil, ErrNoToken
	}
	if cfg.Manager == nil || cfg.Hub == nil {
		return nil, errors.New("handlers: Manager and Hub are required")
	}
	if cfg.Worktrees == nil {
		cfg.Worktrees = worktree.NewManager(nil)
	}

	app := fiber.New(fiber.Config{
		AppName:               "agentdeck",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
		BodyLimit:             64 * 1024,
	})
	s := &Server{
		app:       app,
		auth:      middleware.NewAuthMiddleware(cfg.Token),
		manager:   cfg.Manager,
		hub:       cfg.Hub,
		worktrees: cfg.Worktrees,
	}

	app.Use(recover.New())
	if cfg.RequestLog {
		app.Use(SamplingLogger())
	}
	app.Use(s.auth.RequireAuth)

	app.Get("/health", s.health)

	v1 := app.Group("/v1")
	v1.Post("/sessions", s.launchSession)
	v1.Get("/sessions", s.listSessions)
	v1.Get("/sessions/:id", s.getSession)
	v1.Post("/sessions/:id/input", s.writeInput)
	v1.Post("/sessions/:id/resize", s.resizeSession)
	v1.Put("/sessions/:id/usage", s.recordUsage)
	v1.Delete("/sessions/:id", s.terminateSession)
	v1.Get("/sessions/:id/stream", s.streamSession)

	v1.Post("/worktrees", s.createWorktree)
	v1.Get("/worktrees", s.listWorktrees)
	v1.Delete("/worktrees", s.removeWorktree)

	return s, nil
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// RotateToken swaps the bearer token on a running server. It reports
// false when auth is disabled or token is empty.
func (s *Server) RotateToken(token string) bool {
	return s.auth.SetToken(token)
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	logger.Infof("🚀 Remote control listening on %s", addr)
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	logger.Infof("🚀 Remote control listening on %s", ln.Addr())
	return s.app.Listener(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type healthResponse struct {
	Status      string `json:"status"`
	Running     int    `json:"running"`
	MaxSessions int    `json:"max_sessions"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:      "ok",
		Running:     s.manager.RunningCount(),
		MaxSessions: sessions.MaxSessions,
	})
}
