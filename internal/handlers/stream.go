package handlers

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/recovery"
	"github.com/vanpelt/agentdeck/internal/sessions"
)

const streamWriteTimeout = 10 * time.Second

// StreamError is sent on the stream when an inbound frame is rejected.
type StreamError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// streamSession upgrades to a websocket that carries the session's events
// out and treats every inbound text frame as terminal input.
// @Summary Stream session
// @Tags sessions
// @Success 101 {string} string "Switching Protocols"
// @Router /v1/sessions/{id}/stream [get]
func (s *Server) streamSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.manager.Get(id); err != nil {
		return err
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		s.pump(conn, id)
	})(c)
}

func (s *Server) pump(conn *websocket.Conn, id string) {
	log := logger.WithSession(id)
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("📡 Stream connected")
	defer func() { log.Info().Msg("🔌 Stream disconnected") }()

	ch, cancel := s.hub.Subscribe(id)
	defer cancel()

	var writeMu sync.Mutex
	send := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(v)
	}

	// The process may have ended before the subscription existed.
	if rec, err := s.manager.Get(id); err != nil || rec.Status != sessions.StatusRunning {
		_ = send(exitFor(id, rec))
		return
	}

	done := make(chan struct{})
	recovery.SafeGoWithCleanup("stream-reader-"+id, func() {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Msg("Stream read ended")
				}
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			if err := s.sendInput(id, string(data)); err != nil {
				if send(StreamError{Type: "error", Error: err.Error()}) != nil {
					return
				}
			}
		}
	}, func() { close(done) })

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := send(e); err != nil {
				log.Debug().Err(err).Msg("Stream write failed")
				return
			}
			if e.Type == events.TypeExit {
				writeMu.Lock()
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				writeMu.Unlock()
				return
			}
		case <-done:
			return
		}
	}
}

func exitFor(id string, rec sessions.Record) events.Event {
	return events.Exit(id, rec.ExitCode, "")
}
