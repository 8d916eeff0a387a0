package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vanpelt/agentdeck/internal/events"
)

// ErrNotConnected is returned by Send before Connect or after Close.
var ErrNotConnected = errors.New("not connected")

// StreamMessage is one frame from a session stream: an event, or an
// error reply to rejected input.
type StreamMessage struct {
	events.Event
	Error string `json:"error,omitempty"`
}

// Stream is an attached session.
type Stream struct {
	client    *Client
	sessionID string

	mu        sync.Mutex
	conn      *websocket.Conn
	onMessage func(StreamMessage)
	onError   func(error)
	done      chan struct{}
}

// Attach returns an unconnected stream for sessionID.
func (c *Client) Attach(sessionID string) *Stream {
	return &Stream{
		client:    c,
		sessionID: sessionID,
		done:      make(chan struct{}),
	}
}

// Connect dials the stream and starts reading. Handlers must be set first.
func (s *Stream) Connect(ctx context.Context) error {
	u := *s.client.baseURL
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/v1/sessions/" + url.PathEscape(s.sessionID) + "/stream"

	header := http.Header{}
	if s.client.token != "" {
		header.Set("Authorization", "Bearer "+s.client.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to attach to %s: %s: %w", s.sessionID, resp.Status, err)
		}
		return fmt.Errorf("failed to attach to %s: %w", s.sessionID, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn)
	return nil
}

func (s *Stream) readLoop(conn *websocket.Conn) {
	defer close(s.done)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if s.onError != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.onError(err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var msg StreamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			if s.onError != nil {
				s.onError(fmt.Errorf("bad stream frame: %w", err))
			}
			continue
		}
		if s.onMessage != nil {
			s.onMessage(msg)
		}
	}
}

// Send types data into the session.
func (s *Stream) Send(data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(data))
}

// Close detaches without terminating the session.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *Stream) SetMessageHandler(handler func(StreamMessage)) {
	s.onMessage = handler
}

func (s *Stream) SetErrorHandler(handler func(error)) {
	s.onError = handler
}

// Done is closed when the server ends the stream.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}
