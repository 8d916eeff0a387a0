// Package events carries session output and termination notices from the
// background PTY loops to whoever is watching.
package events

import (
	"encoding/base64"
	"time"
)

type Type string

const (
	TypeOutput Type = "output"
	TypeExit   Type = "exit"
)

// Event is the wire form of a session notification. Output bytes are
// base64 so arbitrary terminal data survives JSON transports.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"session_id"`
	Data      string    `json:"data,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Signal    string    `json:"signal,omitempty"`
	Time      time.Time `json:"time"`
}

// Output builds an output event for chunk.
func Output(sessionID string, chunk []byte) Event {
	return Event{
		Type:      TypeOutput,
		SessionID: sessionID,
		Data:      base64.StdEncoding.EncodeToString(chunk),
		Time:      time.Now(),
	}
}

// Exit builds a termination event. code is nil when the exit status
// could not be determined.
func Exit(sessionID string, code *int, signal string) Event {
	return Event{
		Type:      TypeExit,
		SessionID: sessionID,
		ExitCode:  code,
		Signal:    signal,
		Time:      time.Now(),
	}
}

// Bytes decodes the payload of an output event.
func (e Event) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(e.Data)
}

// Sink receives events. Publish is called from the PTY loops and must not
// block for long.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})
