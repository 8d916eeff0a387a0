package client

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/vanpelt/agentdeck/internal/events"
)

// Capture is a timestamped recording of a session's output, replayable
// by terminal test fixtures.
type Capture struct {
	SessionID       string         `json:"sessionId"`
	CaptureDate     time.Time      `json:"captureDate"`
	TotalBytes      int            `json:"totalBytes"`
	DurationSeconds float64        `json:"durationSeconds"`
	ExitCode        *int           `json:"exitCode,omitempty"`
	Events          []CaptureEvent `json:"events"`
}

// CaptureEvent is one output chunk, offset from the start of the capture.
type CaptureEvent struct {
	TimestampMs int    `json:"timestampMs"`
	Data        []byte `json:"data"`
}

// Recorder accumulates stream messages into a Capture. It is safe to feed
// from a stream handler while another goroutine calls Finish.
type Recorder struct {
	mu      sync.Mutex
	now     func() time.Time
	start   time.Time
	capture Capture
}

// NewRecorder starts a capture of sessionID.
func NewRecorder(sessionID string) *Recorder {
	return newRecorder(sessionID, time.Now)
}

func newRecorder(sessionID string, now func() time.Time) *Recorder {
	start := now()
	return &Recorder{
		now:   now,
		start: start,
		capture: Capture{
			SessionID:   sessionID,
			CaptureDate: start,
			Events:      []CaptureEvent{},
		},
	}
}

// Record is a stream message handler.
func (r *Recorder) Record(m StreamMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch m.Type {
	case events.TypeOutput:
		data, err := m.Bytes()
		if err != nil || len(data) == 0 {
			return
		}
		r.capture.Events = append(r.capture.Events, CaptureEvent{
			TimestampMs: int(r.now().Sub(r.start).Milliseconds()),
			Data:        data,
		})
		r.capture.TotalBytes += len(data)
	case events.TypeExit:
		if m.ExitCode != nil {
			code := *m.ExitCode
			r.capture.ExitCode = &code
		}
	}
}

// Finish stamps the duration and returns a copy of the capture.
func (r *Recorder) Finish() Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.capture
	c.DurationSeconds = r.now().Sub(r.start).Seconds()
	c.Events = append([]CaptureEvent(nil), r.capture.Events...)
	return c
}

// WriteJSON writes c as indented JSON.
func (c Capture) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}
