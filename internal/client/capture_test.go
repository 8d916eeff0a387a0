package client

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanpelt/agentdeck/internal/events"
)

func TestRecorderTimestampsOutput(t *testing.T) {
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := func() time.Time { return clock }
	r := newRecorder("s1", now)

	r.Record(StreamMessage{Event: events.Output("s1", []byte("hello "))})
	clock = clock.Add(250 * time.Millisecond)
	r.Record(StreamMessage{Event: events.Output("s1", []byte("world"))})
	r.Record(StreamMessage{Error: "rejected"})
	code := 0
	clock = clock.Add(time.Second)
	r.Record(StreamMessage{Event: events.Exit("s1", &code, "")})

	c := r.Finish()
	assert.Equal(t, "s1", c.SessionID)
	assert.Equal(t, 11, c.TotalBytes)
	require.Len(t, c.Events, 2)
	assert.Equal(t, 0, c.Events[0].TimestampMs)
	assert.Equal(t, 250, c.Events[1].TimestampMs)
	assert.InDelta(t, 1.25, c.DurationSeconds, 1e-9)
	require.NotNil(t, c.ExitCode)
	assert.Equal(t, 0, *c.ExitCode)

	var buf bytes.Buffer
	require.NoError(t, c.WriteJSON(&buf))
	var decoded Capture
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []byte("world"), decoded.Events[1].Data)
}
