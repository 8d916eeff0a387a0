package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/handlers"
	"github.com/vanpelt/agentdeck/internal/pty"
	"github.com/vanpelt/agentdeck/internal/sessions"
)

const token = "client-test-token"

func startServer(t *testing.T) (string, *pty.Fake) {
	t.Helper()
	fake := pty.NewFake()
	fake.Echo = true
	hub := events.NewHub(64)
	manager := sessions.NewManager(sessions.Options{
		Backend: fake,
		Sink:    hub,
		HomeDir: func() (string, error) { return t.TempDir(), nil },
	})
	srv, err := handlers.NewServer(handlers.Config{Token: token, Manager: manager, Hub: hub})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		manager.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ln.Addr().String(), fake
}

func TestClientRESTRoundTrip(t *testing.T) {
	addr, fake := startServer(t)
	c, err := New(addr, token)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := c.Launch(ctx, sessions.LaunchRequest{AgentType: "bash"})
	require.NoError(t, err)

	rec, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessions.StatusRunning, rec.Status)

	require.NoError(t, c.Resize(ctx, id, 90, 33))
	assert.Equal(t, pty.Size{Cols: 90, Rows: 33}, fake.Masters()[0].Size())

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.Terminate(ctx, id))
	_, err = c.Get(ctx, id)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "session not found")
}

func TestClientWrongToken(t *testing.T) {
	addr, _ := startServer(t)
	c, err := New("http://"+addr, "wrong")
	require.NoError(t, err)

	_, err = c.List(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.StatusCode)

	s := c.Attach("anything")
	assert.Error(t, s.Connect(context.Background()))
}

func TestStreamEchoAndExit(t *testing.T) {
	addr, _ := startServer(t)
	c, err := New(addr, token)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := c.Launch(ctx, sessions.LaunchRequest{AgentType: "bash"})
	require.NoError(t, err)

	var mu sync.Mutex
	var output []byte
	var rejected []string
	var exitCode *int

	s := c.Attach(id)
	s.SetMessageHandler(func(m StreamMessage) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case m.Error != "":
			rejected = append(rejected, m.Error)
		case m.Type == events.TypeOutput:
			b, _ := m.Bytes()
			output = append(output, b...)
		case m.Type == events.TypeExit:
			exitCode = m.ExitCode
		}
	})
	require.NoError(t, s.Connect(ctx))
	defer s.Close()

	require.NoError(t, s.Send("hello\n"))
	require.NoError(t, s.Send("\x1b[A"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return string(output) == "hello\n" && len(rejected) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Terminate(ctx, id))
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after terminate")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, exitCode)
	assert.Equal(t, 137, *exitCode)
}

func TestSendBeforeConnect(t *testing.T) {
	c, err := New("127.0.0.1:1", "")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Attach("x").Send("hi"), ErrNotConnected)
}
