package pty

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// Fake is an in-memory Backend for tests. It never starts a process:
// a spawned FakeChild replays Script onto the output stream and, with
// Echo set, every write to the master is fed back as output.
type Fake struct {
	Script   [][]byte
	Echo     bool
	OpenErr  error
	SpawnErr error

	mu       sync.Mutex
	nextPID  int
	masters  []*FakeMaster
	children []*FakeChild
}

// Ensure Fake implements Backend
var _ Backend = (*Fake)(nil)

// NewFake returns a Fake whose pids start at 1001.
func NewFake() *Fake {
	return &Fake{nextPID: 1000}
}

// Open creates a FakeMaster/slave pair.
func (f *Fake) Open(size Size) (Master, Slave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, nil, f.OpenErr
	}
	pr, pw := io.Pipe()
	m := &FakeMaster{size: size, out: pr, feed: pw, echo: f.Echo}
	f.masters = append(f.masters, m)
	return m, &fakeSlave{backend: f, master: m}, nil
}

// Masters returns every master opened so far.
func (f *Fake) Masters() []*FakeMaster {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeMaster(nil), f.masters...)
}

// Children returns every child spawned so far.
func (f *Fake) Children() []*FakeChild {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeChild(nil), f.children...)
}

type fakeSlave struct {
	backend *Fake
	master  *FakeMaster
}

func (s *fakeSlave) Spawn(cmd Command) (Child, error) {
	f := s.backend
	f.mu.Lock()
	if f.SpawnErr != nil {
		f.mu.Unlock()
		return nil, f.SpawnErr
	}
	f.nextPID++
	child := &FakeChild{
		Cmd:    cmd,
		pid:    f.nextPID,
		master: s.master,
		done:   make(chan struct{}),
	}
	f.children = append(f.children, child)
	script := append([][]byte(nil), f.Script...)
	f.mu.Unlock()

	go func() {
		for _, chunk := range script {
			if _, err := s.master.feed.Write(chunk); err != nil {
				return
			}
		}
	}()
	return child, nil
}

func (s *fakeSlave) Close() error { return nil }

// FakeMaster records writes and resizes.
type FakeMaster struct {
	out  *io.PipeReader
	feed *io.PipeWriter
	echo bool

	mu          sync.Mutex
	size        Size
	written     bytes.Buffer
	writerTaken bool
	closed      bool
}

func (m *FakeMaster) Resize(size Size) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("fake pty closed")
	}
	m.size = size
	return nil
}

func (m *FakeMaster) Reader() (io.Reader, error) {
	return m.out, nil
}

func (m *FakeMaster) TakeWriter() (io.Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writerTaken {
		return nil, ErrWriterTaken
	}
	m.writerTaken = true
	return fakeWriter{m}, nil
}

func (m *FakeMaster) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	_ = m.feed.Close()
	return m.out.Close()
}

// Size returns the current window size.
func (m *FakeMaster) Size() Size {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Written returns everything written to the master so far.
func (m *FakeMaster) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written.Bytes()...)
}

// Closed reports whether Close was called.
func (m *FakeMaster) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type fakeWriter struct{ m *FakeMaster }

func (w fakeWriter) Write(p []byte) (int, error) {
	w.m.mu.Lock()
	if w.m.closed {
		w.m.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	w.m.written.Write(p)
	w.m.mu.Unlock()
	if w.m.echo {
		return w.m.feed.Write(p)
	}
	return len(p), nil
}

// FakeChild is a scripted process. It runs until Kill or Exit.
type FakeChild struct {
	Cmd Command
	// KillErr, when set, makes Kill fail and leaves the child running.
	KillErr error

	pid    int
	master *FakeMaster
	once   sync.Once
	done   chan struct{}
	status ExitStatus
}

func (c *FakeChild) PID() int { return c.pid }

// Kill ends the child as if by SIGKILL. Repeated calls are no-ops.
func (c *FakeChild) Kill() error {
	if c.KillErr != nil {
		return c.KillErr
	}
	c.finish(ExitStatus{Code: 137, Signal: "killed"})
	return nil
}

// Exit ends the child with code, as if it exited on its own.
func (c *FakeChild) Exit(code int) {
	c.finish(ExitStatus{Code: code})
}

// Done is closed once the child has ended.
func (c *FakeChild) Done() <-chan struct{} { return c.done }

func (c *FakeChild) finish(status ExitStatus) {
	c.once.Do(func() {
		c.status = status
		// Hang up the terminal: the reader sees EOF like a real PTY
		// after the last holder of the slave goes away.
		_ = c.master.feed.Close()
		close(c.done)
	})
}

func (c *FakeChild) Wait() (ExitStatus, error) {
	<-c.done
	return c.status, nil
}
