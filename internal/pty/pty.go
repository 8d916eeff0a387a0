// Package pty wraps the host pseudo-terminal facility behind a small
// capability set so the session manager can run against a real PTY or a
// scripted fake.
//
// All methods may block in the OS and must only be called where blocking
// is tolerated.
package pty

import (
	"errors"
	"io"
)

var (
	// ErrWriterTaken is returned by Master.TakeWriter after the first call.
	ErrWriterTaken = errors.New("pty writer already taken")
	// ErrUnsupported is returned by backends on platforms without PTYs.
	ErrUnsupported = errors.New("pty not supported on this platform")
)

// Size is a terminal window size in character cells.
type Size struct {
	Rows uint16
	Cols uint16
}

// Command is what a Slave spawns.
type Command struct {
	// Path is a binary name (resolved via PATH) or a path.
	Path string
	Args []string
	Dir  string
	Env  []string
}

// ExitStatus describes how a child ended. Signal is empty for a normal
// exit; for a signalled child Code is 128+signo.
type ExitStatus struct {
	Code   int
	Signal string
}

// Backend opens PTY pairs.
type Backend interface {
	Open(size Size) (Master, Slave, error)
}

// Master is the controlling side of a PTY pair.
type Master interface {
	Resize(size Size) error
	// Reader returns a reader over the child's output.
	Reader() (io.Reader, error)
	// TakeWriter returns the input writer. Only the first call succeeds.
	TakeWriter() (io.Writer, error)
	Close() error
}

// Slave is the terminal side a child process is attached to.
type Slave interface {
	// Spawn starts cmd attached to this slave as its controlling terminal.
	Spawn(cmd Command) (Child, error)
	// Close releases the parent's handle once the child owns the slave.
	Close() error
}

// Child is a spawned process.
type Child interface {
	PID() int
	// Kill forcibly stops the child. Killing an already-exited child
	// returns nil.
	Kill() error
	// Wait blocks until the child exits and reaps it.
	Wait() (ExitStatus, error)
}
