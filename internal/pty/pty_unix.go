//go:build !windows

package pty

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"

	creackpty "github.com/creack/pty"
)

type unixBackend struct{}

// NewOS returns the host PTY backend, built on creack/pty.
func NewOS() Backend {
	return unixBackend{}
}

func (unixBackend) Open(size Size) (Master, Slave, error) {
	ptmx, tty, err := creackpty.Open()
	if err != nil {
		return nil, nil, err
	}
	if err := creackpty.Setsize(ptmx, toWinsize(size)); err != nil {
		_ = ptmx.Close()
		_ = tty.Close()
		return nil, nil, err
	}
	return &unixMaster{f: ptmx}, &unixSlave{tty: tty}, nil
}

func toWinsize(size Size) *creackpty.Winsize {
	return &creackpty.Winsize{Rows: size.Rows, Cols: size.Cols}
}

type unixMaster struct {
	f           *os.File
	writerTaken atomic.Bool
}

func (m *unixMaster) Resize(size Size) error {
	return creackpty.Setsize(m.f, toWinsize(size))
}

func (m *unixMaster) Reader() (io.Reader, error) {
	return m.f, nil
}

func (m *unixMaster) TakeWriter() (io.Writer, error) {
	if !m.writerTaken.CompareAndSwap(false, true) {
		return nil, ErrWriterTaken
	}
	return m.f, nil
}

func (m *unixMaster) Close() error {
	return m.f.Close()
}

type unixSlave struct {
	tty *os.File
}

func (s *unixSlave) Spawn(c Command) (Child, error) {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = s.tty
	cmd.Stdout = s.tty
	cmd.Stderr = s.tty
	// New session with the slave as controlling terminal, the same
	// attributes creack/pty.Start uses. The child leads its own process
	// group, so Kill can take down everything it started.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &unixChild{cmd: cmd}, nil
}

func (s *unixSlave) Close() error {
	return s.tty.Close()
}

type unixChild struct {
	cmd    *exec.Cmd
	reaped atomic.Bool
}

func (c *unixChild) PID() int {
	return c.cmd.Process.Pid
}

func (c *unixChild) Kill() error {
	// Once reaped the pid may belong to someone else.
	if c.reaped.Load() {
		return nil
	}
	pid := c.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGKILL); err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	err := c.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (c *unixChild) Wait() (ExitStatus, error) {
	err := c.cmd.Wait()
	c.reaped.Store(true)
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ExitStatus{Code: -1}, err
	}
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return ExitStatus{Code: exitErr.ExitCode()}, nil
	}
	if ws.Signaled() {
		return ExitStatus{Code: 128 + int(ws.Signal()), Signal: ws.Signal().String()}, nil
	}
	return ExitStatus{Code: ws.ExitStatus()}, nil
}
