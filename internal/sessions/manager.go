// Package sessions is the registry of live terminal sessions: it admits
// new agent or shell processes onto PTYs, dispatches input and resizes to
// them, and tears them down.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vanpelt/agentdeck/internal/agents"
	"github.com/vanpelt/agentdeck/internal/config"
	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/pty"
)

const (
	// MaxSessions caps concurrently running sessions. Launch fails past it;
	// nothing is ever evicted.
	MaxSessions = 20

	defaultCols = 80
	defaultRows = 24
)

// LaunchRequest describes a session to start. Executable, when set,
// bypasses the agent profile but must still pass the allowlist.
type LaunchRequest struct {
	AgentType     string   `json:"agent_type"`
	Executable    string   `json:"executable,omitempty"`
	Args          []string `json:"args,omitempty"`
	Cwd           string   `json:"cwd,omitempty"`
	Cols          uint16   `json:"cols,omitempty"`
	Rows          uint16   `json:"rows,omitempty"`
	InitialPrompt string   `json:"initial_prompt,omitempty"`
}

// Options configures a Manager. Zero values get working defaults.
type Options struct {
	Backend pty.Backend
	Sink    events.Sink
	HomeDir func() (string, error)
	// Env is appended to the inherited environment of every child.
	Env []string
}

// Manager owns every session from Launch until the cleanup pass that
// follows a Terminate.
type Manager struct {
	backend pty.Backend
	sink    events.Sink
	homeDir func() (string, error)
	env     []string

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	if opts.Backend == nil {
		opts.Backend = pty.NewOS()
	}
	if opts.Sink == nil {
		opts.Sink = events.Discard
	}
	if opts.HomeDir == nil {
		opts.HomeDir = config.HomeDir
	}
	return &Manager{
		backend:  opts.Backend,
		sink:     opts.Sink,
		homeDir:  opts.HomeDir,
		env:      opts.Env,
		sessions: make(map[string]*entry),
	}
}

// launchPlan is a LaunchRequest resolved against profiles and the allowlist.
type launchPlan struct {
	binary         string
	args           []string
	promptViaInput bool
}

func (m *Manager) plan(req LaunchRequest) (launchPlan, error) {
	if req.Executable != "" {
		if !agents.IsAllowed(req.Executable) {
			return launchPlan{}, fmt.Errorf("%w: %q", ErrExecutableNotAllowed, req.Executable)
		}
		return launchPlan{
			binary:         req.Executable,
			args:           append([]string(nil), req.Args...),
			promptViaInput: req.InitialPrompt != "",
		}, nil
	}

	profile, err := agents.Resolve(req.AgentType)
	if err != nil {
		return launchPlan{}, fmt.Errorf("%w: %q", ErrUnknownAgent, req.AgentType)
	}
	if !agents.IsAllowed(profile.Binary) {
		return launchPlan{}, fmt.Errorf("%w: %q", ErrExecutableNotAllowed, profile.Binary)
	}
	args, inline := profile.Args(req.Args, req.InitialPrompt)
	return launchPlan{
		binary:         profile.Binary,
		args:           args,
		promptViaInput: req.InitialPrompt != "" && !inline,
	}, nil
}

// resolveCwd expands "", "~" and "~/..." against the home directory and
// leaves anything else untouched. A directory that does not exist fails
// later, at spawn.
func (m *Manager) resolveCwd(cwd string) (string, error) {
	if cwd != "" && cwd != "~" && !strings.HasPrefix(cwd, "~/") {
		return cwd, nil
	}
	home, err := m.homeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve home directory: %v", ErrSpawn, err)
	}
	if strings.HasPrefix(cwd, "~/") {
		return filepath.Join(home, cwd[2:]), nil
	}
	return home, nil
}

// Launch starts a new session and returns its id without waiting for the
// process to produce anything.
//
// When an explicit Executable is combined with an InitialPrompt (or the
// profile has no prompt flag) the prompt is typed into the session after
// spawn. If that write fails, Launch returns the new id together with an
// ErrIO error; the session stays registered and the caller decides
// whether to Terminate it.
func (m *Manager) Launch(ctx context.Context, req LaunchRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cwd, err := m.resolveCwd(req.Cwd)
	if err != nil {
		return "", err
	}
	size := pty.Size{Cols: req.Cols, Rows: req.Rows}
	if size.Cols == 0 {
		size.Cols = defaultCols
	}
	if size.Rows == 0 {
		size.Rows = defaultRows
	}

	m.mu.Lock()
	if m.runningLocked() >= MaxSessions {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %d sessions running", ErrCapacityExceeded, MaxSessions)
	}
	plan, err := m.plan(req)
	if err != nil {
		m.mu.Unlock()
		return "", err
	}

	id := uuid.New().String()
	e, reader, err := m.spawn(id, req.AgentType, plan, cwd, size)
	if err != nil {
		m.mu.Unlock()
		return "", err
	}
	m.sessions[id] = e
	m.mu.Unlock()

	m.startLoops(e, reader)

	logger.Infof("✅ Launched session %s (%s, pid %d) in %s", id, plan.binary, e.info.PID, cwd)

	if plan.promptViaInput {
		if err := m.Write(id, []byte(req.InitialPrompt+"\n")); err != nil {
			return id, fmt.Errorf("initial prompt: %w", err)
		}
	}
	return id, nil
}

// spawn opens the PTY and starts the child. Called with m.mu held so the
// capacity check and insertion are atomic.
func (m *Manager) spawn(id, agentType string, plan launchPlan, cwd string, size pty.Size) (*entry, io.Reader, error) {
	master, slave, err := m.backend.Open(size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPty, err)
	}

	env := append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"AGENTDECK_SESSION_ID="+id,
	)
	env = append(env, m.env...)

	child, err := slave.Spawn(pty.Command{
		Path: plan.binary,
		Args: plan.args,
		Dir:  cwd,
		Env:  env,
	})
	// The child holds its own copy of the slave; ours must go or the
	// reader never sees the terminal hang up.
	_ = slave.Close()
	if err != nil {
		_ = master.Close()
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrSpawn, plan.binary, err)
	}

	reader, err := master.Reader()
	if err == nil {
		var writer io.Writer
		writer, err = master.TakeWriter()
		if err == nil {
			return &entry{
				info: Record{
					ID:          id,
					AgentType:   agentType,
					DisplayName: plan.binary,
					WorkingDir:  cwd,
					StartedAt:   time.Now(),
					PID:         child.PID(),
				},
				status: newStatusCell(),
				writer: writer,
				master: master,
				child:  child,
			}, reader, nil
		}
	}

	_ = child.Kill()
	_, _ = child.Wait()
	_ = master.Close()
	return nil, nil, fmt.Errorf("%w: %v", ErrPty, err)
}

func (m *Manager) runningLocked() int {
	n := 0
	for _, e := range m.sessions {
		if e.status.running() {
			n++
		}
	}
	return n
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

type flusher interface {
	Flush() error
}

// Write sends raw bytes to the session's terminal input. A session whose
// process has already exited is treated as gone.
func (m *Manager) Write(id string, data []byte) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	if !e.status.running() {
		return fmt.Errorf("%w: %s has exited", ErrNotFound, id)
	}

	e.writerMu.Lock()
	defer e.writerMu.Unlock()
	if _, err := e.writer.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, id, err)
	}
	if f, ok := e.writer.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: flush %s: %v", ErrIO, id, err)
		}
	}
	return nil
}

// Resize changes the session's terminal window.
func (m *Manager) Resize(id string, cols, rows uint16) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	if cols == 0 || rows == 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrValidation, cols, rows)
	}

	e.masterMu.Lock()
	defer e.masterMu.Unlock()
	if e.closed {
		return fmt.Errorf("%w: resize %s: pty closed", ErrIO, id)
	}
	if err := e.master.Resize(pty.Size{Cols: cols, Rows: rows}); err != nil {
		return fmt.Errorf("%w: resize %s: %v", ErrIO, id, err)
	}
	return nil
}

// Terminate kills the session's process, marks it terminated and then
// sweeps every non-running session out of the registry, including ones
// whose processes exited on their own earlier.
func (m *Manager) Terminate(id string) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.status.setKilling(true)
	if err := e.child.Kill(); err != nil {
		e.status.setKilling(false)
		m.cleanup()
		return fmt.Errorf("%w: kill %s: %v", ErrIO, id, err)
	}
	e.status.terminate(EndKilled, nil)
	logger.Infof("🛑 Terminated session %s", id)

	m.cleanup()
	return nil
}

// cleanup removes every entry that is no longer running and closes its
// PTY master.
func (m *Manager) cleanup() {
	var removed []*entry

	m.mu.Lock()
	for id, e := range m.sessions {
		if !e.status.running() {
			delete(m.sessions, id)
			removed = append(removed, e)
		}
	}
	m.mu.Unlock()

	for _, e := range removed {
		if err := e.closeMaster(); err != nil {
			logger.Debugf("Closing pty for session %s: %v", e.info.ID, err)
		}
		logger.Debugf("🧹 Removed session %s from registry", e.info.ID)
	}
}

// List returns a copy of every registered session, oldest first.
func (m *Manager) List() []Record {
	m.mu.RLock()
	out := make([]Record, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e.snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Get returns a copy of one session.
func (m *Manager) Get(id string) (Record, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Record{}, err
	}
	return e.snapshot(), nil
}

// RecordUsage sets the externally computed cost and token counters.
func (m *Manager) RecordUsage(id string, costUSD float64, tokens int64) error {
	if costUSD < 0 || tokens < 0 {
		return fmt.Errorf("%w: usage counters cannot be negative", ErrValidation)
	}
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.usageMu.Lock()
	e.costUSD = costUSD
	e.tokenCount = tokens
	e.usageMu.Unlock()
	return nil
}

// RunningCount returns how many sessions currently count against
// MaxSessions.
func (m *Manager) RunningCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runningLocked()
}

// Shutdown kills every running session and empties the registry.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	live := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		live = append(live, e)
	}
	m.mu.RUnlock()

	var errs []error
	for _, e := range live {
		e.status.setKilling(true)
		if err := e.child.Kill(); err != nil {
			e.status.setKilling(false)
			errs = append(errs, fmt.Errorf("kill %s: %w", e.info.ID, err))
			continue
		}
		e.status.terminate(EndKilled, nil)
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warnf("⚠️ Shutdown: %v", err)
	}
	m.cleanup()
	logger.Infof("🧹 Shut down %d sessions", len(live))
}
