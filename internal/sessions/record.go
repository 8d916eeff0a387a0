package sessions

import (
	"io"
	"sync"
	"time"

	"github.com/vanpelt/agentdeck/internal/pty"
)

type Status string

const (
	StatusRunning    Status = "running"
	StatusTerminated Status = "terminated"
)

// EndReason records which path moved a session to StatusTerminated first.
type EndReason string

const (
	EndExited EndReason = "exited"
	EndKilled EndReason = "killed"
)

// Record is a point-in-time copy of one session.
type Record struct {
	ID          string    `json:"id"`
	AgentType   string    `json:"agent_type"`
	DisplayName string    `json:"display_name"`
	WorkingDir  string    `json:"working_dir"`
	StartedAt   time.Time `json:"started_at"`
	Status      Status    `json:"status"`
	PID         int       `json:"pid"`
	CostUSD     float64   `json:"cumulative_cost_usd"`
	TokenCount  int64     `json:"token_count"`
	ExitCode    *int      `json:"exit_code,omitempty"`
	EndReason   EndReason `json:"end_reason,omitempty"`
}

// statusCell is shared between the registry and the exit watcher. It
// only ever moves from running to terminated.
type statusCell struct {
	mu       sync.Mutex
	status   Status
	exitCode *int
	reason   EndReason
	killing  bool
}

func newStatusCell() *statusCell {
	return &statusCell{status: StatusRunning}
}

func (c *statusCell) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusRunning
}

// terminate marks the session ended and reports whether this call made
// the transition. An exit code arriving after a kill is still recorded.
func (c *statusCell) terminate(reason EndReason, code *int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code != nil && c.exitCode == nil {
		v := *code
		c.exitCode = &v
	}
	if c.status == StatusTerminated {
		return false
	}
	c.status = StatusTerminated
	c.reason = reason
	if c.killing {
		c.reason = EndKilled
	}
	return true
}

// setKilling marks a kill in flight so an exit observed by the watcher
// before Terminate records its own transition is still attributed to it.
func (c *statusCell) setKilling(v bool) {
	c.mu.Lock()
	c.killing = v
	c.mu.Unlock()
}

func (c *statusCell) fill(r *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r.Status = c.status
	r.EndReason = c.reason
	if c.exitCode != nil {
		v := *c.exitCode
		r.ExitCode = &v
	}
}

// entry is the registry's per-session state. Each handle has its own lock
// so I/O on one session never waits on another.
type entry struct {
	info   Record // identity fields, fixed after insert
	status *statusCell

	usageMu    sync.Mutex
	costUSD    float64
	tokenCount int64

	writerMu sync.Mutex
	writer   io.Writer

	masterMu sync.Mutex
	master   pty.Master
	closed   bool

	child pty.Child
}

func (e *entry) snapshot() Record {
	r := e.info
	e.usageMu.Lock()
	r.CostUSD = e.costUSD
	r.TokenCount = e.tokenCount
	e.usageMu.Unlock()
	e.status.fill(&r)
	return r
}

func (e *entry) closeMaster() error {
	e.masterMu.Lock()
	defer e.masterMu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.master.Close()
}
