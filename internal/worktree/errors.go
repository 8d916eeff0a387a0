// Package worktree provisions and removes per-agent git worktrees under a
// repository-local .worktrees directory.
package worktree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vanpelt/agentdeck/internal/sessions"
)

var (
	// ErrInvalidBranch is returned when a branch name fails validation.
	ErrInvalidBranch = fmt.Errorf("%w: invalid branch name", sessions.ErrValidation)

	// ErrInvalidPath is returned when a cleanup target lies outside the
	// repository's .worktrees directory.
	ErrInvalidPath = fmt.Errorf("%w: invalid worktree path", sessions.ErrValidation)

	// ErrNotGitRepo is returned when the repository path is not a Git repository.
	ErrNotGitRepo = errors.New("repository is not a git repository")

	// ErrGit is returned when a git command exits non-zero.
	ErrGit = errors.New("git command failed")
)

// GitError carries the arguments and stderr of a failed git invocation.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *GitError) Unwrap() error { return ErrGit }
