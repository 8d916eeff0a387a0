package worktree

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/vanpelt/agentdeck/internal/logger"
)

// Runner executes git. Tests substitute a recording implementation.
type Runner interface {
	Git(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ShellRunner runs the git binary found on PATH.
type ShellRunner struct {
	// Env is appended to the inherited environment.
	Env []string
}

// NewShellRunner creates a ShellRunner.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Env: []string{"GIT_TERMINAL_PROMPT=0"}}
}

// Git runs git with -C dir. A non-zero exit becomes a *GitError carrying
// git's stderr.
func (r *ShellRunner) Git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	full := args
	if dir != "" {
		full = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Env = append(cmd.Environ(), r.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if len(args) > 0 && args[0] != "rev-parse" {
		logger.Debugf("🐚 git %s", strings.Join(full, " "))
	}
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &GitError{Args: args, Stderr: stderr.String(), Err: ctxErr}
		}
		return nil, &GitError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}
