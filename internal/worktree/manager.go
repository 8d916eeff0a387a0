package worktree

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/vanpelt/agentdeck/internal/logger"
)

// Info is one entry of `git worktree list --porcelain`.
type Info struct {
	Path     string `json:"path"`
	Head     string `json:"head,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Bare     bool   `json:"bare,omitempty"`
	Detached bool   `json:"detached,omitempty"`
	Locked   bool   `json:"locked,omitempty"`
	Prunable bool   `json:"prunable,omitempty"`
}

// Manager provisions worktrees for agent sessions.
type Manager struct {
	runner Runner
}

// NewManager creates a Manager. A nil runner uses the git binary.
func NewManager(runner Runner) *Manager {
	if runner == nil {
		runner = NewShellRunner()
	}
	return &Manager{runner: runner}
}

// Path returns where Create places the worktree for branch.
func Path(repoPath, branch string) string {
	return filepath.Join(repoPath, DirName, branch)
}

func openRepo(repoPath string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, repoPath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNotGitRepo, repoPath, err)
	}
	return repo, nil
}

func branchExists(repo *git.Repository, branch string) bool {
	_, err := repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	return err == nil
}

// Create adds a worktree for branch at <repoPath>/.worktrees/<branch>,
// creating the branch from HEAD when it does not exist yet.
func (m *Manager) Create(ctx context.Context, repoPath, branch string) (string, error) {
	if err := ValidateBranchName(branch); err != nil {
		return "", err
	}
	repo, err := openRepo(repoPath)
	if err != nil {
		return "", err
	}

	path := Path(repoPath, branch)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", DirName, err)
	}

	var args []string
	if branchExists(repo, branch) {
		args = []string{"worktree", "add", path, branch}
	} else {
		args = []string{"worktree", "add", "-b", branch, path}
	}
	if _, err := m.runner.Git(ctx, repoPath, args...); err != nil {
		return "", err
	}

	logger.Infof("🌳 Created worktree %s for branch %s", path, branch)
	return path, nil
}

// Remove force-removes the worktree at worktreePath after checking that
// it belongs to repoPath's .worktrees directory.
func (m *Manager) Remove(ctx context.Context, repoPath, worktreePath string) error {
	if err := ValidateCleanupPath(repoPath, worktreePath); err != nil {
		return err
	}
	if _, err := m.runner.Git(ctx, repoPath, "worktree", "remove", "--force", worktreePath); err != nil {
		return err
	}
	logger.Infof("🗑️ Removed worktree %s", worktreePath)
	return nil
}

// List returns every worktree of repoPath, the main one first.
func (m *Manager) List(ctx context.Context, repoPath string) ([]Info, error) {
	if _, err := openRepo(repoPath); err != nil {
		return nil, err
	}
	out, err := m.runner.Git(ctx, repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

// parsePorcelain reads the blank-line separated records printed by
// `git worktree list --porcelain`.
func parsePorcelain(out []byte) []Info {
	var (
		list []Info
		cur  *Info
	)
	flush := func() {
		if cur != nil {
			list = append(list, *cur)
			cur = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		if key == "worktree" {
			flush()
			cur = &Info{Path: value}
			continue
		}
		if cur == nil {
			continue
		}
		switch key {
		case "HEAD":
			cur.Head = value
		case "branch":
			cur.Branch = strings.TrimPrefix(value, "refs/heads/")
		case "bare":
			cur.Bare = true
		case "detached":
			cur.Detached = true
		case "locked":
			cur.Locked = true
		case "prunable":
			cur.Prunable = true
		}
	}
	flush()
	return list
}
