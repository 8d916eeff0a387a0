package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindRoot walks up from startDir to the repository that owns it. Inside
// a linked worktree it returns the main repository, so new worktrees are
// never nested under another worktree's .worktrees directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return dir, nil
			}
			// A linked worktree has a .git file: "gitdir: <main>/.git/worktrees/<name>"
			if main, ok := mainRepoFromGitFile(dir, gitPath); ok {
				return main, nil
			}
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s", ErrNotGitRepo, startDir)
		}
		dir = parent
	}
}

func mainRepoFromGitFile(dir, gitPath string) (string, bool) {
	content, err := os.ReadFile(gitPath)
	if err != nil {
		return "", false
	}
	gitDir, ok := strings.CutPrefix(strings.TrimSpace(string(content)), "gitdir: ")
	if !ok {
		return "", false
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	// <main>/.git/worktrees/<name> -> <main>
	worktreesDir := filepath.Dir(filepath.Clean(gitDir))
	if filepath.Base(worktreesDir) != "worktrees" {
		return "", false
	}
	dotGit := filepath.Dir(worktreesDir)
	if filepath.Base(dotGit) != ".git" {
		return "", false
	}
	return filepath.Dir(dotGit), true
}
