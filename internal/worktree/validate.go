package worktree

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DirName is the repository-relative directory that holds every worktree.
const DirName = ".worktrees"

const maxBranchLen = 128

// ValidateBranchName accepts only names that can be passed to git as a
// positional argument without being read as a flag or a path escape.
func ValidateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBranch)
	}
	if len(name) > maxBranchLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidBranch, maxBranchLen)
	}
	if name[0] == '-' || name[0] == '.' {
		return fmt.Errorf("%w: %q cannot start with %q", ErrInvalidBranch, name, name[0])
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains ..", ErrInvalidBranch, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidBranch, name, r)
		}
	}
	return nil
}

// ValidateCleanupPath checks that target lies strictly inside
// <repoPath>/.worktrees. Both sides are resolved through symlinks when
// possible; a target that no longer exists is checked lexically and may
// not contain any ".." element.
func ValidateCleanupPath(repoPath, target string) error {
	if target == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}

	lexical, err := filepath.Abs(filepath.Join(repoPath, DirName))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	base := lexical
	if resolved, err := filepath.EvalSymlinks(lexical); err == nil {
		base = resolved
	}

	if resolved, err := canonical(target); err == nil {
		if !within(base, resolved) {
			return fmt.Errorf("%w: %q is outside %s", ErrInvalidPath, target, base)
		}
		return nil
	}

	for _, part := range strings.Split(filepath.ToSlash(target), "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q contains ..", ErrInvalidPath, target)
		}
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if !within(lexical, abs) && !within(base, abs) {
		return fmt.Errorf("%w: %q is outside %s", ErrInvalidPath, target, lexical)
	}
	return nil
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// within reports whether child is a strict descendant of parent.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
