package worktree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRootFromSubdirectory(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(repo, ".git"), 0o755))
	sub := filepath.Join(repo, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	root, err := FindRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, repo, root)
}

func TestFindRootOutsideRepository(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	if err == nil {
		t.Skip("temp dir is inside a git repository")
	}
	assert.ErrorIs(t, err, ErrNotGitRepo)
}

func TestFindRootFromLinkedWorktreeFile(t *testing.T) {
	main := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(main, ".git", "worktrees", "feat"), 0o755))
	wt := filepath.Join(main, DirName, "feat")
	require.NoError(t, os.MkdirAll(wt, 0o755))
	gitFile := "gitdir: " + filepath.Join(main, ".git", "worktrees", "feat") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(wt, ".git"), []byte(gitFile), 0o644))

	root, err := FindRoot(wt)
	require.NoError(t, err)
	assert.Equal(t, main, root)
}

func TestFindRootFromRealWorktree(t *testing.T) {
	repo := initRepo(t)
	path, err := NewManager(nil).Create(context.Background(), repo, "nested-check")
	require.NoError(t, err)

	root, err := FindRoot(path)
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(repo)
	got, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, want, got)
}
