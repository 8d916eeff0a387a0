package cmd

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanpelt/agentdeck/internal/handlers"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		worktreeRepo, worktreeJSON = "", false
		configPath, serverAddr, authToken = "", "", ""
		serveInsecure, serveLogFile = false, ""
		initForce = false
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAgentsListsProfiles(t *testing.T) {
	out, err := run(t, "agents")
	require.NoError(t, err)
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "claude")
	assert.Contains(t, out, "--prompt-interactive")
	assert.Contains(t, out, "(typed)")
}

func TestServeRefusesWithoutToken(t *testing.T) {
	t.Setenv("AGENTDECK_TOKEN", "")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("listen_addr: 127.0.0.1:0\n"), 0o600))

	_, err := run(t, "serve", "--config", cfgPath)
	assert.ErrorIs(t, err, handlers.ErrNoToken)
}

func TestWorktreeCommands(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	repo := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"-c", "user.name=t", "-c", "user.email=t@example.com", "commit", "-q", "--allow-empty", "-m", "init"},
	} {
		out, err := exec.Command("git", append([]string{"-C", repo}, args...)...).CombinedOutput()
		require.NoError(t, err, string(out))
	}

	out, err := run(t, "worktree", "create", "agent-a", "--repo", repo)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.DirExists(t, path)

	out, err = run(t, "worktree", "list", "--repo", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "agent-a")

	_, err = run(t, "worktree", "remove", filepath.Join(repo, "src"), "--repo", repo)
	assert.Error(t, err)

	_, err = run(t, "worktree", "remove", path, "--repo", repo)
	require.NoError(t, err)
	assert.NoDirExists(t, path)
}

func TestWorktreeCreateRejectsFlagLikeBranch(t *testing.T) {
	_, err := run(t, "worktree", "create", "--repo", t.TempDir(), "--", "-b")
	assert.Error(t, err)
}
