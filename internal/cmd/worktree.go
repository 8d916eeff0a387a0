package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/worktree"
)

var (
	worktreeRepo string
	worktreeJSON bool
)

var worktreeCmd = &cobra.Command{
	Use:   "worktree",
	Short: "🌳 Manage per-agent git worktrees",
	Long: `# 🌳 Worktrees

**Give every agent its own checkout under <repo>/.worktrees/.**

Branch names may only contain letters, digits, **-**, **_** and **.**, and
removal refuses any path outside the repository's **.worktrees** directory.`,
}

var worktreeCreateCmd = &cobra.Command{
	Use:   "create <branch>",
	Short: "Create a worktree for branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repoPath()
		if err != nil {
			return err
		}
		path, err := worktree.NewManager(nil).Create(cmd.Context(), repo, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var worktreeRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Force-remove a worktree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repoPath()
		if err != nil {
			return err
		}
		target, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		return worktree.NewManager(nil).Remove(cmd.Context(), repo, target)
	},
}

var worktreeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List worktrees of the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repoPath()
		if err != nil {
			return err
		}
		list, err := worktree.NewManager(nil).List(cmd.Context(), repo)
		if err != nil {
			return err
		}
		if worktreeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tBRANCH\tHEAD")
		for _, wt := range list {
			branch := wt.Branch
			if wt.Detached {
				branch = "(detached)"
			}
			head := wt.Head
			if len(head) > 8 {
				head = head[:8]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", wt.Path, branch, head)
		}
		return w.Flush()
	},
}

func repoPath() (string, error) {
	if worktreeRepo != "" {
		return filepath.Abs(worktreeRepo)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return worktree.FindRoot(cwd)
}

func init() {
	worktreeCmd.PersistentFlags().StringVar(&worktreeRepo, "repo", "", "repository path (default: repository containing the current directory)")
	worktreeListCmd.Flags().BoolVar(&worktreeJSON, "json", false, "print JSON")
	worktreeCmd.AddCommand(worktreeCreateCmd, worktreeRemoveCmd, worktreeListCmd)
	rootCmd.AddCommand(worktreeCmd)
}
