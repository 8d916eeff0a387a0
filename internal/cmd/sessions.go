package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/sessions"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"ps"},
	Short:   "📋 List sessions on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		list, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tAGENT\tSTATUS\tPID\tAGE\tCOST\tDIR")
		for _, r := range list {
			status := string(r.Status)
			if r.Status == sessions.StatusTerminated && r.ExitCode != nil {
				status = fmt.Sprintf("%s (%d)", status, *r.ExitCode)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t$%.2f\t%s\n",
				r.ID, r.AgentType, status, r.PID,
				time.Since(r.StartedAt).Truncate(time.Second), r.CostUSD, r.WorkingDir)
		}
		return w.Flush()
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <session-id>...",
	Short: "🛑 Terminate sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := c.Terminate(cmd.Context(), id); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "terminated %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd, killCmd)
}
