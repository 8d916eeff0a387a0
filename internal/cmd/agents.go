package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/agents"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "🤖 List known agent profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AGENT\tBINARY\tDEFAULT ARGS\tPROMPT")
		for _, p := range agents.Profiles() {
			prompt := p.PromptFlag
			if prompt == "" {
				prompt = "(typed)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.AgentType, p.Binary, strings.Join(p.DefaultArgs, " "), prompt)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}
