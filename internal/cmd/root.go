package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/client"
	"github.com/vanpelt/agentdeck/internal/config"
)

var (
	configPath string
	serverAddr string
	authToken  string
)

var rootCmd = &cobra.Command{
	Use:   "agentdeck",
	Short: "🃏 agentdeck - run AI coding agents and shells on managed terminals",
	Long: `# 🃏 agentdeck

**Run AI coding-agent CLIs and shells side by side, each on its own pseudo-terminal.**

## ✨ Features

- 🤖 **Agent profiles** for claude, codex, gemini, aider and friends
- 🖥️  **Real terminals** with resize, input and live output streaming
- 🔒 **Allowlisted executables** and bearer-token remote control
- 🌳 **Git worktrees** so every agent gets its own checkout
- 🚦 **Admission control** with a hard cap on running sessions

## 🚀 Getting Started

Run **agentdeck serve** to start the session server, then
**agentdeck attach claude** in another terminal.

Use **agentdeck <command> --help** for detailed options.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.agentdeck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "server address (default from config)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "bearer token (default from config or AGENTDECK_TOKEN)")

	// Set custom help function to use glamour for markdown rendering
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdownHelp(cmd)
	})
}

// loadConfig reads the config file and layers the persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if serverAddr != "" {
		cfg.ListenAddr = serverAddr
	}
	if authToken != "" {
		cfg.AuthToken = authToken
	}
	return cfg, nil
}

// newClient builds an API client from the merged configuration.
func newClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.ListenAddr, cfg.AuthToken)
}

// renderMarkdownHelp renders command help using glamour for beautiful markdown display
func renderMarkdownHelp(cmd *cobra.Command) {
	// Create the help content
	var helpContent strings.Builder

	// Add the long description if available
	if cmd.Long != "" {
		helpContent.WriteString(cmd.Long)
		helpContent.WriteString("\n\n")
	} else if cmd.Short != "" {
		helpContent.WriteString("# " + cmd.Short)
		helpContent.WriteString("\n\n")
	}

	// Add usage
	helpContent.WriteString("## 📖 Usage\n\n")
	helpContent.WriteString("```bash\n")
	helpContent.WriteString(cmd.UseLine())
	helpContent.WriteString("\n```\n\n")

	// Add available commands
	if cmd.HasAvailableSubCommands() {
		helpContent.WriteString("## 🔧 Available Commands\n\n")
		for _, subCmd := range cmd.Commands() {
			if subCmd.IsAvailableCommand() {
				helpContent.WriteString(fmt.Sprintf("- **%s** - %s\n", subCmd.Name(), subCmd.Short))
			}
		}
		helpContent.WriteString("\n")
	}

	// Add flags
	if cmd.HasAvailableFlags() {
		helpContent.WriteString("## ⚙️  Flags\n\n")
		flagUsages := cmd.Flags().FlagUsages()
		if flagUsages != "" {
			helpContent.WriteString("```\n")
			helpContent.WriteString(flagUsages)
			helpContent.WriteString("```\n\n")
		}
	}

	// Add global flags if this is a subcommand
	if cmd.HasParent() && cmd.InheritedFlags().HasFlags() {
		helpContent.WriteString("## 🌐 Global Flags\n\n")
		inheritedUsages := cmd.InheritedFlags().FlagUsages()
		if inheritedUsages != "" {
			helpContent.WriteString("```\n")
			helpContent.WriteString(inheritedUsages)
			helpContent.WriteString("```\n\n")
		}
	}

	// Render with glamour
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Fallback to default help if glamour fails
		_ = cmd.Usage()
		return
	}

	rendered, err := renderer.Render(helpContent.String())
	if err != nil {
		// Fallback to default help if rendering fails
		_ = cmd.Usage()
		return
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
}