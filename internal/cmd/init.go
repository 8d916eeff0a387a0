package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "🔑 Write a config file with a fresh auth token",
	Long: `# 🔑 Initialize

Writes **config.yaml** under the data directory (or **--config**) with a
newly generated **auth_token**, so **serve** can start without **--insecure**.

An existing config file is left alone unless **--force** is given. With
**--force** the other settings are kept and only the token is replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FilePath(configPath)
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to rotate the token)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.AuthToken = newToken()
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\ntoken: %s\n", path, cfg.AuthToken)
		return nil
	},
}

func newToken() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "replace the token in an existing config file")
	rootCmd.AddCommand(initCmd)
}
