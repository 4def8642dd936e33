// Package cli wires configuration, storage, and the HTTP server into
// the readbridge-progress command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/readbridge-edu/readbridge-progress/config"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = config.DefaultConfigPath
	}

	cmd := &cobra.Command{
		Use:   "readbridge-progress",
		Short: "Assessment scoring and reading-level progression service",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newSeedCmd(&configPath))
	return cmd
}
