// Package cli implements the nestegg command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nestegg",
	Short: "NestEgg portfolio reconciliation",
	Long: `NestEgg keeps a local portfolio of accounts, positions, liabilities,
and other assets, and reconciles their balances against statements:
paste current balances in bulk, review the diff, and submit the
changes to the backend in one batch.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.nestegg/config.toml"
}
