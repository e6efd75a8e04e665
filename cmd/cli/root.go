// Package cli implements the kpidash-admin command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/infrastructure/monitoring"
	"github.com/turtacn/kpidash/pkg/logger"
)

// NewRootCmd builds the kpidash-admin command with all subcommands.
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "kpidash-admin",
		Short: "Administrative tasks for the kpidash service",
		Long: `kpidash-admin inspects and resets rate limit counters and applies
database migrations, using the same configuration as the server.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yaml (default: /etc/kpidash/ or working directory)")

	load := func() (*config.Config, logger.Logger, error) {
		log, err := monitoring.NewZapLogger(config.LogConfig{Level: "warn", Format: "console"})
		if err != nil {
			return nil, nil, err
		}
		cfg, err := config.NewLoader(configFile, log).Load()
		if err != nil {
			return nil, nil, err
		}
		return cfg, log, nil
	}

	rootCmd.AddCommand(
		newRateLimitCmd(configuredAdmission(load)),
		newMigrateCmd(load),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
