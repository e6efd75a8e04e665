package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/kpidash/internal/infrastructure/persistence/postgres"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			db, err := postgres.NewDBConnection(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db.Pool(), log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied to %s@%s/%s\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Database)
			return nil
		},
	}
}
