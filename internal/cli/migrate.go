package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/stickercache/internal/migrate"
)

func newMigrateCmd(load func() (*app, error)) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()
			ctx := cmd.Context()

			if status {
				v, err := migrate.Version(ctx, a.cfg.Database.DSN)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
				return nil
			}
			applied, err := migrate.Up(ctx, a.cfg.Database.DSN)
			if err != nil {
				return err
			}
			for _, m := range applied {
				a.log.Info("migration applied", zap.Int64("version", m.Version), zap.String("path", m.Path))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migrations applied\n", len(applied))
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print the current schema version and exit")
	return cmd
}
