package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/internal/db"
	"github.com/myblogsite/myblog/pkg/logging"
)

func newMigrateCommand(rt *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(rt, func(m *db.Migrator) error {
				if err := m.Migrate(cmd.Context()); err != nil {
					return err
				}
				logging.GetLogger().Info("Migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the last applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(rt, func(m *db.Migrator) error {
				if err := m.Rollback(cmd.Context()); err != nil {
					return err
				}
				logging.GetLogger().Info("Last migration reverted")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(rt, func(m *db.Migrator) error {
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tAPPLIED\tDESCRIPTION")
				for _, s := range statuses {
					fmt.Fprintf(w, "%d\t%t\t%s\n", s.Version, s.Applied, s.Description)
				}
				return w.Flush()
			})
		},
	})

	return cmd
}

func withMigrator(rt *session, fn func(*db.Migrator) error) error {
	database, err := rt.openDB()
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logging.GetLogger().Warn("Failed to close database", zap.Error(err))
		}
	}()

	return fn(db.NewMigrator(database.DB))
}
