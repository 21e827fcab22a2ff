package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vulekamali/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dbPath string

	path := func() string {
		if dbPath != "" {
			return dbPath
		}
		return a.cfg.SQLiteDBPath
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default SQLITE_DB_PATH)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.RunMigrations(path()); err != nil {
				return err
			}
			a.logger.Info("All migrations applied", "db_path", path())
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.RollbackMigrations(path(), steps); err != nil {
				return err
			}
			a.logger.Info("Migrations rolled back", "db_path", path(), "steps", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := storage.MigrationVersion(path())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
