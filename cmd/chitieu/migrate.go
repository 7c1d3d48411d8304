package main

import (
	"github.com/spf13/cobra"

	"chitieu/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema at SQLITE_DB_PATH",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := storage.RunMigrations(a.cfg.SQLiteDBPath); err != nil {
					return err
				}
				return printVersion(a)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := storage.RollbackMigration(a.cfg.SQLiteDBPath); err != nil {
					return err
				}
				return printVersion(a)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return printVersion(a)
			},
		},
	)
	return cmd
}

func printVersion(a *app) error {
	v, dirty, err := storage.MigrationVersion(a.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	a.printf("schema version %d (dirty: %t)\n", v, dirty)
	return nil
}
