package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"resumind/internal/bootstrap"
	"resumind/internal/shared/storage/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres key-value schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(sqlDB *sql.DB) error {
			return db.RunMigrations(cmd.Context(), sqlDB)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(sqlDB *sql.DB) error {
			return db.RollbackMigration(cmd.Context(), sqlDB)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(sqlDB *sql.DB) error {
			version, err := db.MigrationVersion(cmd.Context(), sqlDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withDB(cmd *cobra.Command, fn func(*sql.DB) error) error {
	opts := db.OptionsFromEnv(db.DefaultCLIOptions())
	sqlDB, err := bootstrap.OpenDB(cmd.Context(), loadConfig(), opts)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(sqlDB)
}
