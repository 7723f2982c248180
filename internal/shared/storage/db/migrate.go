package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func prepareGoose() error {
	goose.SetBaseFS(migrationFiles)
	return goose.SetDialect("postgres")
}

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, "migrations")
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return fmt.Errorf("database is nil")
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.DownContext(ctx, database, "migrations")
}

// MigrationVersion reports the currently applied schema version.
func MigrationVersion(ctx context.Context, database *sql.DB) (int64, error) {
	if database == nil {
		return 0, fmt.Errorf("database is nil")
	}
	if err := prepareGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, database)
}
