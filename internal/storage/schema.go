package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS local_storage (
		storage_key TEXT PRIMARY KEY,
		storage_value TEXT NOT NULL
	)
`

// RunMigrations applies the MySQL migrations found in dir
func RunMigrations(db *sql.DB, dir string) error {
	// Own migration table so the client can share a schema with other services
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "nutritracker_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://" + dir
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../" + dir); err == nil {
			migrationPath = "file://../" + dir
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// EnsureSQLiteSchema creates the local_storage table in an embedded SQLite database
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create local_storage table: %w", err)
	}
	return nil
}
