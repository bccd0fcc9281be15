package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect selects the SQL flavour used for upserts
type Dialect string

// Dialect constants
const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// sqlStore implements a key-value store on the local_storage table
type sqlStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore creates a new SQL-backed key-value store
func NewSQLStore(db *sql.DB, dialect Dialect) *sqlStore {
	return &sqlStore{
		db:      db,
		dialect: dialect,
	}
}

// Get returns the value stored under key; the boolean is false when nothing is stored
func (s *sqlStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT storage_value FROM local_storage WHERE storage_key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key
func (s *sqlStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsertQuery(), key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) upsertQuery() string {
	if s.dialect == DialectSQLite {
		return `
		INSERT INTO local_storage (storage_key, storage_value)
		VALUES (?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET storage_value = excluded.storage_value
	`
	}
	return `
		INSERT INTO local_storage (storage_key, storage_value)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE storage_value = VALUES(storage_value)
	`
}
