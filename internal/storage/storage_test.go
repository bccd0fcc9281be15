package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestFileStore_GetSet(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "data")
	store := NewFileStore(root)

	value, ok, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	require.NoError(t, store.Set(ctx, "users", `{"alice":{}}`))
	require.NoError(t, store.Set(ctx, "users", `{"bob":{}}`))

	value, ok, err = store.Get(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"bob":{}}`, value)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_InvalidKey(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, _, err := store.Get(context.Background(), "../etc/passwd")
	assert.Error(t, err)

	err = store.Set(context.Background(), "a/b", "x")
	assert.Error(t, err)
}

// fakeRedis is a hand-written RedisCommander backed by a map
type fakeRedis struct {
	values map[string]string
	err    error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func TestRedisStore_GetSet(t *testing.T) {
	ctx := context.Background()
	client := &fakeRedis{values: map[string]string{}}
	store := NewRedisStore(client, "nutritracker:")

	_, ok, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "users", `{}`))
	assert.Equal(t, `{}`, client.values["nutritracker:users"])

	value, ok, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{}`, value)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(&fakeRedis{err: errors.New("connection refused")}, "")

	_, _, err := store.Get(ctx, "users")
	assert.ErrorContains(t, err, "connection refused")

	err = store.Set(ctx, "users", "{}")
	assert.ErrorContains(t, err, "connection refused")
}

// setupSQLTestStore creates a MySQL-dialect store with a mock database
func setupSQLTestStore(t *testing.T) (*sqlStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := NewSQLStore(db, DialectMySQL)

	cleanup := func() {
		db.Close()
	}

	return store, mock, cleanup
}

func TestSQLStore_Get(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedValue string
		expectedOK    bool
		expectedError bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"storage_value"}).AddRow(`{"alice":{}}`)
				mock.ExpectQuery(`SELECT storage_value FROM local_storage`).
					WithArgs("users").
					WillReturnRows(rows)
			},
			expectedValue: `{"alice":{}}`,
			expectedOK:    true,
		},
		{
			name: "missing key",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT storage_value FROM local_storage`).
					WithArgs("users").
					WillReturnError(sql.ErrNoRows)
			},
			expectedOK: false,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT storage_value FROM local_storage`).
					WithArgs("users").
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, cleanup := setupSQLTestStore(t)
			defer cleanup()

			tt.setupMock(mock)

			value, ok, err := store.Get(context.Background(), "users")

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedOK, ok)
				assert.Equal(t, tt.expectedValue, value)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_Set(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`ON DUPLICATE KEY UPDATE storage_value`).
					WithArgs("users", `{}`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`ON DUPLICATE KEY UPDATE storage_value`).
					WithArgs("users", `{}`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, cleanup := setupSQLTestStore(t)
			defer cleanup()

			tt.setupMock(mock)

			err := store.Set(context.Background(), "users", `{}`)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnsureSQLiteSchema_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS local_storage`).
		WillReturnError(errors.New("database is locked"))

	err = EnsureSQLiteSchema(context.Background(), db)

	assert.ErrorContains(t, err, "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, EnsureSQLiteSchema(ctx, db))
	store := NewSQLStore(db, DialectSQLite)

	_, ok, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "users", `{"alice":{}}`))
	require.NoError(t, store.Set(ctx, "users", `{"bob":{}}`))

	value, ok, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"bob":{}}`, value)
}
