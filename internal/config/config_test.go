package config

import (
	"strings"
	"testing"
	"time"

	"github.com/nutritracker/client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"STORAGE_MODE", "API_BASE_URL", "API_TIMEOUT", "LOCAL_BACKEND", "LOCAL_DATA_DIR", "LOCAL_SQLITE_PATH",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"SERVER_HOST", "SERVER_PORT", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE", "CSRF_KEY",
	"DAILY_CALORIES", "DAILY_PROTEIN", "DAILY_CARBS", "DAILY_FAT", "ADMIN_USERNAMES", "CALENDAR_CONCURRENCY",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them after the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageRemote, cfg.Storage.Mode)
	assert.Equal(t, "http://localhost:5000", cfg.Storage.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Storage.APITimeout)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 20, cfg.RateLimit.AuthPerMinute)
	assert.Nil(t, cfg.CSRFKey)
	assert.Equal(t, models.DefaultTargets, cfg.Targets)
	assert.Empty(t, cfg.AdminUsernames)
	assert.Equal(t, 4, cfg.CalendarConcurrency)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "root:@tcp(localhost:3306)/nutritracker?parseTime=true&charset=utf8mb4", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_MODE", "LOCAL")
	t.Setenv("API_BASE_URL", "http://backend:5000/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("LOCAL_BACKEND", "sqlite")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.example , ,http://b.example")
	t.Setenv("CSRF_KEY", strings.Repeat("x", CSRFKeySize))
	t.Setenv("DAILY_CALORIES", "1800.5")
	t.Setenv("DAILY_FAT", "0")
	t.Setenv("ADMIN_USERNAMES", "root, alice")
	t.Setenv("CALENDAR_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageLocal, cfg.Storage.Mode)
	assert.Equal(t, "http://backend:5000", cfg.Storage.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.Storage.APITimeout)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Len(t, cfg.CSRFKey, CSRFKeySize)
	assert.Equal(t, 1800.5, cfg.Targets.Calories)
	assert.Equal(t, 0.0, cfg.Targets.Fat)
	assert.Equal(t, models.DefaultTargets.Protein, cfg.Targets.Protein)
	assert.Equal(t, []string{"root", "alice"}, cfg.AdminUsernames)
	assert.Equal(t, 8, cfg.CalendarConcurrency)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		value       string
		expectedErr string
	}{
		{name: "storage mode", key: "STORAGE_MODE", value: "cloud", expectedErr: "invalid STORAGE_MODE"},
		{name: "timeout", key: "API_TIMEOUT", value: "soon", expectedErr: "invalid API_TIMEOUT"},
		{name: "negative timeout", key: "API_TIMEOUT", value: "-1s", expectedErr: "invalid API_TIMEOUT"},
		{name: "backend", key: "LOCAL_BACKEND", value: "postgres", expectedErr: "invalid LOCAL_BACKEND"},
		{name: "db port", key: "DB_PORT", value: "x", expectedErr: "invalid DB_PORT"},
		{name: "redis db", key: "REDIS_DB", value: "one", expectedErr: "invalid REDIS_DB"},
		{name: "server port", key: "SERVER_PORT", value: "http", expectedErr: "invalid SERVER_PORT"},
		{name: "rate limit", key: "RATE_LIMIT_PER_MINUTE", value: "-5", expectedErr: "invalid RATE_LIMIT_PER_MINUTE"},
		{name: "short csrf key", key: "CSRF_KEY", value: "short", expectedErr: "invalid CSRF_KEY"},
		{name: "calories", key: "DAILY_CALORIES", value: "lots", expectedErr: "invalid DAILY_CALORIES"},
		{name: "negative protein", key: "DAILY_PROTEIN", value: "-1", expectedErr: "invalid DAILY_PROTEIN"},
		{name: "concurrency", key: "CALENDAR_CONCURRENCY", value: "0", expectedErr: "invalid CALENDAR_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestLoadTestConfig(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "")
	t.Setenv("TEST_REDIS_HOST", "redis.test")
	t.Setenv("TEST_REDIS_PORT", "6380")

	cfg, err := LoadTestConfig()
	require.NoError(t, err)

	assert.Empty(t, cfg.Database.Host)
	assert.Equal(t, "redis.test:6380", cfg.RedisAddr())
}
