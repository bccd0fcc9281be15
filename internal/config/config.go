// Package config provides configuration for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nutritracker/client/internal/models"
)

// Storage modes
const (
	StorageRemote = "remote"
	StorageLocal  = "local"
)

// Local key-value backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendSQLite = "sqlite"
)

// CSRFKeySize is the required length of CSRF_KEY in bytes
const CSRFKeySize = 32

// Config holds all configuration for the application
type Config struct {
	Storage             StorageConfig
	Database            DatabaseConfig
	Redis               RedisConfig
	Server              ServerConfig
	Logging             LoggingConfig
	CORS                CORSConfig
	RateLimit           RateLimitConfig
	CSRFKey             []byte
	Targets             models.DailyTargets
	AdminUsernames      []string
	CalendarConcurrency int
}

// StorageConfig selects and configures the persistence variant
type StorageConfig struct {
	Mode       string
	APIBaseURL string
	APITimeout time.Duration
	Backend    string
	DataDir    string
	SQLitePath string
}

// DatabaseConfig holds MySQL connection settings for the mysql local backend
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds settings for the redis local backend
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Host string
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds the per-IP limit on register and login attempts
type RateLimitConfig struct {
	AuthPerMinute int
}

// Load reads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	var err error

	// Storage configuration
	cfg.Storage.Mode = strings.ToLower(getEnv("STORAGE_MODE", StorageRemote))
	if cfg.Storage.Mode != StorageRemote && cfg.Storage.Mode != StorageLocal {
		return nil, fmt.Errorf("invalid STORAGE_MODE: %q", cfg.Storage.Mode)
	}
	cfg.Storage.APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000"), "/")
	if cfg.Storage.APITimeout, err = time.ParseDuration(getEnv("API_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	if cfg.Storage.APITimeout <= 0 {
		return nil, fmt.Errorf("invalid API_TIMEOUT: must be positive")
	}
	cfg.Storage.Backend = strings.ToLower(getEnv("LOCAL_BACKEND", BackendFile))
	switch cfg.Storage.Backend {
	case BackendFile, BackendRedis, BackendMySQL, BackendSQLite:
	default:
		return nil, fmt.Errorf("invalid LOCAL_BACKEND: %q", cfg.Storage.Backend)
	}
	cfg.Storage.DataDir = getEnv("LOCAL_DATA_DIR", "data")
	cfg.Storage.SQLitePath = getEnv("LOCAL_SQLITE_PATH", "nutritracker.db")

	// Database configuration, only read by the mysql backend
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	if cfg.Database.Port, err = getInt("DB_PORT", 3306); err != nil {
		return nil, err
	}
	cfg.Database.User = getEnv("DB_USER", "root")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.DBName = getEnv("DB_NAME", "nutritracker")

	// Redis configuration
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = getInt("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// Server configuration
	cfg.Server.Host = getEnv("SERVER_HOST", "127.0.0.1")
	if cfg.Server.Port, err = getInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	cfg.CORS.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	if cfg.RateLimit.AuthPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimit.AuthPerMinute < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: must not be negative")
	}

	if key := os.Getenv("CSRF_KEY"); key != "" {
		if len(key) != CSRFKeySize {
			return nil, fmt.Errorf("invalid CSRF_KEY: must be %d bytes, got %d", CSRFKeySize, len(key))
		}
		cfg.CSRFKey = []byte(key)
	}

	// Daily targets
	defaults := models.DefaultTargets
	if cfg.Targets.Calories, err = getFloat("DAILY_CALORIES", defaults.Calories); err != nil {
		return nil, err
	}
	if cfg.Targets.Protein, err = getFloat("DAILY_PROTEIN", defaults.Protein); err != nil {
		return nil, err
	}
	if cfg.Targets.Carbs, err = getFloat("DAILY_CARBS", defaults.Carbs); err != nil {
		return nil, err
	}
	if cfg.Targets.Fat, err = getFloat("DAILY_FAT", defaults.Fat); err != nil {
		return nil, err
	}

	cfg.AdminUsernames = splitList(os.Getenv("ADMIN_USERNAMES"))

	if cfg.CalendarConcurrency, err = getInt("CALENDAR_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.CalendarConcurrency < 1 {
		return nil, fmt.Errorf("invalid CALENDAR_CONCURRENCY: must be at least 1")
	}

	return cfg, nil
}

// DSN returns the MySQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the host:port of the redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return value, nil
}

// splitList parses a comma-separated list, dropping blank items
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
