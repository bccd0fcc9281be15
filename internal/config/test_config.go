package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the settings used by integration tests
//
// TEST_DB_* and TEST_REDIS_* are optional. When TEST_DB_HOST or TEST_REDIS_HOST is unset the matching
// section stays empty and the tests that need that server are skipped.
func LoadTestConfig() (*Config, error) {
	// Both paths are optional
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{}

	if host := os.Getenv("TEST_DB_HOST"); host != "" {
		cfg.Database.Host = host
		port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "3306"))
		if err != nil {
			return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
		}
		cfg.Database.Port = port
		cfg.Database.User = getEnv("TEST_DB_USER", "root")
		cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
		cfg.Database.DBName = getEnv("TEST_DB_NAME", "nutritracker_test")
	}

	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
		port, err := strconv.Atoi(getEnv("TEST_REDIS_PORT", "6379"))
		if err != nil {
			return nil, fmt.Errorf("invalid TEST_REDIS_PORT: %w", err)
		}
		cfg.Redis.Port = port
		cfg.Redis.Password = os.Getenv("TEST_REDIS_PASSWORD")
	}

	return cfg, nil
}
