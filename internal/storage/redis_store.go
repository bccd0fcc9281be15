package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCommander is the subset of *redis.Client used by the redis store
type RedisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// redisStore implements a key-value store on top of Redis strings
type redisStore struct {
	client RedisCommander
	prefix string
}

// NewRedisStore creates a new redis-backed key-value store; every key is stored under prefix
func NewRedisStore(client RedisCommander, prefix string) *redisStore {
	return &redisStore{
		client: client,
		prefix: prefix,
	}
}

// Get returns the value stored under key; the boolean is false when nothing is stored
func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key; values never expire
func (s *redisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}
