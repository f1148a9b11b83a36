// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces unitdex keys in a shared database.
const DefaultRedisPrefix = "unitdex"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g. "redis://localhost:6379/0").
	URL string

	// Prefix is prepended, with a colon, to every key.
	Prefix string
}

// RedisStore implements Store on top of Redis so several machines can share
// one dataset cache. Keys carry no Redis TTL; freshness is decided by the
// reader from the stored timestamp.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	log.WithField("prefix", prefix).Debug("redis store connected")

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// Get retrieves the value for key from Redis.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return data, true, nil
}

// Set stores the value for key in Redis without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, val []byte) error {
	if err := s.client.Set(ctx, s.key(key), val, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

// Keys scans for every key under the store prefix.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix+":"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
