// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package store provides the persistent key-value store the dataset cache
// lives in. Values are opaque bytes; a Set replaces the whole value for a key
// and a Get returns the whole value, with no transactions beyond that.
package store

import (
	"context"
	"fmt"
	"path/filepath"
)

// Store is a key-value store scoped to one user. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the value stored under key. The boolean is false when no
	// value exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, val []byte) error

	// Keys lists every key currently holding a value.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted by New.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config selects and configures a Store backend.
type Config struct {
	// Backend is one of file, redis, memory or sqlite. Empty means file.
	Backend string

	// Dir overrides the file backend directory.
	Dir string

	// SQLitePath overrides the sqlite database location.
	SQLitePath string

	// RedisURL is the connection URL for the redis backend.
	RedisURL string

	// RedisPrefix namespaces keys in a shared redis database.
	RedisPrefix string

	// MemoryMaxEntries bounds the memory backend.
	MemoryMaxEntries int64
}

// New builds the Store described by cfg.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, ok := Dir()
			if !ok {
				return nil, fmt.Errorf("no cache directory could be resolved")
			}
			dir = d
		}
		return NewFileStore(dir), nil
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{URL: cfg.RedisURL, Prefix: cfg.RedisPrefix})
	case BackendMemory:
		return NewMemoryStore(cfg.MemoryMaxEntries)
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			d, ok := Dir()
			if !ok {
				return nil, fmt.Errorf("no cache directory could be resolved")
			}
			path = filepath.Join(d, DefaultSQLiteFile)
		}
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Nop is a Store that holds nothing. Get always misses and Set discards.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte) error { return nil }

func (Nop) Keys(context.Context) ([]string, error) { return nil, nil }

func (Nop) Close() error { return nil }
