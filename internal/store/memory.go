// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultMemoryMaxEntries bounds the memory store when no size is given.
const DefaultMemoryMaxEntries = 1024

// MemoryStore is an in-process Store backed by ristretto. It lives only as
// long as the process, which suits one-shot runs that want no disk writes.
type MemoryStore struct {
	rc *ristretto.Cache[string, []byte]

	// ristretto cannot enumerate its keys, so they are tracked here.
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemoryStore creates a MemoryStore holding up to maxEntries values (each
// entry has a cost of 1).
func NewMemoryStore(maxEntries int64) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryMaxEntries
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Cost is the entry count, not ristretto's byte estimate.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		rc:   rc,
		keys: make(map[string]struct{}),
	}, nil
}

// Get retrieves a copy of the value for key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores a copy of val under key and waits for the write to land so a
// following Get observes it. A write ristretto refuses is an error.
func (s *MemoryStore) Set(_ context.Context, key string, val []byte) error {
	if !s.rc.Set(key, bytes.Clone(val), 1) {
		return fmt.Errorf("memory store rejected %s", key)
	}
	s.rc.Wait()

	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Keys lists the keys still held by the cache.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		if _, ok := s.rc.Get(k); !ok {
			delete(s.keys, k)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close stops ristretto's background goroutines.
func (s *MemoryStore) Close() error {
	s.rc.Close()
	return nil
}
