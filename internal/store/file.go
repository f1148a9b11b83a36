// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/apex/log"
)

const keySuffix = ".key"

// FileStore keeps one file per key beneath a base directory. The filename is
// the MD5 of the clear-text key; a sidecar <hash>.key file holds the clear
// key so Keys can report it.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// Dir resolves the base cache directory.
// Precedence:
//  1. UNITDEX_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/unitdex
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("UNITDEX_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "unitdex"), true
	}
	return "", false
}

// Enabled returns true unless UNITDEX_CACHE explicitly disables dataset
// caching ("0"/"false"). The stores themselves ignore it; callers that honor
// it swap in Nop.
func Enabled() bool {
	enabled, _ := os.LookupEnv("UNITDEX_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// lazily on the first Set.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns where the value for key lives on disk, and whether it exists.
func (s *FileStore) Path(key string) (string, bool) {
	p := filepath.Join(s.dir, encodeKey(key))
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Get reads the value for key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(filepath.Join(s.dir, encodeKey(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	return bytes.TrimSpace(b), true, nil
}

// Set writes the value for key atomically (temp file + rename) so a reader
// never observes a half-written value.
func (s *FileStore) Set(_ context.Context, key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	encoded := encodeKey(key)
	p := filepath.Join(s.dir, encoded)
	if err := writeAtomic(p, val); err != nil {
		return err
	}
	if err := writeAtomic(p+keySuffix, []byte(key)); err != nil {
		return err
	}

	log.Debugf("wrote cache file %s for %s", p, key)
	return nil
}

// Keys lists the clear-text keys of every stored value.
func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), keySuffix) {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			log.WithError(err).Warnf("failed to read cache key file %s", e.Name())
			continue
		}
		keys = append(keys, string(b))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func writeAtomic(p string, data []byte) error {
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// encodeKey hashes k with MD5 and returns the hex string.
func encodeKey(k string) string {
	h := md5.New()
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}
