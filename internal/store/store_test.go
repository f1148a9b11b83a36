// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	t.Setenv("UNITDEX_CACHE_DIR", "/tmp/unitdex-test")
	dir, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/unitdex-test", dir)

	t.Setenv("UNITDEX_CACHE_DIR", "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	dir, ok = Dir()
	assert.True(t, ok)
	assert.Equal(t, "unitdex", filepath.Base(dir))
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
	}
	for _, tt := range tests {
		t.Run("UNITDEX_CACHE="+tt.val, func(t *testing.T) {
			t.Setenv("UNITDEX_CACHE", tt.val)
			assert.Equal(t, tt.want, Enabled())
		})
	}
}

func TestEnsureBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "cache")
	t.Setenv("UNITDEX_CACHE_DIR", base)
	t.Setenv("UNITDEX_CACHE", "")

	got, ok, err := EnsureBaseDir()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, base, got)
	assert.DirExists(t, base)

	t.Setenv("UNITDEX_CACHE", "0")
	_, ok, err = EnsureBaseDir()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEncodeKey(t *testing.T) {
	// md5("units_data_cache")
	assert.Len(t, encodeKey("units_data_cache"), 32)
	assert.Equal(t, encodeKey("a"), encodeKey("a"))
	assert.NotEqual(t, encodeKey("a"), encodeKey("b"))
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Setenv("UNITDEX_CACHE", "")
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "c"))

	_, ok, err := s.Get(ctx, "units_data_cache")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "units_data_cache", []byte(`{"data":[],"timestamp":1}`)))
	got, ok, err := s.Get(ctx, "units_data_cache")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"data":[],"timestamp":1}`, string(got))

	require.NoError(t, s.Set(ctx, "units_data_cache", []byte(`{"data":[1],"timestamp":2}`)))
	got, _, err = s.Get(ctx, "units_data_cache")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1],"timestamp":2}`, string(got))

	p, exists := s.Path("units_data_cache")
	assert.True(t, exists)
	assert.NoFileExists(t, p+".tmp")
}

func TestFileStore_Keys(t *testing.T) {
	t.Setenv("UNITDEX_CACHE", "")
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Set(ctx, "units_data_cache", []byte("1")))
	require.NoError(t, s.Set(ctx, "codes_data_cache", []byte("2")))
	require.NoError(t, s.Set(ctx, "codes_data_cache", []byte("3")))

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"codes_data_cache", "units_data_cache"}, keys)
}

func TestFileStore_MissingDirKeys(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"))
	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStore_IgnoresCacheSwitch(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	// The switch is honored by callers, so small records such as the
	// feedback cooldown still persist with caching off.
	t.Setenv("UNITDEX_CACHE", "false")
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var s Store = Nop{}

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.NoError(t, s.Close())
}

func TestFileStore_Concurrent(t *testing.T) {
	t.Setenv("UNITDEX_CACHE", "")
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, "shared", []byte(`"value"`))
			_, _, _ = s.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	got, ok, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"value"`, string(got))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(0)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	val := []byte("hello")
	require.NoError(t, s.Set(ctx, "greeting", val))
	val[0] = 'j'

	got, ok, err := s.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting"}, keys)
}

func TestMemoryStore_HoldsMaxEntries(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(5)
	require.NoError(t, err)
	defer s.Close()

	// Dataset payloads run to many kilobytes; each still counts as one entry.
	body := []byte(`{"data":"` + strings.Repeat("x", 64<<10) + `","timestamp":1}`)
	want := []string{"codes_data_cache", "items_data_cache", "tierlist_data_cache", "traits_data_cache", "units_data_cache"}
	for _, k := range want {
		require.NoError(t, s.Set(ctx, k, body), k)
	}

	for _, k := range want {
		got, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, ok, k)
		assert.Len(t, got, len(body))
	}

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, keys)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "sub", "unitdex.db"))
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "items_data_cache")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "items_data_cache", []byte(`{"data":[],"timestamp":5}`)))
	require.NoError(t, s.Set(ctx, "items_data_cache", []byte(`{"data":[1],"timestamp":6}`)))
	require.NoError(t, s.Set(ctx, "codes_data_cache", []byte(`{"data":{},"timestamp":7}`)))

	got, ok, err := s.Get(ctx, "items_data_cache")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"data":[1],"timestamp":6}`, string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"codes_data_cache", "items_data_cache"}, keys)

	_, err = NewSQLiteStore(ctx, "  ")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = New(ctx, Config{Backend: BackendMemory, MemoryMaxEntries: 8})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, s.Close())

	s, err = New(ctx, Config{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, Config{Backend: "floppy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")

	_, err = New(ctx, Config{Backend: BackendRedis, RedisURL: "not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

// TestRedisStore runs against a live server when UNITDEX_TEST_REDIS_URL is
// set.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("UNITDEX_TEST_REDIS_URL")
	if url == "" {
		t.Skip("UNITDEX_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisConfig{URL: url, Prefix: "unitdex-test"})
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "units_data_cache", []byte(`{"data":{},"timestamp":0}`)))
	got, ok, err := s.Get(ctx, "units_data_cache")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"data":{},"timestamp":0}`, string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "units_data_cache")
}
