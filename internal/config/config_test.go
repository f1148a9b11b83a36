// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setupTestConfig sets UNITDEX_CFG to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	configPath := filepath.Join("testdata", testdataFile)
	absPath, err := filepath.Abs(configPath)
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("UNITDEX_CFG", absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "https://example.com/game", cfg.Data["base_url"])
				assert.Equal(t, "text", cfg.Data["output"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				cache, ok := cfg.Data["cache"].(map[string]interface{})
				assert.True(t, ok, "cache should be a map")
				assert.Equal(t, "file", cache["backend"])
				assert.Equal(t, "/tmp/unitdex-cache", cache["dir"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, "unitdex", cfg.Data["name"])
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["enabled"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				tags, ok := cfg.Data["tags"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, tags, 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				// Empty YAML unmarshals to nil map, which is acceptable
				assert.NotEmpty(t, cfg.Source, "should have a source path")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_Namespace(t *testing.T) {
	cleanup := setupTestConfig(t, "namespace.yaml")
	defer cleanup()

	cfg, err := Load("units")
	assert.NoError(t, err)
	assert.Equal(t, "units", cfg.Namespace)

	val, err := GetString("setting")
	assert.NoError(t, err)
	assert.Equal(t, "units-value", val)
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("UNITDEX_CFG", "/nonexistent/path/unitdex.yaml")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_UNITDEX_CFG_IsDirectory(t *testing.T) {
	t.Setenv("UNITDEX_CFG", "testdata")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_StandardLocations(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UNITDEX_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", t.TempDir())
	Config = Type{}
	defer func() { Config = Type{} }()

	_, err := Load()
	assert.Error(t, err)

	src, err := filepath.Abs(filepath.Join("testdata", "simple.yaml"))
	assert.NoError(t, err)
	copyFile(t, src, filepath.Join(dir, FileName))

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Source)
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{
			name:     "simple string value",
			testFile: "simple.yaml",
			key:      "base_url",
			want:     "https://example.com/game",
		},
		{
			name:     "nested string value",
			testFile: "nested.yaml",
			key:      "redis.url",
			want:     "redis://localhost:6379/0",
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []string{"default-value"},
			want:         "default-value",
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-string value",
			testFile: "mixed-types.yaml",
			key:      "version",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetString(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{
			name:     "int value",
			testFile: "mixed-types.yaml",
			key:      "version",
			want:     1,
		},
		{
			name:     "float value converted to int",
			testFile: "mixed-types.yaml",
			key:      "timeout",
			want:     30,
		},
		{
			name:     "nested int value",
			testFile: "nested.yaml",
			key:      "preload.concurrency",
			want:     4,
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []int{60},
			want:         60,
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-int value",
			testFile: "simple.yaml",
			key:      "base_url",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetInt(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, _ = Load()

	got, err := GetBool("units.titles")
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = GetBool("missing", true)
	assert.NoError(t, err)
	assert.True(t, got)

	_, err = GetBool("units.output")
	assert.Error(t, err)
}

func TestGetStringMap(t *testing.T) {
	cleanup := setupTestConfig(t, "feedback.yaml")
	defer cleanup()

	_, _ = Load()

	got, err := GetStringMap("feedback.webhooks")
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Bug Report": "https://hooks.example.com/bug",
		"Suggestion": "https://hooks.example.com/suggestion",
	}, got)

	_, err = GetStringMap("feedback.missing")
	assert.Error(t, err)
}

func TestGetStringSlice(t *testing.T) {
	cleanup := setupTestConfig(t, "mixed-types.yaml")
	defer cleanup()

	_, _ = Load()

	tests := []struct {
		key     string
		want    []string
		wantErr bool
	}{
		{"tags", []string{"units", "items"}, false},
		{"name", []string{"unitdex"}, false},
		{"version", nil, true},
		{"missing", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := GetStringSlice(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_GetWithNamespace(t *testing.T) {
	cleanup := setupTestConfig(t, "namespace.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "units"
	val, err := Config.get("setting")
	assert.NoError(t, err)
	assert.Equal(t, "units-value", val)

	Config.Namespace = "items"
	val, err = Config.get("setting")
	assert.NoError(t, err)
	assert.Equal(t, "items-value", val)

	// Falls back to the root when the namespace lacks the key.
	val, err = Config.get("specific")
	assert.Error(t, err)
	assert.Nil(t, val)

	Config.Namespace = "codes"
	val, err = Config.get("setting")
	assert.NoError(t, err)
	assert.Equal(t, "global-value", val)
}

func TestConfig_GetNestedPath(t *testing.T) {
	cleanup := setupTestConfig(t, "deep-nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	val, err := Config.get("level1.level2.level3.value")
	assert.NoError(t, err)
	assert.Equal(t, "deep-value", val)
}

func TestConfig_LazyLoad(t *testing.T) {
	cleanup := setupTestConfig(t, "simple.yaml")
	defer cleanup()

	// Don't explicitly call Load(), just use GetString
	// This should trigger lazy loading
	val, err := GetString("base_url")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/game", val)
	assert.NotEmpty(t, Config.Source, "Config should be loaded")
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	b, err := os.ReadFile(src)
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(dst, b, 0o600))
}
