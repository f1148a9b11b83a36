// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the UNITDEX_* overrides that win over the yaml file. Zero values
// mean "not set".
type Env struct {
	BaseURL            string `env:"UNITDEX_BASE_URL"`
	CacheBackend       string `env:"UNITDEX_CACHE_BACKEND"`
	RedisURL           string `env:"UNITDEX_REDIS_URL"`
	RedisPrefix        string `env:"UNITDEX_REDIS_PREFIX"`
	SQLitePath         string `env:"UNITDEX_SQLITE_PATH"`
	PreloadConcurrency int    `env:"UNITDEX_PRELOAD_CONCURRENCY"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses the UNITDEX_* overrides.
func LoadEnv() (Env, error) {
	var e Env
	err := ParseEnv(&e)
	return e, err
}

// StringOr returns the env value when set, else the config value for key,
// else def.
func StringOr(envVal, key, def string) string {
	if envVal != "" {
		return envVal
	}
	s, err := GetString(key, def)
	if err != nil || s == "" {
		return def
	}
	return s
}
