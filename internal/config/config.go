// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file searched for in the standard
// locations.
const FileName = "unitdex.yaml"

type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

var Config Type

func init() {
	// A .env in the working directory may carry UNITDEX_* overrides. It never
	// replaces variables that are already set.
	_ = godotenv.Load()
	_, _ = Load()
}

// Load reads the config file and makes it the package-level Config. The
// optional ns becomes the namespace searched first by the getters, which is
// how a subcommand such as units gets its own section of the file.
func Load(ns ...string) (Type, error) {
	path, err := getConfigPath()
	if err != nil {
		return Type{}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	Config = Type{
		Source: path,
		Data:   data}
	if len(ns) > 0 {
		Config.Namespace = ns[0]
	}

	return Config, nil
}

// get traverses the map using a dotted key path
func (cfg *Type) get(kspec string) (any, error) {
	if len(cfg.Data) == 0 && cfg.Source == "" {
		if loaded, err := Load(); err == nil {
			cfg.Source, cfg.Data = loaded.Source, loaded.Data
		}
	}

	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		keys := strings.Split(key, ".")
		var current interface{} = cfg.Data

		success := true
		for _, key := range keys {
			m, ok := current.(map[string]interface{})
			if !ok {
				success = false
				break
			}
			current, ok = m[key]
			if !ok {
				success = false
				break
			}
		}

		if success {
			return current, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

func GetString(key string, defaultValue ...string) (string, error) {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

func GetInt(key string, defaultValue ...int) (int, error) {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

func GetBool(key string, defaultValue ...bool) (bool, error) {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, errors.New("value is not a bool")
	}

	return b, nil
}

// GetStringMap returns the string values found beneath key. Non-string
// leaves are skipped.
func GetStringMap(key string) (map[string]string, error) {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}

	val, err := Config.get(key)
	if err != nil {
		return nil, err
	}

	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, errors.New("value is not a map")
	}

	result := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			result[k] = s
		}
	}
	return result, nil
}

// GetStringSlice returns the list at key. A single string is returned as a
// one element list.
func GetStringSlice(key string) ([]string, error) {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}

	val, err := Config.get(key)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("value is not a list of strings")
			}
			result = append(result, s)
		}
		return result, nil
	default:
		return nil, errors.New("value is not a list")
	}
}

// getConfigPath resolves the config file. UNITDEX_CFG wins when set and must
// name a regular file. Otherwise the standard locations are searched.
func getConfigPath() (string, error) {
	if p, ok := os.LookupEnv("UNITDEX_CFG"); ok && p != "" {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", p)
		}
		if info.IsDir() {
			return "", fmt.Errorf("UNITDEX_CFG points to a directory: %s", p)
		}
		return p, nil
	}

	var candidates []string = []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fileInfo, err := os.Stat(file); err == nil {
			if !fileInfo.IsDir() {
				log.Debugf("using config file: %s", file)
				return file, nil
			}
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
