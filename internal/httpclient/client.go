// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package httpclient builds the HTTP clients used for dataset fetches, image
// preloads and webhook posts.
package httpclient

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// ClientConfig holds configuration options for creating HTTP clients.
type ClientConfig struct {
	// MaxIdleConns controls the maximum number of idle (keep-alive) connections
	// across all hosts.
	MaxIdleConns int

	// MaxIdleConnsPerHost matters for image preloads, which tend to hammer a
	// single CDN host in parallel.
	MaxIdleConnsPerHost int

	IdleConnTimeout time.Duration

	// Timeout is the overall request limit. Zero means no limit; a hung
	// fetch then hangs until the caller's context gives up.
	Timeout time.Duration

	DialTimeout           time.Duration
	KeepAlive             time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
}

// getEnvDuration reads a duration from an environment variable, returning the
// default if not set or invalid. Plain integers are seconds; Go duration
// strings ("90s", "2m") are accepted as well.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return defaultVal
}

// DefaultConfig returns a ClientConfig with defaults suited to fetching small
// JSON documents and images. Overridable via environment:
//   - UNITDEX_HTTP_TIMEOUT: overall request timeout (default: none)
//   - UNITDEX_HTTP_RESPONSE_HEADER_TIMEOUT: wait for headers (default: 60s)
func DefaultConfig() ClientConfig {
	return ClientConfig{
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		Timeout:               getEnvDuration("UNITDEX_HTTP_TIMEOUT", 0),
		DialTimeout:           30 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: getEnvDuration("UNITDEX_HTTP_RESPONSE_HEADER_TIMEOUT", 60*time.Second),
	}
}

// NewHTTPClient creates a new HTTP client with the provided configuration.
// If config is nil, DefaultConfig() is used.
func NewHTTPClient(config *ClientConfig) *http.Client {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}

// NewDefaultHTTPClient is equivalent to NewHTTPClient(nil).
func NewDefaultHTTPClient() *http.Client {
	return NewHTTPClient(nil)
}
