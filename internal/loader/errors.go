// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"fmt"
)

// ErrEmptyKey is returned when Load is called without a cache key.
var ErrEmptyKey = errors.New("cache key must not be empty")

// FetchError reports a non-2xx response from the source.
type FetchError struct {
	Key        string
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed with status %d", e.URL, e.StatusCode)
}

// ParseError reports a response body that is not valid JSON. Raw carries the
// body as received.
type ParseError struct {
	Key string
	URL string
	Raw []byte
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ImagePreloadError reports a single image that could not be fetched or
// decoded. It is logged, never returned by Load.
type ImagePreloadError struct {
	URL string
	Err error
}

func (e *ImagePreloadError) Error() string {
	return fmt.Sprintf("preload %s: %v", e.URL, e.Err)
}

func (e *ImagePreloadError) Unwrap() error {
	return e.Err
}
