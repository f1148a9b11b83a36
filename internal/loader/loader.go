// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/staranto/unitdex/internal/store"
)

// TTL is how long a stored entry stays fresh.
const TTL = time.Hour

// rawLogLimit caps how much of an unparseable body goes into the log line.
// ParseError.Raw always holds all of it.
const rawLogLimit = 512

// Entry is the value kept in the store for each cache key.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch ms
}

// Fresh reports whether the entry is younger than TTL at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp < TTL.Milliseconds()
}

// Age is how long ago the entry was written.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.Timestamp))
}

// ImageExtractor maps loaded data to the image URLs it references.
type ImageExtractor func(data json.RawMessage) []string

// Options tune a single Load.
type Options struct {
	// Extractor, when set, drives image preloading after a fetch.
	Extractor ImageExtractor

	// Bypass skips the freshness check and asks every cache between here and
	// the source to step aside.
	Bypass bool

	// Transient keeps the load away from the store entirely. The result is
	// neither read from nor written to key.
	Transient bool
}

// Loader is the cache-then-fetch data loader.
type Loader struct {
	store     store.Store
	fetcher   Fetcher
	preloader *Preloader
	now       func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithPreloader replaces the default Preloader.
func WithPreloader(p *Preloader) Option {
	return func(l *Loader) { l.preloader = p }
}

// New returns a Loader reading and writing st and fetching through f.
func New(st store.Store, f Fetcher, opts ...Option) *Loader {
	l := &Loader{
		store:   st,
		fetcher: f,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.preloader == nil {
		l.preloader = NewPreloader(f, DefaultPreloadConcurrency)
	}
	return l
}

// Load returns the data for key, from the store while fresh and from url
// otherwise.
func (l *Loader) Load(ctx context.Context, key, url string, opts Options) (json.RawMessage, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	ll := log.WithField("key", key)

	if !opts.Bypass && !opts.Transient {
		if entry, ok := l.Cached(ctx, key); ok && entry.Fresh(l.now()) {
			ll.Debug("cache hit")
			return entry.Data, nil
		}
	}

	ll.WithField("url", url).WithField("bypass", opts.Bypass).Debug("fetching")

	resp, err := l.fetcher.Fetch(ctx, url, opts.Bypass)
	if err != nil {
		ll.WithError(err).Error("fetch failed")
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if !resp.OK() {
		fe := &FetchError{Key: key, URL: url, StatusCode: resp.StatusCode}
		ll.WithError(fe).Error("fetch failed")
		return nil, fe
	}

	body := bytes.TrimSpace(resp.Body)
	if !json.Valid(body) {
		pe := &ParseError{Key: key, URL: url, Raw: resp.Body, Err: parseFailure(body)}
		ll.WithError(pe).WithField("raw", truncate(resp.Body, rawLogLimit)).Error("parse failed")
		return nil, pe
	}
	data := json.RawMessage(body)

	if !opts.Transient {
		l.write(ctx, key, data)
	}

	if opts.Extractor != nil {
		l.preloader.PreloadAll(ctx, opts.Extractor(data))
	}

	return data, nil
}

// Cached returns the stored entry for key regardless of its freshness. A
// missing or unreadable entry reports false.
func (l *Loader) Cached(ctx context.Context, key string) (Entry, bool) {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("cache read failed")
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Data == nil {
		log.WithField("key", key).Debug("ignoring corrupt cache entry")
		return Entry{}, false
	}
	return entry, true
}

// Now is the loader's clock.
func (l *Loader) Now() time.Time {
	return l.now()
}

func (l *Loader) write(ctx context.Context, key string, data json.RawMessage) {
	val, err := json.Marshal(Entry{Data: data, Timestamp: l.now().UnixMilli()})
	if err == nil {
		err = l.store.Set(ctx, key, val)
	}
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("failed to write cache")
	}
}

func parseFailure(body []byte) error {
	if len(body) == 0 {
		return errors.New("empty body")
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return err
	}
	return errors.New("invalid JSON")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
