// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/url"
	"path"
	"strings"

	"github.com/apex/log"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
	"golang.org/x/sync/errgroup"
)

// DefaultPreloadConcurrency is the default in-flight limit. Zero starts every
// preload at once.
const DefaultPreloadConcurrency = 0

// Preloader warms images referenced by a dataset.
type Preloader struct {
	fetcher Fetcher
	limit   int
}

// NewPreloader returns a Preloader that fetches through f with at most limit
// requests in flight. A limit below 1 means no limit.
func NewPreloader(f Fetcher, limit int) *Preloader {
	if limit < 1 {
		limit = -1
	}
	return &Preloader{fetcher: f, limit: limit}
}

// PreloadAll fetches and decodes the header of every URL. It returns once
// every attempt has settled. Failures are logged and dropped.
func (p *Preloader) PreloadAll(ctx context.Context, urls []string) {
	var g errgroup.Group
	g.SetLimit(p.limit)

	errs := make([]*ImagePreloadError, len(urls))
	for i, u := range urls {
		if u == "" {
			continue
		}
		g.Go(func() error {
			if err := p.preload(ctx, u); err != nil {
				pe := &ImagePreloadError{URL: u, Err: err}
				log.WithError(pe).Warn("image preload failed")
				errs[i] = pe
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}

	log.WithField("images", len(urls)).WithField("failed", failed).Debug("preload settled")
}

func (p *Preloader) preload(ctx context.Context, u string) error {
	resp, err := p.fetcher.Fetch(ctx, u, false)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	// Vector images have no decoder here; a successful fetch is enough.
	if isVector(u, resp.ContentType) {
		return nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(resp.Body)); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func isVector(rawURL, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "image/svg") {
		return true
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".svg", ".svgz":
		return true
	}
	return false
}
