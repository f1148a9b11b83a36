// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/datasets"
	"github.com/staranto/unitdex/internal/feedback"
	"github.com/staranto/unitdex/internal/loader"
	"github.com/staranto/unitdex/internal/meta"
	"github.com/staranto/unitdex/internal/output"
	"github.com/staranto/unitdex/internal/store"
)

// cacheRow is one line of the cache listing.
type cacheRow struct {
	Key     string `json:"key"`
	Dataset string `json:"dataset"`
	Age     string `json:"age"`
	Status  string `json:"status"`
	Size    string `json:"size"`
	Written string `json:"written"`
}

// CacheCommandAction lists what the store holds and how fresh each dataset
// entry is.
func CacheCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "cache") {
		return nil
	}

	al, err := BuildAttrs(cmd, "key,dataset,age,status,size,!written")
	if err != nil {
		return err
	}

	var rows []cacheRow
	err = WithLoader(ctx, cmd, func(l *loader.Loader, st store.Store) error {
		rows, err = cacheRows(ctx, l, st)
		return err
	})
	if err != nil {
		return err
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal cache listing: %w", err)
	}

	return output.SliceDiceSpit(raw, al, RenderOptions(cmd), Writer(cmd))
}

func cacheRows(ctx context.Context, l *loader.Loader, st store.Store) ([]cacheRow, error) {
	keys, err := st.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}

	// Read entries from st itself. With caching off the loader sits over
	// store.Nop and would see nothing.
	entries := loader.New(st, nil, loader.WithClock(l.Now))

	now := l.Now()
	rows := make([]cacheRow, 0, len(keys))
	for _, k := range keys {
		row := cacheRow{Key: k}

		switch ds, ok := datasets.ByKey(k); {
		case ok:
			row.Dataset = ds.Name
			entry, ok := entries.Cached(ctx, k)
			if !ok {
				row.Status = "corrupt"
				break
			}
			written := time.UnixMilli(entry.Timestamp)
			row.Age = humanize.RelTime(written, now, "ago", "from now")
			row.Written = written.UTC().Format(time.RFC3339)
			row.Size = humanize.Bytes(uint64(len(entry.Data)))
			row.Status = "stale"
			if entry.Fresh(now) {
				row.Status = "fresh"
			}
		case k == feedback.CooldownKey:
			row.Status = "feedback cooldown"
		default:
			row.Status = "unknown"
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// CacheCommandBuilder constructs the cli.Command for "cache".
func CacheCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "cache",
		Usage:     "list cached datasets and their freshness",
		UsageText: "unitdex cache [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{newTLDRFlag()}, NewGlobalFlags("cache")...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: CacheCommandAction,
	}
}
