// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/datasets"
	"github.com/staranto/unitdex/internal/differ"
	"github.com/staranto/unitdex/internal/loader"
	"github.com/staranto/unitdex/internal/meta"
	"github.com/staranto/unitdex/internal/output"
	"github.com/staranto/unitdex/internal/store"
)

// RefreshCommandAction fetches each named dataset (all of them when none
// are named) regardless of the freshness of its cached copy. A failing
// dataset does not stop the others.
func RefreshCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "refresh") {
		return nil
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		names = datasets.Names()
	}
	if err := DatasetValidator(names); err != nil {
		return err
	}

	w := Writer(cmd)
	color := output.ColorEnabled(w, cmd.Bool("color"))

	return WithLoader(ctx, cmd, func(l *loader.Loader, _ store.Store) error {
		var errs []error
		for _, name := range names {
			ds, _ := datasets.Lookup(name)

			prev, hadPrev := l.Cached(ctx, ds.Key)

			opts := loader.Options{Bypass: true}
			if !cmd.Bool("no-preload") {
				opts.Extractor = ds.Extractor()
			}

			data, err := l.Load(ctx, ds.Key, ds.URL(), opts)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}

			if !cmd.Bool("diff") {
				fmt.Fprintf(w, "%s: refreshed (%s)\n", name, humanize.Bytes(uint64(len(data))))
				continue
			}

			if !hadPrev {
				fmt.Fprintf(w, "%s: no previous copy to compare\n", name)
				continue
			}

			fmt.Fprintf(w, "%s: changes since %s\n", name, humanize.RelTime(time.UnixMilli(prev.Timestamp), l.Now(), "ago", "from now"))
			changed, err := differ.Diff(w, prev.Data, data, color)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			if !changed {
				fmt.Fprintf(w, "%s: no changes\n", name)
			}
		}

		if len(errs) > 0 {
			log.Debugf("refresh: %d of %d datasets failed", len(errs), len(names))
		}
		return errors.Join(errs...)
	})
}

// RefreshCommandBuilder constructs the cli.Command for "refresh".
func RefreshCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "fetch datasets now, ignoring the cache",
		UsageText: "unitdex refresh [dataset...] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.BoolWithInverseFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "enable colored diff output",
				Value:   false,
			},
			&cli.BoolFlag{
				Name:        "diff",
				Aliases:     []string{"d"},
				Usage:       "show what changed against the cached copy",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "no-preload",
				Usage:       "skip preloading the images a dataset references",
				HideDefault: true,
			},
			newTLDRFlag(),
		},
		Action: RefreshCommandAction,
	}
}
