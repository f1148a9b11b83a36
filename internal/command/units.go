// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/datasets"
	"github.com/staranto/unitdex/internal/meta"
	"github.com/staranto/unitdex/internal/units"
)

// browseFn runs the interactive browser. Swapped out in tests.
var browseFn = Browse

// UnitsCommandBuilder constructs the cli.Command for "units", which adds the
// unit filters and the interactive browser to the common dataset flags.
func UnitsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	ds, _ := datasets.Lookup("units")
	runner := &DatasetActionRunner{Dataset: ds, Narrow: NarrowUnits}

	builder := DatasetCommandBuilder{
		Dataset:   ds,
		UsageText: "unitdex units [options]",
		Meta:      meta,
		Action:    runner.Run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "search",
				Usage: "only units whose name or alternative name contains this text",
			},
			&cli.StringSliceFlag{
				Name:  "rarity",
				Usage: "only units of these rarities",
			},
			&cli.StringSliceFlag{
				Name:  "attribute",
				Usage: "only units with any of these attributes",
			},
			&cli.StringSliceFlag{
				Name:  "damage",
				Usage: "only units dealing any of these damage types",
			},
			&cli.StringSliceFlag{
				Name:  "element",
				Usage: "only units with these elements",
			},
			&cli.BoolFlag{
				Name:        "match-all",
				Usage:       "require every --element instead of any",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "show-base",
				Usage:       "include base units that have an evolved form",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "interactive",
				Aliases:     []string{"i"},
				Usage:       "browse and filter units interactively",
				HideDefault: true,
			},
		},
	}

	return builder.Build()
}

// FilterStateFromFlags builds the unit filter from the command line.
func FilterStateFromFlags(cmd *cli.Command) units.FilterState {
	return units.FilterState{
		Search:           cmd.String("search"),
		Rarity:           units.NewSet(cmd.StringSlice("rarity")...),
		Attribute:        units.NewSet(cmd.StringSlice("attribute")...),
		Damage:           units.NewSet(cmd.StringSlice("damage")...),
		Element:          units.NewSet(cmd.StringSlice("element")...),
		MatchAllElements: cmd.Bool("match-all"),
		ShowBaseUnits:    cmd.Bool("show-base"),
	}
}

// NarrowUnits applies the unit filters, interactively when asked, and
// returns the surviving records in their original form.
func NarrowUnits(ctx context.Context, cmd *cli.Command, raw json.RawMessage) (json.RawMessage, error) {
	all, err := units.Decode(raw)
	if err != nil {
		return nil, err
	}

	st := FilterStateFromFlags(cmd)

	if cmd.Bool("interactive") {
		final, err := browseFn(ctx, all, st)
		if errors.Is(err, ErrBrowseCancelled) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("interactive browser: %w", err)
		}
		st = final
	}

	kept := units.FilterIndex(all, st)
	log.Debugf("units: %d of %d pass the filters", len(kept), len(all))

	return selectByIndex(raw, kept), nil
}

// selectByIndex returns the elements of the raw array at the positions in
// kept, in that order. Records keep every field, including ones Unit does not
// model.
func selectByIndex(raw json.RawMessage, kept []int) json.RawMessage {
	elems := gjson.ParseBytes(raw).Array()

	out := []byte{'['}
	for n, i := range kept {
		if i < 0 || i >= len(elems) {
			continue
		}
		if n > 0 {
			out = append(out, ',')
		}
		out = append(out, elems[i].Raw...)
	}
	return append(out, ']')
}
