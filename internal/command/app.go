// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/config"
	"github.com/staranto/unitdex/internal/datasets"
	"github.com/staranto/unitdex/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the unitdex
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, _ := config.Load(ns)

	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		Env:         env,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "unitdex",
		Usage: "game data reference from the terminal",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "unitdex version info",
				HideDefault: true,
			},
		},
	}

	for _, ds := range datasets.All() {
		if ds.Name == "units" {
			app.Commands = append(app.Commands, UnitsCommandBuilder(app, meta))
			continue
		}
		builder := DatasetCommandBuilder{Dataset: ds, Meta: meta}
		app.Commands = append(app.Commands, builder.Build())
	}

	app.Commands = append(app.Commands,
		RefreshCommandBuilder(app, meta),
		CacheCommandBuilder(app, meta),
		FeedbackCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
