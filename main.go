// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/unitdex/internal/command"
	"github.com/staranto/unitdex/internal/config"
	mylog "github.com/staranto/unitdex/internal/log"
	"github.com/staranto/unitdex/internal/meta"
	"github.com/staranto/unitdex/internal/store"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		var err error
		if args, err = expandArgSets(args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(meta.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := store.EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// expandArgSets splices a named argument set from the config file into args.
// "unitdex units @mythic -o json" inserts the entries of units.mythic where
// @mythic was. Without an @set, units.defaults is used if it exists. Each
// entry may hold several space separated args.
func expandArgSets(args []string) ([]string, error) {
	// We know the first two args are going to be the executable and command.
	if len(args) < 2 || strings.HasPrefix(args[1], "-") {
		return args, nil
	}
	preamble := make([]string, 2)
	copy(preamble, args[:2])

	// Short-circuit for --help/-h. If help is requested, just keep the preamble
	// and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(preamble, "--help"), nil
		}
	}

	rest := make([]string, 0, len(args)-2)
	set, idx, explicit := "defaults", 0, false
	for _, a := range args[2:] {
		if !explicit && len(a) > 1 && strings.HasPrefix(a, "@") {
			set, idx, explicit = a[1:], len(rest), true
			continue
		}
		rest = append(rest, a)
	}

	setArgs, err := config.GetStringSlice(args[1] + "." + set)
	if err != nil {
		if explicit {
			return nil, fmt.Errorf("unknown argument set @%s for %s", set, args[1])
		}
		setArgs = nil
	}

	var spliced []string
	for _, arg := range setArgs {
		spliced = append(spliced, strings.Fields(arg)...)
	}

	out := append(preamble, rest[:idx]...)
	out = append(out, spliced...)
	out = append(out, rest[idx:]...)

	log.Debugf("set=%s, args=%v", set, out)
	return out, nil
}
