// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/config"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// Flags are built per command. urfave/cli records parse state on the flag
// itself, so a flag value must not be shared between commands.

func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "list the attribute paths found in the dataset",
		HideDefault: true,
	}
}

func newTLDRFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// NewGlobalFlags returns the rendering flags shared by every dataset command.
// params[0] is the command name, used to namespace config file lookups.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"color", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolFlag{
			Name:  "local",
			Usage: "convert timestamps to the configured timezone",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"local", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("local", altsrc.StringSourcer(cfg.Source)),
			),
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
	}

	return
}

// NewLoadFlags returns the flags that steer how a dataset is loaded.
func NewLoadFlags(params ...string) []cli.Flag {
	return []cli.Flag{
		NewRefreshFlag(),
		&cli.BoolFlag{
			Name:  "no-preload",
			Usage: "skip preloading the images a dataset references",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("UNITDEX_NO_PRELOAD"),
				yaml.YAML(params[0]+"."+"no_preload", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("no_preload", altsrc.StringSourcer(cfg.Source)),
			),
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "load the dataset from this URL, s3:// location or file instead",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
	}
}

// NewRefreshFlag constructs the --refresh flag, which skips the cache
// freshness check and forces a fetch.
func NewRefreshFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "refresh",
		Aliases:     []string{"r"},
		Usage:       "ignore any cached copy and fetch fresh data",
		HideDefault: true,
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas reports whether target is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
