// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/datasets"
	"github.com/staranto/unitdex/internal/output"
)

// GlobalFlagsValidator checks flag combinations that no single flag
// validator can see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.Bool("schema") && c.IsSet("output") && c.String("output") != "text" {
		return errors.New("--schema cannot be combined with --output")
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	if !slices.Contains(output.Formats, value.(string)) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

// DatasetValidator verifies that every value names a known dataset.
func DatasetValidator(value any) error {
	for _, name := range value.([]string) {
		if _, err := datasets.Lookup(name); err != nil {
			return err
		}
	}
	return nil
}
