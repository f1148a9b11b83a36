// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/feedback"
	"github.com/staranto/unitdex/internal/httpclient"
	"github.com/staranto/unitdex/internal/loader"
	"github.com/staranto/unitdex/internal/meta"
	"github.com/staranto/unitdex/internal/store"
)

// stdin is read when --description is "-".
var stdin io.Reader = os.Stdin

// FeedbackCommandAction submits a feedback form to its category's webhook.
func FeedbackCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "feedback") {
		return nil
	}

	desc := cmd.String("description")
	if desc == "-" {
		b, err := io.ReadAll(io.LimitReader(stdin, 64*1024))
		if err != nil {
			return fmt.Errorf("failed to read description: %w", err)
		}
		desc = strings.TrimSpace(string(b))
	}

	form := feedback.Form{
		Category:    cmd.String("category"),
		Subject:     cmd.String("subject"),
		Description: desc,
		Contact:     cmd.String("contact"),
	}

	return WithLoader(ctx, cmd, func(l *loader.Loader, st store.Store) error {
		s := &feedback.Submitter{
			Store:    st,
			Client:   httpclient.NewDefaultHTTPClient(),
			Webhooks: feedback.Webhooks(),
			Now:      l.Now,
		}
		if err := s.Submit(ctx, form); err != nil {
			return err
		}
		fmt.Fprintln(Writer(cmd), "Feedback submitted successfully! Thank you for your input.")
		return nil
	})
}

// FeedbackCommandBuilder constructs the cli.Command for "feedback".
func FeedbackCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Usage:     "send feedback to the site maintainers",
		UsageText: `unitdex feedback --category "Bug Report" --subject S --description D [--contact C]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "category",
				Usage:    "one of " + strings.Join(feedback.Categories, ", "),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "subject",
				Usage:    "short summary",
				Required: true,
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.StringFlag{
				Name:     "description",
				Usage:    fmt.Sprintf("details, up to %d characters, or - to read stdin", feedback.MaxDescription),
				Required: true,
			},
			NameSpacedValueChainFlagFromConfigFile("feedback", cfg.Source, &cli.StringFlag{
				Name:  "contact",
				Usage: "how to reach you; anonymous when empty",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("UNITDEX_CONTACT"),
				),
			}),
			newTLDRFlag(),
		},
		Action: FeedbackCommandAction,
	}
}
