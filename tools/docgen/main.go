// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/command"
)

// Doc generator:
// - Walks the unitdex command tree
// - Merges docs/examples/<cmd>.txt when present
// - Generates:
//   - docs/man/share/man1/unitdex-<cmd>.1 via md2man
//   - docs/tldr/unitdex-<cmd>.md

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	examplesDir := filepath.Join(repoRoot, "docs", "examples")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, d := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			fatalf("creating output dir %s: %v", d, err)
		}
	}

	app, err := command.InitApp(context.Background(), []string{"unitdex"})
	if err != nil {
		fatalf("building command tree: %v", err)
	}

	var processed int
	for _, cmd := range app.Commands {
		if cmd.Hidden {
			continue
		}

		exs, err := readExamples(filepath.Join(examplesDir, cmd.Name+".txt"))
		if err != nil {
			fatalf("reading examples for %s: %v", cmd.Name, err)
		}

		md := buildMarkdown(cmd, exs)
		manPath := filepath.Join(manOutDir, fmt.Sprintf("unitdex-%s.1", cmd.Name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(md)), writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", cmd.Name, err)
		}

		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("unitdex-%s.md", cmd.Name))
		if err := writeFileIfChanged(tldrPath, []byte(buildTLDR(cmd, exs)), writeOnlyIfChanged); err != nil {
			fatalf("writing TLDR for %s: %v", cmd.Name, err)
		}

		processed++
	}

	if processed == 0 {
		fatalf("no commands found")
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

type example struct {
	Desc string
	Cmd  string
}

// readExamples parses an examples file: "# description" lines each followed
// by one command line. A missing file is not an error.
func readExamples(path string) ([]example, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return parseExamples(string(raw)), nil
}

func parseExamples(s string) []example {
	var exs []example
	var cur example
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(strings.TrimRight(ln, "\r"))
		if ln == "" {
			continue
		}
		if strings.HasPrefix(ln, "#") {
			cur.Desc = strings.TrimSpace(strings.TrimPrefix(ln, "#"))
			continue
		}
		if cur.Desc == "" {
			cur.Desc = "Example"
		}
		cur.Cmd = strings.Join(strings.Fields(ln), " ")
		exs = append(exs, cur)
		cur = example{}
	}
	return exs
}

// buildMarkdown renders cmd in the layout md2man expects of a man page.
func buildMarkdown(cmd *cli.Command, exs []example) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# unitdex-%s 1\n\n", cmd.Name)
	b.WriteString("## NAME\n\n")
	fmt.Fprintf(&b, "unitdex-%s - %s\n\n", cmd.Name, cmd.Usage)

	b.WriteString("## SYNOPSIS\n\n")
	fmt.Fprintf(&b, "`%s`\n\n", cmd.UsageText)

	if len(cmd.Flags) > 0 {
		b.WriteString("## OPTIONS\n\n")
		for _, f := range cmd.Flags {
			if v, ok := f.(cli.VisibleFlag); ok && !v.IsVisible() {
				continue
			}
			names := make([]string, 0, len(f.Names()))
			for _, n := range f.Names() {
				if len(n) == 1 {
					names = append(names, "-"+n)
				} else {
					names = append(names, "--"+n)
				}
			}
			fmt.Fprintf(&b, "**%s**\n", strings.Join(names, ", "))
			if d, ok := f.(cli.DocGenerationFlag); ok {
				fmt.Fprintf(&b, ": %s\n", d.GetUsage())
			}
			b.WriteString("\n")
		}
	}

	if len(exs) > 0 {
		b.WriteString("## EXAMPLES\n\n")
		for _, ex := range exs {
			fmt.Fprintf(&b, "%s:\n\n    %s\n\n", ex.Desc, ex.Cmd)
		}
	}

	return b.String()
}

func buildTLDR(cmd *cli.Command, exs []example) string {
	var b strings.Builder
	b.WriteString("# unitdex-" + cmd.Name + "\n\n")
	if cmd.Usage != "" {
		b.WriteString("> " + strings.ToUpper(cmd.Usage[:1]) + cmd.Usage[1:] + ".\n")
	} else {
		b.WriteString("> unitdex " + cmd.Name + "\n")
	}
	b.WriteString("> More information: https://github.com/staranto/unitdex.\n\n")

	if len(exs) == 0 {
		// Fallback examples
		b.WriteString("- Show help for the command:\n\n")
		b.WriteString("`unitdex " + cmd.Name + " --help`\n")
		return b.String()
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + ex.Desc + ":\n\n")
		b.WriteString("`" + ex.Cmd + "`\n")
	}
	return b.String()
}
