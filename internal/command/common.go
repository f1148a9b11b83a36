// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/unitdex/internal/attrs"
	"github.com/staranto/unitdex/internal/aws"
	"github.com/staranto/unitdex/internal/config"
	"github.com/staranto/unitdex/internal/datasets"
	"github.com/staranto/unitdex/internal/httpclient"
	"github.com/staranto/unitdex/internal/loader"
	"github.com/staranto/unitdex/internal/meta"
	"github.com/staranto/unitdex/internal/output"
	"github.com/staranto/unitdex/internal/store"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr unitdex <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "unitdex", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs.
func BuildAttrs(cmd *cli.Command, defaults ...string) (attrs.AttrList, error) {
	var al attrs.AttrList
	for _, d := range defaults {
		if err := al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return nil, fmt.Errorf("--attrs: %w", err)
		}
	}
	return al, nil
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// Writer is where a command's results go.
func Writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// RenderOptions collects the rendering flags.
func RenderOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Output: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
		Local:  cmd.Bool("local"),
	}
}

// OpenStore builds the cache store from the config file, with the UNITDEX_*
// environment taking precedence.
func OpenStore(ctx context.Context, env config.Env) (store.Store, error) {
	maxEntries, _ := config.GetInt("cache.memory_max_entries", store.DefaultMemoryMaxEntries)

	sc := store.Config{
		Backend:          config.StringOr(env.CacheBackend, "cache.backend", store.BackendFile),
		Dir:              config.StringOr(os.Getenv("UNITDEX_CACHE_DIR"), "cache.dir", ""),
		SQLitePath:       config.StringOr(env.SQLitePath, "cache.sqlite_path", ""),
		RedisURL:         config.StringOr(env.RedisURL, "cache.redis_url", ""),
		RedisPrefix:      config.StringOr(env.RedisPrefix, "cache.redis_prefix", store.DefaultRedisPrefix),
		MemoryMaxEntries: int64(maxEntries),
	}

	log.WithField("backend", sc.Backend).Debug("opening cache store")
	st, err := store.New(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", sc.Backend, err)
	}
	return st, nil
}

// NewSources builds the Fetcher used for datasets and images.
func NewSources(env config.Env) *loader.Sources {
	var opts []aws.Option
	if p, _ := config.GetString("aws.profile", ""); p != "" {
		opts = append(opts, aws.WithProfile(p))
	}
	if r, _ := config.GetString("aws.region", ""); r != "" {
		opts = append(opts, aws.WithRegion(r))
	}
	if e, _ := config.GetString("aws.endpoint", ""); e != "" {
		opts = append(opts, aws.WithEndpoint(e))
	}

	return &loader.Sources{
		BaseURL: config.StringOr(env.BaseURL, "base_url", ""),
		Client:  httpclient.NewDefaultHTTPClient(),
		NewS3: func(ctx context.Context) (loader.S3API, error) {
			return aws.NewS3Client(ctx, opts...)
		},
	}
}

// NewLoader wires a Loader over st.
func NewLoader(st store.Store, env config.Env) *loader.Loader {
	limit := env.PreloadConcurrency
	if limit <= 0 {
		limit, _ = config.GetInt("preload_concurrency", loader.DefaultPreloadConcurrency)
	}

	src := NewSources(env)
	return loader.New(st, src, loader.WithPreloader(loader.NewPreloader(src, limit)))
}

// LoadDataset loads ds through the cache, honoring --refresh, --no-preload
// and --url.
func LoadDataset(ctx context.Context, cmd *cli.Command, l *loader.Loader, ds datasets.Dataset) (json.RawMessage, error) {
	url := cmd.String("url")
	override := url != "" && url != ds.URL()
	switch {
	case url == "":
		url = ds.URL()
	case isLocalFile(url):
		// Keep local files away from base_url joining.
		abs, err := filepath.Abs(url)
		if err != nil {
			return nil, fmt.Errorf("--url: %w", err)
		}
		url = "file://" + filepath.ToSlash(abs)
	}

	// An overridden source never lands under the dataset's cache key.
	opts := loader.Options{Bypass: cmd.Bool("refresh"), Transient: override}
	if !cmd.Bool("no-preload") {
		opts.Extractor = ds.Extractor()
	}

	return l.Load(ctx, ds.Key, url, opts)
}

func isLocalFile(p string) bool {
	if strings.Contains(p, "://") {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// WithLoader opens the store and a loader over it for the duration of fn.
// With caching switched off the loader runs over store.Nop while fn still
// receives the real store.
func WithLoader(ctx context.Context, cmd *cli.Command, fn func(*loader.Loader, store.Store) error) error {
	env := GetMeta(cmd).Env

	st, err := OpenStore(ctx, env)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("failed to close cache store")
		}
	}()

	var ls store.Store = st
	if !store.Enabled() {
		log.Debug("data cache disabled")
		ls = store.Nop{}
	}

	return fn(NewLoader(ls, env), st)
}

// DatasetCommandBuilder constructs the cli.Command for a dataset using a
// consistent pattern. It wires metadata, the rendering and load flags, the
// tldr/schema flags, validators and the action.
type DatasetCommandBuilder struct {
	Dataset   datasets.Dataset
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (dcb *DatasetCommandBuilder) Build() *cli.Command {
	name := dcb.Dataset.Name

	usageText := dcb.UsageText
	if usageText == "" {
		usageText = fmt.Sprintf("unitdex %s [options]", name)
	}

	action := dcb.Action
	if action == nil {
		runner := &DatasetActionRunner{Dataset: dcb.Dataset}
		action = runner.Run
	}

	flags := append([]cli.Flag{}, dcb.Flags...)
	flags = append(flags, newTLDRFlag(), newSchemaFlag())
	flags = append(flags, NewLoadFlags(name)...)
	flags = append(flags, NewGlobalFlags(name)...)

	return &cli.Command{
		Name:      name,
		Usage:     dcb.Dataset.Usage,
		UsageText: usageText,
		Metadata: map[string]any{
			"meta": dcb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: action,
	}
}

// DatasetActionRunner encapsulates the common action of the dataset
// commands: load, optionally narrow, then slice, dice and spit.
type DatasetActionRunner struct {
	Dataset datasets.Dataset

	// Narrow, when set, may replace the loaded data before rendering. A nil
	// result with no error means there is nothing to render.
	Narrow func(context.Context, *cli.Command, json.RawMessage) (json.RawMessage, error)
}

// Run executes the dataset action with the provided context and command.
func (dar *DatasetActionRunner) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, dar.Dataset.Name) {
		return nil
	}

	al, err := BuildAttrs(cmd, dar.Dataset.Attrs)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al.String())

	var raw json.RawMessage
	err = WithLoader(ctx, cmd, func(l *loader.Loader, _ store.Store) error {
		raw, err = LoadDataset(ctx, cmd, l, dar.Dataset)
		return err
	})
	if err != nil {
		return err
	}

	w := Writer(cmd)

	if cmd.Bool("schema") {
		output.DumpSchema(w, output.Records(raw))
		return nil
	}

	if dar.Narrow != nil {
		raw, err = dar.Narrow(ctx, cmd, raw)
		if err != nil {
			return err
		}
		if raw == nil {
			return nil
		}
	}

	return output.SliceDiceSpit(raw, al, RenderOptions(cmd), w)
}
