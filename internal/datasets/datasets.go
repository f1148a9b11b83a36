// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package datasets names the JSON datasets the site publishes, the cache key
// each one lives under, and where its images are referenced.
package datasets

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/staranto/unitdex/internal/config"
	"github.com/staranto/unitdex/internal/loader"
)

// Cache keys. One store entry per key.
const (
	UnitsKey    = "units_data_cache"
	TraitsKey   = "traits_data_cache"
	ItemsKey    = "items_data_cache"
	TierlistKey = "tierlist_data_cache"
	CodesKey    = "codes_data_cache"
)

// Dataset describes one published dataset.
type Dataset struct {
	Name string
	Key  string

	// Path is the default source, relative to the configured base URL.
	Path string

	// Attrs is the default --attrs spec. Empty means every top-level field.
	Attrs string

	// ImagePaths are gjson paths, evaluated against the whole document, that
	// yield image URLs to preload.
	ImagePaths []string

	Usage string
}

var registry = map[string]Dataset{
	"units": {
		Name:       "units",
		Key:        UnitsKey,
		Path:       "data/units.json",
		Attrs:      "id,name,rarity,elements,damage_type",
		ImagePaths: []string{"#.image"},
		Usage:      "List units",
	},
	"traits": {
		Name:       "traits",
		Key:        TraitsKey,
		Path:       "data/traits.json",
		ImagePaths: []string{"#.image"},
		Usage:      "List traits",
	},
	"items": {
		Name:       "items",
		Key:        ItemsKey,
		Path:       "data/items.json",
		ImagePaths: []string{"#.image"},
		Usage:      "List items",
	},
	"tierlist": {
		Name:  "tierlist",
		Key:   TierlistKey,
		Path:  "data/tierlist.json",
		Attrs: "key:tier,value:units",
		Usage: "Show the tier list",
	},
	"codes": {
		Name:  "codes",
		Key:   CodesKey,
		Path:  "data/codes.json",
		Usage: "List redeem codes",
	},
}

// All returns every dataset ordered by name.
func All() []Dataset {
	out := make([]Dataset, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name])
	}
	return out
}

// Names returns the dataset names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a dataset by name.
func Lookup(name string) (Dataset, error) {
	ds, ok := registry[name]
	if !ok {
		return Dataset{}, fmt.Errorf("unknown dataset %q (want one of %v)", name, Names())
	}
	return ds, nil
}

// ByKey finds a dataset by its cache key.
func ByKey(key string) (Dataset, bool) {
	for _, ds := range registry {
		if ds.Key == key {
			return ds, true
		}
	}
	return Dataset{}, false
}

// URL is the source of the dataset, datasets.<name>.url from the config file
// when set and Path otherwise.
func (d Dataset) URL() string {
	u, _ := config.GetString(fmt.Sprintf("datasets.%s.url", d.Name), "")
	if u != "" {
		return u
	}
	return d.Path
}

// Extractor returns the image extractor for the dataset, or nil when it
// references no images.
func (d Dataset) Extractor() loader.ImageExtractor {
	if len(d.ImagePaths) == 0 {
		return nil
	}
	paths := d.ImagePaths
	return func(data json.RawMessage) []string {
		var urls []string
		for _, p := range paths {
			gjson.GetBytes(data, p).ForEach(func(_, v gjson.Result) bool {
				if s := v.String(); s != "" {
					urls = append(urls, s)
				}
				return true
			})
		}
		return urls
	}
}
