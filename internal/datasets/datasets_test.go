// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package datasets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/unitdex/internal/config"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"codes", "items", "tierlist", "traits", "units"}, Names())

	keys := map[string]bool{}
	for _, ds := range All() {
		assert.NotEmpty(t, ds.Path, ds.Name)
		assert.False(t, keys[ds.Key], "duplicate key %s", ds.Key)
		keys[ds.Key] = true
	}
	assert.Len(t, keys, 5)
}

func TestLookup(t *testing.T) {
	ds, err := Lookup("units")
	require.NoError(t, err)
	assert.Equal(t, UnitsKey, ds.Key)
	assert.Equal(t, "data/units.json", ds.Path)

	_, err = Lookup("weapons")
	assert.ErrorContains(t, err, "unknown dataset")
}

func TestByKey(t *testing.T) {
	ds, ok := ByKey(TierlistKey)
	require.True(t, ok)
	assert.Equal(t, "tierlist", ds.Name)

	_, ok = ByKey("lastFeedbackSubmission")
	assert.False(t, ok)
}

func useConfig(t *testing.T, path string) {
	t.Helper()
	t.Setenv("UNITDEX_CFG", path)
	_, err := config.Load()
	require.NoError(t, err)
	t.Cleanup(func() { config.Config = config.Type{} })
}

func TestURL(t *testing.T) {
	useConfig(t, "testdata/override.yaml")

	units, _ := Lookup("units")
	assert.Equal(t, "s3://game-data/units.json", units.URL())

	items, _ := Lookup("items")
	assert.Equal(t, "data/items.json", items.URL())
}

func TestExtractor(t *testing.T) {
	units, _ := Lookup("units")
	extract := units.Extractor()
	require.NotNil(t, extract)

	data := json.RawMessage(`[
	  {"id":"u1","image":"images/u1.png"},
	  {"id":"u2"},
	  {"id":"u3","image":""},
	  {"id":"u4","image":"https://cdn.example.com/u4.png"}
	]`)
	assert.Equal(t, []string{"images/u1.png", "https://cdn.example.com/u4.png"}, extract(data))
	assert.Empty(t, extract(json.RawMessage(`{}`)))

	codes, _ := Lookup("codes")
	assert.Nil(t, codes.Extractor())
}
