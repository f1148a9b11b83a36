// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package units

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `[
  {"id":"jinwoo","name":"Sung Jinwoo","alternatives":["Shadow Monarch"],"rarity":"Mythic","attributes":["Ranged"],"damage_type":["Magic"],"elements":["Dark","Fire"]},
  {"id":"jinwoo_evo","name":"Sung Jinwoo (Evo)","rarity":"Mythic","attributes":["Ranged","Support"],"damage_type":["Magic"],"elements":["Dark"]},
  {"id":"cha","name":"Cha Hae-In","rarity":"Legendary","attributes":["Melee"],"damage_type":["Physical"],"elements":["Light"]},
  {"id":"baek","name":"Baek Yoonho","alternatives":["White Tiger"],"rarity":"Epic","attributes":["Melee"],"damage_type":["Physical","True"]},
  {"id":"etoile","name":"Étoile","rarity":"Epic","attributes":["Ranged"],"damage_type":["Magic"],"elements":["Dark","Light","Fire"]}
]`

func load(t *testing.T) []Unit {
	t.Helper()
	all, err := Decode(json.RawMessage(fixture))
	require.NoError(t, err)
	require.Len(t, all, 5)
	return all
}

func ids(units []Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.ID)
	}
	return out
}

func TestDecode(t *testing.T) {
	all := load(t)
	assert.Equal(t, []string{"Shadow Monarch"}, all[0].Alternatives)
	assert.Equal(t, []string{"Physical", "True"}, all[3].DamageType)
	assert.Empty(t, all[3].Elements)

	_, err := Decode(json.RawMessage(`{"id":"x"}`))
	assert.ErrorContains(t, err, "decode units")
}

func TestIsBaseUnit(t *testing.T) {
	all := load(t)
	assert.True(t, IsBaseUnit("jinwoo", all))
	assert.False(t, IsBaseUnit("jinwoo_evo", all))
	assert.False(t, IsBaseUnit("cha", all))
	assert.False(t, IsBaseUnit("jinwoo", nil))
}

func TestFilter(t *testing.T) {
	all := load(t)

	tests := []struct {
		name string
		st   FilterState
		want []string
	}{
		{
			name: "base units hidden by default",
			want: []string{"jinwoo_evo", "cha", "baek", "etoile"},
		},
		{
			name: "show base units",
			st:   FilterState{ShowBaseUnits: true},
			want: []string{"jinwoo", "jinwoo_evo", "cha", "baek", "etoile"},
		},
		{
			name: "search by name ignores case",
			st:   FilterState{Search: "sung", ShowBaseUnits: true},
			want: []string{"jinwoo", "jinwoo_evo"},
		},
		{
			name: "search by alternative",
			st:   FilterState{Search: "TIGER"},
			want: []string{"baek"},
		},
		{
			name: "search folds non-ascii",
			st:   FilterState{Search: "éTOILE"},
			want: []string{"etoile"},
		},
		{
			name: "search trims",
			st:   FilterState{Search: "  cha "},
			want: []string{"cha"},
		},
		{
			name: "rarity",
			st:   FilterState{Rarity: NewSet("Epic", "Legendary")},
			want: []string{"cha", "baek", "etoile"},
		},
		{
			name: "attribute any",
			st:   FilterState{Attribute: NewSet("Support")},
			want: []string{"jinwoo_evo"},
		},
		{
			name: "damage any",
			st:   FilterState{Damage: NewSet("True", "Magic")},
			want: []string{"jinwoo_evo", "baek", "etoile"},
		},
		{
			name: "element any excludes units without elements",
			st:   FilterState{Element: NewSet("Light", "Fire")},
			want: []string{"cha", "etoile"},
		},
		{
			name: "element match all",
			st:   FilterState{Element: NewSet("Dark", "Fire"), MatchAllElements: true, ShowBaseUnits: true},
			want: []string{"jinwoo", "etoile"},
		},
		{
			name: "combined",
			st:   FilterState{Rarity: NewSet("Epic"), Element: NewSet("Dark")},
			want: []string{"etoile"},
		},
		{
			name: "nothing matches",
			st:   FilterState{Rarity: NewSet("Common")},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(all, tt.st)))
		})
	}
}

func TestFilter_DoesNotMutate(t *testing.T) {
	all := load(t)
	before := ids(all)

	got := Filter(all, FilterState{Rarity: NewSet("Epic")})
	require.Len(t, got, 2)
	got[0].Name = "changed"

	assert.Equal(t, before, ids(all))
	assert.Equal(t, "Baek Yoonho", all[3].Name)
}

func TestFilterIndex(t *testing.T) {
	all := load(t)
	st := FilterState{Rarity: NewSet("Epic")}

	idx := FilterIndex(all, st)
	got := make([]string, 0, len(idx))
	for _, i := range idx {
		got = append(got, all[i].ID)
	}
	assert.Equal(t, ids(Filter(all, st)), got)
	assert.Empty(t, FilterIndex(nil, st))
}

func TestSet(t *testing.T) {
	s := NewSet("b", " a ", "")
	assert.Equal(t, []string{"a", "b"}, s.Values())

	s.Toggle("a")
	assert.False(t, s.Has("a"))
	s.Toggle("c")
	assert.True(t, s.Has("c"))
	assert.Equal(t, []string{"b", "c"}, s.Values())
}

func TestOptions(t *testing.T) {
	rarity, attribute, damage, element := Options(load(t))
	assert.Equal(t, []string{"Epic", "Legendary", "Mythic"}, rarity)
	assert.Equal(t, []string{"Melee", "Ranged", "Support"}, attribute)
	assert.Equal(t, []string{"Magic", "Physical", "True"}, damage)
	assert.Equal(t, []string{"Dark", "Fire", "Light"}, element)
}
