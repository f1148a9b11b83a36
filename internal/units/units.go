// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package units filters the units dataset. Filtering is a pure function of
// the dataset and a caller-owned FilterState.
package units

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// EvoSuffix marks the evolved form of a unit. A unit whose id plus this
// suffix also exists is a base unit.
const EvoSuffix = "_evo"

// Unit is one record of the units dataset.
type Unit struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Alternatives []string `json:"alternatives,omitempty"`
	Rarity       string   `json:"rarity"`
	Attributes   []string `json:"attributes,omitempty"`
	DamageType   []string `json:"damage_type,omitempty"`
	Elements     []string `json:"elements,omitempty"`
	Image        string   `json:"image,omitempty"`
}

// Decode parses the units dataset.
func Decode(data json.RawMessage) ([]Unit, error) {
	var all []Unit
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to decode units: %w", err)
	}
	return all, nil
}

// Set is a set of filter values.
type Set map[string]struct{}

// NewSet builds a Set from vals, skipping blanks.
func NewSet(vals ...string) Set {
	s := Set{}
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Toggle adds v when absent and removes it when present.
func (s Set) Toggle(v string) {
	if s.Has(v) {
		delete(s, v)
		return
	}
	s[v] = struct{}{}
}

// Values returns the members in order.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s Set) any(vals []string) bool {
	for _, v := range vals {
		if s.Has(v) {
			return true
		}
	}
	return false
}

// FilterState is every active unit filter.
type FilterState struct {
	Search    string
	Rarity    Set
	Attribute Set
	Damage    Set
	Element   Set

	// MatchAllElements requires every selected element instead of any.
	MatchAllElements bool

	// ShowBaseUnits keeps units that have an evolved form.
	ShowBaseUnits bool
}

// IsBaseUnit reports whether id has an evolved form in all.
func IsBaseUnit(id string, all []Unit) bool {
	if strings.HasSuffix(id, EvoSuffix) {
		return false
	}
	evo := id + EvoSuffix
	for _, u := range all {
		if u.ID == evo {
			return true
		}
	}
	return false
}

// Filter returns the units of all that pass every filter in st, in their
// original order. all is not modified.
func Filter(all []Unit, st FilterState) []Unit {
	idx := FilterIndex(all, st)
	out := make([]Unit, 0, len(idx))
	for _, i := range idx {
		out = append(out, all[i])
	}
	return out
}

// FilterIndex is Filter reporting positions in all instead of units, so
// callers holding a parallel raw form can select from it.
func FilterIndex(all []Unit, st FilterState) []int {
	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(st.Search))

	var evolved map[string]bool
	if !st.ShowBaseUnits {
		evolved = make(map[string]bool)
		for _, u := range all {
			if strings.HasSuffix(u.ID, EvoSuffix) {
				evolved[u.ID] = true
			}
		}
	}

	out := make([]int, 0, len(all))
	for i, u := range all {
		if evolved != nil && !strings.HasSuffix(u.ID, EvoSuffix) && evolved[u.ID+EvoSuffix] {
			continue
		}
		if search != "" && !matchesSearch(u, search, fold) {
			continue
		}
		if len(st.Rarity) > 0 && !st.Rarity.Has(u.Rarity) {
			continue
		}
		if len(st.Attribute) > 0 && !st.Attribute.any(u.Attributes) {
			continue
		}
		if len(st.Damage) > 0 && !st.Damage.any(u.DamageType) {
			continue
		}
		if len(st.Element) > 0 && !matchesElements(u, st) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func matchesSearch(u Unit, search string, fold cases.Caser) bool {
	if strings.Contains(fold.String(u.Name), search) {
		return true
	}
	for _, alt := range u.Alternatives {
		if strings.Contains(fold.String(alt), search) {
			return true
		}
	}
	return false
}

func matchesElements(u Unit, st FilterState) bool {
	if len(u.Elements) == 0 {
		return false
	}
	if !st.MatchAllElements {
		return st.Element.any(u.Elements)
	}
	have := NewSet(u.Elements...)
	for e := range st.Element {
		if !have.Has(e) {
			return false
		}
	}
	return true
}

// Options lists the distinct values found in all for each filter, ordered.
// Used to offer choices in the interactive browser.
func Options(all []Unit) (rarity, attribute, damage, element []string) {
	r, a, d, e := Set{}, Set{}, Set{}, Set{}
	for _, u := range all {
		if u.Rarity != "" {
			r[u.Rarity] = struct{}{}
		}
		for _, v := range u.Attributes {
			a[v] = struct{}{}
		}
		for _, v := range u.DamageType {
			d[v] = struct{}{}
		}
		for _, v := range u.Elements {
			e[v] = struct{}{}
		}
	}
	return r.Values(), a.Values(), d.Values(), e.Values()
}
