// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/unitdex/internal/units"
)

func browseUnits(t *testing.T) []units.Unit {
	t.Helper()
	all, err := units.Decode(json.RawMessage(unitsBody))
	require.NoError(t, err)
	return all
}

func press(m browseModel, keys ...tea.KeyMsg) browseModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(browseModel)
	}
	return m
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModel_Search(t *testing.T) {
	m := newBrowseModel(browseUnits(t), units.FilterState{})
	assert.Len(t, m.shown, 2, "base units start hidden")

	m = press(m, typed("cha"))
	assert.Equal(t, "cha", m.st.Search)
	require.Len(t, m.shown, 1)
	assert.Equal(t, "cha", m.shown[0].ID)

	m = press(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, m.st.Search)
	assert.Len(t, m.shown, 2)
}

func TestBrowseModel_Facets(t *testing.T) {
	m := newBrowseModel(browseUnits(t), units.FilterState{})
	require.Equal(t, "rarity", m.facets[0].name)
	require.Equal(t, []string{"Legendary", "Mythic"}, m.facets[0].values)

	// Legendary is under the cursor.
	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.True(t, m.st.Rarity.Has("Legendary"))
	require.Len(t, m.shown, 1)
	assert.Equal(t, "cha", m.shown[0].ID)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.False(t, m.st.Rarity.Has("Legendary"))

	m = press(m,
		tea.KeyMsg{Type: tea.KeyShiftTab}, // element
		tea.KeyMsg{Type: tea.KeyDown},     // Fire
		tea.KeyMsg{Type: tea.KeyCtrlT},
	)
	assert.Equal(t, 3, m.focus)
	assert.True(t, m.st.Element.Has("Fire"))
	require.Len(t, m.shown, 1)
	assert.Equal(t, "jinwoo_evo", m.shown[0].ID)

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.focus)
}

func TestBrowseModel_Toggles(t *testing.T) {
	m := newBrowseModel(browseUnits(t), units.FilterState{})

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.True(t, m.st.ShowBaseUnits)
	assert.Len(t, m.shown, 3)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.True(t, m.st.MatchAllElements)
	assert.Contains(t, m.View(), "match all elements: true")
}

func TestBrowseModel_Exit(t *testing.T) {
	tests := []struct {
		name      string
		key       tea.KeyMsg
		accepted  bool
		cancelled bool
	}{
		{"enter accepts", tea.KeyMsg{Type: tea.KeyEnter}, true, false},
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, false, true},
		{"ctrl+c cancels", tea.KeyMsg{Type: tea.KeyCtrlC}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newBrowseModel(browseUnits(t), units.FilterState{})
			next, cmd := m.Update(tt.key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())

			got := next.(browseModel)
			assert.Equal(t, tt.accepted, got.accepted)
			assert.Equal(t, tt.cancelled, got.cancelled)
		})
	}
}

func TestBrowseModel_View(t *testing.T) {
	m := newBrowseModel(browseUnits(t), units.FilterState{Rarity: units.NewSet("Mythic")})
	v := m.View()
	assert.Contains(t, v, "unitdex units")
	assert.Contains(t, v, "1 of 3 units")
	assert.Contains(t, v, "Sung Jinwoo (Evo)")
	assert.Contains(t, v, "[Mythic]")
}
