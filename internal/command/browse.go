// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/staranto/unitdex/internal/units"
)

// ErrBrowseCancelled is returned when the user leaves the browser without
// accepting.
var ErrBrowseCancelled = errors.New("browse cancelled")

const browseListMax = 15

var (
	browseTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b794f6"))
	browseFocusStyle  = lipgloss.NewStyle().Bold(true)
	browseOnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00c8f0"))
	browseCursorStyle = lipgloss.NewStyle().Reverse(true)
	browseHelpStyle   = lipgloss.NewStyle().Faint(true)
)

type facet struct {
	name   string
	values []string
	set    units.Set
	cursor int
}

// browseModel owns the FilterState while the browser runs. Every key press
// re-runs the pure filter over the full dataset.
type browseModel struct {
	all       []units.Unit
	st        units.FilterState
	input     textinput.Model
	facets    []*facet
	focus     int
	shown     []units.Unit
	accepted  bool
	cancelled bool
}

func newBrowseModel(all []units.Unit, st units.FilterState) browseModel {
	for _, s := range []*units.Set{&st.Rarity, &st.Attribute, &st.Damage, &st.Element} {
		if *s == nil {
			*s = units.Set{}
		}
	}

	in := textinput.New()
	in.Prompt = "search: "
	in.Placeholder = "name or alias"
	in.SetValue(st.Search)
	in.Focus()

	rarity, attribute, damage, element := units.Options(all)
	m := browseModel{
		all:   all,
		st:    st,
		input: in,
		facets: []*facet{
			{name: "rarity", values: rarity, set: st.Rarity},
			{name: "attribute", values: attribute, set: st.Attribute},
			{name: "damage", values: damage, set: st.Damage},
			{name: "element", values: element, set: st.Element},
		},
	}
	m.shown = units.Filter(all, m.st)
	return m
}

func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	f := m.facets[m.focus]

	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "enter":
		m.accepted = true
		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % len(m.facets)
	case "shift+tab":
		m.focus = (m.focus + len(m.facets) - 1) % len(m.facets)
	case "up":
		if f.cursor > 0 {
			f.cursor--
		}
	case "down":
		if f.cursor < len(f.values)-1 {
			f.cursor++
		}
	case "ctrl+t":
		if len(f.values) > 0 {
			f.set.Toggle(f.values[f.cursor])
		}
	case "ctrl+a":
		m.st.MatchAllElements = !m.st.MatchAllElements
	case "ctrl+b":
		m.st.ShowBaseUnits = !m.st.ShowBaseUnits
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.st.Search = m.input.Value()
		m.shown = units.Filter(m.all, m.st)
		return m, cmd
	}

	m.shown = units.Filter(m.all, m.st)
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(browseTitleStyle.Render("unitdex units"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for i, f := range m.facets {
		label := fmt.Sprintf("%-10s", f.name)
		if i == m.focus {
			label = browseFocusStyle.Render(label)
		}
		b.WriteString(label)
		for j, v := range f.values {
			cell := v
			if f.set.Has(v) {
				cell = browseOnStyle.Render("[" + v + "]")
			}
			if i == m.focus && j == f.cursor {
				cell = browseCursorStyle.Render(cell)
			}
			b.WriteString(" ")
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nmatch all elements: %v  show base units: %v\n", m.st.MatchAllElements, m.st.ShowBaseUnits)
	fmt.Fprintf(&b, "%d of %d units\n", len(m.shown), len(m.all))

	for i, u := range m.shown {
		if i == browseListMax {
			fmt.Fprintf(&b, "  ... %d more\n", len(m.shown)-browseListMax)
			break
		}
		fmt.Fprintf(&b, "  %-24s %s\n", u.Name, u.Rarity)
	}

	b.WriteString("\n")
	b.WriteString(browseHelpStyle.Render("tab facet • ↑/↓ value • ctrl+t toggle • ctrl+a match all • ctrl+b base units • enter accept • esc quit"))
	b.WriteString("\n")
	return b.String()
}

// Browse runs the interactive unit browser on the terminal and returns the
// filter the user accepted.
func Browse(ctx context.Context, all []units.Unit, st units.FilterState) (units.FilterState, error) {
	p := tea.NewProgram(newBrowseModel(all, st), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return st, err
	}

	m, ok := final.(browseModel)
	if !ok || !m.accepted {
		return st, ErrBrowseCancelled
	}
	return m.st, nil
}
