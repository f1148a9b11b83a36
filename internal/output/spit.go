// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/unitdex/internal/attrs"
	"github.com/staranto/unitdex/internal/config"
	"github.com/staranto/unitdex/internal/filters"
)

// Formats accepted by --output.
var Formats = []string{"text", "json", "yaml", "raw"}

// Options carries the rendering choices of a single command invocation.
type Options struct {
	Output string
	Filter string
	Sort   string
	Titles bool
	Color  bool
	// Local converts every string value that looks like an RFC3339 time into
	// the configured timezone.
	Local bool
}

// DumpExamples renders a table of example command usages.
func DumpExamples(w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}
	rows := make([][]string, 0, len(examples))
	for _, ex := range examples {
		rows = append(rows, []string{ex[0], ex[1]})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers("Command", "Description").
		BorderHeader(false).
		Rows(rows...)

	fmt.Fprintln(w, t)
}

// Records turns a dataset document into the list of records the rest of the
// pipeline works on. An array yields its elements. An object yields one
// {"key": k, "value": v} record per member, which is how keyed datasets such
// as the tier list become tabular. Anything else is a single record.
func Records(raw []byte) []gjson.Result {
	doc := gjson.ParseBytes(raw)
	switch {
	case doc.IsArray():
		return doc.Array()
	case doc.IsObject():
		var out []gjson.Result
		doc.ForEach(func(k, v gjson.Result) bool {
			b, err := json.Marshal(map[string]json.RawMessage{
				"key":   json.RawMessage(k.Raw),
				"value": json.RawMessage(v.Raw),
			})
			if err != nil {
				log.WithError(err).Debugf("skipping member %s", k.String())
				return true
			}
			out = append(out, gjson.ParseBytes(b))
			return true
		})
		return out
	case doc.Exists():
		return []gjson.Result{doc}
	default:
		return nil
	}
}

// DeriveAttrs builds an AttrList from the top-level keys of the first record,
// in document order. Used when neither the dataset nor the user named any.
func DeriveAttrs(records []gjson.Result) attrs.AttrList {
	var al attrs.AttrList
	if len(records) == 0 || !records[0].IsObject() {
		return al
	}
	records[0].ForEach(func(k, _ gjson.Result) bool {
		key := k.String()
		// gjson path syntax needs these escaped to address a literal key.
		escaped := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`).Replace(key)
		al = append(al, attrs.Attr{Key: escaped, OutputKey: key, Include: true})
		return true
	})
	return al
}

// SliceDiceSpit orchestrates filtering, transforming, sorting and rendering
// of a dataset according to opts and the attribute specifications.
func SliceDiceSpit(raw []byte, al attrs.AttrList, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	// If raw, just dump it and go home.
	if opts.Output == "raw" {
		_, err := w.Write(raw)
		if err == nil && len(raw) > 0 && raw[len(raw)-1] != '\n' {
			_, err = io.WriteString(w, "\n")
		}
		return err
	}

	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("dataset is not valid JSON")
	}

	records := Records(raw)
	if len(al.Included()) == 0 {
		al = append(al, DeriveAttrs(records)...)
	}
	if err := al.SetGlobalTransformSpec(); err != nil {
		return err
	}

	// Filter first so the following steps work on a smaller dataset.
	rows := filters.FilterDataset(records, al, opts.Filter)

	if opts.Local {
		for i := range al {
			al[i].TransformSpec += "t"
		}
	}

	for _, row := range rows {
		for i := range al {
			attr := al[i]
			if attr.TransformSpec != "" && attr.Key != "*" {
				row[attr.OutputKey] = attr.Transform(row[attr.OutputKey])
			}
		}
	}

	SortDataset(rows, opts.Sort)

	// Hidden attrs were only along for filtering and sorting.
	included := al.Included()
	for _, row := range rows {
		for _, attr := range al {
			if !attr.Include {
				delete(row, attr.OutputKey)
			}
		}
	}

	switch opts.Output {
	case "json":
		if rows == nil {
			rows = []map[string]interface{}{}
		}
		out, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		TableWriter(rows, included, opts.Titles, ColorEnabled(w, opts.Color), w)
		return nil
	}
}

// ColorEnabled reports whether colored output should be produced for w. It
// never is when NO_COLOR is set or when w is a file that is not a terminal.
func ColorEnabled(w io.Writer, want bool) bool {
	if !want {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return true
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(resultSet []map[string]interface{}, al attrs.AttrList, titles, color bool, w io.Writer) {
	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 1)

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(al))
		for _, attr := range al {
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Rows(rows...)

	if titles {
		headers := make([]string, 0, len(al))
		for _, attr := range al {
			headers = append(headers, attr.OutputKey)
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#b794f6")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// DumpSchema lists the attribute paths found in the first records of a
// dataset, one level of nesting deep, for use with --attrs.
func DumpSchema(w io.Writer, records []gjson.Result) {
	seen := map[string]bool{}
	for i, r := range records {
		if i >= 10 { //nolint:mnd
			break
		}
		schemaWalker("", r, 0, seen)
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
}

const maxSchemaDepth = 1

func schemaWalker(prefix string, r gjson.Result, depth int, seen map[string]bool) {
	if !r.IsObject() {
		return
	}
	r.ForEach(func(k, v gjson.Result) bool {
		path := k.String()
		if prefix != "" {
			path = prefix + "." + path
		}
		seen[path] = true
		if depth < maxSchemaDepth && v.IsObject() {
			schemaWalker(path, v, depth+1, seen)
		}
		return true
	})
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case []interface{}:
		// Lists of scalars read better joined, e.g. elements.
		parts := make([]string, 0, len(value))
		for _, v := range value {
			switch v.(type) {
			case map[string]interface{}, []interface{}:
				return marshalString(value)
			}
			parts = append(parts, InterfaceToString(v))
		}
		return strings.Join(parts, ", ")
	default:
		return marshalString(value)
	}
}

func marshalString(value interface{}) string {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}
