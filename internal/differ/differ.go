// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package differ renders the difference between two snapshots of a dataset.
package differ

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Diff writes an annotated listing of right against left to w and reports
// whether anything changed. Both documents must be JSON of the same kind,
// object or array.
func Diff(w io.Writer, left, right []byte, color bool) (bool, error) {
	var l, r interface{}
	if err := json.Unmarshal(left, &l); err != nil {
		return false, fmt.Errorf("failed to parse previous data: %w", err)
	}
	if err := json.Unmarshal(right, &r); err != nil {
		return false, fmt.Errorf("failed to parse new data: %w", err)
	}

	var d gojsondiff.Diff
	switch lv := l.(type) {
	case map[string]interface{}:
		rv, ok := r.(map[string]interface{})
		if !ok {
			return false, fmt.Errorf("cannot diff an object against %s", kind(r))
		}
		d = gojsondiff.New().CompareObjects(lv, rv)
	case []interface{}:
		rv, ok := r.([]interface{})
		if !ok {
			return false, fmt.Errorf("cannot diff an array against %s", kind(r))
		}
		d = gojsondiff.New().CompareArrays(lv, rv)
	default:
		return false, fmt.Errorf("cannot diff %s values", kind(l))
	}

	if !d.Modified() {
		return false, nil
	}

	f := formatter.NewAsciiFormatter(l, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	out, err := f.Format(d)
	if err != nil {
		return true, fmt.Errorf("failed to format diff: %w", err)
	}
	_, err = io.WriteString(w, out)
	return true, err
}

func kind(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "an array"
	case nil:
		return "null"
	default:
		return "a scalar"
	}
}
