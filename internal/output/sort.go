// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sort"
	"strings"
)

type sortKey struct {
	name          string
	descending    bool
	caseSensitive bool
}

// parseSortSpec splits a --sort spec into keys. Each key may be prefixed by -
// for descending and/or ! for a case-sensitive comparison.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		k := sortKey{}
		for len(part) > 0 && (part[0] == '-' || part[0] == '!') {
			if part[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			part = part[1:]
		}
		if part == "" {
			continue
		}
		k.name = part
		keys = append(keys, k)
	}
	return keys
}

// SortDataset sorts the rows in place per spec, a comma separated list of
// output keys. Rows that tie on every key keep their original order.
func SortDataset(rows []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(rows[i][k.name], rows[j][k.name], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders numbers numerically and everything else by its string
// form. Missing values sort first.
func compareValues(a, b interface{}, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	sa, sb := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}
