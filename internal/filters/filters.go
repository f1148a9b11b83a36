// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/unitdex/internal/attrs"
)

// filterRegex splits an expression into key, operator and target. Operators
// are one of = ^ ~ < > @ or /, optionally prefixed with '!'.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs are logged and skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override for targets that contain one.
	delim := ","
	if d, ok := os.LookupEnv("UNITDEX_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil || parts[1] == "" {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		negate := strings.HasPrefix(parts[2], "!")
		if negate {
			parts[2] = strings.TrimPrefix(parts[2], "!")
		}

		filters = append(filters, Filter{
			Key:     strings.TrimSpace(parts[1]),
			Negate:  negate,
			Operand: parts[2],
			Target:  parts[3],
		})
	}

	return filters
}

// FilterDataset returns the records of candidates that pass every filter in
// spec, each reduced to the attrs in the list and keyed by OutputKey.
// Transforms are left to the output phase.
func FilterDataset(candidates []gjson.Result, al attrs.AttrList, spec string) []map[string]interface{} {
	//nolint:prealloc
	var filtered []map[string]interface{}

	filters := BuildFilters(spec)

	for _, candidate := range candidates {
		if !applyFilters(candidate, al, filters) {
			continue
		}

		result := make(map[string]interface{}, len(al))
		for _, attr := range al {
			if attr.Key == "*" {
				continue
			}
			result[attr.OutputKey] = candidate.Get(attr.Key).Value()
		}
		filtered = append(filtered, result)
	}

	return filtered
}

// applyFilters returns true if the candidate record matches all of the
// provided filters. A filter key may name an attr by its output key or be a
// raw path into the record.
func applyFilters(candidate gjson.Result, al attrs.AttrList, filters []Filter) bool {
	for _, filter := range filters {
		key := filter.Key
		for _, attr := range al {
			if attr.OutputKey == filter.Key {
				key = attr.Key
				break
			}
		}

		field := candidate.Get(key)
		if !field.Exists() {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Debug(msg)
			if filter.Negate {
				continue
			}
			return false
		}

		value := field.Value()
		if value == nil {
			return false
		}

		result := true
		switch v := value.(type) {
		case string:
			result = checkStringOperand(v, filter)
		case bool:
			result = checkStringOperand(strconv.FormatBool(v), filter)
		default:
			if num, ok := toFloat64(value); ok {
				result = checkNumericOperand(num, filter)
			} else if filter.Operand == "@" {
				result = checkContainsOperand(value, filter)
			} else {
				log.Errorf("unsupported operand %s for %s", filter.Operand, filter.Key)
				result = false
			}
		}

		if !result {
			return false
		}
	}

	return true
}

// checkContainsOperand evaluates a membership style filter (operand '@')
// against list or object values. List items compare case-insensitively.
func checkContainsOperand(value interface{}, filter Filter) bool {
	switch val := value.(type) {
	case []any:
		for _, item := range val {
			if strings.EqualFold(fmt.Sprint(item), filter.Target) {
				return !filter.Negate
			}
		}
		return filter.Negate
	case map[string]any:
		_, found := val[filter.Target]
		return found == !filter.Negate
	default:
		log.Errorf("unsupported type for contains filtering: %T", value)
		return false
	}
}

// checkNumericOperand compares a numeric value against the filter target using
// numeric semantics. Supported operands: =, >, < and their negations.
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + filter.Target)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(strings.ToLower(value), strings.ToLower(filter.Target)) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}

// toFloat64 normalizes the numeric types gjson and yaml produce to float64.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
