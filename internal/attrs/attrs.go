// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/staranto/unitdex/internal/config"
)

var lengthRe = regexp.MustCompile(`-?\d+`)

// Attr represents each of the keys to be included in the output. Keys are
// gjson paths into each record of a dataset, e.g. name or stats.hp.
type Attr struct {
	// The JSON key to extract from each record.
	Key string `yaml:"key"`
	// Should this Attr be included in output or is it just
	// intended for filtering and sorting?
	Include bool `yaml:"include"`
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string `yaml:"outputKey"`
	// Transformation spec to apply to the output value.
	TransformSpec string `yaml:"transformSpec"`
}

// Transform applies the attr's TransformSpec to value. Only strings are
// transformed; anything else passes through untouched.
//
// Spec letters: l/L lower, u/U upper, c/C capitalize words, t/T convert an
// RFC3339 UTC time into the configured timezone, and a number truncates to
// that many characters (a negative number elides the middle instead).
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		return value
	}

	if strings.ContainsAny(a.TransformSpec, "tT") {
		result = a.toLocalTime(result)
	}

	// The case transformation that appears last wins. A global spec is
	// prepended to each attr's own spec, so the attr's own choice carries more
	// weight. IOW... --attrs '*::U,name::l' will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")
	lastC := strings.LastIndexAny(a.TransformSpec, "cC")

	switch {
	case lastL > lastU && lastL > lastC:
		result = strings.ToLower(result)
	case lastU > lastL && lastU > lastC:
		result = strings.ToUpper(result)
	case lastC > lastL && lastC > lastU:
		result = cases.Title(language.Und).String(result)
	}

	if a.TransformSpec != "" {
		// Same logic as above re: case. A more specific length overrides a
		// global one.
		match := lengthRe.FindAllString(a.TransformSpec, -1)
		if len(match) != 0 {
			l, _ := strconv.Atoi(match[len(match)-1])
			result = truncate(result, l)
		}
	}

	return result
}

func (a *Attr) toLocalTime(value string) string {
	// Only convert when a timezone was asked for, first from the config file,
	// then TZ.
	tz, _ := config.GetString("timezone", "")
	if tz == "" {
		tz = os.Getenv("TZ")
	}
	if tz == "" {
		return value
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.WithError(err).Warnf("unknown timezone %s", tz)
		return value
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Debugf("not a time, leaving as is: %s", value)
		return value
	}
	return t.In(loc).Format("2006-01-02T15:04:05MST")
}

func truncate(s string, l int) string {
	r := []rune(s)
	abs := int(math.Abs(float64(l)))
	if len(r) <= abs {
		return s
	}
	if l < 0 {
		half := abs/2 - 1
		if half < 1 {
			return string(r[:abs])
		}
		return string(r[:half]) + ".." + string(r[len(r)-half:])
	}
	return string(r[:l])
}

type AttrList []Attr

// Return a string representation of the AttrList. This should match the format
// of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Set parses each comma separated spec from the --attrs flag and adds it to the
// AttrList. Each spec is key[:outputKey[:transform]]; a leading ! keeps the key
// for filtering and sorting but leaves it out of the output.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

specloop:
	for _, spec := range strings.Split(value, ",") {
		if strings.TrimSpace(spec) == "" {
			continue
		}

		attr := Attr{Include: true}
		fields := strings.Split(spec, ":")
		if len(fields) > 3 {
			return fmt.Errorf("invalid attr spec %q: too many fields", spec)
		}

		attr.Key = strings.TrimSpace(fields[jsonIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		// Records are flat objects; a leading . is accepted for familiarity.
		attr.Key = strings.TrimPrefix(attr.Key, ".")
		if attr.Key == "" {
			return fmt.Errorf("invalid attr spec %q: empty key", spec)
		}

		if attr.Key == "*" {
			attr.Include = false
		}

		// With only one field the output key becomes the last segment of the
		// dotted key.
		if len(fields) == 1 {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			if out := strings.TrimSpace(fields[outputIdx]); out != "" {
				attr.OutputKey = out
			} else {
				attr.OutputKey = attr.Key
			}
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// If the attr already exists in the list (because it's one of the
		// defaults for the dataset or the user double-entered it) just apply the
		// OutputKey, Include and TransformSpec to the existing Attr.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec inserts a global transform spec into the front of all
// attrs in the list.
func (a *AttrList) SetGlobalTransformSpec() error {
	spec := ""

	// If there is more than one global spec, only the first counts.
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}

	if spec == "" {
		return nil
	}

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}

	return nil
}

// Included returns only the attrs destined for output.
func (a AttrList) Included() AttrList {
	out := make(AttrList, 0, len(a))
	for _, attr := range a {
		if attr.Include {
			out = append(out, attr)
		}
	}
	return out
}

func (a *AttrList) Type() string {
	return "list"
}
