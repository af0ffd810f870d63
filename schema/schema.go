// Package schema declares the field layout of a managed record list and
// validates drafts against it.
package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the scalar type a field holds.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
)

// Field describes one named value of a record.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Schema is an ordered set of fields. Field order is the order records are
// serialized and displayed in.
type Schema struct {
	Name   string  `json:"name"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Defaults returns the draft used for a new record.
func (s *Schema) Defaults() map[string]any {
	draft := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		switch {
		case f.Default != nil:
			draft[f.Name] = f.Default
		case f.Kind == KindBool:
			draft[f.Name] = false
		default:
			draft[f.Name] = ""
		}
	}
	return draft
}

// Validate checks a draft and returns a message per failing field. The map
// is empty, never nil, when the draft is valid.
//
// A required field fails when it is missing, nil or a blank string. A number
// field fails when it holds a non-blank value that is not a finite,
// non-negative number.
func (s *Schema) Validate(draft map[string]any) map[string]string {
	errs := map[string]string{}
	for _, f := range s.Fields {
		v, ok := draft[f.Name]
		if isBlank(v, ok) {
			if f.Required {
				errs[f.Name] = fmt.Sprintf("%s is required", f.label())
			}
			continue
		}
		if f.Kind == KindNumber {
			if _, ok := toNumber(v); !ok {
				errs[f.Name] = fmt.Sprintf("%s must be a non-negative number", f.label())
			}
		}
	}
	return errs
}

// Normalize returns a copy of r with number and bool fields converted to
// their canonical Go types (float64 and bool). Values that cannot be
// converted are kept as given.
func (s *Schema) Normalize(r map[string]any) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, f := range s.Fields {
		v, ok := out[f.Name]
		if isBlank(v, ok) {
			continue
		}
		switch f.Kind {
		case KindNumber:
			if n, ok := toNumber(v); ok {
				out[f.Name] = n
			}
		case KindBool:
			if sv, ok := v.(string); ok {
				if b, err := strconv.ParseBool(strings.TrimSpace(sv)); err == nil {
					out[f.Name] = b
				}
			}
		}
	}
	return out
}

// OrderedKeys returns the keys of r with schema fields first, in declaration
// order, followed by any other keys sorted.
func (s *Schema) OrderedKeys(r map[string]any) []string {
	keys := make([]string, 0, len(r))
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		seen[f.Name] = true
		if _, ok := r[f.Name]; ok {
			keys = append(keys, f.Name)
		}
	}
	var extra []string
	for k := range r {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func isBlank(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	if sv, ok := v.(string); ok {
		return strings.TrimSpace(sv) == ""
	}
	return false
}

func toNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case int32:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint64:
		n = float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	return n, true
}
