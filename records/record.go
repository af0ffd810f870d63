// Package records implements managed record lists: an ordered, persisted
// list of schema-validated records with checkbox selection, an add/edit
// editor session and bulk commands.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/stevemurr/gwconsole/schema"
)

// Record maps field names to scalar values (string, float64 or bool).
type Record map[string]any

// Clone returns a copy of r. Values are scalars, so the copy shares nothing
// with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Equal reports whether r and o hold the same fields and values.
func (r Record) Equal(o Record) bool {
	return reflect.DeepEqual(map[string]any(r), map[string]any(o))
}

// scalarValue returns v in the form it takes after a trip through the slot:
// strings and bools as given, every Go number as a finite float64, nil as
// nil. It reports false for anything else.
func scalarValue(v any) (any, bool) {
	var n float64
	switch x := v.(type) {
	case nil, string, bool:
		return v, true
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int8:
		n = float64(x)
	case int16:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint8:
		n = float64(x)
	case uint16:
		n = float64(x)
	case uint32:
		n = float64(x)
	case uint64:
		n = float64(x)
	default:
		return nil, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, false
	}
	return n, true
}

// encodeRecords serializes records as a JSON array of objects. Object keys
// follow the schema's field order so the stored text is stable.
func encodeRecords(s *schema.Schema, recs []Record) (string, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, r := range recs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		for j, k := range s.OrderedKeys(r) {
			if j > 0 {
				b.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return "", err
			}
			vb, err := json.Marshal(r[k])
			if err != nil {
				return "", fmt.Errorf("record %d field %q: %w", i, k, err)
			}
			b.Write(kb)
			b.WriteByte(':')
			b.Write(vb)
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.String(), nil
}

// decodeRecords parses the text written by encodeRecords. Null values are
// dropped; nested values are rejected.
func decodeRecords(key, value string) ([]Record, error) {
	var raw []map[string]any
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, &LoadError{Key: key, Err: err}
	}
	recs := make([]Record, 0, len(raw))
	for i, obj := range raw {
		if obj == nil {
			return nil, &LoadError{Key: key, Err: fmt.Errorf("record %d is null", i)}
		}
		r := make(Record, len(obj))
		for k, v := range obj {
			sv, ok := scalarValue(v)
			if !ok {
				return nil, &LoadError{Key: key, Err: fmt.Errorf("record %d field %q is not a scalar", i, k)}
			}
			if sv != nil {
				r[k] = sv
			}
		}
		recs = append(recs, r)
	}
	return recs, nil
}
