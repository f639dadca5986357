package mapping

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Value is a resolved field: the JSON value as decoded, or absent.
// The zero Value is absent.
type Value struct {
	v  any
	ok bool
}

// Of wraps a present value (JSON null included).
func Of(v any) Value { return Value{v: v, ok: true} }

func (v Value) Present() bool { return v.ok }

// Raw returns the decoded value, nil when absent.
func (v Value) Raw() any { return v.v }

func (v Value) Str() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

// StrOr returns the string value or def.
func (v Value) StrOr(def string) string {
	if s, ok := v.Str(); ok {
		return s
	}
	return def
}

// Float accepts float64 (encoding/json default) and json.Number.
func (v Value) Float() (float64, bool) {
	switch n := v.v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Int reports integral numbers only; 3.5 is not an Int.
func (v Value) Int() (int64, bool) {
	switch n := v.v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func (v Value) Bool() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok
}

// Strings returns the string elements of a list value. Non-string elements
// make the whole conversion fail.
func (v Value) Strings() ([]string, bool) {
	l, ok := v.v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(l))
	for _, it := range l {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Equal compares presence and the decoded values.
func (v Value) Equal(o Value) bool {
	return v.ok == o.ok && reflect.DeepEqual(v.v, o.v)
}

func (v Value) String() string {
	if !v.ok {
		return "<absent>"
	}
	if s, ok := v.v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v.v)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = Of(raw)
	return nil
}
