package mapping

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Binding ties a public field name to a source path and the field it fills.
type Binding struct {
	Name string
	Path Path
	Dst  *Value
}

// Bind is shorthand for a Binding with a dotted path.
func Bind(name, dotted string, dst *Value) Binding {
	return Binding{Name: name, Path: ParsePath(dotted), Dst: dst}
}

// Apply resolves every binding against doc independently.
func Apply(doc any, bs []Binding) {
	for _, b := range bs {
		*b.Dst = Resolve(doc, b.Path)
	}
}

// Resolved returns the name→value view of the bindings.
func Resolved(bs []Binding) map[string]Value {
	out := make(map[string]Value, len(bs))
	for _, b := range bs {
		out[b.Name] = *b.Dst
	}
	return out
}

// EqualBindings reports whether two binding lists name the same fields with
// equal values. Both lists must come from the same record type.
func EqualBindings(a, b []Binding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !a[i].Dst.Equal(*b[i].Dst) {
			return false
		}
	}
	return true
}

// Format renders bindings as {name: value, ...} in declaration order.
func Format(bs []Binding) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, b := range bs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.Name)
		sb.WriteString(": ")
		sb.WriteString(b.Dst.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalBindings encodes bindings as a JSON object in declaration order.
// Absent values encode as null. extra fields are appended after the bindings.
func MarshalBindings(bs []Binding, extra ...Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(name string, v any) error {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		k, _ := json.Marshal(name)
		buf.Write(k)
		buf.WriteByte(':')
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
	for _, b := range bs {
		if err := write(b.Name, *b.Dst); err != nil {
			return nil, err
		}
	}
	for _, f := range extra {
		if err := write(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Field is a named non-mapped value included in JSON output (nested records).
type Field struct {
	Name  string
	Value any
}
