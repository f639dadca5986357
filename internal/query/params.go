// Package query turns named filter parameters into query strings.
package query

import (
	"fmt"
	"net/url"
	"strings"
)

// Params is an insertion-ordered set of named parameters. Setting an existing
// key replaces its value in place.
type Params struct {
	keys []string
	vals map[string]string
}

// NewParams builds Params from alternating key, value arguments. A trailing
// key without a value gets the empty string.
func NewParams(kv ...any) Params {
	var p Params
	for i := 0; i < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		var v any = ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		p.Set(k, v)
	}
	return p
}

// FromValues copies url.Values in the order given by keys; keys not in vs are
// skipped. Multi-valued keys keep their first value.
func FromValues(vs url.Values, keys []string) Params {
	var p Params
	for _, k := range keys {
		if v, ok := vs[k]; ok && len(v) > 0 {
			p.Set(k, v[0])
		}
	}
	return p
}

// Set stores v formatted with fmt.Sprint.
func (p *Params) Set(k string, v any) {
	if p.vals == nil {
		p.vals = map[string]string{}
	}
	if _, ok := p.vals[k]; !ok {
		p.keys = append(p.keys, k)
	}
	p.vals[k] = fmt.Sprint(v)
}

func (p Params) Get(k string) (string, bool) {
	v, ok := p.vals[k]
	return v, ok
}

func (p Params) Len() int { return len(p.keys) }

// Keys returns the keys in insertion order.
func (p Params) Keys() []string { return append([]string(nil), p.keys...) }

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := Params{keys: append([]string(nil), p.keys...), vals: make(map[string]string, len(p.vals))}
	for k, v := range p.vals {
		out.vals[k] = v
	}
	return out
}

// With returns a copy of p with k set to v.
func (p Params) With(k string, v any) Params {
	out := p.Clone()
	out.Set(k, v)
	return out
}

func (p Params) String() string { return Raw{}.Build(p) }

// Builder renders Params into a query string (without the leading '?').
type Builder interface {
	Build(p Params) string
}

// Raw joins key=value pairs with '&' in insertion order and performs no
// escaping. This matches what the remote service has historically been sent.
type Raw struct{}

func (Raw) Build(p Params) string {
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		parts = append(parts, k+"="+p.vals[k])
	}
	return strings.Join(parts, "&")
}

// Escaped is Raw with query escaping applied to keys and values.
type Escaped struct{}

func (Escaped) Build(p Params) string {
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(p.vals[k]))
	}
	return strings.Join(parts, "&")
}
