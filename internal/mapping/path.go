// Package mapping resolves declarative field→path bindings against decoded
// JSON documents (map[string]any / []any trees as produced by encoding/json).
//
// Resolution never fails loudly: a path that cannot be followed yields an
// absent Value for that field only.
package mapping

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrMissing      = errors.New("mapping: path not present")
	ErrNotContainer = errors.New("mapping: step into non-container")
	ErrNotObject    = errors.New("mapping: not an object")
	ErrNotList      = errors.New("mapping: not a list")
)

// Path is an ordered sequence of keys. A step applied to an object is a key
// lookup; a step applied to a list must be a decimal index.
type Path []string

// P builds a Path from its steps.
func P(steps ...string) Path { return Path(steps) }

// ParsePath splits a dotted path ("images.0.sizes.thumbnail.url").
func ParsePath(dotted string) Path {
	if dotted == "" {
		return nil
	}
	return Path(strings.Split(dotted, "."))
}

func (p Path) String() string { return strings.Join(p, ".") }

// Lookup follows p through doc. The returned error is ErrMissing or
// ErrNotContainer, wrapped with the failing step.
func Lookup(doc any, p Path) (any, error) {
	cur := doc
	for i, step := range p {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[step]
			if !ok {
				return nil, errors.Wrapf(ErrMissing, "key %q at %s", step, Path(p[:i]))
			}
			cur = v
		case []any:
			n, err := strconv.Atoi(step)
			if err != nil || n < 0 || n >= len(c) {
				return nil, errors.Wrapf(ErrMissing, "index %q at %s", step, Path(p[:i]))
			}
			cur = c[n]
		default:
			return nil, errors.Wrapf(ErrNotContainer, "%T at %s", cur, Path(p[:i]))
		}
	}
	return cur, nil
}

// Resolve is Lookup with the failure folded into an absent Value.
func Resolve(doc any, p Path) Value {
	v, err := Lookup(doc, p)
	if err != nil {
		return Value{}
	}
	return Of(v)
}

// Object resolves p and requires a JSON object there.
func Object(doc any, p Path) (map[string]any, error) {
	v, err := Lookup(doc, p)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrNotObject, "%s is %T", p, v)
	}
	return m, nil
}

// List resolves p and requires a JSON array there.
func List(doc any, p Path) ([]any, error) {
	v, err := Lookup(doc, p)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, errors.Wrapf(ErrNotList, "%s is %T", p, v)
	}
	return l, nil
}
