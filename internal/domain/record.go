// Package domain holds the travel-content records and the ports the rest of
// the module plugs into.
//
// Every record is built once from a decoded JSON object through a statically
// declared list of field bindings (see package mapping). Fields whose path is
// not present in the document stay absent. Equality, String and JSON output
// consider mapped fields only; the API handle and memoized relations are
// excluded.
package domain

import (
	"context"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"triposo/internal/mapping"
)

// Record is the shared read surface of all resource types.
type Record interface {
	Fields() map[string]mapping.Value
	String() string
}

var (
	_ Record = (*Location)(nil)
	_ Record = (*PointOfInterest)(nil)
	_ Record = (*Tag)(nil)
	_ Record = (*Article)(nil)
	_ Record = (*Itinerary)(nil)
	_ Record = (*ItineraryItem)(nil)
	_ Record = (*DayPlan)(nil)
)

func asObject(doc any) (map[string]any, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, mapping.ErrNotObject
	}
	return m, nil
}

// lazy memoizes a relation fetched through the API handle. Failed fetches are
// not memoized.
type lazy[T any] struct {
	mu   sync.Mutex
	done bool
	v    T
}

func (z *lazy[T]) get(ctx context.Context, api API, fetch func(context.Context, API) (T, error)) (T, error) {
	if api == nil {
		var zero T
		return zero, ErrCapabilityUnavailable
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.done {
		return z.v, nil
	}
	v, err := fetch(ctx, api)
	if err != nil {
		return v, err
	}
	z.v, z.done = v, true
	return v, nil
}

// buildSlot constructs one nested record from doc at slot. A missing optional
// slot is not reported.
func buildSlot[T any](doc map[string]any, slot string, optional bool, api API,
	build func(any, API) (*T, error)) (*T, error) {

	sub, err := mapping.Object(doc, mapping.ParsePath(slot))
	if err != nil {
		if optional && errors.Is(err, mapping.ErrMissing) {
			return nil, nil
		}
		return nil, slotErr(slot, err)
	}
	v, err := build(sub, api)
	if err != nil {
		return nil, slotErr(slot, err)
	}
	return v, nil
}

// buildList constructs one record per element of the list at slot. Elements
// that fail are skipped and reported as slot.i; nested reports are prefixed.
func buildList[T any](doc map[string]any, slot string, api API,
	build func(any, API) (*T, error), nested func(*T) []error) ([]*T, []error) {

	items, err := mapping.List(doc, mapping.ParsePath(slot))
	if err != nil {
		return nil, []error{slotErr(slot, err)}
	}
	var errs []error
	out := make([]*T, 0, len(items))
	for i, it := range items {
		name := slot + "." + strconv.Itoa(i)
		v, err := build(it, api)
		if err != nil {
			errs = append(errs, slotErr(name, err))
			continue
		}
		if nested != nil {
			errs = append(errs, nest(name, nested(v))...)
		}
		out = append(out, v)
	}
	return out, errs
}

func slotErr(slot string, err error) error {
	log.Debug().Str("slot", slot).Err(err).Msg("nested record left empty")
	return &SlotError{Slot: slot, Err: err}
}
