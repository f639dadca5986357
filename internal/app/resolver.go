package app

import (
	"github.com/rs/zerolog/log"

	"triposo/internal/adapters/observability"
	"triposo/internal/domain"
)

// Builder constructs one record from a decoded result element.
type Builder[T any] func(doc any, api domain.API) (T, error)

// Result is a resolved envelope: either a single record (estimated_total == 1)
// or an ordered collection in the order the service returned them.
type Result[T any] struct {
	items  []T
	single bool
}

// Single reports whether the envelope announced exactly one result.
func (r Result[T]) Single() bool { return r.single }

// One returns the single record, or the first of a collection.
func (r Result[T]) One() (T, bool) {
	if len(r.items) == 0 {
		var zero T
		return zero, false
	}
	return r.items[0], true
}

// All returns every record; never nil.
func (r Result[T]) All() []T {
	if r.items == nil {
		return []T{}
	}
	return r.items
}

func (r Result[T]) Len() int { return len(r.items) }

// Resolve turns env into records. A nil envelope resolves to an empty result.
// Result elements that are not objects are skipped.
func Resolve[T any](resource string, env *domain.Envelope, api domain.API, build Builder[T]) Result[T] {
	if env == nil {
		observability.ObserveResolve(resource, "empty")
		return Result[T]{}
	}
	if env.EstimatedTotal == 1 {
		observability.ObserveResolve(resource, "single")
		if len(env.Results) == 0 {
			return Result[T]{single: true}
		}
		v, err := build(env.Results[0], api)
		if err != nil {
			log.Warn().Err(err).Str("resource", resource).Msg("single result is not a record")
			return Result[T]{single: true}
		}
		return Result[T]{items: []T{v}, single: true}
	}

	observability.ObserveResolve(resource, "many")
	out := make([]T, 0, len(env.Results))
	for i, doc := range env.Results {
		v, err := build(doc, api)
		if err != nil {
			log.Warn().Err(err).Str("resource", resource).Int("index", i).Msg("skipping result")
			continue
		}
		out = append(out, v)
	}
	return Result[T]{items: out}
}
