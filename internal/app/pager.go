package app

import (
	"context"
	"iter"

	"triposo/internal/adapters/observability"
)

// TerminationPolicy decides when a Pager stops fetching.
type TerminationPolicy int

const (
	// StopOnEmptyPage ends the sequence on the first page with zero items. A
	// short page is followed by one more fetch.
	StopOnEmptyPage TerminationPolicy = iota
	// StopOnShortPage also ends after a page with fewer than count items.
	StopOnShortPage
)

// PageFunc fetches one page. A not-found page must be reported as no items.
type PageFunc[T any] func(ctx context.Context, page, count int) ([]T, error)

// Pager is a lazy, finite, non-restartable sequence of records fetched one
// page at a time. Each Next call performs at most one fetch. Not safe for
// concurrent use.
//
//	for p.Next(ctx) {
//		use(p.Item())
//	}
//	if err := p.Err(); err != nil { ... }
type Pager[T any] struct {
	resource string
	fetch    PageFunc[T]
	page     int
	count    int
	policy   TerminationPolicy

	buf  []T
	cur  T
	done bool
	err  error
}

func NewPager[T any](resource string, fetch PageFunc[T], page, count int, policy TerminationPolicy) *Pager[T] {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 20
	}
	return &Pager[T]{resource: resource, fetch: fetch, page: page, count: count, policy: policy}
}

// Next advances to the next record, fetching a new page when the current one
// is used up. It returns false once the sequence is exhausted or failed.
func (p *Pager[T]) Next(ctx context.Context) bool {
	for len(p.buf) == 0 {
		if p.done {
			return false
		}
		items, err := p.fetch(ctx, p.page, p.count)
		observability.ObservePage(p.resource)
		if err != nil {
			p.err, p.done = err, true
			return false
		}
		p.page++
		if len(items) == 0 {
			p.done = true
			return false
		}
		if p.policy == StopOnShortPage && len(items) < p.count {
			p.done = true
		}
		p.buf = items
	}
	p.cur, p.buf = p.buf[0], p.buf[1:]
	return true
}

// Item returns the record Next advanced to.
func (p *Pager[T]) Item() T { return p.cur }

// Err returns the fetch error that ended the sequence, if any.
func (p *Pager[T]) Err() error { return p.err }

// Page is the index of the next page to be fetched.
func (p *Pager[T]) Page() int { return p.page }

// All adapts the pager to a range-over-func sequence. A fetch error is
// yielded once as the final pair.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.Next(ctx) {
			if !yield(p.Item(), nil) {
				return
			}
		}
		if p.err != nil {
			var zero T
			yield(zero, p.err)
		}
	}
}
