package app

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"triposo/internal/domain"
	"triposo/internal/query"
)

// Remote resources.
const (
	ResourceLocation        = "location"
	ResourcePoi             = "poi"
	ResourceDayPlanner      = "day_planner"
	ResourceTag             = "tag"
	ResourceCommonTagLabels = "common_tag_labels"
	ResourceArticle         = "article"
)

// API is the caller-facing facade. Factory methods pass params through to the
// query string verbatim. A 404 becomes a nil record or an empty slice;
// authentication and other transport failures are returned.
//
// Records built by API carry it as their handle, so their relation accessors
// work.
type API struct {
	t      domain.Transport
	misses domain.MissLog
	policy TerminationPolicy
}

type APIOption func(*API)

// WithMissLog records every 404 lookup.
func WithMissLog(m domain.MissLog) APIOption {
	return func(a *API) { a.misses = m }
}

// WithTermination sets the policy used by the pagers API creates.
func WithTermination(p TerminationPolicy) APIOption {
	return func(a *API) { a.policy = p }
}

func NewAPI(t domain.Transport, opts ...APIOption) *API {
	a := &API{t: t, policy: StopOnEmptyPage}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ domain.API = (*API)(nil)

// fetch folds ErrNotFound into a nil envelope.
func (a *API) fetch(ctx context.Context, resource string, p query.Params) (*domain.Envelope, error) {
	env, err := a.t.Fetch(ctx, resource, p)
	if errors.Is(err, domain.ErrNotFound) {
		if a.misses != nil {
			if lerr := a.misses.LogMiss(ctx, resource, p.String()); lerr != nil {
				log.Warn().Err(lerr).Str("resource", resource).Msg("log miss failed")
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return env, nil
}

func resolve[T any](ctx context.Context, a *API, resource string, p query.Params, build Builder[T]) (Result[T], error) {
	env, err := a.fetch(ctx, resource, p)
	if err != nil {
		return Result[T]{}, err
	}
	return Resolve(resource, env, a, build), nil
}

func one[T any](ctx context.Context, a *API, resource string, p query.Params, build Builder[*T]) (*T, error) {
	r, err := resolve(ctx, a, resource, p, build)
	if err != nil {
		return nil, err
	}
	v, _ := r.One()
	return v, nil
}

func many[T any](ctx context.Context, a *API, resource string, p query.Params, build Builder[T]) ([]T, error) {
	r, err := resolve(ctx, a, resource, p, build)
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

// Location returns the location matching p, or nil when there is none.
func (a *API) Location(ctx context.Context, p query.Params) (*domain.Location, error) {
	return one(ctx, a, ResourceLocation, p, domain.NewLocation)
}

func (a *API) Locations(ctx context.Context, p query.Params) ([]*domain.Location, error) {
	return many(ctx, a, ResourceLocation, p, domain.NewLocation)
}

func (a *API) Poi(ctx context.Context, p query.Params) (*domain.PointOfInterest, error) {
	return one(ctx, a, ResourcePoi, p, domain.NewPointOfInterest)
}

func (a *API) Pois(ctx context.Context, p query.Params) ([]*domain.PointOfInterest, error) {
	return many(ctx, a, ResourcePoi, p, domain.NewPointOfInterest)
}

func (a *API) Tag(ctx context.Context, p query.Params) (*domain.Tag, error) {
	return one(ctx, a, ResourceTag, p, domain.NewTag)
}

func (a *API) Tags(ctx context.Context, p query.Params) ([]*domain.Tag, error) {
	return many(ctx, a, ResourceTag, p, domain.NewTag)
}

// CommonTagLabels lists the tag labels shared across locations.
func (a *API) CommonTagLabels(ctx context.Context, p query.Params) ([]*domain.Tag, error) {
	return many(ctx, a, ResourceCommonTagLabels, p, domain.NewTag)
}

func (a *API) Articles(ctx context.Context, p query.Params) ([]*domain.Article, error) {
	return many(ctx, a, ResourceArticle, p, domain.NewArticle)
}

// DayPlan asks the day planner for a plan (typically location_id=...).
func (a *API) DayPlan(ctx context.Context, p query.Params) (*domain.DayPlan, error) {
	return one(ctx, a, ResourceDayPlanner, p, domain.NewDayPlan)
}

// LocationPager pages through locations matching p, starting at page, count
// per page.
func (a *API) LocationPager(p query.Params, page, count int) *Pager[*domain.Location] {
	return pagerFor(a, ResourceLocation, p, page, count, domain.NewLocation)
}

func (a *API) PoiPager(p query.Params, page, count int) *Pager[*domain.PointOfInterest] {
	return pagerFor(a, ResourcePoi, p, page, count, domain.NewPointOfInterest)
}

// pagerFor adds count and page to p on every fetch; all other params are
// repeated unchanged.
func pagerFor[T any](a *API, resource string, p query.Params, page, count int, build Builder[T]) *Pager[T] {
	base := p.Clone()
	fetch := func(ctx context.Context, page, count int) ([]T, error) {
		return many(ctx, a, resource, base.With("count", count).With("page", page), build)
	}
	return NewPager(resource, fetch, page, count, a.policy)
}
