package domain

import (
	"context"
	"time"

	"triposo/internal/query"
)

// API is the handle records use to resolve relations on demand.
type API interface {
	Location(ctx context.Context, p query.Params) (*Location, error)
	Pois(ctx context.Context, p query.Params) ([]*PointOfInterest, error)
	Tags(ctx context.Context, p query.Params) ([]*Tag, error)
}

// Transport performs one GET against <resource>.json. It reports a 404 as
// ErrNotFound and an undecodable success body as (nil, nil).
type Transport interface {
	Fetch(ctx context.Context, resource string, p query.Params) (*Envelope, error)
}

// Envelope is the decoded top-level response of every endpoint.
// EstimatedTotal is any JSON number; 1 and 1.0 both mean a single record.
type Envelope struct {
	EstimatedTotal float64 `json:"estimated_total"`
	Results        []any   `json:"results"`
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// MissLog keeps an audit trail of lookups the remote service answered with 404.
type MissLog interface {
	LogMiss(ctx context.Context, resource, query string) error
	ListMisses(ctx context.Context, limit int) ([]Miss, error)
}

type Miss struct {
	Resource string
	Query    string
	Count    int
	LastSeen time.Time
}
