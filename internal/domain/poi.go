package domain

import (
	"context"

	"triposo/internal/mapping"
	"triposo/internal/query"
)

// PointOfInterest is a sight, restaurant, hotel or activity (poi.json).
type PointOfInterest struct {
	ID         mapping.Value
	Name       mapping.Value
	Score      mapping.Value
	Snippet    mapping.Value
	Intro      mapping.Value
	LocationID mapping.Value
	Latitude   mapping.Value
	Longitude  mapping.Value
	TagLabels  mapping.Value
	PriceTier  mapping.Value
	BookingURL mapping.Value
	Images     mapping.Value

	api      API
	location lazy[*Location]
}

func (p *PointOfInterest) bindings() []mapping.Binding {
	return []mapping.Binding{
		mapping.Bind("id", "id", &p.ID),
		mapping.Bind("name", "name", &p.Name),
		mapping.Bind("score", "score", &p.Score),
		mapping.Bind("snippet", "snippet", &p.Snippet),
		mapping.Bind("intro", "intro", &p.Intro),
		mapping.Bind("location_id", "location_id", &p.LocationID),
		mapping.Bind("latitude", "coordinates.latitude", &p.Latitude),
		mapping.Bind("longitude", "coordinates.longitude", &p.Longitude),
		mapping.Bind("tag_labels", "tag_labels", &p.TagLabels),
		mapping.Bind("price_tier", "price_tier", &p.PriceTier),
		mapping.Bind("booking_url", "booking_info.vendor_object_url", &p.BookingURL),
		mapping.Bind("images", "images", &p.Images),
	}
}

func NewPointOfInterest(doc any, api API) (*PointOfInterest, error) {
	m, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	p := &PointOfInterest{api: api}
	mapping.Apply(m, p.bindings())
	return p, nil
}

func (p *PointOfInterest) Fields() map[string]mapping.Value { return mapping.Resolved(p.bindings()) }
func (p *PointOfInterest) String() string {
	return "PointOfInterest" + mapping.Format(p.bindings())
}

func (p *PointOfInterest) Equal(o *PointOfInterest) bool {
	if p == nil || o == nil {
		return p == o
	}
	return mapping.EqualBindings(p.bindings(), o.bindings())
}

func (p *PointOfInterest) MarshalJSON() ([]byte, error) { return mapping.MarshalBindings(p.bindings()) }

func (p *PointOfInterest) Thumbnail() (string, bool) { return thumbnail(p.Images) }

// Location fetches the location this point of interest belongs to.
func (p *PointOfInterest) Location(ctx context.Context) (*Location, error) {
	return p.location.get(ctx, p.api, func(ctx context.Context, api API) (*Location, error) {
		id, ok := p.LocationID.Str()
		if !ok || id == "" {
			return nil, nil
		}
		return api.Location(ctx, query.NewParams("id", id))
	})
}
