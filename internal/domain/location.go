package domain

import (
	"context"

	"triposo/internal/mapping"
	"triposo/internal/query"
)

// Location is a city, region, country or other place (location.json).
type Location struct {
	ID        mapping.Value
	Name      mapping.Value
	Type      mapping.Value
	Score     mapping.Value
	Snippet   mapping.Value
	Intro     mapping.Value
	CountryID mapping.Value
	ParentID  mapping.Value
	PartOf    mapping.Value
	Latitude  mapping.Value
	Longitude mapping.Value
	TagLabels mapping.Value
	Images    mapping.Value

	api    API
	pois   lazy[[]*PointOfInterest]
	tags   lazy[[]*Tag]
	parent lazy[*Location]
}

func (l *Location) bindings() []mapping.Binding {
	return []mapping.Binding{
		mapping.Bind("id", "id", &l.ID),
		mapping.Bind("name", "name", &l.Name),
		mapping.Bind("type", "type", &l.Type),
		mapping.Bind("score", "score", &l.Score),
		mapping.Bind("snippet", "snippet", &l.Snippet),
		mapping.Bind("intro", "intro", &l.Intro),
		mapping.Bind("country_id", "country_id", &l.CountryID),
		mapping.Bind("parent_id", "parent_id", &l.ParentID),
		mapping.Bind("part_of", "part_of", &l.PartOf),
		mapping.Bind("latitude", "coordinates.latitude", &l.Latitude),
		mapping.Bind("longitude", "coordinates.longitude", &l.Longitude),
		mapping.Bind("tag_labels", "tag_labels", &l.TagLabels),
		mapping.Bind("images", "images", &l.Images),
	}
}

// NewLocation builds a Location from a decoded object. api may be nil.
func NewLocation(doc any, api API) (*Location, error) {
	m, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	l := &Location{api: api}
	mapping.Apply(m, l.bindings())
	return l, nil
}

func (l *Location) Fields() map[string]mapping.Value { return mapping.Resolved(l.bindings()) }
func (l *Location) String() string                   { return "Location" + mapping.Format(l.bindings()) }

func (l *Location) Equal(o *Location) bool {
	if l == nil || o == nil {
		return l == o
	}
	return mapping.EqualBindings(l.bindings(), o.bindings())
}

func (l *Location) MarshalJSON() ([]byte, error) { return mapping.MarshalBindings(l.bindings()) }

func (l *Location) Thumbnail() (string, bool) { return thumbnail(l.Images) }

// Pois fetches the points of interest inside this location.
func (l *Location) Pois(ctx context.Context) ([]*PointOfInterest, error) {
	return l.pois.get(ctx, l.api, func(ctx context.Context, api API) ([]*PointOfInterest, error) {
		return api.Pois(ctx, query.NewParams("location_id", l.ID.StrOr("")))
	})
}

// Tags fetches the tags available for this location.
func (l *Location) Tags(ctx context.Context) ([]*Tag, error) {
	return l.tags.get(ctx, l.api, func(ctx context.Context, api API) ([]*Tag, error) {
		return api.Tags(ctx, query.NewParams("location_id", l.ID.StrOr("")))
	})
}

// Parent fetches the enclosing location; nil when the location has no parent.
func (l *Location) Parent(ctx context.Context) (*Location, error) {
	return l.parent.get(ctx, l.api, func(ctx context.Context, api API) (*Location, error) {
		id, ok := l.ParentID.Str()
		if !ok || id == "" {
			return nil, nil
		}
		return api.Location(ctx, query.NewParams("id", id))
	})
}
