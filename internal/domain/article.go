package domain

import (
	"context"

	"triposo/internal/mapping"
	"triposo/internal/query"
)

// Article is a piece of editorial content attached to one or more locations.
type Article struct {
	ID          mapping.Value
	Name        mapping.Value
	Intro       mapping.Value
	Score       mapping.Value
	Snippet     mapping.Value
	Tags        mapping.Value
	LocationIDs mapping.Value

	api       API
	locations lazy[[]*Location]
}

func (a *Article) bindings() []mapping.Binding {
	return []mapping.Binding{
		mapping.Bind("id", "id", &a.ID),
		mapping.Bind("name", "name", &a.Name),
		mapping.Bind("intro", "intro", &a.Intro),
		mapping.Bind("score", "score", &a.Score),
		mapping.Bind("snippet", "snippet", &a.Snippet),
		mapping.Bind("tags", "tags", &a.Tags),
		mapping.Bind("location_ids", "location_ids", &a.LocationIDs),
	}
}

func NewArticle(doc any, api API) (*Article, error) {
	m, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	a := &Article{api: api}
	mapping.Apply(m, a.bindings())
	return a, nil
}

func (a *Article) Fields() map[string]mapping.Value { return mapping.Resolved(a.bindings()) }
func (a *Article) String() string                   { return "Article" + mapping.Format(a.bindings()) }

func (a *Article) Equal(o *Article) bool {
	if a == nil || o == nil {
		return a == o
	}
	return mapping.EqualBindings(a.bindings(), o.bindings())
}

func (a *Article) MarshalJSON() ([]byte, error) { return mapping.MarshalBindings(a.bindings()) }

// Locations fetches every location listed in location_ids, in order. Ids the
// remote service does not know are skipped.
func (a *Article) Locations(ctx context.Context) ([]*Location, error) {
	return a.locations.get(ctx, a.api, func(ctx context.Context, api API) ([]*Location, error) {
		ids, _ := a.LocationIDs.Strings()
		out := make([]*Location, 0, len(ids))
		for _, id := range ids {
			l, err := api.Location(ctx, query.NewParams("id", id))
			if err != nil {
				return nil, err
			}
			if l != nil {
				out = append(out, l)
			}
		}
		return out, nil
	})
}
