package domain

import "triposo/internal/mapping"

// Tag is a category label (tag.json, common_tag_labels.json).
type Tag struct {
	Label       mapping.Value
	Name        mapping.Value
	Type        mapping.Value
	Score       mapping.Value
	PoiCount    mapping.Value
	LocationID  mapping.Value
	ParentLabel mapping.Value
}

func (t *Tag) bindings() []mapping.Binding {
	return []mapping.Binding{
		mapping.Bind("label", "label", &t.Label),
		mapping.Bind("name", "name", &t.Name),
		mapping.Bind("type", "type", &t.Type),
		mapping.Bind("score", "score", &t.Score),
		mapping.Bind("poi_count", "poi_count", &t.PoiCount),
		mapping.Bind("location_id", "location_id", &t.LocationID),
		mapping.Bind("parent_label", "parent_label", &t.ParentLabel),
	}
}

func NewTag(doc any, _ API) (*Tag, error) {
	m, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	t := &Tag{}
	mapping.Apply(m, t.bindings())
	return t, nil
}

func (t *Tag) Fields() map[string]mapping.Value { return mapping.Resolved(t.bindings()) }
func (t *Tag) String() string                   { return "Tag" + mapping.Format(t.bindings()) }

func (t *Tag) Equal(o *Tag) bool {
	if t == nil || o == nil {
		return t == o
	}
	return mapping.EqualBindings(t.bindings(), o.bindings())
}

func (t *Tag) MarshalJSON() ([]byte, error) { return mapping.MarshalBindings(t.bindings()) }
