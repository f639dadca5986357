package domain

import (
	"fmt"
	"strings"

	"triposo/internal/mapping"
)

// Itinerary is one day of a DayPlan.
type Itinerary struct {
	Date  mapping.Value
	Items []*ItineraryItem

	errs []error
}

func (it *Itinerary) bindings() []mapping.Binding {
	return []mapping.Binding{
		mapping.Bind("date", "date", &it.Date),
	}
}

func NewItinerary(doc any, api API) (*Itinerary, error) {
	m, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	it := &Itinerary{}
	mapping.Apply(m, it.bindings())
	it.Items, it.errs = buildList(m, "itinerary_items", api, NewItineraryItem, (*ItineraryItem).BuildErrors)
	return it, nil
}

// BuildErrors lists the nested slots that were left empty, including those of
// the items.
func (it *Itinerary) BuildErrors() []error { return it.errs }

func (it *Itinerary) Fields() map[string]mapping.Value { return mapping.Resolved(it.bindings()) }

func (it *Itinerary) String() string {
	items := make([]string, len(it.Items))
	for i, x := range it.Items {
		items[i] = x.String()
	}
	f := mapping.Format(it.bindings())
	return fmt.Sprintf("Itinerary%s, items: [%s]}", f[:len(f)-1], strings.Join(items, ", "))
}

func (it *Itinerary) Equal(o *Itinerary) bool {
	if it == nil || o == nil {
		return it == o
	}
	if !mapping.EqualBindings(it.bindings(), o.bindings()) || len(it.Items) != len(o.Items) {
		return false
	}
	for i := range it.Items {
		if !it.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

func (it *Itinerary) MarshalJSON() ([]byte, error) {
	return mapping.MarshalBindings(it.bindings(), mapping.Field{Name: "itinerary_items", Value: it.Items})
}

// ItineraryItem is one activity within a day, anchored on a point of interest.
type ItineraryItem struct {
	Title       mapping.Value
	Description mapping.Value
	Duration    mapping.Value
	Optional    mapping.Value
	Poi         *PointOfInterest

	errs []error
}

func (ii *ItineraryItem) bindings() []mapping.Binding {
	return []mapping.Binding{
		mapping.Bind("title", "title", &ii.Title),
		mapping.Bind("description", "description", &ii.Description),
		mapping.Bind("duration", "duration", &ii.Duration),
		mapping.Bind("optional", "optional", &ii.Optional),
	}
}

func NewItineraryItem(doc any, api API) (*ItineraryItem, error) {
	m, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	ii := &ItineraryItem{}
	mapping.Apply(m, ii.bindings())
	poi, err := buildSlot(m, "poi", false, api, NewPointOfInterest)
	if err != nil {
		ii.errs = append(ii.errs, err)
	}
	ii.Poi = poi
	return ii, nil
}

func (ii *ItineraryItem) BuildErrors() []error { return ii.errs }

func (ii *ItineraryItem) Fields() map[string]mapping.Value { return mapping.Resolved(ii.bindings()) }

func (ii *ItineraryItem) String() string {
	f := mapping.Format(ii.bindings())
	return fmt.Sprintf("ItineraryItem%s, poi: %s}", f[:len(f)-1], slotString(ii.Poi))
}

func (ii *ItineraryItem) Equal(o *ItineraryItem) bool {
	if ii == nil || o == nil {
		return ii == o
	}
	return mapping.EqualBindings(ii.bindings(), o.bindings()) && ii.Poi.Equal(o.Poi)
}

func (ii *ItineraryItem) MarshalJSON() ([]byte, error) {
	return mapping.MarshalBindings(ii.bindings(), mapping.Field{Name: "poi", Value: ii.Poi})
}

// slotString renders a possibly empty slot.
func slotString[T any, P interface {
	*T
	fmt.Stringer
}](r P) string {
	if r == nil {
		return "<empty>"
	}
	return r.String()
}
