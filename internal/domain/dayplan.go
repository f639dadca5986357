package domain

import (
	"fmt"
	"strings"

	"triposo/internal/mapping"
)

// DayPlan is the day_planner.json result: a location, an optional hotel and
// one Itinerary per day.
//
// Each slot is built independently. A slot whose sub-document is missing or
// malformed stays empty (nil, or without the failed day) and is reported by
// BuildErrors; the rest of the plan is still built.
type DayPlan struct {
	Seed     mapping.Value
	Location *Location
	Hotel    *PointOfInterest
	Days     []*Itinerary

	errs []error
}

func (d *DayPlan) bindings() []mapping.Binding {
	return []mapping.Binding{
		mapping.Bind("seed", "seed", &d.Seed),
	}
}

func NewDayPlan(doc any, api API) (*DayPlan, error) {
	m, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	d := &DayPlan{}
	mapping.Apply(m, d.bindings())

	loc, err := buildSlot(m, "location", false, api, NewLocation)
	if err != nil {
		d.errs = append(d.errs, err)
	}
	d.Location = loc

	hotel, err := buildSlot(m, "hotel", true, api, NewPointOfInterest)
	if err != nil {
		d.errs = append(d.errs, err)
	}
	d.Hotel = hotel

	days, errs := buildList(m, "days", api, NewItinerary, (*Itinerary).BuildErrors)
	d.Days = days
	d.errs = append(d.errs, errs...)
	return d, nil
}

// BuildErrors lists every slot left empty, as *SlotError with dotted slot
// paths such as "days.1.itinerary_items.0.poi". An absent hotel is not an
// error.
func (d *DayPlan) BuildErrors() []error { return d.errs }

func (d *DayPlan) Fields() map[string]mapping.Value { return mapping.Resolved(d.bindings()) }

func (d *DayPlan) String() string {
	days := make([]string, len(d.Days))
	for i, x := range d.Days {
		days[i] = x.String()
	}
	f := mapping.Format(d.bindings())
	return fmt.Sprintf("DayPlan%s, location: %s, hotel: %s, days: [%s]}",
		f[:len(f)-1], slotString(d.Location), slotString(d.Hotel), strings.Join(days, ", "))
}

func (d *DayPlan) Equal(o *DayPlan) bool {
	if d == nil || o == nil {
		return d == o
	}
	if !mapping.EqualBindings(d.bindings(), o.bindings()) ||
		!d.Location.Equal(o.Location) || !d.Hotel.Equal(o.Hotel) || len(d.Days) != len(o.Days) {
		return false
	}
	for i := range d.Days {
		if !d.Days[i].Equal(o.Days[i]) {
			return false
		}
	}
	return true
}

func (d *DayPlan) MarshalJSON() ([]byte, error) {
	return mapping.MarshalBindings(d.bindings(),
		mapping.Field{Name: "location", Value: d.Location},
		mapping.Field{Name: "hotel", Value: d.Hotel},
		mapping.Field{Name: "days", Value: d.Days},
	)
}
