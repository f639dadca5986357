package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triposo/internal/app"
	"triposo/internal/domain"
	"triposo/internal/query"
)

// ---- fakes ----

type call struct {
	resource string
	query    string
}

// fakeTransport answers from a function and records every call.
type fakeTransport struct {
	mu    sync.Mutex
	calls []call
	fn    func(resource string, p query.Params) (*domain.Envelope, error)
}

func (f *fakeTransport) Fetch(ctx context.Context, resource string, p query.Params) (*domain.Envelope, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{resource, p.String()})
	f.mu.Unlock()
	return f.fn(resource, p)
}

func envelope(t *testing.T, s string) *domain.Envelope {
	t.Helper()
	var env domain.Envelope
	require.NoError(t, json.Unmarshal([]byte(s), &env))
	return &env
}

func fixed(env *domain.Envelope, err error) *fakeTransport {
	return &fakeTransport{fn: func(string, query.Params) (*domain.Envelope, error) { return env, err }}
}

type fakeMisses struct{ got []string }

func (f *fakeMisses) LogMiss(ctx context.Context, resource, q string) error {
	f.got = append(f.got, resource+"?"+q)
	return nil
}
func (f *fakeMisses) ListMisses(ctx context.Context, limit int) ([]domain.Miss, error) {
	return nil, nil
}

// ---- resolver ----

func TestResolve_SingleEnvelope(t *testing.T) {
	env := envelope(t, `{"estimated_total":1,"results":[{"id":"Amsterdam","name":"Amsterdam","type":"city"}]}`)
	r := app.Resolve("location", env, nil, domain.NewLocation)

	assert.True(t, r.Single())
	assert.Equal(t, 1, r.Len())
	l, ok := r.One()
	require.True(t, ok)
	assert.Equal(t, "Amsterdam", l.Name.StrOr(""))
	assert.Equal(t, "city", l.Type.StrOr(""))
}

func TestResolve_ManyKeepsOrder(t *testing.T) {
	env := envelope(t, `{"estimated_total":2,"results":[{"id":"B"},{"id":"A"}]}`)
	r := app.Resolve("location", env, nil, domain.NewLocation)

	assert.False(t, r.Single())
	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0].ID.StrOr(""))
	assert.Equal(t, "A", all[1].ID.StrOr(""))
}

func TestResolve_ZeroAndNil(t *testing.T) {
	r := app.Resolve("location", envelope(t, `{"estimated_total":0,"results":[]}`), nil, domain.NewLocation)
	assert.NotNil(t, r.All())
	assert.Empty(t, r.All())
	_, ok := r.One()
	assert.False(t, ok)

	r = app.Resolve[*domain.Location]("location", nil, nil, domain.NewLocation)
	assert.Empty(t, r.All())
}

func TestResolve_SkipsNonObjects(t *testing.T) {
	env := envelope(t, `{"estimated_total":3,"results":[{"id":"a"},"junk",{"id":"c"}]}`)
	r := app.Resolve("location", env, nil, domain.NewLocation)
	assert.Equal(t, 2, r.Len())

	env = envelope(t, `{"estimated_total":1,"results":["junk"]}`)
	r = app.Resolve("location", env, nil, domain.NewLocation)
	_, ok := r.One()
	assert.False(t, ok)
}

func TestResolve_MissingTotalIsCollection(t *testing.T) {
	r := app.Resolve("location", envelope(t, `{"results":[{"id":"a"}]}`), nil, domain.NewLocation)
	assert.False(t, r.Single())
	assert.Equal(t, 1, r.Len())
}

func TestResolve_FractionalTotals(t *testing.T) {
	r := app.Resolve("location", envelope(t, `{"estimated_total":1.0,"results":[{"id":"a"},{"id":"b"}]}`), nil, domain.NewLocation)
	assert.True(t, r.Single())
	assert.Equal(t, 1, r.Len())

	r = app.Resolve("location", envelope(t, `{"estimated_total":1.5,"results":[{"id":"a"},{"id":"b"}]}`), nil, domain.NewLocation)
	assert.False(t, r.Single())
	assert.Equal(t, 2, r.Len())
}

// ---- API facade ----

func TestAPI_LocationAndHandle(t *testing.T) {
	ft := fixed(envelope(t, `{"estimated_total":1,"results":[{"id":"Amsterdam","name":"Amsterdam","type":"city"}]}`), nil)
	api := app.NewAPI(ft)

	l, err := api.Location(context.Background(), query.NewParams("id", "Amsterdam", "fields", "all"))
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "Amsterdam", l.Name.StrOr(""))
	assert.Equal(t, []call{{"location", "id=Amsterdam&fields=all"}}, ft.calls)

	// records built by the API can resolve relations
	_, err = l.Pois(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, call{"poi", "location_id=Amsterdam"}, ft.calls[1])
}

func TestAPI_LocationsFromCollection(t *testing.T) {
	ft := fixed(envelope(t, `{"estimated_total":12,"results":[{"id":"North_Korea","name":"North Korea"},{"id":"South_Korea","name":"South Korea"}]}`), nil)
	ls, err := app.NewAPI(ft).Locations(context.Background(),
		query.NewParams("tag_labels", "country", "annotate", "trigram:Korea", "trigram", ">=0.3", "count", 10))
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, "North Korea", ls[0].Name.StrOr(""))
	assert.Equal(t, "tag_labels=country&annotate=trigram:Korea&trigram=>=0.3&count=10", ft.calls[0].query)
}

func TestAPI_NotFoundIsAbsent(t *testing.T) {
	misses := &fakeMisses{}
	api := app.NewAPI(fixed(nil, domain.ErrNotFound), app.WithMissLog(misses))
	ctx := context.Background()

	l, err := api.Location(ctx, query.NewParams("id", "Atlantis"))
	assert.NoError(t, err)
	assert.Nil(t, l)

	ls, err := api.Locations(ctx, query.NewParams("part_of", "Atlantis"))
	assert.NoError(t, err)
	assert.NotNil(t, ls)
	assert.Empty(t, ls)

	d, err := api.DayPlan(ctx, query.NewParams("location_id", "Atlantis"))
	assert.NoError(t, err)
	assert.Nil(t, d)

	assert.Equal(t, []string{"location?id=Atlantis", "location?part_of=Atlantis", "day_planner?location_id=Atlantis"}, misses.got)
}

func TestAPI_UndecodableIsAbsent(t *testing.T) {
	api := app.NewAPI(fixed(nil, nil))
	p, err := api.Poi(context.Background(), query.NewParams("id", "x"))
	assert.NoError(t, err)
	assert.Nil(t, p)
	tags, err := api.Tags(context.Background(), query.Params{})
	assert.NoError(t, err)
	assert.Empty(t, tags)
}

func TestAPI_TransportErrorsPropagate(t *testing.T) {
	ctx := context.Background()

	_, err := app.NewAPI(fixed(nil, domain.ErrUnauthorized)).Location(ctx, query.Params{})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = app.NewAPI(fixed(nil, &domain.StatusError{Status: 503})).CommonTagLabels(ctx, query.Params{})
	var se *domain.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 503, se.Status)
}

func TestAPI_DayPlan(t *testing.T) {
	ft := fixed(envelope(t, `{"estimated_total":1,"results":[{
		"location":{"id":"Amsterdam","name":"Amsterdam"},
		"hotel":{"id":"H","name":"Hotel"},
		"days":[{"itinerary_items":[{"poi":{"id":"P1"}}]},{"itinerary_items":[{"poi":{"id":"P2","location_id":"Amsterdam"}}]}]
	}]}`), nil)
	api := app.NewAPI(ft)
	d, err := api.DayPlan(context.Background(), query.NewParams("location_id", "Amsterdam"))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.NotNil(t, d.Location)
	assert.NotNil(t, d.Hotel)
	require.Len(t, d.Days, 2)
	poi := d.Days[1].Items[0].Poi
	require.NotNil(t, poi)

	// nested records carry the handle too
	_, err = poi.Location(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, call{"location", "id=Amsterdam"}, ft.calls[len(ft.calls)-1])
}

// ---- pager ----

func pages(t *testing.T, sizes ...int) *fakeTransport {
	return &fakeTransport{fn: func(resource string, p query.Params) (*domain.Envelope, error) {
		var page int
		v, _ := p.Get("page")
		fmt.Sscan(v, &page)
		n := 0
		if page-1 < len(sizes) {
			n = sizes[page-1]
		} else {
			t.Errorf("unexpected fetch of page %d", page)
		}
		env := &domain.Envelope{EstimatedTotal: 1000}
		for i := 0; i < n; i++ {
			env.Results = append(env.Results, map[string]any{"id": fmt.Sprintf("p%d-%d", page, i)})
		}
		return env, nil
	}}
}

func TestPager_StopsOnEmptyPage(t *testing.T) {
	ft := pages(t, 20, 20, 0)
	pg := app.NewAPI(ft).LocationPager(query.NewParams("part_of", "Netherlands"), 1, 20)
	ctx := context.Background()

	n := 0
	for pg.Next(ctx) {
		n++
	}
	require.NoError(t, pg.Err())
	assert.Equal(t, 40, n)
	require.Len(t, ft.calls, 3)
	assert.Equal(t, "part_of=Netherlands&count=20&page=1", ft.calls[0].query)
	assert.Equal(t, "part_of=Netherlands&count=20&page=3", ft.calls[2].query)

	// exhausted: no further fetches
	assert.False(t, pg.Next(ctx))
	assert.False(t, pg.Next(ctx))
	assert.Len(t, ft.calls, 3)
}

func TestPager_ShortPageDoesNotStopByDefault(t *testing.T) {
	ft := pages(t, 20, 5, 3, 0)
	pg := app.NewAPI(ft).PoiPager(query.Params{}, 1, 20)
	n := 0
	for range pg.All(context.Background()) {
		n++
	}
	assert.Equal(t, 28, n)
	assert.Len(t, ft.calls, 4)
}

func TestPager_StopOnShortPagePolicy(t *testing.T) {
	ft := pages(t, 20, 5)
	pg := app.NewAPI(ft, app.WithTermination(app.StopOnShortPage)).PoiPager(query.Params{}, 1, 20)
	n := 0
	for pg.Next(context.Background()) {
		n++
	}
	assert.Equal(t, 25, n)
	assert.Len(t, ft.calls, 2)
}

func TestPager_StartPageAndNotFound(t *testing.T) {
	ft := &fakeTransport{fn: func(resource string, p query.Params) (*domain.Envelope, error) {
		if v, _ := p.Get("page"); v == "3" {
			return &domain.Envelope{Results: []any{map[string]any{"id": "x"}, map[string]any{"id": "y"}}}, nil
		}
		return nil, domain.ErrNotFound
	}}
	pg := app.NewAPI(ft).LocationPager(query.Params{}, 3, 2)
	var ids []string
	for l, err := range pg.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, l.ID.StrOr(""))
	}
	assert.Equal(t, []string{"x", "y"}, ids)
	assert.Len(t, ft.calls, 2)
	assert.Equal(t, 5, pg.Page())
}

func TestPager_ErrorEndsSequence(t *testing.T) {
	ft := &fakeTransport{fn: func(resource string, p query.Params) (*domain.Envelope, error) {
		if v, _ := p.Get("page"); v == "1" {
			return &domain.Envelope{Results: []any{map[string]any{"id": "a"}}}, nil
		}
		return nil, domain.ErrUnauthorized
	}}
	pg := app.NewAPI(ft).LocationPager(query.Params{}, 1, 1)

	var got []error
	n := 0
	for _, err := range pg.All(context.Background()) {
		if err != nil {
			got = append(got, err)
			continue
		}
		n++
	}
	assert.Equal(t, 1, n)
	require.Len(t, got, 1)
	assert.True(t, errors.Is(got[0], domain.ErrUnauthorized))
	assert.False(t, pg.Next(context.Background()))
	assert.Len(t, ft.calls, 2)
}

func TestPager_Generic(t *testing.T) {
	calls := 0
	pg := app.NewPager("nums", func(ctx context.Context, page, count int) ([]int, error) {
		calls++
		if page > 2 {
			return nil, nil
		}
		return []int{page*10 + 1, page*10 + 2}, nil
	}, 0, 0, app.StopOnEmptyPage)

	var got []int
	for pg.Next(context.Background()) {
		got = append(got, pg.Item())
	}
	assert.Equal(t, []int{11, 12, 21, 22}, got)
	assert.Equal(t, 3, calls)
}

// ---- batch ----

func TestBatchPlanner(t *testing.T) {
	ft := &fakeTransport{fn: func(resource string, p query.Params) (*domain.Envelope, error) {
		id, _ := p.Get("location_id")
		switch id {
		case "Nowhere":
			return nil, domain.ErrNotFound
		case "Broken":
			return nil, &domain.StatusError{Status: 500}
		}
		return &domain.Envelope{EstimatedTotal: 1, Results: []any{
			map[string]any{"location": map[string]any{"id": id}, "days": []any{}},
		}}, nil
	}}
	bp := app.NewBatchPlanner(app.NewAPI(ft), 2)
	ids := []string{"Amsterdam", "Nowhere", "Paris", "Broken", "Rome"}

	out, err := bp.Plan(context.Background(), ids, query.NewParams("start_date", "2026-10-18"))
	require.NoError(t, err)
	require.Len(t, out, len(ids))

	for i, o := range out {
		assert.Equal(t, ids[i], o.LocationID)
	}
	assert.Equal(t, "Amsterdam", out[0].Plan.Location.ID.StrOr(""))
	assert.Nil(t, out[1].Plan)
	assert.NoError(t, out[1].Err)
	assert.Error(t, out[3].Err)
	assert.Equal(t, "Rome", out[4].Plan.Location.ID.StrOr(""))

	var qs []string
	for _, c := range ft.calls {
		qs = append(qs, c.query)
	}
	sort.Strings(qs)
	assert.Equal(t, "location_id=Amsterdam&start_date=2026-10-18", qs[0])
}
