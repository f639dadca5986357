package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"triposo/internal/domain"
	"triposo/internal/query"
)

// PlanOutcome is the day plan (or failure) for one location id.
type PlanOutcome struct {
	LocationID string
	Plan       *domain.DayPlan
	Err        error
}

// BatchPlanner fetches day plans for many locations with bounded
// concurrency. Each individual fetch is still a single blocking API call.
type BatchPlanner struct {
	api     *API
	workers int
}

func NewBatchPlanner(api *API, workers int) *BatchPlanner {
	if workers <= 0 {
		workers = 4
	}
	return &BatchPlanner{api: api, workers: workers}
}

// Plan returns one outcome per id, in the order of ids. extra params are added
// to every request after location_id.
func (b *BatchPlanner) Plan(ctx context.Context, ids []string, extra query.Params) ([]PlanOutcome, error) {
	out := make([]PlanOutcome, len(ids))
	sem := semaphore.NewWeighted(int64(b.workers))
	var wg sync.WaitGroup

	for i, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return out, err
		}

		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer sem.Release(1)

			p := query.NewParams("location_id", id)
			for _, k := range extra.Keys() {
				v, _ := extra.Get(k)
				p.Set(k, v)
			}
			plan, err := b.api.DayPlan(ctx, p)
			out[i] = PlanOutcome{LocationID: id, Plan: plan, Err: err}
			if err != nil {
				log.Warn().Str("location_id", id).Err(err).Msg("day plan failed")
				return
			}
			log.Debug().Str("location_id", id).Bool("found", plan != nil).Msg("day plan ok")
		}(i, id)
	}

	wg.Wait()
	return out, nil
}
