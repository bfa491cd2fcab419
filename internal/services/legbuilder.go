package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

// routingFanout bounds concurrent routing lookups during a rebuild.
var routingFanout = 5

// SetRoutingFanout adjusts the rebuild concurrency bound, set once at startup
// from configuration. Values below 1 are ignored.
func SetRoutingFanout(n int) {
	if n >= 1 {
		routingFanout = n
	}
}

type pairResult struct {
	index  int
	result ports.DistanceResult
	err    error
}

// RebuildLegs recreates the route's travel segments from its current stop
// order: one leg per consecutive pair, with distance and duration from the
// routing provider. Existing legs are replaced wholesale.
//
// Leg time bounds tile the gap between the neighbouring stops, so a fresh
// rebuild already satisfies the timeline's no-gap invariant.
func RebuildLegs(
	ctx context.Context,
	store ports.TripStore,
	provider ports.RouteDistanceProvider,
	routeID int64,
) error {
	stops, err := store.ListStops(ctx, routeID)
	if err != nil {
		return fmt.Errorf("rebuild legs: list stops: %w", err)
	}

	if len(stops) < 2 {
		if err := store.ReplaceLegs(ctx, routeID, nil); err != nil {
			return fmt.Errorf("rebuild legs: clear legs: %w", err)
		}
		return nil
	}

	pairs := len(stops) - 1
	results := make([]ports.DistanceResult, pairs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, routingFanout)
	resultsCh := make(chan pairResult, pairs)
	var wg sync.WaitGroup

	for i := 0; i < pairs; i++ {
		wg.Add(1)
		go func(idx int, from, to domain.Coordinates) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			r, e := provider.RoadDistance(ctx, from, to)
			if e != nil {
				resultsCh <- pairResult{index: idx, err: fmt.Errorf("rebuild legs: distance for pair %d: %w", idx, e)}
				cancel()
				return
			}
			resultsCh <- pairResult{index: idx, result: r}
		}(i, stops[i].Coords, stops[i+1].Coords)
	}

	wg.Wait()
	close(resultsCh)

	var pairErr error
	for res := range resultsCh {
		if res.err != nil {
			if pairErr == nil {
				pairErr = res.err
			}
			continue
		}
		results[res.index] = res.result
	}
	if pairErr != nil {
		return pairErr
	}

	legs := make([]*domain.Leg, 0, pairs)
	for i := 0; i < pairs; i++ {
		from, to := stops[i], stops[i+1]
		legs = append(legs, &domain.Leg{
			FromRoutePlaceID: from.RoutePlaceID,
			ToRoutePlaceID:   to.RoutePlaceID,
			DistanceMeters:   results[i].DistanceMeters,
			DurationSeconds:  results[i].DurationSeconds,
			PlannedStart:     from.PlannedEnd,
			PlannedEnd:       to.PlannedStart,
		})
	}

	if err := store.ReplaceLegs(ctx, routeID, legs); err != nil {
		return fmt.Errorf("rebuild legs: replace legs: %w", err)
	}
	return nil
}
