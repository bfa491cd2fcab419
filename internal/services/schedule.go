package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

// DetectConflicts compares the time-sorted order of stops against their
// canonical route order and reports every stop whose positions disagree.
//
// Ties on planned start fall back to route order, so a pair of stops sharing
// a start time never flags a conflict on its own. The comparison is
// deterministic and symmetric: no conflicts means the two orders agree
// exactly.
func DetectConflicts(stops []*domain.Stop) domain.ConflictInfo {
	if len(stops) < 2 {
		return domain.ConflictInfo{}
	}

	byTime := make([]*domain.Stop, len(stops))
	copy(byTime, stops)
	slices.SortStableFunc(byTime, func(a, b *domain.Stop) int {
		if a.PlannedStart.Before(b.PlannedStart) {
			return -1
		}
		if a.PlannedStart.After(b.PlannedStart) {
			return 1
		}
		return a.OrderIndex - b.OrderIndex
	})

	timePos := make(map[int64]int, len(byTime))
	for i, s := range byTime {
		timePos[s.RoutePlaceID] = i
	}

	var conflicting []domain.ConflictingStop
	for routePos, s := range stops {
		if tp := timePos[s.RoutePlaceID]; tp != routePos {
			conflicting = append(conflicting, domain.ConflictingStop{
				RoutePlaceID:      s.RoutePlaceID,
				PlaceName:         s.Name,
				CurrentOrderIndex: routePos,
				NewTimePosition:   tp,
			})
		}
	}

	if len(conflicting) == 0 {
		return domain.ConflictInfo{}
	}
	return domain.ConflictInfo{HasConflict: true, ConflictingStops: conflicting}
}

// ApplyStopSchedule persists an edited stop schedule and reports the
// resulting order disagreement, if any. A nil return means time order and
// route order agree after the edit.
func ApplyStopSchedule(
	ctx context.Context,
	store ports.TripStore,
	routeID, routePlaceID int64,
	upd ports.StopScheduleUpdate,
) (*domain.ConflictInfo, error) {
	if err := store.UpdateStopSchedule(ctx, routeID, routePlaceID, upd); err != nil {
		return nil, fmt.Errorf("apply stop schedule: %w", err)
	}

	stops, err := store.ListStops(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("apply stop schedule: list stops: %w", err)
	}

	info := DetectConflicts(stops)
	if !info.HasConflict {
		return nil, nil
	}
	return &info, nil
}

// ApplyLegSchedule persists a leg's time bounds. Distance and duration are
// never touched here; the routing service owns them.
func ApplyLegSchedule(
	ctx context.Context,
	store ports.TripStore,
	routeID, legID int64,
	upd ports.LegScheduleUpdate,
) error {
	if err := store.UpdateLegSchedule(ctx, routeID, legID, upd); err != nil {
		return fmt.Errorf("apply leg schedule: %w", err)
	}
	return nil
}

// ReorderByTimeline rewrites the route's canonical sequence to match the
// current time-sorted order, then rebuilds the travel legs for the new
// sequence.
func ReorderByTimeline(
	ctx context.Context,
	store ports.TripStore,
	provider ports.RouteDistanceProvider,
	routeID int64,
) error {
	stops, err := store.ListStops(ctx, routeID)
	if err != nil {
		return fmt.Errorf("reorder by timeline: list stops: %w", err)
	}
	if len(stops) < 2 {
		return nil
	}

	byTime := make([]*domain.Stop, len(stops))
	copy(byTime, stops)
	slices.SortStableFunc(byTime, func(a, b *domain.Stop) int {
		if a.PlannedStart.Before(b.PlannedStart) {
			return -1
		}
		if a.PlannedStart.After(b.PlannedStart) {
			return 1
		}
		return a.OrderIndex - b.OrderIndex
	})

	order := make(map[int64]int, len(byTime))
	for i, s := range byTime {
		order[s.RoutePlaceID] = i
	}

	if err := store.UpdateOrderIndexes(ctx, routeID, order); err != nil {
		return fmt.Errorf("reorder by timeline: update order: %w", err)
	}

	if err := RebuildLegs(ctx, store, provider, routeID); err != nil {
		return fmt.Errorf("reorder by timeline: %w", err)
	}
	return nil
}
