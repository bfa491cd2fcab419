package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/adapters/routing"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

// memTripStore keeps a single route's stops and legs in memory, preserving
// the order-index sorting the real store provides.
type memTripStore struct {
	route domain.Route
	stops []*domain.Stop
	legs  []*domain.Leg

	replaceCalls int
	orderCalls   []map[int64]int
}

func (m *memTripStore) GetRoute(ctx context.Context, routeID int64) (domain.Route, error) {
	return m.route, nil
}

func (m *memTripStore) ListStops(ctx context.Context, routeID int64) ([]*domain.Stop, error) {
	out := make([]*domain.Stop, len(m.stops))
	copy(out, m.stops)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].OrderIndex < out[i].OrderIndex {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memTripStore) ListLegs(ctx context.Context, routeID int64) ([]*domain.Leg, error) {
	return m.legs, nil
}

func (m *memTripStore) UpdateStopSchedule(ctx context.Context, routeID, routePlaceID int64, upd ports.StopScheduleUpdate) error {
	for _, s := range m.stops {
		if s.RoutePlaceID == routePlaceID {
			s.Type = upd.StopType
			s.PlannedStart = upd.PlannedStart
			s.PlannedEnd = upd.PlannedEnd
			s.StartLocked = upd.IsStartLocked
			s.EndLocked = upd.IsEndLocked
			return nil
		}
	}
	return fmt.Errorf("stop %d: %w", routePlaceID, domain.ErrNotFound)
}

func (m *memTripStore) UpdateLegSchedule(ctx context.Context, routeID, legID int64, upd ports.LegScheduleUpdate) error {
	for _, l := range m.legs {
		if l.LegID == legID {
			l.PlannedStart = upd.PlannedStart
			l.PlannedEnd = upd.PlannedEnd
			return nil
		}
	}
	return fmt.Errorf("leg %d: %w", legID, domain.ErrNotFound)
}

func (m *memTripStore) ReplaceLegs(ctx context.Context, routeID int64, legs []*domain.Leg) error {
	m.replaceCalls++
	m.legs = legs
	return nil
}

func (m *memTripStore) UpdateOrderIndexes(ctx context.Context, routeID int64, order map[int64]int) error {
	m.orderCalls = append(m.orderCalls, order)
	for _, s := range m.stops {
		if idx, ok := order[s.RoutePlaceID]; ok {
			s.OrderIndex = idx
		}
	}
	return nil
}

func day(d int, hour int) time.Time {
	return time.Date(2024, 6, d, hour, 0, 0, 0, time.UTC)
}

func tripStops() []*domain.Stop {
	return []*domain.Stop{
		{RoutePlaceID: 1, Name: "Zion Canyon", OrderIndex: 0, PlannedStart: day(1, 14), PlannedEnd: day(2, 9)},
		{RoutePlaceID: 2, Name: "Bryce Point", OrderIndex: 1, PlannedStart: day(2, 12), PlannedEnd: day(2, 17)},
		{RoutePlaceID: 3, Name: "Capitol Reef", OrderIndex: 2, PlannedStart: day(3, 10), PlannedEnd: day(3, 15)},
	}
}

func TestDetectConflictsAgreement(t *testing.T) {
	info := DetectConflicts(tripStops())
	assert.False(t, info.HasConflict)
	assert.Empty(t, info.ConflictingStops)
}

func TestDetectConflictsDisagreement(t *testing.T) {
	stops := tripStops()
	// Move the first stop after the second in time, keeping route order.
	stops[0].PlannedStart = day(2, 18)
	stops[0].PlannedEnd = day(3, 9)

	info := DetectConflicts(stops)
	require.True(t, info.HasConflict)
	require.Len(t, info.ConflictingStops, 2)

	assert.Equal(t, int64(1), info.ConflictingStops[0].RoutePlaceID)
	assert.Equal(t, 0, info.ConflictingStops[0].CurrentOrderIndex)
	assert.Equal(t, 1, info.ConflictingStops[0].NewTimePosition)

	assert.Equal(t, int64(2), info.ConflictingStops[1].RoutePlaceID)
	assert.Equal(t, 1, info.ConflictingStops[1].CurrentOrderIndex)
	assert.Equal(t, 0, info.ConflictingStops[1].NewTimePosition)
}

func TestDetectConflictsTiesFollowRouteOrder(t *testing.T) {
	stops := tripStops()
	stops[1].PlannedStart = stops[0].PlannedStart

	info := DetectConflicts(stops)
	assert.False(t, info.HasConflict, "equal start times alone must not flag a conflict")
}

func TestDetectConflictsFewStops(t *testing.T) {
	assert.False(t, DetectConflicts(nil).HasConflict)
	assert.False(t, DetectConflicts(tripStops()[:1]).HasConflict)
}

func TestApplyStopScheduleCleanEdit(t *testing.T) {
	store := &memTripStore{stops: tripStops()}

	info, err := ApplyStopSchedule(context.Background(), store, 1, 1, ports.StopScheduleUpdate{
		StopType:      domain.StopTypeOvernight,
		PlannedStart:  day(1, 15),
		PlannedEnd:    day(2, 9),
		IsStartLocked: true,
		IsEndLocked:   true,
	})
	require.NoError(t, err)
	assert.Nil(t, info, "clean edit must not report conflicts")

	assert.True(t, store.stops[0].StartLocked)
	assert.True(t, store.stops[0].EndLocked)
	assert.Equal(t, day(1, 15), store.stops[0].PlannedStart)
}

func TestApplyStopScheduleConflictingEdit(t *testing.T) {
	store := &memTripStore{stops: tripStops()}

	info, err := ApplyStopSchedule(context.Background(), store, 1, 1, ports.StopScheduleUpdate{
		StopType:     domain.StopTypeOvernight,
		PlannedStart: day(2, 18),
		PlannedEnd:   day(3, 9),
	})
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.True(t, info.HasConflict)
	assert.Len(t, info.ConflictingStops, 2)
}

func TestApplyStopScheduleUnknownStop(t *testing.T) {
	store := &memTripStore{stops: tripStops()}

	_, err := ApplyStopSchedule(context.Background(), store, 1, 99, ports.StopScheduleUpdate{
		StopType:     domain.StopTypeDayStop,
		PlannedStart: day(1, 15),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReorderByTimeline(t *testing.T) {
	stops := tripStops()
	// Time order is 2, 1, 3 while route order is 1, 2, 3.
	stops[0].PlannedStart = day(2, 18)
	stops[0].PlannedEnd = day(3, 9)
	stops[0].Coords = domain.Coordinates{Lon: -113.0, Lat: 37.2}
	stops[1].Coords = domain.Coordinates{Lon: -112.2, Lat: 37.6}
	stops[2].Coords = domain.Coordinates{Lon: -111.2, Lat: 38.3}

	store := &memTripStore{stops: stops}
	// Only the pairs of the reordered sequence are scripted; any lookup for
	// the old order fails the rebuild.
	provider := routing.NewMockProvider([]routing.MockPair{
		{From: stops[1].Coords, To: stops[0].Coords, Meters: 50000, Seconds: 3600},
		{From: stops[0].Coords, To: stops[2].Coords, Meters: 120000, Seconds: 7800},
	})

	err := ReorderByTimeline(context.Background(), store, provider, 1)
	require.NoError(t, err)

	require.Len(t, store.orderCalls, 1)
	assert.Equal(t, map[int64]int{2: 0, 1: 1, 3: 2}, store.orderCalls[0])

	// Legs were rebuilt for the new sequence.
	require.Len(t, store.legs, 2)
	assert.Equal(t, int64(2), store.legs[0].FromRoutePlaceID)
	assert.Equal(t, int64(1), store.legs[0].ToRoutePlaceID)
	assert.Equal(t, 50000, store.legs[0].DistanceMeters)
	assert.Equal(t, int64(1), store.legs[1].FromRoutePlaceID)
	assert.Equal(t, int64(3), store.legs[1].ToRoutePlaceID)
	assert.Equal(t, 120000, store.legs[1].DistanceMeters)
}

func TestReorderByTimelineFewStops(t *testing.T) {
	store := &memTripStore{stops: tripStops()[:1]}

	err := ReorderByTimeline(context.Background(), store, &scriptedProvider{}, 1)
	require.NoError(t, err)
	assert.Empty(t, store.orderCalls)
	assert.Zero(t, store.replaceCalls)
}
