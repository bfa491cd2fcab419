package ports

import (
	"context"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// Port: a boundary for reading and mutating persisted trip data.
type TripStore interface {
	GetRoute(ctx context.Context, routeID int64) (domain.Route, error)

	// ListStops returns the route's stops ordered by order_index.
	ListStops(ctx context.Context, routeID int64) ([]*domain.Stop, error)

	ListLegs(ctx context.Context, routeID int64) ([]*domain.Leg, error)

	UpdateStopSchedule(ctx context.Context, routeID, routePlaceID int64, upd StopScheduleUpdate) error

	UpdateLegSchedule(ctx context.Context, routeID, legID int64, upd LegScheduleUpdate) error

	// ReplaceLegs atomically swaps the route's travel segments.
	ReplaceLegs(ctx context.Context, routeID int64, legs []*domain.Leg) error

	// UpdateOrderIndexes renumbers stops; keys are routePlaceIDs.
	UpdateOrderIndexes(ctx context.Context, routeID int64, order map[int64]int) error
}
