package ports

import (
	"context"
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// StopScheduleUpdate carries the new absolute bounds of one stop. Lock flags
// travel with every manual edit so server-side re-derivation never reverts it.
type StopScheduleUpdate struct {
	StopType            domain.StopType
	PlannedStart        time.Time
	PlannedEnd          time.Time
	StayNights          *int
	StayDurationMinutes *int
	IsStartLocked       bool
	IsEndLocked         bool
}

// LegScheduleUpdate persists a leg's time bounds only; distance and duration
// remain owned by the routing service.
type LegScheduleUpdate struct {
	PlannedStart time.Time
	PlannedEnd   time.Time
}

// Port: the request/response boundary the timeline edits against.
type ItineraryService interface {
	// GetItinerary loads the route's stops (in route order) and legs.
	GetItinerary(ctx context.Context, routeID int64) (*domain.Itinerary, error)

	// GetItineraryWithConflicts additionally reports any disagreement between
	// time-sorted and route order.
	GetItineraryWithConflicts(ctx context.Context, routeID int64) (*domain.Itinerary, domain.ConflictInfo, error)

	// UpdateStopSchedule stores new bounds and returns conflict info, or nil
	// when the edit leaves time order and route order in agreement.
	UpdateStopSchedule(ctx context.Context, routeID, routePlaceID int64, upd StopScheduleUpdate) (*domain.ConflictInfo, error)

	UpdateLegSchedule(ctx context.Context, routeID, legID int64, upd LegScheduleUpdate) error

	// ResolveConflictByReorder rewrites the route's canonical sequence to
	// match the current scheduled times.
	ResolveConflictByReorder(ctx context.Context, routeID int64) error

	// RebuildLegs recreates travel segments from the current route order,
	// used at load when legs are missing or degenerate.
	RebuildLegs(ctx context.Context, routeID int64) error
}
