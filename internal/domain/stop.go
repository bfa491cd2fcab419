package domain

import "time"

// StopType classifies how long a traveller stays at a place.
type StopType string

const (
	StopTypeOvernight StopType = "overnight"
	StopTypeDayStop   StopType = "day_stop"
	StopTypeWaypoint  StopType = "waypoint"
)

// Stop is a scheduled stay at a place within a route.
//
// StartT/EndT are float-day coordinates anchored at midnight UTC of the
// route's start calendar date; the integer part is the zero-based day index
// and the fractional part is time-of-day. PlannedStart/PlannedEnd keep the
// absolute timestamps as loaded, for diffing and rollback after a failed
// save.
type Stop struct {
	RoutePlaceID int64
	PlaceID      int64
	Name         string
	Coords       Coordinates

	// OrderIndex is the stop's position in the route's canonical sequence,
	// the ground truth for routing and reordering. It may disagree with the
	// time-sorted position until the user reconciles the two.
	OrderIndex int

	Type StopType

	StartT float64
	EndT   float64

	// Lock flags are set once a user manually edits a boundary, so server-side
	// re-derivation never silently reverts an explicit edit.
	StartLocked bool
	EndLocked   bool

	StayNights          int
	StayDurationMinutes int

	PlannedStart time.Time
	PlannedEnd   time.Time
}

// DurationT returns the stay length in float days.
func (s *Stop) DurationT() float64 { return s.EndT - s.StartT }
