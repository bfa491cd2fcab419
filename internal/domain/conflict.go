package domain

// ConflictingStop identifies one stop whose time-sorted position disagrees
// with its canonical route position.
type ConflictingStop struct {
	RoutePlaceID      int64
	PlaceName         string
	CurrentOrderIndex int
	NewTimePosition   int
}

// ConflictInfo reports the disagreement between time-sorted stop order and
// route order after a schedule edit or itinerary load.
type ConflictInfo struct {
	HasConflict      bool
	ConflictingStops []ConflictingStop
}
