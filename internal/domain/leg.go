package domain

import "time"

// Leg is the travel segment between two consecutive stops.
//
// Distance and duration are owned by the external routing service; schedule
// edits persist only the time bounds. A leg's bounds always equal its
// neighbours' adjacent bounds: StartT == fromStop.EndT and
// EndT == toStop.StartT.
type Leg struct {
	LegID            int64
	FromRoutePlaceID int64
	ToRoutePlaceID   int64

	DistanceMeters  int
	DurationSeconds int

	StartT float64
	EndT   float64

	PlannedStart time.Time
	PlannedEnd   time.Time
}

// DurationT returns the travel window length in float days.
func (l *Leg) DurationT() float64 { return l.EndT - l.StartT }
