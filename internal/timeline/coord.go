package timeline

import (
	"math"
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// MinDuration is the smallest allowed stop or leg length in float days
// (0.05 day, roughly 72 minutes). Enforced before any save is issued.
const MinDuration = 0.05

const secondsPerDay = 86400

// DayAnchor returns midnight UTC of the calendar date containing start.
// The anchor is the date's midnight, not the start timestamp itself: a route
// departing at 14:00 still counts that day as day zero, so its first stop
// begins at a fractional coordinate.
func DayAnchor(start time.Time) time.Time {
	y, m, d := start.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ToCoordinate converts an absolute timestamp to a float-day coordinate
// relative to the route anchor.
func ToCoordinate(ts, anchor time.Time) float64 {
	return ts.Sub(DayAnchor(anchor)).Seconds() / secondsPerDay
}

// ToTimestamp is the inverse of ToCoordinate, rounded to whole nanoseconds.
func ToTimestamp(t float64, anchor time.Time) time.Time {
	ns := math.Round(t * secondsPerDay * float64(time.Second))
	return DayAnchor(anchor).Add(time.Duration(ns))
}

// effectiveEnd resolves a stop's end time when none is stored.
// Overnight stops default to their stay length in nights, timed stops to
// their stay duration, and anything else to a two hour visit.
func effectiveEnd(s *domain.Stop) time.Time {
	if !s.PlannedEnd.IsZero() {
		return s.PlannedEnd
	}

	switch {
	case s.Type == domain.StopTypeOvernight && s.StayNights > 0:
		return s.PlannedStart.AddDate(0, 0, s.StayNights)
	case s.StayDurationMinutes > 0:
		return s.PlannedStart.Add(time.Duration(s.StayDurationMinutes) * time.Minute)
	default:
		return s.PlannedStart.Add(2 * time.Hour)
	}
}

// MapStops fills in the coordinate-space bounds of every stop from its
// absolute schedule, applying the end-time fallback policy.
func MapStops(stops []*domain.Stop, anchor time.Time) {
	for _, s := range stops {
		s.StartT = ToCoordinate(s.PlannedStart, anchor)
		s.EndT = ToCoordinate(effectiveEnd(s), anchor)
		if s.EndT < s.StartT+MinDuration {
			s.EndT = s.StartT + MinDuration
		}
	}
}

// MapLegs fills in coordinate-space bounds for legs that carry their own
// schedule, then snaps every leg onto its neighbours so stop and leg
// intervals tile the day axis with no gaps.
func MapLegs(legs []*domain.Leg, stops []*domain.Stop, anchor time.Time) {
	byID := make(map[int64]*domain.Stop, len(stops))
	for _, s := range stops {
		byID[s.RoutePlaceID] = s
	}

	for _, l := range legs {
		if !l.PlannedStart.IsZero() && !l.PlannedEnd.IsZero() {
			l.StartT = ToCoordinate(l.PlannedStart, anchor)
			l.EndT = ToCoordinate(l.PlannedEnd, anchor)
		}

		// No-gap invariant: a leg's bounds equal its neighbours' adjacent
		// bounds regardless of what was stored.
		if from, ok := byID[l.FromRoutePlaceID]; ok {
			l.StartT = from.EndT
		}
		if to, ok := byID[l.ToRoutePlaceID]; ok {
			l.EndT = to.StartT
		}
		if l.EndT < l.StartT {
			l.EndT = l.StartT
		}
	}
}

// TotalDays derives the rendered day-axis span: the ceiling of the latest
// stop end, never less than one day. An empty itinerary renders a single
// empty day rather than failing.
func TotalDays(stops []*domain.Stop) float64 {
	maxEnd := 0.0
	for _, s := range stops {
		if s.EndT > maxEnd {
			maxEnd = s.EndT
		}
	}

	days := math.Ceil(maxEnd)
	if days < 1 {
		days = 1
	}
	return days
}
