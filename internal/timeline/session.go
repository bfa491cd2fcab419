package timeline

import (
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// Session is the in-memory arena for the route currently open: every Stop and
// Leg record addressed by stable identity, plus the derived day span. The
// orchestrator is its sole owner; gestures receive references to individual
// records and mutate them in place, but never replace the collections.
//
// A session is built fresh each time a route's itinerary is (re)loaded and
// discarded on route switch. Late save responses for a discarded session are
// ignored.
type Session struct {
	RouteID   int64
	StartUTC  time.Time
	Stops     []*domain.Stop
	Legs      []*domain.Leg
	TotalDays float64

	stopsByID map[int64]*domain.Stop
	legsByID  map[int64]*domain.Leg
}

// NewSession maps the itinerary into coordinate space and indexes it.
// Stops are expected in route order.
func NewSession(routeID int64, startUTC time.Time, stops []*domain.Stop, legs []*domain.Leg) *Session {
	MapStops(stops, startUTC)
	MapLegs(legs, stops, startUTC)

	s := &Session{
		RouteID:   routeID,
		StartUTC:  startUTC,
		Stops:     stops,
		Legs:      legs,
		TotalDays: TotalDays(stops),
		stopsByID: make(map[int64]*domain.Stop, len(stops)),
		legsByID:  make(map[int64]*domain.Leg, len(legs)),
	}
	for _, st := range stops {
		s.stopsByID[st.RoutePlaceID] = st
	}
	for _, l := range legs {
		s.legsByID[l.LegID] = l
	}
	return s
}

// Stop returns the stop record for a routePlaceID, or nil.
func (s *Session) Stop(routePlaceID int64) *domain.Stop { return s.stopsByID[routePlaceID] }

// Leg returns the leg record for a legID, or nil.
func (s *Session) Leg(legID int64) *domain.Leg { return s.legsByID[legID] }

// LegNeighbors resolves the two stops a leg connects.
func (s *Session) LegNeighbors(l *domain.Leg) (from, to *domain.Stop) {
	return s.stopsByID[l.FromRoutePlaceID], s.stopsByID[l.ToRoutePlaceID]
}
