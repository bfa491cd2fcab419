package timeline

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

func TestCoordinateScenarioRouteStartsMidDay(t *testing.T) {
	// Route departing 14:00 still anchors day zero to that day's midnight.
	anchor := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	stop := &domain.Stop{
		RoutePlaceID: 1,
		Type:         domain.StopTypeOvernight,
		PlannedStart: time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
	}
	MapStops([]*domain.Stop{stop}, anchor)

	if math.Abs(stop.StartT-14.0/24.0) > 1e-9 {
		t.Errorf("StartT = %v, want %v", stop.StartT, 14.0/24.0)
	}
	if math.Abs(stop.EndT-1.375) > 1e-9 {
		t.Errorf("EndT = %v, want 1.375", stop.EndT)
	}
	if got := TotalDays([]*domain.Stop{stop}); got != 2 {
		t.Errorf("TotalDays = %v, want 2", got)
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	anchor := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(rng.Int63n(14*24*3600)) * time.Second)

		back := ToTimestamp(ToCoordinate(ts, anchor), anchor)
		if d := back.Sub(ts); d > time.Microsecond || d < -time.Microsecond {
			t.Fatalf("round trip drifted: %v -> %v (delta %v)", ts, back, d)
		}
	}
}

func TestEndTimeFallbacks(t *testing.T) {
	anchor := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	overnight := &domain.Stop{Type: domain.StopTypeOvernight, StayNights: 2, PlannedStart: start}
	timed := &domain.Stop{Type: domain.StopTypeDayStop, StayDurationMinutes: 90, PlannedStart: start}
	bare := &domain.Stop{Type: domain.StopTypeWaypoint, PlannedStart: start}

	MapStops([]*domain.Stop{overnight, timed, bare}, anchor)

	if want := ToCoordinate(start.AddDate(0, 0, 2), anchor); math.Abs(overnight.EndT-want) > 1e-9 {
		t.Errorf("overnight EndT = %v, want %v", overnight.EndT, want)
	}
	if want := ToCoordinate(start.Add(90*time.Minute), anchor); math.Abs(timed.EndT-want) > 1e-9 {
		t.Errorf("timed EndT = %v, want %v", timed.EndT, want)
	}
	if want := ToCoordinate(start.Add(2*time.Hour), anchor); math.Abs(bare.EndT-want) > 1e-9 {
		t.Errorf("bare EndT = %v, want %v", bare.EndT, want)
	}
}

func TestMapStopsEnforcesMinimumDuration(t *testing.T) {
	anchor := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	s := &domain.Stop{
		Type:         domain.StopTypeDayStop,
		PlannedStart: start,
		PlannedEnd:   start.Add(time.Minute),
	}
	MapStops([]*domain.Stop{s}, anchor)

	if s.EndT-s.StartT < MinDuration {
		t.Errorf("duration %v below minimum %v", s.EndT-s.StartT, MinDuration)
	}
}

func TestTotalDaysEmptyItinerary(t *testing.T) {
	if got := TotalDays(nil); got != 1 {
		t.Errorf("TotalDays(nil) = %v, want 1", got)
	}
}

func TestMapLegsSnapsToNeighbours(t *testing.T) {
	anchor := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	a := &domain.Stop{
		RoutePlaceID: 1,
		PlannedStart: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	b := &domain.Stop{
		RoutePlaceID: 2,
		PlannedStart: time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
	}
	leg := &domain.Leg{LegID: 10, FromRoutePlaceID: 1, ToRoutePlaceID: 2}

	MapStops([]*domain.Stop{a, b}, anchor)
	MapLegs([]*domain.Leg{leg}, []*domain.Stop{a, b}, anchor)

	if leg.StartT != a.EndT {
		t.Errorf("leg.StartT = %v, want fromStop.EndT %v", leg.StartT, a.EndT)
	}
	if leg.EndT != b.StartT {
		t.Errorf("leg.EndT = %v, want toStop.StartT %v", leg.EndT, b.StartT)
	}
}
