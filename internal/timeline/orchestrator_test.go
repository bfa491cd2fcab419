package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

type stopCall struct {
	routeID      int64
	routePlaceID int64
	upd          ports.StopScheduleUpdate
}

// fakeItineraryService records calls and returns scripted results.
type fakeItineraryService struct {
	mu        sync.Mutex
	order     []string
	stopCalls []stopCall
	legCalls  []ports.LegScheduleUpdate

	itinerary *domain.Itinerary
	conflicts domain.ConflictInfo
	rebuilt   int

	conflictOnSave *domain.ConflictInfo
	// conflictQueue, when non-empty, scripts per-call stop-save responses and
	// takes precedence over conflictOnSave.
	conflictQueue  []*domain.ConflictInfo

	stopErr    error
	legErr     error
	reorderErr error

	// onStopSave runs inside UpdateStopSchedule, before returning.
	onStopSave func()
}

func (f *fakeItineraryService) GetItinerary(ctx context.Context, routeID int64) (*domain.Itinerary, error) {
	return f.itinerary, nil
}

func (f *fakeItineraryService) GetItineraryWithConflicts(ctx context.Context, routeID int64) (*domain.Itinerary, domain.ConflictInfo, error) {
	return f.itinerary, f.conflicts, nil
}

func (f *fakeItineraryService) UpdateStopSchedule(ctx context.Context, routeID, routePlaceID int64, upd ports.StopScheduleUpdate) (*domain.ConflictInfo, error) {
	f.mu.Lock()
	f.order = append(f.order, fmt.Sprintf("stop:%d", routePlaceID))
	f.stopCalls = append(f.stopCalls, stopCall{routeID, routePlaceID, upd})
	info := f.conflictOnSave
	if len(f.conflictQueue) > 0 {
		info = f.conflictQueue[0]
		f.conflictQueue = f.conflictQueue[1:]
	}
	cb := f.onStopSave
	f.mu.Unlock()

	if cb != nil {
		cb()
	}
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return info, nil
}

func (f *fakeItineraryService) UpdateLegSchedule(ctx context.Context, routeID, legID int64, upd ports.LegScheduleUpdate) error {
	f.mu.Lock()
	f.order = append(f.order, fmt.Sprintf("leg:%d", legID))
	f.legCalls = append(f.legCalls, upd)
	f.mu.Unlock()
	return f.legErr
}

func (f *fakeItineraryService) ResolveConflictByReorder(ctx context.Context, routeID int64) error {
	f.mu.Lock()
	f.order = append(f.order, "reorder")
	f.mu.Unlock()
	return f.reorderErr
}

func (f *fakeItineraryService) RebuildLegs(ctx context.Context, routeID int64) error {
	f.mu.Lock()
	f.rebuilt++
	f.mu.Unlock()
	return nil
}

func testRoute() domain.Route {
	return domain.Route{
		RouteID:       1,
		Name:          "Utah loop",
		StartDateTime: time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC),
	}
}

func testStops() []*domain.Stop {
	return []*domain.Stop{
		{
			RoutePlaceID: 1, PlaceID: 11, Name: "Salt Lake City", OrderIndex: 0,
			Type:         domain.StopTypeOvernight,
			PlannedStart: time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC),
			PlannedEnd:   time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			RoutePlaceID: 2, PlaceID: 12, Name: "Moab", OrderIndex: 1,
			Type:         domain.StopTypeOvernight,
			PlannedStart: time.Date(2024, 6, 2, 15, 0, 0, 0, time.UTC),
			PlannedEnd:   time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		},
	}
}

func testLegs() []*domain.Leg {
	return []*domain.Leg{
		{LegID: 100, FromRoutePlaceID: 1, ToRoutePlaceID: 2, DistanceMeters: 380000, DurationSeconds: 14400},
	}
}

func newTestTimeline(svc ports.ItineraryService, cb Callbacks) *Timeline {
	return New(Config{
		Service:         svc,
		Callbacks:       cb,
		DayWidthPx:      100,
		ViewportWidthPx: 200,
		SyncCommits:     true,
	})
}

func TestStopCommitSavesLockedAbsoluteBounds(t *testing.T) {
	svc := &fakeItineraryService{}
	var saved []int64
	tl := newTestTimeline(svc, Callbacks{
		OnScheduleSaved: func(id int64) { saved = append(saved, id) },
	})
	tl.Render(testRoute(), testStops(), testLegs())

	if !tl.BeginStopDrag(1, TargetBody, 100) {
		t.Fatal("BeginStopDrag refused")
	}
	tl.Drag(130)
	tl.EndDrag(130)

	if len(svc.stopCalls) != 1 {
		t.Fatalf("stop saves = %d, want 1", len(svc.stopCalls))
	}
	call := svc.stopCalls[0]
	if call.routeID != 1 || call.routePlaceID != 1 {
		t.Errorf("saved route %d stop %d", call.routeID, call.routePlaceID)
	}
	if !call.upd.IsStartLocked || !call.upd.IsEndLocked {
		t.Error("manual edit must lock both bounds")
	}

	sess := tl.Session()
	stop := sess.Stop(1)
	if want := ToTimestamp(stop.StartT, sess.StartUTC); !call.upd.PlannedStart.Equal(want) {
		t.Errorf("PlannedStart = %v, want %v", call.upd.PlannedStart, want)
	}
	if want := ToTimestamp(stop.EndT, sess.StartUTC); !call.upd.PlannedEnd.Equal(want) {
		t.Errorf("PlannedEnd = %v, want %v", call.upd.PlannedEnd, want)
	}
	if len(saved) != 1 || saved[0] != 1 {
		t.Errorf("OnScheduleSaved calls = %v", saved)
	}
}

func TestLegCommitSavesNeighboursBeforeLeg(t *testing.T) {
	svc := &fakeItineraryService{}
	tl := newTestTimeline(svc, Callbacks{})
	tl.Render(testRoute(), testStops(), testLegs())

	if !tl.BeginLegDrag(100, 100) {
		t.Fatal("BeginLegDrag refused")
	}
	tl.Drag(140)
	tl.EndDrag(140)

	want := []string{"stop:1", "stop:2", "leg:100"}
	if len(svc.order) != len(want) {
		t.Fatalf("call order = %v, want %v", svc.order, want)
	}
	for i := range want {
		if svc.order[i] != want[i] {
			t.Fatalf("call order = %v, want %v", svc.order, want)
		}
	}

	// No-gap invariant holds after the commit.
	sess := tl.Session()
	leg := sess.Leg(100)
	if leg.StartT != sess.Stop(1).EndT || leg.EndT != sess.Stop(2).StartT {
		t.Errorf("no-gap violated: leg [%v,%v], from.EndT %v, to.StartT %v",
			leg.StartT, leg.EndT, sess.Stop(1).EndT, sess.Stop(2).StartT)
	}
	if len(svc.legCalls) != 1 {
		t.Fatalf("leg saves = %d, want 1", len(svc.legCalls))
	}
}

func TestFailedStopSaveRollsBack(t *testing.T) {
	svc := &fakeItineraryService{stopErr: errors.New("boom")}
	var gotErr error
	tl := newTestTimeline(svc, Callbacks{
		OnError: func(err error) { gotErr = err },
	})
	tl.Render(testRoute(), testStops(), testLegs())

	before := *tl.Session().Stop(1)

	tl.BeginStopDrag(1, TargetBody, 100)
	tl.Drag(150)
	tl.EndDrag(150)

	after := tl.Session().Stop(1)
	if after.StartT != before.StartT || after.EndT != before.EndT {
		t.Errorf("bounds not rolled back: [%v,%v] vs [%v,%v]",
			after.StartT, after.EndT, before.StartT, before.EndT)
	}
	if gotErr == nil {
		t.Error("OnError not fired")
	}
}

func TestFailedLegSaveRollsBack(t *testing.T) {
	svc := &fakeItineraryService{legErr: errors.New("boom")}
	var gotErr error
	tl := newTestTimeline(svc, Callbacks{
		OnError: func(err error) { gotErr = err },
	})
	tl.Render(testRoute(), testStops(), testLegs())

	sess := tl.Session()
	fromEnd := sess.Stop(1).EndT
	toStart := sess.Stop(2).StartT
	legStart := sess.Leg(100).StartT
	legEnd := sess.Leg(100).EndT

	if !tl.BeginLegDrag(100, 100) {
		t.Fatal("BeginLegDrag refused")
	}
	tl.Drag(140)
	tl.EndDrag(140)

	// Both neighbour saves succeeded; the leg save failed, so the whole edit
	// must be rolled back to the pre-gesture bounds.
	if sess.Stop(1).EndT != fromEnd || sess.Stop(2).StartT != toStart {
		t.Errorf("neighbour bounds not restored: from.EndT %v (want %v), to.StartT %v (want %v)",
			sess.Stop(1).EndT, fromEnd, sess.Stop(2).StartT, toStart)
	}
	leg := sess.Leg(100)
	if leg.StartT != legStart || leg.EndT != legEnd {
		t.Errorf("leg bounds not restored: [%v,%v], want [%v,%v]",
			leg.StartT, leg.EndT, legStart, legEnd)
	}
	if leg.StartT != sess.Stop(1).EndT || leg.EndT != sess.Stop(2).StartT {
		t.Error("no-gap violated after rollback")
	}
	if gotErr == nil {
		t.Error("OnError not fired")
	}
}

func TestFailedLegNeighbourSaveRollsBack(t *testing.T) {
	svc := &fakeItineraryService{}
	var gotErr error
	tl := newTestTimeline(svc, Callbacks{
		OnError: func(err error) { gotErr = err },
	})
	tl.Render(testRoute(), testStops(), testLegs())

	// The first neighbour save lands, the second fails. The first stop's new
	// boundary is already stored server-side, but the session must still roll
	// back so the next commit re-sends consistent bounds.
	calls := 0
	svc.onStopSave = func() {
		calls++
		if calls == 2 {
			svc.stopErr = errors.New("boom")
		}
	}

	sess := tl.Session()
	fromEnd := sess.Stop(1).EndT
	toStart := sess.Stop(2).StartT
	legStart := sess.Leg(100).StartT
	legEnd := sess.Leg(100).EndT

	if !tl.BeginLegDrag(100, 100) {
		t.Fatal("BeginLegDrag refused")
	}
	tl.Drag(140)
	tl.EndDrag(140)

	if len(svc.legCalls) != 0 {
		t.Errorf("leg save issued after neighbour failure: %d calls", len(svc.legCalls))
	}
	if sess.Stop(1).EndT != fromEnd || sess.Stop(2).StartT != toStart {
		t.Errorf("neighbour bounds not restored: from.EndT %v (want %v), to.StartT %v (want %v)",
			sess.Stop(1).EndT, fromEnd, sess.Stop(2).StartT, toStart)
	}
	leg := sess.Leg(100)
	if leg.StartT != legStart || leg.EndT != legEnd {
		t.Errorf("leg bounds not restored: [%v,%v], want [%v,%v]",
			leg.StartT, leg.EndT, legStart, legEnd)
	}
	if leg.StartT != sess.Stop(1).EndT || leg.EndT != sess.Stop(2).StartT {
		t.Error("no-gap violated after rollback")
	}
	if gotErr == nil {
		t.Error("OnError not fired")
	}
}

func TestLegCommitFinalSaveResponseWins(t *testing.T) {
	// The first neighbour save reports a conflict; the second, issued after
	// the first boundary landed, reports none. Only the final response
	// reflects current server state, so no conflict may remain flagged.
	svc := &fakeItineraryService{
		conflictQueue: []*domain.ConflictInfo{
			{
				HasConflict: true,
				ConflictingStops: []domain.ConflictingStop{
					{RoutePlaceID: 1, PlaceName: "Salt Lake City", CurrentOrderIndex: 0, NewTimePosition: 1},
				},
			},
			nil,
		},
	}
	tl := newTestTimeline(svc, Callbacks{})
	tl.Render(testRoute(), testStops(), testLegs())

	if !tl.BeginLegDrag(100, 100) {
		t.Fatal("BeginLegDrag refused")
	}
	tl.Drag(140)
	tl.EndDrag(140)

	if got := tl.ConflictMarkers(); len(got) != 0 {
		t.Errorf("stale conflict markers remain: %v", got)
	}
	if _, ok := tl.ConflictBanner(); ok {
		t.Error("stale conflict banner remains")
	}
}

func TestStaleRouteResponseIgnored(t *testing.T) {
	svc := &fakeItineraryService{stopErr: errors.New("late failure")}
	var gotErr error
	tl := newTestTimeline(svc, Callbacks{
		OnError: func(err error) { gotErr = err },
	})
	tl.Render(testRoute(), testStops(), testLegs())

	// The save response arrives after the user switched routes: the session
	// was rebuilt mid-flight, so the failure must be ignored.
	svc.onStopSave = func() {
		tl.Render(domain.Route{RouteID: 2, StartDateTime: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
			testStops(), testLegs())
	}

	tl.BeginStopDrag(1, TargetBody, 100)
	tl.Drag(150)
	tl.EndDrag(150)

	if gotErr != nil {
		t.Errorf("stale response surfaced an error: %v", gotErr)
	}
	if got := tl.Session().RouteID; got != 2 {
		t.Errorf("session route = %d, want the newly loaded 2", got)
	}
}

func TestConflictResponseFlagsAndPrompts(t *testing.T) {
	svc := &fakeItineraryService{
		conflictOnSave: &domain.ConflictInfo{
			HasConflict: true,
			ConflictingStops: []domain.ConflictingStop{
				{RoutePlaceID: 1, PlaceName: "Salt Lake City", CurrentOrderIndex: 0, NewTimePosition: 1},
			},
		},
	}
	var prompt *ReorderPrompt
	tl := newTestTimeline(svc, Callbacks{
		OnPrompt: func(p ReorderPrompt) { prompt = &p },
	})
	tl.Render(testRoute(), testStops(), testLegs())

	tl.BeginStopDrag(1, TargetBody, 100)
	tl.Drag(140)
	tl.EndDrag(140)

	if prompt == nil {
		t.Fatal("no reorder prompt from save response")
	}
	if prompt.RoutePlaceID != 1 || prompt.ToPosition != 1 {
		t.Errorf("prompt = %+v", prompt)
	}
	if len(tl.ConflictMarkers()) != 1 {
		t.Error("conflict marker missing")
	}
	if _, ok := tl.ConflictBanner(); !ok {
		t.Error("conflict banner missing")
	}

	// Resolving reorders on the server and clears the flagged state.
	if err := tl.ResolveConflicts(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(tl.ConflictMarkers()) != 0 {
		t.Error("markers remain after resolve")
	}
}

func TestLoadRebuildsDegenerateLegs(t *testing.T) {
	svc := &fakeItineraryService{
		itinerary: &domain.Itinerary{
			Route: testRoute(),
			Stops: testStops(),
			Legs:  nil, // missing legs trigger a rebuild
		},
	}
	tl := newTestTimeline(svc, Callbacks{})

	if err := tl.Load(context.Background(), 1); err != nil {
		t.Fatalf("load: %v", err)
	}
	if svc.rebuilt != 1 {
		t.Errorf("RebuildLegs calls = %d, want 1", svc.rebuilt)
	}
}

func TestZoomClampsToRange(t *testing.T) {
	tl := newTestTimeline(&fakeItineraryService{}, Callbacks{})

	for i := 0; i < 20; i++ {
		tl.ZoomIn()
	}
	if z := tl.Zoom(); z != ZoomMax {
		t.Errorf("zoom = %v, want %v", z, ZoomMax)
	}
	for i := 0; i < 30; i++ {
		tl.ZoomOut()
	}
	if z := tl.Zoom(); z != ZoomMin {
		t.Errorf("zoom = %v, want %v", z, ZoomMin)
	}
}

func TestSetActiveStopCentersViewportAndCursor(t *testing.T) {
	svc := &fakeItineraryService{}
	tl := newTestTimeline(svc, Callbacks{})

	stops := []*domain.Stop{{
		RoutePlaceID: 1,
		Type:         domain.StopTypeOvernight,
		PlannedStart: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
	}}
	route := domain.Route{RouteID: 1, StartDateTime: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	tl.Render(route, stops, nil)

	// Stop spans days [2,3] of 3; track is 3 days * 100px; midpoint 2.5 days
	// = 250px; centering a 200px viewport asks for 150px but clamps at the
	// 100px maximum scroll.
	scroll := tl.SetActiveStop(0)
	if scroll != 100 {
		t.Errorf("scroll = %v, want 100", scroll)
	}
	if got := tl.ActiveStop(); got != 1 {
		t.Errorf("active stop = %d, want 1", got)
	}
	if want := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC); !tl.CursorTime().Equal(want) {
		t.Errorf("cursor = %v, want bar midpoint %v", tl.CursorTime(), want)
	}
}

func TestWheelScrollRemapsAndClamps(t *testing.T) {
	svc := &fakeItineraryService{}
	tl := newTestTimeline(svc, Callbacks{})
	tl.Render(testRoute(), testStops(), testLegs())

	// Track: 3 days * 100px = 300px; viewport 200px; max scroll 100px.
	if got := tl.WheelScroll(40); got != 40 {
		t.Errorf("scroll = %v, want 40", got)
	}
	if got := tl.WheelScroll(500); got != 100 {
		t.Errorf("scroll = %v, want clamp at 100", got)
	}
	if got := tl.WheelScroll(-500); got != 0 {
		t.Errorf("scroll = %v, want clamp at 0", got)
	}
}
