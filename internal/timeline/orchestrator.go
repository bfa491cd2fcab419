package timeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

// Zoom affects only the pixel width used to render one day, never the stored
// coordinates.
const (
	ZoomMin  = 0.5
	ZoomMax  = 3.0
	ZoomStep = 0.25

	defaultDayWidthPx      = 120.0
	defaultViewportWidthPx = 960.0
)

// Callbacks are supplied by the application shell at construction. Any nil
// callback is skipped.
type Callbacks struct {
	// OnSelect fires for a click (a gesture that never crossed the drag
	// threshold) on a stop bar.
	OnSelect func(routePlaceID int64)
	// OnLegSelect fires for a click on a leg bar.
	OnLegSelect func(legID int64)
	// OnScheduleSaved fires after a commit persisted successfully.
	OnScheduleSaved func(routePlaceID int64)
	// OnError surfaces failed saves and failed conflict resolution.
	OnError func(err error)
	// OnPrompt delivers the single-stop reorder question from a save
	// response carrying conflict info.
	OnPrompt func(p ReorderPrompt)
	// OnNotice delivers transient confirmations.
	OnNotice func(msg string)
}

// Metrics is the optional instrumentation hook; see internal/metrics.
type Metrics interface {
	SaveIssued()
	SaveFailed()
	ConflictFlagged(stops int)
	ConflictResolved()
	LayoutObserve(d time.Duration)
}

type Config struct {
	Service   ports.ItineraryService
	Callbacks Callbacks
	Metrics   Metrics

	// DayWidthPx is the rendered width of one day at zoom 1.0.
	DayWidthPx      float64
	ViewportWidthPx float64

	// SyncCommits runs the save pipeline inline instead of on a goroutine.
	// Used by tests that need deterministic completion.
	SyncCommits bool
}

// Timeline orchestrates the itinerary editor: it owns the session arena,
// re-runs layout after every mutation, drives gestures, converts committed
// edits back to absolute time, and reconciles save responses through the
// conflict manager.
//
// Gesture handling and layout are single-threaded from the caller's point of
// view; saves complete asynchronously and re-enter under the internal lock.
type Timeline struct {
	mu  sync.Mutex
	cfg Config

	session   *Session
	layout    Layout
	conflicts *ConflictManager
	gesture   *Gesture

	zoom       float64
	cursorT    float64
	scrollXPx  float64
	activeStop int64
}

func New(cfg Config) *Timeline {
	if cfg.DayWidthPx <= 0 {
		cfg.DayWidthPx = defaultDayWidthPx
	}
	if cfg.ViewportWidthPx <= 0 {
		cfg.ViewportWidthPx = defaultViewportWidthPx
	}

	t := &Timeline{
		cfg:        cfg,
		zoom:       1.0,
		activeStop: -1,
	}
	t.conflicts = NewConflictManager(func(ctx context.Context) error {
		sess := t.session
		if sess == nil {
			return fmt.Errorf("no route loaded")
		}
		return cfg.Service.ResolveConflictByReorder(ctx, sess.RouteID)
	})
	return t
}

// Load fetches the route's itinerary (with conflict info) and renders it.
// Missing or degenerate legs are rebuilt once before rendering, so a freshly
// created route shows travel segments on first open.
func (t *Timeline) Load(ctx context.Context, routeID int64) error {
	itin, info, err := t.cfg.Service.GetItineraryWithConflicts(ctx, routeID)
	if err != nil {
		return fmt.Errorf("load itinerary: %w", err)
	}

	if len(itin.Stops) > 1 && legsDegenerate(itin.Stops, itin.Legs) {
		if err := t.cfg.Service.RebuildLegs(ctx, routeID); err != nil {
			return fmt.Errorf("load itinerary: rebuild legs: %w", err)
		}
		itin, info, err = t.cfg.Service.GetItineraryWithConflicts(ctx, routeID)
		if err != nil {
			return fmt.Errorf("load itinerary: reload after leg rebuild: %w", err)
		}
	}

	t.RenderWithConflicts(itin.Route, itin.Stops, itin.Legs, info)
	return nil
}

// legsDegenerate reports legs that are absent or carry no usable metrics.
func legsDegenerate(stops []*domain.Stop, legs []*domain.Leg) bool {
	if len(legs) < len(stops)-1 {
		return true
	}
	for _, l := range legs {
		if l.DistanceMeters == 0 && l.DurationSeconds == 0 {
			return true
		}
	}
	return false
}

// Render builds a fresh session from itinerary data and lays it out. Any
// previous session is discarded; late save responses for it are ignored.
func (t *Timeline) Render(route domain.Route, stops []*domain.Stop, legs []*domain.Leg) {
	t.RenderWithConflicts(route, stops, legs, domain.ConflictInfo{})
}

func (t *Timeline) RenderWithConflicts(route domain.Route, stops []*domain.Stop, legs []*domain.Leg, info domain.ConflictInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.session = NewSession(route.RouteID, route.StartDateTime, stops, legs)
	t.gesture = nil
	t.activeStop = -1
	t.relayout()

	t.conflicts.Flag(info)
	if info.HasConflict && t.cfg.Metrics != nil {
		t.cfg.Metrics.ConflictFlagged(len(info.ConflictingStops))
	}
}

// relayout recomputes row assignment; callers hold the lock.
func (t *Timeline) relayout() {
	start := time.Now()
	t.layout = AssignRows(t.session.Stops)
	if t.cfg.Metrics != nil {
		t.cfg.Metrics.LayoutObserve(time.Since(start))
	}
}

// TrackWidthPx is the full rendered width of the day axis at current zoom.
func (t *Timeline) TrackWidthPx() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trackWidthLocked()
}

func (t *Timeline) trackWidthLocked() float64 {
	days := 1.0
	if t.session != nil {
		days = t.session.TotalDays
	}
	return days * t.cfg.DayWidthPx * t.zoom
}

// BeginStopDrag enters a gesture on a stop bar. Returns false when the stop
// is unknown or another gesture is active.
func (t *Timeline) BeginStopDrag(routePlaceID int64, target HandleTarget, xPx float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.gesture != nil {
		return false
	}
	stop := t.session.Stop(routePlaceID)
	if stop == nil {
		return false
	}
	t.gesture = BeginStop(stop, target, xPx, t.session.TotalDays, t.trackWidthLocked())
	return true
}

// BeginLegDrag enters a move-only gesture on a leg bar.
func (t *Timeline) BeginLegDrag(legID int64, xPx float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.gesture != nil {
		return false
	}
	leg := t.session.Leg(legID)
	if leg == nil {
		return false
	}
	from, to := t.session.LegNeighbors(leg)
	if from == nil || to == nil {
		return false
	}
	t.gesture = BeginLeg(leg, from, to, xPx, t.session.TotalDays, t.trackWidthLocked())
	return true
}

// Drag applies a pointer-move frame to the active gesture.
func (t *Timeline) Drag(xPx float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gesture != nil {
		t.gesture.Move(xPx)
	}
}

// EndDrag exits the active gesture. A real drag re-runs layout immediately
// (optimistic) and hands the edit to the persistence bridge; a click fires
// the selection callback instead.
func (t *Timeline) EndDrag(xPx float64) {
	t.mu.Lock()

	if t.gesture == nil {
		t.mu.Unlock()
		return
	}
	commit := t.gesture.End(xPx)
	snap := t.gesture.Snapshot()
	t.gesture = nil
	sess := t.session

	var after func()

	switch commit.Kind {
	case CommitSelect:
		cb := t.cfg.Callbacks
		after = func() {
			if commit.Stop != nil && cb.OnSelect != nil {
				cb.OnSelect(commit.Stop.RoutePlaceID)
			}
			if commit.Leg != nil && cb.OnLegSelect != nil {
				cb.OnLegSelect(commit.Leg.LegID)
			}
		}

	case CommitStop:
		t.relayout()
		after = func() { t.saveStop(sess, commit.Stop, snap) }

	case CommitLeg:
		t.relayout()
		after = func() { t.saveLeg(sess, commit, snap) }
	}

	t.mu.Unlock()

	if after == nil {
		return
	}
	if t.cfg.SyncCommits {
		after()
	} else {
		go after()
	}
}

// stopUpdate converts a stop's coordinate-space bounds back to absolute time.
// Both bounds are locked once manually edited.
func stopUpdate(sess *Session, s *domain.Stop) ports.StopScheduleUpdate {
	upd := ports.StopScheduleUpdate{
		StopType:      s.Type,
		PlannedStart:  ToTimestamp(s.StartT, sess.StartUTC),
		PlannedEnd:    ToTimestamp(s.EndT, sess.StartUTC),
		IsStartLocked: true,
		IsEndLocked:   true,
	}
	if s.StayNights > 0 {
		n := s.StayNights
		upd.StayNights = &n
	}
	if s.StayDurationMinutes > 0 {
		m := s.StayDurationMinutes
		upd.StayDurationMinutes = &m
	}
	return upd
}

// saveStop is the persistence bridge for a stop commit. There is no
// cancellation of an in-flight save; a response arriving after a route
// switch is ignored.
func (t *Timeline) saveStop(sess *Session, stop *domain.Stop, snap Snapshot) {
	ctx := context.Background()
	if t.cfg.Metrics != nil {
		t.cfg.Metrics.SaveIssued()
	}

	info, err := t.cfg.Service.UpdateStopSchedule(ctx, sess.RouteID, stop.RoutePlaceID, stopUpdate(sess, stop))

	t.mu.Lock()
	if t.session != sess {
		t.mu.Unlock()
		return
	}

	if err != nil {
		// Explicit rollback of the optimistic edit, then re-layout.
		stop.StartT = snap.Start
		stop.EndT = snap.End
		t.relayout()
		t.mu.Unlock()

		if t.cfg.Metrics != nil {
			t.cfg.Metrics.SaveFailed()
		}
		log.Printf("save stop schedule failed: route_id=%d route_place_id=%d err=%v", sess.RouteID, stop.RoutePlaceID, err)
		if t.cfg.Callbacks.OnError != nil {
			t.cfg.Callbacks.OnError(fmt.Errorf("save stop schedule: %w", err))
		}
		return
	}

	stop.StartLocked = true
	stop.EndLocked = true
	stop.PlannedStart = ToTimestamp(stop.StartT, sess.StartUTC)
	stop.PlannedEnd = ToTimestamp(stop.EndT, sess.StartUTC)
	t.applyConflictInfoLocked(info)
	t.mu.Unlock()

	t.notifySaved(stop.RoutePlaceID, info)
}

// saveLeg persists a leg drag: both neighbour stops first, then the leg
// itself, so stored stop boundaries stay consistent even if the leg save
// fails mid-way.
func (t *Timeline) saveLeg(sess *Session, commit Commit, snap Snapshot) {
	ctx := context.Background()
	if t.cfg.Metrics != nil {
		t.cfg.Metrics.SaveIssued()
	}

	rollback := func() {
		commit.From.EndT = snap.FromEnd
		commit.To.StartT = snap.ToStart
		commit.Leg.StartT = snap.Start
		commit.Leg.EndT = snap.End
		t.relayout()
	}

	// Each save response recomputes the order comparison server-side, so only
	// the final response reflects current state; a nil from the last neighbour
	// save means any earlier conflict has cleared.
	var lastInfo *domain.ConflictInfo
	for _, s := range []*domain.Stop{commit.From, commit.To} {
		info, err := t.cfg.Service.UpdateStopSchedule(ctx, sess.RouteID, s.RoutePlaceID, stopUpdate(sess, s))
		if err != nil {
			t.failLeg(sess, rollback, fmt.Errorf("save leg neighbour %d: %w", s.RoutePlaceID, err))
			return
		}
		lastInfo = info
	}

	upd := ports.LegScheduleUpdate{
		PlannedStart: ToTimestamp(commit.Leg.StartT, sess.StartUTC),
		PlannedEnd:   ToTimestamp(commit.Leg.EndT, sess.StartUTC),
	}
	if err := t.cfg.Service.UpdateLegSchedule(ctx, sess.RouteID, commit.Leg.LegID, upd); err != nil {
		t.failLeg(sess, rollback, fmt.Errorf("save leg %d: %w", commit.Leg.LegID, err))
		return
	}

	t.mu.Lock()
	if t.session != sess {
		t.mu.Unlock()
		return
	}
	commit.From.EndLocked = true
	commit.To.StartLocked = true
	commit.Leg.PlannedStart = upd.PlannedStart
	commit.Leg.PlannedEnd = upd.PlannedEnd
	t.applyConflictInfoLocked(lastInfo)
	t.mu.Unlock()

	t.notifySaved(commit.From.RoutePlaceID, lastInfo)
	if cb := t.cfg.Callbacks.OnScheduleSaved; cb != nil {
		cb(commit.To.RoutePlaceID)
	}
}

func (t *Timeline) failLeg(sess *Session, rollback func(), err error) {
	t.mu.Lock()
	if t.session != sess {
		t.mu.Unlock()
		return
	}
	rollback()
	t.mu.Unlock()

	if t.cfg.Metrics != nil {
		t.cfg.Metrics.SaveFailed()
	}
	log.Printf("save leg schedule failed: route_id=%d err=%v", sess.RouteID, err)
	if t.cfg.Callbacks.OnError != nil {
		t.cfg.Callbacks.OnError(err)
	}
}

func (t *Timeline) applyConflictInfoLocked(info *domain.ConflictInfo) {
	if info == nil {
		t.conflicts.Clear()
		return
	}
	t.conflicts.Flag(*info)
	if info.HasConflict && t.cfg.Metrics != nil {
		t.cfg.Metrics.ConflictFlagged(len(info.ConflictingStops))
	}
}

func (t *Timeline) notifySaved(routePlaceID int64, info *domain.ConflictInfo) {
	if cb := t.cfg.Callbacks.OnScheduleSaved; cb != nil {
		cb(routePlaceID)
	}
	if info == nil || !info.HasConflict {
		return
	}
	if t.cfg.Callbacks.OnPrompt != nil {
		if p, ok := PromptFor(*info, routePlaceID); ok {
			t.cfg.Callbacks.OnPrompt(p)
		}
	}
}

// ResolveConflicts runs the "reorder route to match timeline" action. On
// success the flagged state clears and a confirmation notice fires; the shell
// is expected to reload the itinerary for the new order. On failure the
// flagged state persists.
func (t *Timeline) ResolveConflicts(ctx context.Context) error {
	t.mu.Lock()
	err := t.conflicts.Resolve(ctx)
	t.mu.Unlock()

	if err != nil {
		if t.cfg.Callbacks.OnError != nil {
			t.cfg.Callbacks.OnError(err)
		}
		return err
	}
	if t.cfg.Metrics != nil {
		t.cfg.Metrics.ConflictResolved()
	}
	if t.cfg.Callbacks.OnNotice != nil {
		t.cfg.Callbacks.OnNotice("Route reordered to match the timeline")
	}
	return nil
}

// DismissConflicts hides the banner. Markers and the server-side
// disagreement remain; dismissal is cosmetic, not a resolution.
func (t *Timeline) DismissConflicts() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conflicts.Dismiss()
}

func (t *Timeline) ConflictMarkers() []Marker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conflicts.Markers()
}

func (t *Timeline) ConflictBanner() (Banner, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conflicts.Banner()
}

func (t *Timeline) ZoomIn() float64 { return t.setZoom(ZoomStep) }

func (t *Timeline) ZoomOut() float64 { return t.setZoom(-ZoomStep) }

func (t *Timeline) setZoom(step float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	z := t.zoom + step
	if z < ZoomMin {
		z = ZoomMin
	}
	if z > ZoomMax {
		z = ZoomMax
	}
	t.zoom = z
	return z
}

func (t *Timeline) Zoom() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zoom
}

// MoveCursor maps a pointer position on the track to the scrub cursor.
func (t *Timeline) MoveCursor(xPx float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return
	}
	w := t.trackWidthLocked()
	if w <= 0 {
		return
	}
	t.cursorT = clamp(xPx/w*t.session.TotalDays, 0, t.session.TotalDays)
}

// CursorTime returns the cursor position as absolute time.
func (t *Timeline) CursorTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	anchor := time.Time{}
	if t.session != nil {
		anchor = t.session.StartUTC
	}
	return ToTimestamp(t.cursorT, anchor)
}

// CursorLabel formats the cursor as calendar date plus clock time.
func (t *Timeline) CursorLabel() string {
	return t.CursorTime().Format("Mon, Jan 2 15:04")
}

// WheelScroll remaps vertical wheel movement to horizontal scrolling and
// returns the new scroll offset.
func (t *Timeline) WheelScroll(deltaYPx float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	max := t.trackWidthLocked() - t.cfg.ViewportWidthPx
	if max < 0 {
		max = 0
	}
	t.scrollXPx = clamp(t.scrollXPx+deltaYPx, 0, max)
	return t.scrollXPx
}

// SetActiveStop highlights the stop at the given route-order index, moves the
// cursor to the bar's midpoint, and recenters the viewport on it. Returns the
// resulting scroll offset.
func (t *Timeline) SetActiveStop(index int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || index < 0 || index >= len(t.session.Stops) {
		return t.scrollXPx
	}
	s := t.session.Stops[index]
	t.activeStop = s.RoutePlaceID

	mid := (s.StartT + s.EndT) / 2
	t.cursorT = mid

	w := t.trackWidthLocked()
	midPx := mid / t.session.TotalDays * w
	max := w - t.cfg.ViewportWidthPx
	if max < 0 {
		max = 0
	}
	t.scrollXPx = clamp(midPx-t.cfg.ViewportWidthPx/2, 0, max)
	return t.scrollXPx
}

// ActiveStop returns the highlighted stop's routePlaceID, or -1.
func (t *Timeline) ActiveStop() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeStop
}

// Layout returns the current row assignment.
func (t *Timeline) Layout() Layout {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layout
}

// Height returns the pixel height of the timeline container.
func (t *Timeline) Height() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layout.Height()
}

// Session exposes the current arena for rendering. Callers must treat the
// records as read-only outside a gesture.
func (t *Timeline) Session() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}
