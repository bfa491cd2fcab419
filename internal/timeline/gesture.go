package timeline

import (
	"math"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// DragThresholdPx separates a genuine drag from a click. A pointer-up before
// the threshold is crossed is a selection, not a commit.
const DragThresholdPx = 4.0

// HandleTarget identifies which part of a bar received the pointer-down.
type HandleTarget int

const (
	TargetBody HandleTarget = iota
	TargetStartHandle
	TargetEndHandle
)

type gestureMode int

const (
	modeIdle gestureMode = iota
	modeMoving
	modeResizingStart
	modeResizingEnd
	modeMovingLeg
)

// CommitKind describes what a finished gesture asks the orchestrator to do.
type CommitKind int

const (
	// CommitNone: the pointer moved but settled back on the original bounds,
	// or the gesture was already finished. Nothing to save.
	CommitNone CommitKind = iota
	// CommitSelect: the drag threshold was never crossed; treat as a click.
	CommitSelect
	CommitStop
	CommitLeg
)

// Commit is the result of a completed gesture.
type Commit struct {
	Kind CommitKind
	Stop *domain.Stop
	Leg  *domain.Leg
	// From/To are the leg's neighbour stops, set for CommitLeg. Their
	// adjacent bounds were rewritten live during the drag and must be saved
	// before the leg itself.
	From *domain.Stop
	To   *domain.Stop
}

// Gesture is the per-bar pointer state machine: idle until pointer-down,
// then moving or resizing until pointer-up. It mutates the referenced
// Stop/Leg records in place, frame by frame, and never replaces them.
type Gesture struct {
	mode gestureMode

	stop *domain.Stop
	leg  *domain.Leg
	from *domain.Stop
	to   *domain.Stop

	// Pre-gesture bounds, for delta math and rollback snapshots.
	originStart float64
	originEnd   float64
	fromOrigEnd float64
	toOrigStart float64

	downXPx   float64
	totalDays float64
	// trackWidthPx is the full rendered width of the day axis; the
	// pixel-to-day ratio is totalDays / trackWidthPx.
	trackWidthPx float64

	moved bool
}

// BeginStop enters the state machine for a stop bar. The mode is selected by
// the pointer-down target: a dedicated handle resizes, the body moves.
func BeginStop(stop *domain.Stop, target HandleTarget, xPx, totalDays, trackWidthPx float64) *Gesture {
	mode := modeMoving
	switch target {
	case TargetStartHandle:
		mode = modeResizingStart
	case TargetEndHandle:
		mode = modeResizingEnd
	}

	return &Gesture{
		mode:         mode,
		stop:         stop,
		originStart:  stop.StartT,
		originEnd:    stop.EndT,
		downXPx:      xPx,
		totalDays:    totalDays,
		trackWidthPx: trackWidthPx,
	}
}

// BeginLeg enters the state machine for a leg bar. Legs only move; their
// duration is owned by the routing service.
func BeginLeg(leg *domain.Leg, from, to *domain.Stop, xPx, totalDays, trackWidthPx float64) *Gesture {
	return &Gesture{
		mode:         modeMovingLeg,
		leg:          leg,
		from:         from,
		to:           to,
		originStart:  leg.StartT,
		originEnd:    leg.EndT,
		fromOrigEnd:  from.EndT,
		toOrigStart:  to.StartT,
		downXPx:      xPx,
		totalDays:    totalDays,
		trackWidthPx: trackWidthPx,
	}
}

// deltaT converts pointer travel in pixels to float days.
func (g *Gesture) deltaT(xPx float64) float64 {
	if g.trackWidthPx <= 0 {
		return 0
	}
	return (xPx - g.downXPx) * g.totalDays / g.trackWidthPx
}

// Move applies one pointer-move frame. Validation violations (minimum
// duration, boundary clamps) are corrected silently; they are never errors.
func (g *Gesture) Move(xPx float64) {
	if g.mode == modeIdle {
		return
	}

	if math.Abs(xPx-g.downXPx) >= DragThresholdPx {
		g.moved = true
	}
	if !g.moved {
		return
	}

	dt := g.deltaT(xPx)

	switch g.mode {
	case modeResizingStart:
		g.stop.StartT = clamp(g.originStart+dt, 0, g.stop.EndT-MinDuration)

	case modeResizingEnd:
		g.stop.EndT = clamp(g.originEnd+dt, g.stop.StartT+MinDuration, g.totalDays)

	case modeMoving:
		dur := g.originEnd - g.originStart
		start := clamp(g.originStart+dt, 0, g.totalDays-dur)
		g.stop.StartT = start
		g.stop.EndT = start + dur

	case modeMovingLeg:
		g.moveLeg(dt)
	}
}

// moveLeg shifts the leg at fixed duration and rewrites both neighbours'
// adjacent boundary every frame, keeping the no-gap invariant live. The
// margin keeps each neighbour at minimum duration, so the leg can never be
// dragged outside the two stops it connects.
func (g *Gesture) moveLeg(dt float64) {
	dur := g.originEnd - g.originStart

	lo := g.from.StartT + MinDuration
	hi := g.to.EndT - MinDuration - dur
	if hi < lo {
		// Window too tight to move at all; hold the original position.
		return
	}

	start := clamp(g.originStart+dt, lo, hi)
	g.leg.StartT = start
	g.leg.EndT = start + dur
	g.from.EndT = g.leg.StartT
	g.to.StartT = g.leg.EndT
}

// End exits the state machine on pointer-up and reports what to commit.
func (g *Gesture) End(xPx float64) Commit {
	if g.mode == modeIdle {
		return Commit{Kind: CommitNone}
	}

	g.Move(xPx)
	mode := g.mode
	g.mode = modeIdle

	if !g.moved {
		return Commit{Kind: CommitSelect, Stop: g.stop, Leg: g.leg}
	}

	if mode == modeMovingLeg {
		if g.leg.StartT == g.originStart && g.leg.EndT == g.originEnd {
			return Commit{Kind: CommitNone}
		}
		return Commit{Kind: CommitLeg, Leg: g.leg, From: g.from, To: g.to}
	}

	// A drag that settled back exactly on its original bounds commits
	// nothing, distinguishing it from a no-op failure.
	if g.stop.StartT == g.originStart && g.stop.EndT == g.originEnd {
		return Commit{Kind: CommitNone}
	}
	return Commit{Kind: CommitStop, Stop: g.stop}
}

// Snapshot returns the pre-gesture bounds for rollback after a failed save.
func (g *Gesture) Snapshot() Snapshot {
	return Snapshot{
		Start:   g.originStart,
		End:     g.originEnd,
		FromEnd: g.fromOrigEnd,
		ToStart: g.toOrigStart,
	}
}

// Snapshot captures interval bounds before a gesture mutated them.
type Snapshot struct {
	Start   float64
	End     float64
	FromEnd float64
	ToStart float64
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
