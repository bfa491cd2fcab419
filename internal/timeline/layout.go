package timeline

import (
	"math"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// Row heights in pixels at zoom 1.0.
const (
	RowHeight    = 36.0
	LegRowHeight = 18.0
)

// Layout is a pure function of the current interval state: a row index per
// bar such that no two bars on the same row overlap at day granularity.
type Layout struct {
	// StopRows maps routePlaceID to its assigned row, 0 at the top.
	StopRows map[int64]int

	// LegRow is the single dedicated row below all stop rows. Legs never
	// share a row with each other or with stops, so the touching boundaries
	// created by the no-gap invariant cannot merge a leg into a stop's row.
	LegRow int

	StopRowCount int
}

// dayBuckets returns the inclusive day-bucket range covered by an interval.
// Overlap is tested on buckets, not continuous time: two stops that merely
// touch at a day boundary may still collide visually.
func dayBuckets(startT, endT float64) (lo, hi int) {
	lo = int(math.Floor(startT)) + 1
	hi = int(math.Ceil(endT))
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// AssignRows lays out stops with a greedy first-fit scan in input order.
// The coloring is not guaranteed minimal, but it is deterministic and stable
// under the input order, so re-layout after a drag never jitters unrelated
// bars.
func AssignRows(stops []*domain.Stop) Layout {
	type rowSet map[int]struct{}
	var rows []rowSet

	assign := make(map[int64]int, len(stops))

	for _, s := range stops {
		lo, hi := dayBuckets(s.StartT, s.EndT)

		placed := -1
		for ri, occupied := range rows {
			free := true
			for d := lo; d <= hi; d++ {
				if _, taken := occupied[d]; taken {
					free = false
					break
				}
			}
			if free {
				placed = ri
				break
			}
		}

		if placed == -1 {
			rows = append(rows, make(rowSet))
			placed = len(rows) - 1
		}

		for d := lo; d <= hi; d++ {
			rows[placed][d] = struct{}{}
		}
		assign[s.RoutePlaceID] = placed
	}

	return Layout{
		StopRows:     assign,
		LegRow:       len(rows),
		StopRowCount: len(rows),
	}
}

// Height returns the pixel height of the timeline container for this layout.
func (l Layout) Height() float64 {
	rows := l.StopRowCount
	if rows < 1 {
		rows = 1
	}
	return float64(rows)*RowHeight + LegRowHeight
}
