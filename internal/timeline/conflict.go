package timeline

import (
	"context"
	"fmt"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/domain"
)

// ConflictState tracks the conflict lifecycle:
// clear -> flagged -> resolved | dismissed -> clear.
type ConflictState int

const (
	ConflictClear ConflictState = iota
	ConflictFlagged
)

// Marker is the visual flag attached to one conflicting stop bar.
type Marker struct {
	RoutePlaceID int64
	Tooltip      string
}

// Banner summarises the current conflict with its two actions
// ("Reorder Route" / dismiss).
type Banner struct {
	Text string
}

// ReorderPrompt is the synchronous single-stop variant fired from a save
// response: "this time change would move stop X from position N to M".
// Declining keeps the new time but leaves the order as-is; time and order may
// diverge until explicitly reconciled.
type ReorderPrompt struct {
	RoutePlaceID int64
	PlaceName    string
	FromPosition int
	ToPosition   int
}

func (p ReorderPrompt) Question() string {
	return fmt.Sprintf(
		"This time change would move %s from position %d to position %d. Reorder the route now?",
		p.PlaceName, p.FromPosition+1, p.ToPosition+1,
	)
}

// ConflictManager drives markers, the dismissible banner, and the reorder
// action whenever the server reports that time-sorted stop order disagrees
// with route order.
type ConflictManager struct {
	state   ConflictState
	info    domain.ConflictInfo
	banner  bool
	reorder func(ctx context.Context) error
}

// NewConflictManager wires the externally supplied "reorder route to match
// timeline order" operation.
func NewConflictManager(reorder func(ctx context.Context) error) *ConflictManager {
	return &ConflictManager{reorder: reorder}
}

func (m *ConflictManager) State() ConflictState { return m.state }

// Flag enters the flagged state from a render call or save response.
// A report without conflicts clears any previous state.
func (m *ConflictManager) Flag(info domain.ConflictInfo) {
	if !info.HasConflict || len(info.ConflictingStops) == 0 {
		m.Clear()
		return
	}
	m.state = ConflictFlagged
	m.info = info
	m.banner = true
}

// Clear drops markers, banner, and state.
func (m *ConflictManager) Clear() {
	m.state = ConflictClear
	m.info = domain.ConflictInfo{}
	m.banner = false
}

// Markers returns one marker per conflicting stop.
func (m *ConflictManager) Markers() []Marker {
	if m.state != ConflictFlagged {
		return nil
	}

	out := make([]Marker, 0, len(m.info.ConflictingStops))
	for _, c := range m.info.ConflictingStops {
		out = append(out, Marker{
			RoutePlaceID: c.RoutePlaceID,
			Tooltip: fmt.Sprintf(
				"%s is at route position %d but its times place it at position %d",
				c.PlaceName, c.CurrentOrderIndex+1, c.NewTimePosition+1,
			),
		})
	}
	return out
}

// Banner returns the summary banner while flagged and not dismissed.
func (m *ConflictManager) Banner() (Banner, bool) {
	if m.state != ConflictFlagged || !m.banner {
		return Banner{}, false
	}

	n := len(m.info.ConflictingStops)
	text := fmt.Sprintf("%d stops have timeline times that don't match the route order", n)
	if n == 1 {
		text = "1 stop has timeline times that don't match the route order"
	}
	return Banner{Text: text}, true
}

// Dismiss hides the banner only. Markers and the underlying server-side
// disagreement remain until the next successful edit or reorder.
func (m *ConflictManager) Dismiss() { m.banner = false }

// Resolve invokes the reorder operation. On success the flagged state clears;
// on failure it persists and the error is returned, not swallowed.
func (m *ConflictManager) Resolve(ctx context.Context) error {
	if m.reorder == nil {
		return fmt.Errorf("resolve conflict: no reorder operation supplied")
	}
	if err := m.reorder(ctx); err != nil {
		return fmt.Errorf("resolve conflict: reorder route: %w", err)
	}
	m.Clear()
	return nil
}

// PromptFor builds the single-stop prompt for a save response that flagged
// the edited stop itself, if it is among the conflicting ones.
func PromptFor(info domain.ConflictInfo, routePlaceID int64) (ReorderPrompt, bool) {
	if !info.HasConflict {
		return ReorderPrompt{}, false
	}
	for _, c := range info.ConflictingStops {
		if c.RoutePlaceID == routePlaceID {
			return ReorderPrompt{
				RoutePlaceID: c.RoutePlaceID,
				PlaceName:    c.PlaceName,
				FromPosition: c.CurrentOrderIndex,
				ToPosition:   c.NewTimePosition,
			}, true
		}
	}
	return ReorderPrompt{}, false
}
