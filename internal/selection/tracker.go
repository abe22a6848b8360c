package selection

import (
	"github.com/1broseidon/areascan/internal/platform"
)

// State is the phase of the selection state machine.
type State int

const (
	// StateIdle means no button is held.
	StateIdle State = iota
	// StatePressed means the button is down but the pointer has not moved yet.
	StatePressed
	// StateDragging means the anchor is fixed and the cursor follows the pointer.
	StateDragging
	// StateCommitted is terminal: the session is over.
	StateCommitted
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateDragging:
		return "dragging"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// PointerState tracks the raw press position separately from the Selection,
// so a drag is only recognized once the pointer leaves the press point.
type PointerState struct {
	PressedAt *platform.Point
	Current   platform.Point
}

// Tracker consumes pointer and keyboard input in global coordinates and
// drives the Selection.
type Tracker struct {
	state     State
	pointer   PointerState
	selection Selection
	threshold int
	cancelled bool
}

// NewTracker creates an idle tracker. A drag starts once the pointer is more
// than threshold pixels (Chebyshev distance) away from the press point; zero
// means any movement.
func NewTracker(threshold int) *Tracker {
	if threshold < 0 {
		threshold = 0
	}
	return &Tracker{threshold: threshold}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Exit reports whether the session should end.
func (t *Tracker) Exit() bool {
	return t.state == StateCommitted
}

// Cancelled reports whether the session ended through the cancel key.
func (t *Tracker) Cancelled() bool {
	return t.cancelled
}

// Pointer returns a copy of the pointer state.
func (t *Tracker) Pointer() PointerState {
	return t.pointer
}

// Selection returns the session selection.
func (t *Tracker) Selection() *Selection {
	return &t.selection
}

// Motion records a pointer move to p.
func (t *Tracker) Motion(p platform.Point) {
	if t.state == StateCommitted {
		return
	}
	t.pointer.Current = p
	t.recognizeDrag(p)
}

// Press records a button press at p.
func (t *Tracker) Press(p platform.Point, buttons platform.ButtonMask) {
	if t.state == StateCommitted {
		return
	}
	t.pointer.Current = p
	if !buttons.Has(platform.ButtonPrimary) || t.state != StateIdle {
		return
	}
	pressed := p
	t.pointer.PressedAt = &pressed
	t.state = StatePressed
}

// Release records a button release at p. Releasing the primary button ends
// the session in every state.
func (t *Tracker) Release(p platform.Point, buttons platform.ButtonMask) {
	if t.state == StateCommitted {
		return
	}
	t.pointer.Current = p
	if !buttons.Has(platform.ButtonPrimary) {
		return
	}
	t.recognizeDrag(p)
	t.selection.End(p)
	t.pointer.PressedAt = nil
	t.state = StateCommitted
}

// Cancel ends the session without finalizing a rectangle.
func (t *Tracker) Cancel() {
	if t.state == StateCommitted {
		return
	}
	t.cancelled = true
	t.state = StateCommitted
}

// Sync applies the latest pointer position to the selection. It is called
// once per frame so redraw rate and input rate stay independent.
func (t *Tracker) Sync() {
	if t.state != StateDragging {
		return
	}
	t.selection.Update(t.pointer.Current)
}

// Result returns the committed rectangle, or ErrNoSelection when no drag
// ever started, or ErrCancelled after a cancel.
func (t *Tracker) Result() (platform.Rect, error) {
	if t.cancelled {
		return platform.Rect{}, ErrCancelled
	}
	if t.state != StateCommitted {
		return platform.Rect{}, ErrNoSelection
	}
	rect, ok := t.selection.Rect()
	if !ok {
		return platform.Rect{}, ErrNoSelection
	}
	return rect, nil
}

func (t *Tracker) recognizeDrag(p platform.Point) {
	if t.state != StatePressed || t.pointer.PressedAt == nil {
		return
	}
	if !t.moved(*t.pointer.PressedAt, p) {
		return
	}
	// The first corner is where the button went down, not where movement
	// was first seen.
	t.selection.Begin(*t.pointer.PressedAt)
	t.state = StateDragging
}

func (t *Tracker) moved(from, to platform.Point) bool {
	dist := max(abs(to.X-from.X), abs(to.Y-from.Y))
	return dist > t.threshold
}
