package selection

import (
	"errors"
	"fmt"

	"github.com/1broseidon/areascan/internal/platform"
)

var (
	// ErrNoSelection is returned when a session ends without a completed drag.
	ErrNoSelection = errors.New("no selection")
	// ErrCancelled is returned when the user cancelled the session.
	ErrCancelled = fmt.Errorf("%w: cancelled", ErrNoSelection)
)

// Selection is the single drag rectangle of a session, in global coordinates.
type Selection struct {
	anchor *platform.Point
	cursor *platform.Point
	active bool
	frozen bool
}

// Begin starts a new drag at p, discarding any previous value.
func (s *Selection) Begin(p platform.Point) {
	if s.frozen {
		return
	}
	anchor, cursor := p, p
	s.anchor = &anchor
	s.cursor = &cursor
	s.active = true
}

// Update moves the cursor corner while a drag is active.
func (s *Selection) Update(p platform.Point) {
	if !s.active {
		return
	}
	*s.cursor = p
}

// End moves the cursor corner to p and freezes the rectangle.
func (s *Selection) End(p platform.Point) {
	if !s.active {
		return
	}
	*s.cursor = p
	s.active = false
	s.frozen = true
}

// Active reports whether a drag is in progress.
func (s *Selection) Active() bool {
	return s.active
}

// HasValue reports whether Begin was ever called.
func (s *Selection) HasValue() bool {
	return s.anchor != nil
}

// Anchor returns the corner where the drag started.
func (s *Selection) Anchor() (platform.Point, bool) {
	if s.anchor == nil {
		return platform.Point{}, false
	}
	return *s.anchor, true
}

// Rect returns the axis-aligned bounding box of the anchor and cursor.
// Zero-area rectangles are valid.
func (s *Selection) Rect() (platform.Rect, bool) {
	if s.anchor == nil || s.cursor == nil {
		return platform.Rect{}, false
	}
	return Normalize(*s.anchor, *s.cursor), true
}

// Normalize returns the rectangle spanned by two corners in any order.
func Normalize(a, b platform.Point) platform.Rect {
	return platform.Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(a.X - b.X),
		Height: abs(a.Y - b.Y),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
