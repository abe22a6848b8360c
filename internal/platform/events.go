package platform

import "time"

// ButtonMask is a bitmask of pointer buttons.
type ButtonMask uint32

const (
	ButtonPrimary ButtonMask = 1 << iota
	ButtonMiddle
	ButtonSecondary
)

// Has reports whether every bit of b is set in m.
func (m ButtonMask) Has(b ButtonMask) bool {
	return m&b == b && b != 0
}

// KeysymEscape is the X keysym for the Escape key.
const KeysymEscape uint32 = 0xff1b

// Event is one message delivered by a Backend. The concrete types below are
// the only implementations.
type Event interface {
	surface() SurfaceID
}

// ConfigureEvent is delivered once a surface is ready for its first draw.
type ConfigureEvent struct {
	Surface SurfaceID
	Width   int
	Height  int
}

// PointerMotionEvent reports pointer movement in surface-local coordinates.
type PointerMotionEvent struct {
	Surface SurfaceID
	X, Y    float64
}

// PointerButtonEvent reports a button press or release in surface-local coordinates.
type PointerButtonEvent struct {
	Surface SurfaceID
	X, Y    float64
	Buttons ButtonMask
	Pressed bool
}

// KeyEvent reports a key press.
type KeyEvent struct {
	Surface SurfaceID
	Keysym  uint32
}

// FrameDoneEvent reports that the previous buffer of a surface was consumed
// and the next frame may be drawn.
type FrameDoneEvent struct {
	Surface SurfaceID
	Time    time.Time
}

// ClosedEvent reports that a surface was destroyed outside our control.
type ClosedEvent struct {
	Surface SurfaceID
}

func (e ConfigureEvent) surface() SurfaceID     { return e.Surface }
func (e PointerMotionEvent) surface() SurfaceID { return e.Surface }
func (e PointerButtonEvent) surface() SurfaceID { return e.Surface }
func (e KeyEvent) surface() SurfaceID           { return e.Surface }
func (e FrameDoneEvent) surface() SurfaceID     { return e.Surface }
func (e ClosedEvent) surface() SurfaceID        { return e.Surface }

// EventSurface returns the surface an event was delivered to.
func EventSurface(ev Event) SurfaceID {
	return ev.surface()
}
