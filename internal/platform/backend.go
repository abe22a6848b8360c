package platform

import "errors"

// SurfaceID is a platform-neutral overlay surface identifier.
type SurfaceID uint32

// Point is a position in the global desktop coordinate space shared by all outputs.
type Point struct {
	X int
	Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Origin returns the top-left corner of r.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Empty reports whether r has zero area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Output describes a connected display and its logical geometry in global space.
type Output struct {
	Name   string
	Bounds Rect
}

// Buffer is a shared-memory pixel buffer acquired for a single frame.
//
// Data is laid out row-major as little-endian ARGB8888 with premultiplied
// alpha, Stride bytes per row.
type Buffer interface {
	Data() []byte
	Stride() int
	Width() int
	Height() int
}

// Backend abstracts the windowing-protocol connection used by the overlay.
type Backend interface {
	// Outputs performs a round trip and returns every connected output.
	Outputs() ([]Output, error)
	// CreateSurface creates and maps a full-screen overlay covering out.
	CreateSurface(out Output) (SurfaceID, error)
	// NextEvent blocks until the next event relevant to the overlay arrives.
	NextEvent() (Event, error)
	// AcquireBuffer returns a fresh shared-memory buffer for one frame.
	AcquireBuffer(id SurfaceID, width, height int) (Buffer, error)
	// Present damages the whole surface, attaches buf, requests a frame
	// callback and commits.
	Present(id SurfaceID, buf Buffer) error
	// Close tears down every surface and the connection.
	Close()
}

var (
	// ErrSetup reports that the windowing connection could not be prepared.
	ErrSetup = errors.New("overlay setup failed")
	// ErrGeometryMissing reports an output without usable logical geometry.
	ErrGeometryMissing = errors.New("output geometry missing")
	// ErrBufferCreation reports a shared-memory buffer allocation failure.
	ErrBufferCreation = errors.New("buffer creation failed")
)
