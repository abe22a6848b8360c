package overlay

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/1broseidon/areascan/internal/platform"
)

// ErrUnknownSurface reports an event for a surface this session never created.
var ErrUnknownSurface = errors.New("event for unknown surface")

// Surface is the overlay drawn on one output.
type Surface struct {
	ID     platform.SurfaceID
	Output platform.Output
	// Region equals the output bounds in global coordinates.
	Region platform.Rect
	Pixels *image.RGBA

	configured bool
	lastDraw   time.Time
}

// Configured reports whether the surface received its first configure.
func (s *Surface) Configured() bool {
	return s.configured
}

// LastDraw returns the start time of the most recent draw.
func (s *Surface) LastDraw() time.Time {
	return s.lastDraw
}

// SurfaceManager owns every overlay surface of a session. Surfaces live in a
// slice and are looked up through an id→index map.
type SurfaceManager struct {
	surfaces []*Surface
	index    map[platform.SurfaceID]int
}

// NewSurfaceManager creates an empty manager.
func NewSurfaceManager() *SurfaceManager {
	return &SurfaceManager{index: make(map[platform.SurfaceID]int)}
}

// CreateAll creates one overlay surface per output.
func (m *SurfaceManager) CreateAll(backend platform.Backend, outputs []platform.Output) error {
	for _, out := range outputs {
		if out.Bounds.Empty() {
			return fmt.Errorf("%w: output %q has size %dx%d", platform.ErrGeometryMissing, out.Name, out.Bounds.Width, out.Bounds.Height)
		}
		id, err := backend.CreateSurface(out)
		if err != nil {
			return fmt.Errorf("failed to create overlay for output %q: %w", out.Name, err)
		}
		if err := m.Add(id, out); err != nil {
			return err
		}
	}
	return nil
}

// Add registers a surface created for out.
func (m *SurfaceManager) Add(id platform.SurfaceID, out platform.Output) error {
	if _, exists := m.index[id]; exists {
		return fmt.Errorf("surface %d registered twice", id)
	}
	m.index[id] = len(m.surfaces)
	m.surfaces = append(m.surfaces, &Surface{
		ID:     id,
		Output: out,
		Region: out.Bounds,
		Pixels: image.NewRGBA(image.Rect(0, 0, out.Bounds.Width, out.Bounds.Height)),
	})
	return nil
}

// Lookup returns the surface with the given id.
func (m *SurfaceManager) Lookup(id platform.SurfaceID) (*Surface, error) {
	i, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSurface, id)
	}
	return m.surfaces[i], nil
}

// Len returns the number of surfaces.
func (m *SurfaceManager) Len() int {
	return len(m.surfaces)
}

// All returns the surfaces in creation order.
func (m *SurfaceManager) All() []*Surface {
	return m.surfaces
}

// ToGlobal converts surface-local float coordinates to a global point.
// Coordinates are floored before the region offset is added.
func (s *Surface) ToGlobal(x, y float64) platform.Point {
	local := platform.Point{X: int(math.Floor(x)), Y: int(math.Floor(y))}
	return local.Add(s.Region.Origin())
}
