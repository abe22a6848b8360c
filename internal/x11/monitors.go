package x11

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil/xinerama"
)

// ErrGeometry reports a monitor whose position or size could not be read.
var ErrGeometry = errors.New("monitor geometry unavailable")

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors returns every connected, enabled monitor ordered left to
// right, then top to bottom. RandR is preferred; without it the Xinerama
// heads are used.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	var (
		monitors []Monitor
		err      error
	)
	if c.HasRandR {
		monitors, err = c.randrMonitors()
	} else {
		monitors, err = c.xineramaMonitors()
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(monitors, func(i, j int) bool {
		if monitors[i].X != monitors[j].X {
			return monitors[i].X < monitors[j].X
		}
		return monitors[i].Y < monitors[j].Y
	})
	for i := range monitors {
		monitors[i].ID = i
	}
	return monitors, nil
}

func (c *Connection) randrMonitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()

	resources, err := randr.GetScreenResourcesCurrent(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	seen := make(map[randr.Crtc]bool)

	for _, output := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("%w: output %d: %v", ErrGeometry, output, err)
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		// Mirrored outputs share a CRTC and therefore the same region.
		if seen[info.Crtc] {
			continue
		}
		seen[info.Crtc] = true

		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("%w: output %q: %v", ErrGeometry, string(info.Name), err)
		}
		if crtc.Width == 0 || crtc.Height == 0 {
			return nil, fmt.Errorf("%w: output %q has no size", ErrGeometry, string(info.Name))
		}

		monitors = append(monitors, Monitor{
			Name:   string(info.Name),
			X:      int(crtc.X),
			Y:      int(crtc.Y),
			Width:  int(crtc.Width),
			Height: int(crtc.Height),
		})
	}

	if len(monitors) == 0 {
		// Some nested servers (Xvfb, Xephyr) report no RandR outputs.
		return c.xineramaMonitors()
	}
	return monitors, nil
}

func (c *Connection) xineramaMonitors() ([]Monitor, error) {
	var heads xinerama.Heads
	if c.XUtil.ExtInitialized("XINERAMA") {
		heads, _ = xinerama.PhysicalHeads(c.XUtil)
	}
	if len(heads) == 0 {
		screen := c.XUtil.Screen()
		return []Monitor{{
			Name:   "screen0",
			Width:  int(screen.WidthInPixels),
			Height: int(screen.HeightInPixels),
		}}, nil
	}

	monitors := make([]Monitor, 0, len(heads))
	for i, head := range heads {
		monitors = append(monitors, Monitor{
			Name:   fmt.Sprintf("head%d", i),
			X:      head.X(),
			Y:      head.Y(),
			Width:  head.Width(),
			Height: head.Height(),
		})
	}
	return monitors, nil
}
