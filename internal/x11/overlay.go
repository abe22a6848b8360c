package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xcursor"
)

// OverlayEventMask is the set of events selected on overlay windows.
const OverlayEventMask = xproto.EventMaskExposure |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskKeyPress

// OverlayWindow is a borderless, override-redirect 32-bit ARGB window.
type OverlayWindow struct {
	Window   xproto.Window
	GC       xproto.Gcontext
	Colormap xproto.Colormap
	Depth    byte
	Width    int
	Height   int
}

// argbVisual finds a 32-bit TrueColor visual so the overlay can carry alpha.
func (c *Connection) argbVisual() (xproto.Visualid, error) {
	for _, depth := range c.XUtil.Screen().AllowedDepths {
		if depth.Depth != 32 {
			continue
		}
		for _, visual := range depth.Visuals {
			if visual.Class == xproto.VisualClassTrueColor {
				return visual.VisualId, nil
			}
		}
	}
	return 0, fmt.Errorf("no 32-bit TrueColor visual available")
}

// CreateOverlayWindow creates and maps an overlay covering the given root
// rectangle. The window bypasses the window manager and sits above all
// other windows; name becomes WM_NAME and WM_CLASS.
func (c *Connection) CreateOverlayWindow(name string, x, y, width, height int) (*OverlayWindow, error) {
	conn := c.XUtil.Conn()

	visual, err := c.argbVisual()
	if err != nil {
		return nil, err
	}

	cmap, err := xproto.NewColormapId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, cmap, c.Root, visual).Check(); err != nil {
		return nil, fmt.Errorf("failed to create colormap: %w", err)
	}

	cursor, err := xcursor.CreateCursor(c.XUtil, xcursor.Crosshair)
	if err != nil {
		xproto.FreeColormap(conn, cmap)
		return nil, fmt.Errorf("failed to create cursor: %w", err)
	}
	defer xproto.FreeCursor(conn, cursor)

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		xproto.FreeColormap(conn, cmap)
		return nil, err
	}

	err = xproto.CreateWindowChecked(
		conn,
		32,
		wid,
		c.Root,
		int16(x), int16(y),
		uint16(width), uint16(height),
		0, // border_width
		xproto.WindowClassInputOutput,
		visual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwOverrideRedirect|
			xproto.CwEventMask|xproto.CwColormap|xproto.CwCursor,
		// Value list order follows the bit positions of the mask (low to high).
		// A non-root visual needs an explicit border pixel and colormap.
		[]uint32{0, 0, 1, OverlayEventMask, uint32(cmap), uint32(cursor)},
	).Check()
	if err != nil {
		xproto.FreeColormap(conn, cmap)
		return nil, fmt.Errorf("failed to create overlay window: %w", err)
	}

	icccm.WmNameSet(c.XUtil, wid, name)
	icccm.WmClassSet(c.XUtil, wid, &icccm.WmClass{Instance: name, Class: name})
	// Compositors use the type for shadow and fade rules.
	ewmh.WmWindowTypeSet(c.XUtil, wid, []string{"_NET_WM_WINDOW_TYPE_UTILITY"})

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		c.destroy(wid, 0, cmap)
		return nil, err
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(wid), 0, nil).Check(); err != nil {
		c.destroy(wid, 0, cmap)
		return nil, fmt.Errorf("failed to create graphics context: %w", err)
	}

	xproto.MapWindow(conn, wid)
	xproto.ConfigureWindow(conn, wid, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})

	return &OverlayWindow{
		Window:   wid,
		GC:       gc,
		Colormap: cmap,
		Depth:    32,
		Width:    width,
		Height:   height,
	}, nil
}

// DestroyOverlayWindow releases the window and its server-side resources.
func (c *Connection) DestroyOverlayWindow(w *OverlayWindow) {
	c.destroy(w.Window, w.GC, w.Colormap)
}

func (c *Connection) destroy(wid xproto.Window, gc xproto.Gcontext, cmap xproto.Colormap) {
	conn := c.XUtil.Conn()
	if gc != 0 {
		xproto.FreeGC(conn, gc)
	}
	if wid != 0 {
		xproto.DestroyWindow(conn, wid)
	}
	if cmap != 0 {
		xproto.FreeColormap(conn, cmap)
	}
}

// Focus gives keyboard focus to win. Override-redirect windows never get
// focus from the window manager, so the overlay takes it when the pointer
// enters or clicks.
func (c *Connection) Focus(win xproto.Window) {
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusParent, win, xproto.TimeCurrentTime)
}

// Keysym maps a key event's keycode to its unshifted keysym.
func (c *Connection) Keysym(code xproto.Keycode) uint32 {
	return uint32(keybind.KeysymGet(c.XUtil, code, 0))
}
