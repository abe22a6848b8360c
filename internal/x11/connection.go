package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/shm"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// ErrNoShm reports a server without the MIT-SHM extension.
var ErrNoShm = errors.New("MIT-SHM extension unavailable")

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// HasRandR is false on servers without RandR; monitors then come from Xinerama.
	HasRandR bool
	// HasShm is false on servers without MIT-SHM. Only the overlay needs it.
	HasShm bool

	shmErr error
}

// NewConnection connects to display (empty means $DISPLAY) and initializes
// the optional extensions. Callers that draw must check RequireShm.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	// Keysym lookups for key events need the keyboard mapping.
	keybind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	if err := shm.Init(xu.Conn()); err != nil {
		c.shmErr = err
	} else {
		c.HasShm = true
	}
	if err := randr.Init(xu.Conn()); err == nil {
		c.HasRandR = true
	}
	return c, nil
}

// RequireShm returns ErrNoShm when the server lacks MIT-SHM.
func (c *Connection) RequireShm() error {
	if c.HasShm {
		return nil
	}
	if c.shmErr != nil {
		return fmt.Errorf("%w: %v", ErrNoShm, c.shmErr)
	}
	return ErrNoShm
}

// ShmOpcode is the major opcode of MIT-SHM requests, or 0 without it.
func (c *Connection) ShmOpcode() byte {
	if !c.HasShm {
		return 0
	}
	xc := c.XUtil.Conn()
	xc.ExtLock.RLock()
	defer xc.ExtLock.RUnlock()
	return xc.Extensions["MIT-SHM"]
}

// WaitForEvent blocks for the next X event. A nil event with a nil error
// means the server closed the connection.
func (c *Connection) WaitForEvent() (xgb.Event, error) {
	ev, xerr := c.XUtil.Conn().WaitForEvent()
	if xerr != nil {
		return nil, xerr
	}
	return ev, nil
}

// Flush pushes queued requests to the server.
func (c *Connection) Flush() {
	c.XUtil.Conn().Sync()
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
