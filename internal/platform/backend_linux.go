//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/areascan/internal/x11"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/shm"
	"github.com/BurntSushi/xgb/xproto"
)

// OverlayName is the WM_NAME and WM_CLASS of every overlay window.
const OverlayName = "areascan"

// LinuxBackend implements Backend on an X11 connection. Each surface is an
// override-redirect ARGB window; frames are uploaded through one MIT-SHM
// pool and the server's completion events stand in for frame callbacks.
type LinuxBackend struct {
	conn   *x11.Connection
	input  inputSink
	logger *slog.Logger

	surfaces map[SurfaceID]*linuxSurface
	byWindow map[xproto.Window]SurfaceID
	order    []SurfaceID
	nextID   SurfaceID

	pool     *x11.ShmPool
	inflight map[int]SurfaceID

	waitEvent func() (xgb.Event, error)
	shmOpcode byte
}

var _ Backend = (*LinuxBackend)(nil)

type inputSink interface {
	Focus(win xproto.Window)
	Keysym(code xproto.Keycode) uint32
}

type linuxSurface struct {
	window  *x11.OverlayWindow
	output  Output
	exposed bool
}

type shmBuffer struct {
	data   []byte
	offset int
	width  int
	height int
}

func (b *shmBuffer) Data() []byte { return b.data }
func (b *shmBuffer) Stride() int  { return b.width * 4 }
func (b *shmBuffer) Width() int   { return b.width }
func (b *shmBuffer) Height() int  { return b.height }

// NewLinuxBackend connects to display (empty means $DISPLAY).
func NewLinuxBackend(display string, logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	if err := conn.RequireShm(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	b := newLinuxBackend(conn, logger)
	b.input = conn
	b.waitEvent = conn.WaitForEvent
	b.shmOpcode = conn.ShmOpcode()
	return b, nil
}

func newLinuxBackend(conn *x11.Connection, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinuxBackend{
		conn:     conn,
		logger:   logger,
		surfaces: make(map[SurfaceID]*linuxSurface),
		byWindow: make(map[xproto.Window]SurfaceID),
		inflight: make(map[int]SurfaceID),
	}
}

// Outputs returns all connected outputs.
func (b *LinuxBackend) Outputs() ([]Output, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		if errors.Is(err, x11.ErrGeometry) {
			return nil, fmt.Errorf("%w: %v", ErrGeometryMissing, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}

	outputs := make([]Output, 0, len(monitors))
	for _, m := range monitors {
		outputs = append(outputs, outputFromMonitor(m))
	}
	return outputs, nil
}

func outputFromMonitor(m x11.Monitor) Output {
	return Output{
		Name: m.Name,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
	}
}

// CreateSurface maps an overlay window over out.
func (b *LinuxBackend) CreateSurface(out Output) (SurfaceID, error) {
	win, err := b.conn.CreateOverlayWindow(OverlayName, out.Bounds.X, out.Bounds.Y, out.Bounds.Width, out.Bounds.Height)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	return b.register(win, out), nil
}

func (b *LinuxBackend) register(win *x11.OverlayWindow, out Output) SurfaceID {
	b.nextID++
	id := b.nextID
	b.surfaces[id] = &linuxSurface{window: win, output: out}
	b.byWindow[win.Window] = id
	b.order = append(b.order, id)
	return id
}

// NextEvent blocks until an event for one of the overlay windows arrives.
func (b *LinuxBackend) NextEvent() (Event, error) {
	for {
		ev, err := b.waitEvent()
		if err != nil {
			if b.fatalXError(err) {
				return nil, fmt.Errorf("%w: %v", ErrBufferCreation, err)
			}
			// Requests are fire-and-forget; errors about foreign resources do not end the session.
			b.logger.Warn("X protocol error", "error", err)
			continue
		}
		if ev == nil {
			return nil, errors.New("X server closed the connection")
		}
		if out, ok := b.translate(ev); ok {
			return out, nil
		}
	}
}

// fatalXError reports whether err concerns the overlay's own drawing path:
// any MIT-SHM request, or a request naming the pool segment or one of the
// overlay windows, GCs or colormaps.
func (b *LinuxBackend) fatalXError(err error) bool {
	var xerr xgb.Error
	if !errors.As(err, &xerr) {
		return false
	}
	if _, ok := xerr.(shm.BadSegError); ok {
		return true
	}
	if op, ok := majorOpcode(xerr); ok && b.shmOpcode != 0 && op == b.shmOpcode {
		return true
	}
	return b.ownsResource(xerr.BadId())
}

func (b *LinuxBackend) ownsResource(id uint32) bool {
	if id == 0 {
		return false
	}
	if b.pool != nil && id == uint32(b.pool.Seg()) {
		return true
	}
	for _, s := range b.surfaces {
		w := s.window
		if id == uint32(w.Window) || id == uint32(w.GC) || id == uint32(w.Colormap) {
			return true
		}
	}
	return false
}

func majorOpcode(xerr xgb.Error) (byte, bool) {
	switch e := xerr.(type) {
	case xproto.RequestError:
		return e.MajorOpcode, true
	case xproto.MatchError:
		return e.MajorOpcode, true
	case xproto.AccessError:
		return e.MajorOpcode, true
	case xproto.AllocError:
		return e.MajorOpcode, true
	case xproto.LengthError:
		return e.MajorOpcode, true
	case xproto.ValueError:
		return e.MajorOpcode, true
	case xproto.WindowError:
		return e.MajorOpcode, true
	case xproto.DrawableError:
		return e.MajorOpcode, true
	case xproto.GContextError:
		return e.MajorOpcode, true
	case xproto.ColormapError:
		return e.MajorOpcode, true
	case xproto.IDChoiceError:
		return e.MajorOpcode, true
	}
	return 0, false
}

func (b *LinuxBackend) translate(ev xgb.Event) (Event, bool) {
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		id, s, ok := b.lookup(e.Window)
		if !ok || s.exposed || e.Count != 0 {
			return nil, false
		}
		s.exposed = true
		return ConfigureEvent{Surface: id, Width: s.output.Bounds.Width, Height: s.output.Bounds.Height}, true

	case xproto.EnterNotifyEvent:
		if _, _, ok := b.lookup(e.Event); ok && b.input != nil {
			b.input.Focus(e.Event)
		}
		return nil, false

	case xproto.MotionNotifyEvent:
		id, _, ok := b.lookup(e.Event)
		if !ok {
			return nil, false
		}
		return PointerMotionEvent{Surface: id, X: float64(e.EventX), Y: float64(e.EventY)}, true

	case xproto.ButtonPressEvent:
		id, _, ok := b.lookup(e.Event)
		if !ok {
			return nil, false
		}
		if b.input != nil {
			b.input.Focus(e.Event)
		}
		button, ok := buttonFromDetail(e.Detail)
		if !ok {
			return nil, false
		}
		return PointerButtonEvent{Surface: id, X: float64(e.EventX), Y: float64(e.EventY), Buttons: button, Pressed: true}, true

	case xproto.ButtonReleaseEvent:
		id, _, ok := b.lookup(e.Event)
		if !ok {
			return nil, false
		}
		button, ok := buttonFromDetail(e.Detail)
		if !ok {
			return nil, false
		}
		return PointerButtonEvent{Surface: id, X: float64(e.EventX), Y: float64(e.EventY), Buttons: button, Pressed: false}, true

	case xproto.KeyPressEvent:
		id, _, ok := b.lookup(e.Event)
		if !ok || b.input == nil {
			return nil, false
		}
		return KeyEvent{Surface: id, Keysym: b.input.Keysym(e.Detail)}, true

	case shm.CompletionEvent:
		if b.pool == nil || !b.pool.Owns(e) {
			return nil, false
		}
		off := int(e.Offset)
		id, ok := b.inflight[off]
		if !ok {
			return nil, false
		}
		delete(b.inflight, off)
		b.pool.Release(off)
		return FrameDoneEvent{Surface: id, Time: time.Now()}, true

	case xproto.DestroyNotifyEvent:
		id, _, ok := b.lookup(e.Window)
		if !ok {
			return nil, false
		}
		return ClosedEvent{Surface: id}, true

	case xproto.UnmapNotifyEvent:
		id, _, ok := b.lookup(e.Window)
		if !ok {
			return nil, false
		}
		return ClosedEvent{Surface: id}, true
	}
	return nil, false
}

func (b *LinuxBackend) lookup(win xproto.Window) (SurfaceID, *linuxSurface, bool) {
	id, ok := b.byWindow[win]
	if !ok {
		return 0, nil, false
	}
	return id, b.surfaces[id], true
}

func buttonFromDetail(detail xproto.Button) (ButtonMask, bool) {
	switch detail {
	case xproto.ButtonIndex1:
		return ButtonPrimary, true
	case xproto.ButtonIndex2:
		return ButtonMiddle, true
	case xproto.ButtonIndex3:
		return ButtonSecondary, true
	default:
		// Wheel and extra buttons.
		return 0, false
	}
}

// AcquireBuffer reserves a frame in the shared memory pool. The pool is
// created on first use, sized for two frames of every surface.
func (b *LinuxBackend) AcquireBuffer(id SurfaceID, width, height int) (Buffer, error) {
	if _, ok := b.surfaces[id]; !ok {
		return nil, fmt.Errorf("%w: unknown surface %d", ErrBufferCreation, id)
	}
	if b.pool == nil {
		pool, err := b.conn.NewShmPool(2 * b.totalFrameBytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBufferCreation, err)
		}
		b.logger.Debug("created shared memory pool", "bytes", pool.Size())
		b.pool = pool
	}

	off, data, err := b.pool.Alloc(width * height * 4)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferCreation, err)
	}
	return &shmBuffer{data: data, offset: off, width: width, height: height}, nil
}

func (b *LinuxBackend) totalFrameBytes() int {
	total := 0
	for _, s := range b.surfaces {
		total += s.output.Bounds.Width * s.output.Bounds.Height * 4
	}
	return total
}

// Present uploads buf to the surface window. The slot is released when the
// matching completion event arrives.
func (b *LinuxBackend) Present(id SurfaceID, buf Buffer) error {
	s, ok := b.surfaces[id]
	if !ok {
		return fmt.Errorf("unknown surface %d", id)
	}
	sb, ok := buf.(*shmBuffer)
	if !ok {
		return fmt.Errorf("buffer %T was not acquired from this backend", buf)
	}

	b.inflight[sb.offset] = id
	b.pool.Put(s.window.Window, s.window.GC, s.window.Depth, sb.width, sb.height, sb.offset)
	return nil
}

// Close destroys every overlay window and disconnects.
func (b *LinuxBackend) Close() {
	if b == nil || b.conn == nil {
		return
	}
	for _, id := range b.order {
		b.conn.DestroyOverlayWindow(b.surfaces[id].window)
	}
	if b.pool != nil {
		b.pool.Destroy()
	}
	b.conn.Flush()
	b.conn.Close()
	b.conn = nil
}
