//go:build linux

package platform

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/areascan/internal/x11"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/shm"
	"github.com/BurntSushi/xgb/xproto"
)

type fakeInput struct {
	focused []xproto.Window
}

func (f *fakeInput) Focus(win xproto.Window) {
	f.focused = append(f.focused, win)
}

func (f *fakeInput) Keysym(code xproto.Keycode) uint32 {
	if code == 9 {
		return KeysymEscape
	}
	return uint32(code)
}

func newTestBackend(t *testing.T) (*LinuxBackend, *fakeInput) {
	t.Helper()
	b := newLinuxBackend(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	input := &fakeInput{}
	b.input = input
	b.register(&x11.OverlayWindow{Window: 100, GC: 101, Width: 1920, Height: 1080},
		Output{Name: "DP-1", Bounds: Rect{Width: 1920, Height: 1080}})
	b.register(&x11.OverlayWindow{Window: 200, Width: 1280, Height: 1024},
		Output{Name: "HDMI-1", Bounds: Rect{X: 1920, Width: 1280, Height: 1024}})
	return b, input
}

func TestTranslateFirstExposeConfigures(t *testing.T) {
	b, _ := newTestBackend(t)

	if _, ok := b.translate(xproto.ExposeEvent{Window: 200, Count: 2}); ok {
		t.Fatalf("expose with more to come must be dropped")
	}
	ev, ok := b.translate(xproto.ExposeEvent{Window: 200, Count: 0})
	if !ok {
		t.Fatalf("first expose dropped")
	}
	want := ConfigureEvent{Surface: 2, Width: 1280, Height: 1024}
	if ev != want {
		t.Fatalf("event = %#v, want %#v", ev, want)
	}
	if _, ok := b.translate(xproto.ExposeEvent{Window: 200, Count: 0}); ok {
		t.Fatalf("second expose produced another configure")
	}
}

func TestTranslatePointerEvents(t *testing.T) {
	b, input := newTestBackend(t)

	ev, ok := b.translate(xproto.MotionNotifyEvent{Event: 200, EventX: 10, EventY: 12})
	if !ok || ev != (PointerMotionEvent{Surface: 2, X: 10, Y: 12}) {
		t.Fatalf("motion = %#v, %v", ev, ok)
	}

	ev, ok = b.translate(xproto.ButtonPressEvent{Event: 100, Detail: xproto.ButtonIndex1, EventX: 5, EventY: 6})
	if !ok || ev != (PointerButtonEvent{Surface: 1, X: 5, Y: 6, Buttons: ButtonPrimary, Pressed: true}) {
		t.Fatalf("press = %#v, %v", ev, ok)
	}
	if len(input.focused) != 1 || input.focused[0] != 100 {
		t.Fatalf("press did not take keyboard focus: %v", input.focused)
	}

	ev, ok = b.translate(xproto.ButtonReleaseEvent{Event: 100, Detail: xproto.ButtonIndex3})
	if !ok || ev != (PointerButtonEvent{Surface: 1, Buttons: ButtonSecondary}) {
		t.Fatalf("release = %#v, %v", ev, ok)
	}

	if _, ok := b.translate(xproto.ButtonPressEvent{Event: 100, Detail: 4}); ok {
		t.Fatalf("wheel press must be dropped")
	}
}

func TestTranslateEnterTakesFocus(t *testing.T) {
	b, input := newTestBackend(t)

	if _, ok := b.translate(xproto.EnterNotifyEvent{Event: 200}); ok {
		t.Fatalf("enter must not produce an event")
	}
	if len(input.focused) != 1 || input.focused[0] != 200 {
		t.Fatalf("focused = %v", input.focused)
	}

	b.translate(xproto.EnterNotifyEvent{Event: 999})
	if len(input.focused) != 1 {
		t.Fatalf("focused a foreign window: %v", input.focused)
	}
}

func TestTranslateKeyAndClose(t *testing.T) {
	b, _ := newTestBackend(t)

	ev, ok := b.translate(xproto.KeyPressEvent{Event: 200, Detail: 9})
	if !ok || ev != (KeyEvent{Surface: 2, Keysym: KeysymEscape}) {
		t.Fatalf("key = %#v, %v", ev, ok)
	}

	ev, ok = b.translate(xproto.DestroyNotifyEvent{Event: 100, Window: 100})
	if !ok || ev != (ClosedEvent{Surface: 1}) {
		t.Fatalf("destroy = %#v, %v", ev, ok)
	}
}

func TestTranslateDropsForeignWindows(t *testing.T) {
	b, _ := newTestBackend(t)

	for _, ev := range []xgb.Event{
		xproto.MotionNotifyEvent{Event: 7},
		xproto.ExposeEvent{Window: 7},
		xproto.KeyPressEvent{Event: 7},
		xproto.UnmapNotifyEvent{Window: 7},
	} {
		if out, ok := b.translate(ev); ok {
			t.Fatalf("foreign event translated to %#v", out)
		}
	}
}

func TestTranslateIgnoresMapNotify(t *testing.T) {
	b, _ := newTestBackend(t)
	if _, ok := b.translate(xproto.MapNotifyEvent{Window: 100}); ok {
		t.Fatalf("map notify must be dropped")
	}
}

func TestAcquireUnknownSurface(t *testing.T) {
	b, _ := newTestBackend(t)
	if _, err := b.AcquireBuffer(42, 1, 1); err == nil {
		t.Fatalf("expected error for unknown surface")
	}
}

func TestTotalFrameBytes(t *testing.T) {
	b, _ := newTestBackend(t)
	want := (1920*1080 + 1280*1024) * 4
	if got := b.totalFrameBytes(); got != want {
		t.Fatalf("totalFrameBytes = %d, want %d", got, want)
	}
}

const testShmOpcode = 130

type queuedEvent struct {
	ev  xgb.Event
	err error
}

// feed makes NextEvent read from queue; a drained queue reads as a closed connection.
func feed(b *LinuxBackend, queue ...queuedEvent) {
	b.shmOpcode = testShmOpcode
	b.waitEvent = func() (xgb.Event, error) {
		if len(queue) == 0 {
			return nil, nil
		}
		next := queue[0]
		queue = queue[1:]
		return next.ev, next.err
	}
}

func TestNextEventOverlayErrorsAreFatal(t *testing.T) {
	cases := []struct {
		name string
		err  xgb.Error
	}{
		{name: "shm request", err: xproto.MatchError{MajorOpcode: testShmOpcode, NiceName: "Match"}},
		{name: "bad segment", err: shm.BadSegError{BadValue: 42, NiceName: "BadSeg"}},
		{name: "overlay window", err: xproto.WindowError{BadValue: 100, MajorOpcode: 8, NiceName: "Window"}},
		{name: "overlay gc", err: xproto.GContextError{BadValue: 101, MajorOpcode: 60, NiceName: "GContext"}},
	}
	for _, tc := range cases {
		b, _ := newTestBackend(t)
		feed(b,
			queuedEvent{err: tc.err},
			queuedEvent{ev: xproto.MotionNotifyEvent{Event: 100}},
		)

		ev, err := b.NextEvent()
		if !errors.Is(err, ErrBufferCreation) {
			t.Fatalf("%s: NextEvent() = %#v, %v; want ErrBufferCreation", tc.name, ev, err)
		}
	}
}

func TestNextEventSkipsForeignErrors(t *testing.T) {
	b, _ := newTestBackend(t)
	feed(b,
		queuedEvent{err: xproto.WindowError{BadValue: 999, MajorOpcode: 8, NiceName: "Window"}},
		queuedEvent{err: xproto.MatchError{MajorOpcode: 12, NiceName: "Match"}},
		queuedEvent{ev: xproto.MotionNotifyEvent{Event: 200, EventX: 3, EventY: 4}},
	)

	ev, err := b.NextEvent()
	if err != nil {
		t.Fatalf("NextEvent: %v", err)
	}
	if ev != (PointerMotionEvent{Surface: 2, X: 3, Y: 4}) {
		t.Fatalf("event = %#v", ev)
	}
}

func TestNextEventClosedConnection(t *testing.T) {
	b, _ := newTestBackend(t)
	feed(b)

	_, err := b.NextEvent()
	if err == nil || errors.Is(err, ErrBufferCreation) {
		t.Fatalf("closed connection = %v", err)
	}
}
