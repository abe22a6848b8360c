package overlay

import (
	"errors"
	"time"

	"github.com/1broseidon/areascan/internal/platform"
)

type fakeBuffer struct {
	data          []byte
	width, height int
}

func (b *fakeBuffer) Data() []byte { return b.data }
func (b *fakeBuffer) Stride() int  { return b.width * 4 }
func (b *fakeBuffer) Width() int   { return b.width }
func (b *fakeBuffer) Height() int  { return b.height }

// pixel returns the B, G, R, A bytes at (x, y).
func (b *fakeBuffer) pixel(x, y int) [4]byte {
	i := y*b.Stride() + x*4
	return [4]byte{b.data[i], b.data[i+1], b.data[i+2], b.data[i+3]}
}

type presentation struct {
	surface platform.SurfaceID
	buffer  *fakeBuffer
}

type fakeBackend struct {
	outputs    []platform.Output
	outputsErr error
	createErr  error
	acquireErr error

	events []platform.Event
	nextID platform.SurfaceID

	created  []platform.Output
	presents []presentation
	closed   bool
}

func (f *fakeBackend) Outputs() ([]platform.Output, error) {
	return f.outputs, f.outputsErr
}

func (f *fakeBackend) CreateSurface(out platform.Output) (platform.SurfaceID, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.created = append(f.created, out)
	return f.nextID, nil
}

func (f *fakeBackend) NextEvent() (platform.Event, error) {
	if len(f.events) == 0 {
		return nil, errors.New("event queue drained")
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func (f *fakeBackend) AcquireBuffer(id platform.SurfaceID, width, height int) (platform.Buffer, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return &fakeBuffer{data: make([]byte, width*height*4), width: width, height: height}, nil
}

func (f *fakeBackend) Present(id platform.SurfaceID, buf platform.Buffer) error {
	f.presents = append(f.presents, presentation{surface: id, buffer: buf.(*fakeBuffer)})
	return nil
}

func (f *fakeBackend) Close() {
	f.closed = true
}

type fakeClock struct {
	now    time.Time
	step   time.Duration
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func twoOutputs() []platform.Output {
	return []platform.Output{
		{Name: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Y: 0, Width: 1280, Height: 1024}},
	}
}
