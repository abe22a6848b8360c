package overlay

import (
	"image/color"
	"testing"
	"time"

	"github.com/1broseidon/areascan/internal/platform"
	"github.com/1broseidon/areascan/internal/selection"
)

func smallOutputs() []platform.Output {
	return []platform.Output{
		{Name: "left", Bounds: platform.Rect{X: 0, Y: 0, Width: 100, Height: 50}},
		{Name: "right", Bounds: platform.Rect{X: 100, Y: 0, Width: 60, Height: 50}},
	}
}

func setupSurfaces(t *testing.T, backend *fakeBackend) *SurfaceManager {
	t.Helper()
	m := NewSurfaceManager()
	if err := m.CreateAll(backend, backend.outputs); err != nil {
		t.Fatalf("CreateAll: %v", err)
	}
	return m
}

func bgra(c color.RGBA) [4]byte {
	return [4]byte{c.B, c.G, c.R, c.A}
}

func TestDrawFillsWholeSurface(t *testing.T) {
	backend := &fakeBackend{outputs: smallOutputs()}
	m := setupSurfaces(t, backend)
	r := NewRenderer(backend, newFakeClock(), nil, 0, quietLogger())

	s := m.All()[0]
	if err := r.Draw(s, nil); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(backend.presents) != 1 || backend.presents[0].surface != s.ID {
		t.Fatalf("presents = %+v", backend.presents)
	}

	want := bgra(color.RGBAModel.Convert(DefaultFill).(color.RGBA))
	buf := backend.presents[0].buffer
	for _, p := range [][2]int{{0, 0}, {99, 49}, {50, 25}} {
		if got := buf.pixel(p[0], p[1]); got != want {
			t.Fatalf("pixel %v = %v, want %v", p, got, want)
		}
	}
	if want[3] != 0x80 || want[2] >= 0x64 {
		t.Fatalf("fill should be premultiplied half alpha, got %v", want)
	}
}

func TestDrawCutsSelectionAcrossSurfaces(t *testing.T) {
	backend := &fakeBackend{outputs: smallOutputs()}
	m := setupSurfaces(t, backend)
	r := NewRenderer(backend, newFakeClock(), color.NRGBA{R: 0xff, A: 0xff}, 0, quietLogger())

	var sel selection.Selection
	sel.Begin(platform.Point{X: 120, Y: 30})
	sel.End(platform.Point{X: 90, Y: 10})

	for _, s := range m.All() {
		if err := r.Draw(s, &sel); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}

	left := backend.presents[0].buffer
	right := backend.presents[1].buffer
	transparent := [4]byte{}
	red := [4]byte{0, 0, 0xff, 0xff}

	cases := []struct {
		name string
		buf  *fakeBuffer
		x, y int
		want [4]byte
	}{
		{"left inside", left, 95, 15, transparent},
		{"left edge", left, 90, 10, transparent},
		{"left outside", left, 89, 15, red},
		{"left below", left, 95, 30, red},
		{"right inside", right, 0, 10, transparent},
		{"right last column", right, 19, 29, transparent},
		{"right outside", right, 20, 15, red},
	}
	for _, tc := range cases {
		if got := tc.buf.pixel(tc.x, tc.y); got != tc.want {
			t.Fatalf("%s: pixel (%d,%d) = %v, want %v", tc.name, tc.x, tc.y, got, tc.want)
		}
	}
}

func TestDrawZeroAreaSelectionNotPainted(t *testing.T) {
	backend := &fakeBackend{outputs: smallOutputs()}
	m := setupSurfaces(t, backend)
	r := NewRenderer(backend, newFakeClock(), color.NRGBA{G: 0xff, A: 0xff}, 0, quietLogger())

	var sel selection.Selection
	sel.Begin(platform.Point{X: 10, Y: 20})
	sel.End(platform.Point{X: 60, Y: 20})

	if err := r.Draw(m.All()[0], &sel); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := backend.presents[0].buffer.pixel(30, 20); got != [4]byte{0, 0xff, 0, 0xff} {
		t.Fatalf("zero-height selection was cut out: %v", got)
	}
}

func TestFramePacesPerSurface(t *testing.T) {
	backend := &fakeBackend{outputs: smallOutputs()}
	m := setupSurfaces(t, backend)
	clock := newFakeClock()
	r := NewRenderer(backend, clock, nil, 60, quietLogger())
	left, right := m.All()[0], m.All()[1]

	if err := r.Draw(left, nil); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	first := left.LastDraw()
	clock.advance(4 * time.Millisecond)
	if err := r.Frame(left, nil); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(clock.sleeps) != 1 {
		t.Fatalf("expected one sleep, got %v", clock.sleeps)
	}
	if want := r.Interval() - 4*time.Millisecond; clock.sleeps[0] != want {
		t.Fatalf("sleep = %v, want %v", clock.sleeps[0], want)
	}
	if gap := left.LastDraw().Sub(first); gap < r.Interval() {
		t.Fatalf("consecutive draws %v apart, want at least %v", gap, r.Interval())
	}

	// right has never drawn: no pacing debt.
	if err := r.Frame(right, nil); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(clock.sleeps) != 1 {
		t.Fatalf("unpaced surface slept: %v", clock.sleeps)
	}

	clock.advance(time.Second)
	if err := r.Frame(left, nil); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(clock.sleeps) != 1 {
		t.Fatalf("late frame slept: %v", clock.sleeps)
	}
}

func TestFrameIntervalAtLeastSixteenMillis(t *testing.T) {
	r := NewRenderer(&fakeBackend{}, newFakeClock(), nil, 0, quietLogger())
	if r.Interval() < 16*time.Millisecond {
		t.Fatalf("interval = %v", r.Interval())
	}
}

func TestUploadRespectsStride(t *testing.T) {
	backend := &fakeBackend{outputs: []platform.Output{{Name: "x", Bounds: platform.Rect{Width: 2, Height: 2}}}}
	m := setupSurfaces(t, backend)
	s := m.All()[0]
	s.Pixels.SetRGBA(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})

	buf := &fakeBuffer{data: make([]byte, 2*2*4), width: 2, height: 2}
	upload(buf, s.Pixels)
	if got := buf.pixel(1, 1); got != [4]byte{3, 2, 1, 4} {
		t.Fatalf("pixel = %v", got)
	}
}
