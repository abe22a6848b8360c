package selection

import (
	"testing"

	"github.com/1broseidon/areascan/internal/platform"
)

func pt(x, y int) platform.Point {
	return platform.Point{X: x, Y: y}
}

func TestSelectionEmptyHasNoRect(t *testing.T) {
	var s Selection
	if s.HasValue() {
		t.Fatalf("new selection should be empty")
	}
	if _, ok := s.Rect(); ok {
		t.Fatalf("expected no rect for empty selection")
	}
}

func TestSelectionNormalizesAnyDragDirection(t *testing.T) {
	cases := []struct {
		name string
		a, b platform.Point
		want platform.Rect
	}{
		{"down-right", pt(10, 20), pt(110, 70), platform.Rect{X: 10, Y: 20, Width: 100, Height: 50}},
		{"up-left", pt(110, 70), pt(10, 20), platform.Rect{X: 10, Y: 20, Width: 100, Height: 50}},
		{"up-right", pt(10, 70), pt(110, 20), platform.Rect{X: 10, Y: 20, Width: 100, Height: 50}},
		{"down-left", pt(110, 20), pt(10, 70), platform.Rect{X: 10, Y: 20, Width: 100, Height: 50}},
		{"negative coords", pt(-50, -10), pt(30, -40), platform.Rect{X: -50, Y: -40, Width: 80, Height: 30}},
		{"zero height", pt(1900, 500), pt(2000, 500), platform.Rect{X: 1900, Y: 500, Width: 100, Height: 0}},
		{"zero area", pt(5, 5), pt(5, 5), platform.Rect{X: 5, Y: 5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s Selection
			s.Begin(tc.a)
			s.End(tc.b)
			got, ok := s.Rect()
			if !ok {
				t.Fatalf("expected rect")
			}
			if got != tc.want {
				t.Fatalf("rect = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSelectionUpdateOnlyWhileActive(t *testing.T) {
	var s Selection
	s.Update(pt(5, 5))
	if s.HasValue() {
		t.Fatalf("update before begin must not create a value")
	}

	s.Begin(pt(0, 0))
	s.Update(pt(10, 10))
	s.End(pt(20, 30))
	s.Update(pt(99, 99))

	got, _ := s.Rect()
	want := platform.Rect{X: 0, Y: 0, Width: 20, Height: 30}
	if got != want {
		t.Fatalf("rect = %+v, want %+v", got, want)
	}
}

func TestSelectionFrozenAfterEnd(t *testing.T) {
	var s Selection
	s.Begin(pt(0, 0))
	s.End(pt(10, 10))

	s.Begin(pt(50, 50))
	s.End(pt(60, 60))

	got, _ := s.Rect()
	want := platform.Rect{Width: 10, Height: 10}
	if got != want {
		t.Fatalf("rect changed after end: got %+v want %+v", got, want)
	}
	if s.Active() {
		t.Fatalf("selection should be inactive after end")
	}
}

func TestSelectionBeginDiscardsPreviousValue(t *testing.T) {
	var s Selection
	s.Begin(pt(0, 0))
	s.Update(pt(40, 40))
	s.Begin(pt(100, 100))

	got, _ := s.Rect()
	want := platform.Rect{X: 100, Y: 100}
	if got != want {
		t.Fatalf("rect = %+v, want %+v", got, want)
	}
	if anchor, _ := s.Anchor(); anchor != pt(100, 100) {
		t.Fatalf("anchor = %+v", anchor)
	}
}

func TestSelectionUpdateIsIdempotentBetweenFrames(t *testing.T) {
	var once, many Selection
	once.Begin(pt(0, 0))
	many.Begin(pt(0, 0))

	for _, p := range []platform.Point{pt(3, 4), pt(90, 1), pt(-2, 8), pt(40, 50)} {
		many.Update(p)
	}
	once.Update(pt(40, 50))

	a, _ := once.Rect()
	b, _ := many.Rect()
	if a != b {
		t.Fatalf("rects differ: once=%+v many=%+v", a, b)
	}
}
