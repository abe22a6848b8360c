package selection

import (
	"errors"
	"testing"

	"github.com/1broseidon/areascan/internal/platform"
)

func TestTrackerPressReleaseSamePixelIsNoSelection(t *testing.T) {
	tr := NewTracker(0)
	tr.Press(pt(100, 100), platform.ButtonPrimary)
	tr.Release(pt(100, 100), platform.ButtonPrimary)

	if !tr.Exit() {
		t.Fatalf("release must end the session")
	}
	if tr.Selection().HasValue() {
		t.Fatalf("no drag should have started")
	}
	if _, err := tr.Result(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if tr.Cancelled() {
		t.Fatalf("release is not a cancel")
	}
}

func TestTrackerDragUsesPressPointAsAnchor(t *testing.T) {
	tr := NewTracker(0)
	tr.Press(pt(10, 10), platform.ButtonPrimary)
	if tr.State() != StatePressed {
		t.Fatalf("state = %v, want pressed", tr.State())
	}

	tr.Motion(pt(15, 12))
	if tr.State() != StateDragging {
		t.Fatalf("state = %v, want dragging", tr.State())
	}
	anchor, ok := tr.Selection().Anchor()
	if !ok || anchor != pt(10, 10) {
		t.Fatalf("anchor = %+v ok=%v, want press point", anchor, ok)
	}

	tr.Motion(pt(50, 60))
	tr.Release(pt(70, 80), platform.ButtonPrimary)

	got, err := tr.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	want := platform.Rect{X: 10, Y: 10, Width: 60, Height: 70}
	if got != want {
		t.Fatalf("rect = %+v, want %+v", got, want)
	}
}

func TestTrackerMotionAppliedLazilyUntilSync(t *testing.T) {
	tr := NewTracker(0)
	tr.Press(pt(0, 0), platform.ButtonPrimary)
	tr.Motion(pt(5, 5))
	tr.Motion(pt(20, 30))

	rect, _ := tr.Selection().Rect()
	if rect != (platform.Rect{}) {
		t.Fatalf("selection moved before sync: %+v", rect)
	}

	tr.Sync()
	rect, _ = tr.Selection().Rect()
	if rect != (platform.Rect{Width: 20, Height: 30}) {
		t.Fatalf("rect after sync = %+v", rect)
	}
}

func TestTrackerReleaseWithoutMotionStillRecognizesMovedDrag(t *testing.T) {
	tr := NewTracker(0)
	tr.Press(pt(0, 0), platform.ButtonPrimary)
	tr.Release(pt(30, 40), platform.ButtonPrimary)

	got, err := tr.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if got != (platform.Rect{Width: 30, Height: 40}) {
		t.Fatalf("rect = %+v", got)
	}
}

func TestTrackerCancelInIdleIsNoSelection(t *testing.T) {
	tr := NewTracker(0)
	tr.Cancel()

	if !tr.Exit() {
		t.Fatalf("cancel must end the session")
	}
	_, err := tr.Result()
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected cancelled no-selection, got %v", err)
	}
}

func TestTrackerCancelMidDragDoesNotFinalize(t *testing.T) {
	tr := NewTracker(0)
	tr.Press(pt(0, 0), platform.ButtonPrimary)
	tr.Motion(pt(10, 10))
	tr.Cancel()

	if !tr.Selection().Active() {
		t.Fatalf("cancel must leave the selection as it was")
	}
	if _, err := tr.Result(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestTrackerIgnoresNonPrimaryButtons(t *testing.T) {
	tr := NewTracker(0)
	tr.Press(pt(0, 0), platform.ButtonSecondary)
	if tr.State() != StateIdle {
		t.Fatalf("secondary press changed state to %v", tr.State())
	}
	tr.Release(pt(0, 0), platform.ButtonMiddle)
	if tr.Exit() {
		t.Fatalf("middle release must not end the session")
	}
}

func TestTrackerReleaseInIdleEndsSession(t *testing.T) {
	tr := NewTracker(0)
	tr.Release(pt(3, 3), platform.ButtonPrimary)
	if !tr.Exit() {
		t.Fatalf("primary release in idle must end the session")
	}
	if _, err := tr.Result(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestTrackerThresholdDelaysDrag(t *testing.T) {
	tr := NewTracker(3)
	tr.Press(pt(100, 100), platform.ButtonPrimary)

	tr.Motion(pt(102, 97))
	if tr.State() != StatePressed {
		t.Fatalf("movement within threshold started a drag")
	}

	tr.Motion(pt(104, 100))
	if tr.State() != StateDragging {
		t.Fatalf("movement past threshold did not start a drag")
	}
}

func TestTrackerIgnoresEventsAfterCommit(t *testing.T) {
	tr := NewTracker(0)
	tr.Press(pt(0, 0), platform.ButtonPrimary)
	tr.Motion(pt(10, 10))
	tr.Release(pt(10, 10), platform.ButtonPrimary)

	tr.Press(pt(50, 50), platform.ButtonPrimary)
	tr.Motion(pt(80, 80))
	tr.Sync()
	tr.Cancel()

	got, err := tr.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if got != (platform.Rect{Width: 10, Height: 10}) {
		t.Fatalf("rect = %+v", got)
	}
}

func TestStateString(t *testing.T) {
	if StateDragging.String() != "dragging" || State(42).String() != "unknown" {
		t.Fatalf("unexpected state names")
	}
}
