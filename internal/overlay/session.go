package overlay

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/1broseidon/areascan/internal/platform"
	"github.com/1broseidon/areascan/internal/selection"
)

// Action tells the event loop what to do after an event was handled.
type Action int

const (
	// ActionNone means nothing has to be drawn.
	ActionNone Action = iota
	// ActionDraw is the first, unpaced draw of a freshly configured surface.
	ActionDraw
	// ActionFrame is a paced redraw after a frame callback.
	ActionFrame
	// ActionExit ends the loop.
	ActionExit
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionDraw:
		return "draw"
	case ActionFrame:
		return "frame"
	case ActionExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Step is the outcome of handling one event.
type Step struct {
	Action  Action
	Surface *Surface
}

// Options configures a selection session.
type Options struct {
	// Fill is the overlay colour; nil selects DefaultFill.
	Fill color.Color
	// FPS is the target redraw rate; zero selects DefaultFPS.
	FPS int
	// MinDragDistance is how far (in pixels) the pointer must travel from
	// the press point before a drag starts. Zero means any movement.
	MinDragDistance int
	// CancelKeysyms end the session without a selection. Empty selects Escape.
	CancelKeysyms []uint32
	Clock         Clock
	Logger        *slog.Logger
}

// Session is the single state object driven by the event loop. It owns the
// surfaces, the input tracker and the renderer; nothing in it is shared
// with other goroutines.
type Session struct {
	backend  platform.Backend
	surfaces *SurfaceManager
	tracker  *selection.Tracker
	renderer *Renderer
	cancel   map[uint32]struct{}
	logger   *slog.Logger
}

// NewSession creates a session that talks to backend.
func NewSession(backend platform.Backend, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keys := opts.CancelKeysyms
	if len(keys) == 0 {
		keys = []uint32{platform.KeysymEscape}
	}
	cancel := make(map[uint32]struct{}, len(keys))
	for _, k := range keys {
		cancel[k] = struct{}{}
	}
	return &Session{
		backend:  backend,
		surfaces: NewSurfaceManager(),
		tracker:  selection.NewTracker(opts.MinDragDistance),
		renderer: NewRenderer(backend, opts.Clock, opts.Fill, opts.FPS, logger),
		cancel:   cancel,
		logger:   logger,
	}
}

// Surfaces returns the session's surface manager.
func (s *Session) Surfaces() *SurfaceManager {
	return s.surfaces
}

// Tracker returns the session's input tracker.
func (s *Session) Tracker() *selection.Tracker {
	return s.tracker
}

// Setup enumerates outputs and creates one overlay surface per output.
func (s *Session) Setup() error {
	outputs, err := s.backend.Outputs()
	if err != nil {
		return fmt.Errorf("failed to enumerate outputs: %w", err)
	}
	if len(outputs) == 0 {
		return fmt.Errorf("%w: no connected outputs", platform.ErrSetup)
	}
	for _, out := range outputs {
		s.logger.Debug("output", "name", out.Name, "x", out.Bounds.X, "y", out.Bounds.Y,
			"width", out.Bounds.Width, "height", out.Bounds.Height)
	}
	return s.surfaces.CreateAll(s.backend, outputs)
}

// Handle applies one event to the session state and returns what the loop
// must do next. It performs no drawing itself.
func (s *Session) Handle(ev platform.Event) (Step, error) {
	surface, err := s.surfaces.Lookup(platform.EventSurface(ev))
	if err != nil {
		return Step{}, err
	}
	if s.tracker.Exit() {
		return Step{Action: ActionExit}, nil
	}

	step := Step{Action: ActionNone, Surface: surface}

	switch e := ev.(type) {
	case platform.ConfigureEvent:
		if !surface.configured {
			surface.configured = true
			step.Action = ActionDraw
		}
	case platform.PointerMotionEvent:
		s.tracker.Motion(surface.ToGlobal(e.X, e.Y))
	case platform.PointerButtonEvent:
		pos := surface.ToGlobal(e.X, e.Y)
		if e.Pressed {
			s.tracker.Press(pos, e.Buttons)
		} else {
			s.tracker.Release(pos, e.Buttons)
		}
	case platform.KeyEvent:
		if _, ok := s.cancel[e.Keysym]; ok {
			s.logger.Debug("selection cancelled", "keysym", fmt.Sprintf("%#x", e.Keysym))
			s.tracker.Cancel()
		}
	case platform.FrameDoneEvent:
		// Latest cursor position goes into the selection exactly once per frame.
		s.tracker.Sync()
		step.Action = ActionFrame
	case platform.ClosedEvent:
		s.logger.Warn("overlay surface closed externally", "output", surface.Output.Name)
		s.tracker.Cancel()
	default:
		return Step{}, fmt.Errorf("unsupported event %T", ev)
	}

	if s.tracker.Exit() {
		return Step{Action: ActionExit, Surface: surface}, nil
	}
	return step, nil
}

// Run dispatches events until the tracker requests exit and returns the
// committed rectangle. A session that ends without a completed drag returns
// selection.ErrNoSelection (or selection.ErrCancelled).
func (s *Session) Run(ctx context.Context) (platform.Rect, error) {
	sel := s.tracker.Selection()
	for {
		if err := ctx.Err(); err != nil {
			return platform.Rect{}, err
		}

		ev, err := s.backend.NextEvent()
		if err != nil {
			return platform.Rect{}, fmt.Errorf("event dispatch failed: %w", err)
		}

		step, err := s.Handle(ev)
		if err != nil {
			return platform.Rect{}, err
		}

		switch step.Action {
		case ActionDraw:
			err = s.renderer.Draw(step.Surface, sel)
		case ActionFrame:
			err = s.renderer.Frame(step.Surface, sel)
		case ActionExit:
			rect, err := s.tracker.Result()
			if err != nil {
				s.logger.Debug("session ended without selection", "reason", err)
				return platform.Rect{}, err
			}
			s.logger.Debug("got region", "x", rect.X, "y", rect.Y, "width", rect.Width, "height", rect.Height)
			return rect, nil
		}
		if err != nil {
			return platform.Rect{}, err
		}
	}
}

// Select runs a complete selection session on backend: it enumerates
// outputs, shows one overlay per output and blocks until the user releases
// the drag or cancels.
func Select(ctx context.Context, backend platform.Backend, opts Options) (platform.Rect, error) {
	session := NewSession(backend, opts)
	if err := session.Setup(); err != nil {
		return platform.Rect{}, err
	}
	return session.Run(ctx)
}
