package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/1broseidon/areascan/internal/platform"
)

// ErrEmptyRegion is returned for rectangles without area.
var ErrEmptyRegion = errors.New("capture region is empty")

// Capturer grabs the pixels of a rectangle in global desktop coordinates.
type Capturer interface {
	Capture(ctx context.Context, region platform.Rect) (*image.RGBA, error)
	Name() string
}

// Backend names.
const (
	BackendAuto = "auto"
	BackendKWin = "kwin"
	BackendX11  = "x11"
)

// Options selects and configures a capture backend.
type Options struct {
	Backend          string
	NativeResolution bool
	IncludeCursor    bool
	Timeout          time.Duration
	Logger           *slog.Logger
}

// New returns the capturer for opts.Backend. "auto" picks KWin on KDE
// sessions and X11 elsewhere.
func New(opts Options) (Capturer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backend := opts.Backend
	if backend == "" || backend == BackendAuto {
		backend = detectBackend(os.Getenv("XDG_CURRENT_DESKTOP"))
		logger.Debug("capture backend detected", "backend", backend)
	}

	switch backend {
	case BackendKWin:
		return &KWin{
			NativeResolution: opts.NativeResolution,
			IncludeCursor:    opts.IncludeCursor,
			Timeout:          opts.Timeout,
			logger:           logger,
		}, nil
	case BackendX11:
		return &X11{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", opts.Backend)
	}
}

func detectBackend(desktop string) string {
	for _, part := range strings.Split(desktop, ":") {
		if strings.EqualFold(strings.TrimSpace(part), "KDE") {
			return BackendKWin
		}
	}
	return BackendX11
}

func checkRegion(region platform.Rect) error {
	if region.Empty() {
		return fmt.Errorf("%w: %dx%d", ErrEmptyRegion, region.Width, region.Height)
	}
	return nil
}
