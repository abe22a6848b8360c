package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/1broseidon/areascan/internal/platform"
	"github.com/kbinani/screenshot"
)

// X11 captures through the X server's root window.
type X11 struct {
	logger *slog.Logger
}

func (c *X11) Name() string { return BackendX11 }

func (c *X11) Capture(ctx context.Context, region platform.Rect) (*image.RGBA, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	c.logger.Debug("captured region", "backend", BackendX11, "width", img.Rect.Dx(), "height", img.Rect.Dy())
	return img, nil
}
