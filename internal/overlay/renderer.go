package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"time"

	"github.com/1broseidon/areascan/internal/platform"
	"github.com/1broseidon/areascan/internal/selection"
)

// DefaultFPS is the target redraw rate.
const DefaultFPS = 60

// DefaultFill is the translucent mid-gray drawn over every output.
var DefaultFill = color.NRGBA{R: 0x64, G: 0x64, B: 0x64, A: 0x80}

// Clock is the time source used for frame pacing.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Renderer composes, uploads and presents overlay frames.
type Renderer struct {
	backend  platform.Backend
	clock    Clock
	fill     color.RGBA
	interval time.Duration
	logger   *slog.Logger
}

// NewRenderer creates a renderer that presents through backend. A zero fps
// selects DefaultFPS and a nil fill selects DefaultFill.
func NewRenderer(backend platform.Backend, clock Clock, fill color.Color, fps int, logger *slog.Logger) *Renderer {
	if clock == nil {
		clock = systemClock{}
	}
	if fill == nil {
		fill = DefaultFill
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		backend: backend,
		clock:   clock,
		// color.RGBA is alpha-premultiplied, which is what the compositor expects.
		fill:     color.RGBAModel.Convert(fill).(color.RGBA),
		interval: time.Second / time.Duration(fps),
		logger:   logger,
	}
}

// Interval returns the minimum time between two draws of one surface.
func (r *Renderer) Interval() time.Duration {
	return r.interval
}

// Frame handles a frame callback: it waits out the rest of the frame
// interval of this surface, then draws. The sleep blocks the whole loop.
func (r *Renderer) Frame(s *Surface, sel *selection.Selection) error {
	if !s.lastDraw.IsZero() {
		elapsed := r.clock.Now().Sub(s.lastDraw)
		if elapsed < r.interval {
			r.clock.Sleep(r.interval - elapsed)
		}
	}
	return r.Draw(s, sel)
}

// Draw composes the surface immediately and presents it.
func (r *Renderer) Draw(s *Surface, sel *selection.Selection) error {
	s.lastDraw = r.clock.Now()
	s.configured = true

	r.compose(s, sel)

	buf, err := r.backend.AcquireBuffer(s.ID, s.Region.Width, s.Region.Height)
	if err != nil {
		return fmt.Errorf("surface %d (%s): %w", s.ID, s.Output.Name, err)
	}
	upload(buf, s.Pixels)

	if err := r.backend.Present(s.ID, buf); err != nil {
		return fmt.Errorf("failed to present surface %d (%s): %w", s.ID, s.Output.Name, err)
	}
	return nil
}

func (r *Renderer) compose(s *Surface, sel *selection.Selection) {
	bounds := s.Pixels.Bounds()
	draw.Draw(s.Pixels, bounds, image.NewUniform(r.fill), image.Point{}, draw.Src)

	if sel == nil {
		return
	}
	rect, ok := sel.Rect()
	if !ok || rect.Empty() {
		return
	}

	local := image.Rect(
		rect.X-s.Region.X,
		rect.Y-s.Region.Y,
		rect.X-s.Region.X+rect.Width,
		rect.Y-s.Region.Y+rect.Height,
	)
	// Src with a transparent source punches a clear window instead of tinting it.
	draw.Draw(s.Pixels, local.Intersect(bounds), image.Transparent, image.Point{}, draw.Src)
}

// upload copies premultiplied RGBA pixels into an ARGB8888 little-endian
// (B, G, R, A byte order) buffer.
func upload(dst platform.Buffer, src *image.RGBA) {
	width := min(dst.Width(), src.Rect.Dx())
	height := min(dst.Height(), src.Rect.Dy())
	data := dst.Data()
	stride := dst.Stride()

	for y := 0; y < height; y++ {
		in := src.Pix[y*src.Stride : y*src.Stride+width*4]
		out := data[y*stride : y*stride+width*4]
		for x := 0; x < len(in); x += 4 {
			out[x+0] = in[x+2]
			out[x+1] = in[x+1]
			out[x+2] = in[x+0]
			out[x+3] = in[x+3]
		}
	}
}
