package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/1broseidon/areascan/internal/platform"
	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"
)

const (
	kwinService   = "org.kde.KWin.ScreenShot2"
	kwinPath      = dbus.ObjectPath("/org/kde/KWin/ScreenShot2")
	kwinInterface = "org.kde.KWin.ScreenShot2"
)

// KWin captures through KWin's ScreenShot2 D-Bus interface. The image is
// streamed over a pipe as raw 32-bit pixels in B, G, R, A byte order.
type KWin struct {
	NativeResolution bool
	IncludeCursor    bool
	Timeout          time.Duration

	logger *slog.Logger
}

func (k *KWin) Name() string { return BackendKWin }

func (k *KWin) Capture(ctx context.Context, region platform.Rect) (*image.RGBA, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	if k.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.Timeout)
		defer cancel()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	reader, writeFD, err := newCapturePipe()
	if err != nil {
		return nil, err
	}
	// Closing the poller-backed reader also ends a pending read.
	defer reader.Close()

	// KWin writes after replying; drain concurrently so a full pipe never
	// stalls it.
	type readResult struct {
		data []byte
		err  error
	}
	readCh := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(reader)
		readCh <- readResult{data: data, err: err}
	}()

	options := map[string]dbus.Variant{
		"native-resolution": dbus.MakeVariant(k.NativeResolution),
		"include-cursor":    dbus.MakeVariant(k.IncludeCursor),
	}

	obj := conn.Object(kwinService, kwinPath)
	call := obj.CallWithContext(ctx, kwinInterface+".CaptureArea", 0,
		int32(region.X), int32(region.Y), uint32(region.Width), uint32(region.Height),
		options, dbus.UnixFD(writeFD))
	// Our copy of the write end must go so the reader sees EOF.
	unix.Close(writeFD)

	var results map[string]dbus.Variant
	if err := call.Store(&results); err != nil {
		return nil, fmt.Errorf("CaptureArea failed: %w", err)
	}
	meta, err := parseCaptureResult(results)
	if err != nil {
		return nil, err
	}

	var res readResult
	select {
	case res = <-readCh:
	case <-ctx.Done():
		return nil, fmt.Errorf("timed out reading screenshot: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("failed to read screenshot data: %w", res.err)
	}

	img, err := bgraToRGBA(res.data, meta.width, meta.height, meta.stride)
	if err != nil {
		return nil, err
	}
	k.logger.Debug("captured region", "backend", BackendKWin,
		"width", meta.width, "height", meta.height, "scale", meta.scale)
	return img, nil
}

// newCapturePipe returns a non-blocking read end registered with the runtime
// poller and a blocking write end for KWin.
func newCapturePipe() (*os.File, int, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, -1, fmt.Errorf("failed to create pipe: %w", err)
	}
	if err := unix.SetNonblock(fds[1], false); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, -1, fmt.Errorf("failed to configure pipe: %w", err)
	}
	return os.NewFile(uintptr(fds[0]), "kwin-screenshot"), fds[1], nil
}

type captureMeta struct {
	width  int
	height int
	stride int
	scale  float64
}

func parseCaptureResult(results map[string]dbus.Variant) (captureMeta, error) {
	var meta captureMeta
	meta.width = variantInt(results, "width")
	meta.height = variantInt(results, "height")
	meta.stride = variantInt(results, "stride")
	if v, ok := results["scale"]; ok {
		if f, ok := v.Value().(float64); ok {
			meta.scale = f
		}
	}
	if meta.width <= 0 || meta.height <= 0 {
		return captureMeta{}, fmt.Errorf("screenshot reply has no size (width=%d height=%d)", meta.width, meta.height)
	}
	if meta.stride < meta.width*4 {
		meta.stride = meta.width * 4
	}
	return meta, nil
}

func variantInt(results map[string]dbus.Variant, key string) int {
	v, ok := results[key]
	if !ok {
		return 0
	}
	switch n := v.Value().(type) {
	case uint32:
		return int(n)
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}

// bgraToRGBA converts rows of B, G, R, A pixels into an image.RGBA.
func bgraToRGBA(data []byte, width, height, stride int) (*image.RGBA, error) {
	need := stride*(height-1) + width*4
	if len(data) < need {
		return nil, fmt.Errorf("screenshot data truncated: got %d bytes, want %d", len(data), need)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		in := data[y*stride : y*stride+width*4]
		out := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < len(in); x += 4 {
			out[x+0] = in[x+2]
			out[x+1] = in[x+1]
			out[x+2] = in[x+0]
			out[x+3] = in[x+3]
		}
	}
	return img, nil
}
