package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// OverlayConfig controls the selection overlay.
type OverlayConfig struct {
	// Color is the non-premultiplied fill colour as #rrggbb.
	Color string `yaml:"color"`
	// Alpha is the fill opacity, 0-255.
	Alpha int `yaml:"alpha"`
	// FPS caps the redraw rate of each output.
	FPS int `yaml:"fps"`
	// MinDragDistance is how far the pointer must move from the press point
	// before a drag starts. 0 = any movement.
	MinDragDistance int `yaml:"min_drag_distance"`
	// CancelKeys are key names that abort the selection.
	CancelKeys []string `yaml:"cancel_keys"`
}

// Capture backends.
const (
	CaptureAuto = "auto"
	CaptureKWin = "kwin"
	CaptureX11  = "x11"
)

// CaptureConfig controls how the selected region is grabbed for `scan`.
type CaptureConfig struct {
	Backend          string `yaml:"backend"`
	NativeResolution bool   `yaml:"native_resolution"`
	IncludeCursor    bool   `yaml:"include_cursor"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// DecodeConfig controls QR decoding of captured regions.
type DecodeConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Output formats.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config holds the application configuration.
type Config struct {
	// Display overrides $DISPLAY.
	Display string        `yaml:"display"`
	Overlay OverlayConfig `yaml:"overlay"`
	Capture CaptureConfig `yaml:"capture"`
	Decode  DecodeConfig  `yaml:"decode"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	// Hotkey is the key sequence bound by `areascan daemon`, e.g. "Mod4-Shift-q".
	Hotkey string `yaml:"hotkey"`
}

func DefaultConfig() *Config {
	return &Config{
		Overlay: OverlayConfig{
			Color:           "#646464",
			Alpha:           128,
			FPS:             60,
			MinDragDistance: 0,
			CancelKeys:      []string{"Escape"},
		},
		Capture: CaptureConfig{
			Backend:          CaptureAuto,
			NativeResolution: true,
			IncludeCursor:    false,
			TimeoutSec:       10,
		},
		Decode: DecodeConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format: FormatAuto,
		},
		Log: LogConfig{
			Level: "info",
		},
		Hotkey: "Mod4-Shift-q",
	}
}

// FillColor returns the overlay colour with its alpha applied.
func (c *Config) FillColor() (color.NRGBA, error) {
	rgb, err := parseHexColor(c.Overlay.Color)
	if err != nil {
		return color.NRGBA{}, err
	}
	rgb.A = uint8(c.Overlay.Alpha)
	return rgb, nil
}

// CancelKeysyms resolves the configured cancel key names.
func (c *Config) CancelKeysyms() ([]uint32, error) {
	out := make([]uint32, 0, len(c.Overlay.CancelKeys))
	for _, name := range c.Overlay.CancelKeys {
		sym, ok := Keysym(name)
		if !ok {
			return nil, fmt.Errorf("unknown key name %q", name)
		}
		out = append(out, sym)
	}
	return out, nil
}

func (c *Config) Validate() error {
	if _, err := parseHexColor(c.Overlay.Color); err != nil {
		return &ValidationError{Path: "overlay.color", Err: err}
	}
	if c.Overlay.Alpha < 0 || c.Overlay.Alpha > 255 {
		return &ValidationError{Path: "overlay.alpha", Err: fmt.Errorf("alpha must be between 0 and 255")}
	}
	if c.Overlay.FPS < 1 || c.Overlay.FPS > 240 {
		return &ValidationError{Path: "overlay.fps", Err: fmt.Errorf("fps must be between 1 and 240")}
	}
	if c.Overlay.MinDragDistance < 0 {
		return &ValidationError{Path: "overlay.min_drag_distance", Err: fmt.Errorf("min_drag_distance must be >= 0")}
	}
	if len(c.Overlay.CancelKeys) == 0 {
		return &ValidationError{Path: "overlay.cancel_keys", Err: fmt.Errorf("cancel_keys must not be empty")}
	}
	if _, err := c.CancelKeysyms(); err != nil {
		return &ValidationError{Path: "overlay.cancel_keys", Err: err}
	}

	switch c.Capture.Backend {
	case CaptureAuto, CaptureKWin, CaptureX11:
	default:
		return &ValidationError{Path: "capture.backend", Err: fmt.Errorf("backend must be one of: auto, kwin, x11")}
	}
	if c.Capture.TimeoutSec <= 0 {
		return &ValidationError{Path: "capture.timeout_sec", Err: fmt.Errorf("timeout_sec must be > 0")}
	}

	switch c.Output.Format {
	case FormatAuto, FormatText, FormatJSON:
	default:
		return &ValidationError{Path: "output.format", Err: fmt.Errorf("format must be one of: auto, text, json")}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	return nil
}

// ValidationError ties a validation failure to a YAML path and, when known,
// the file position it was read from.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func parseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q must be #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q must be #rrggbb", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
