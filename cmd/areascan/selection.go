package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/1broseidon/areascan/internal/config"
	"github.com/1broseidon/areascan/internal/decode"
	"github.com/1broseidon/areascan/internal/platform"
	"github.com/1broseidon/areascan/internal/selection"
)

// Clients need a moment to repaint what the overlay covered.
const captureDelay = 100 * time.Millisecond

func runSelect(args []string) int {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/areascan/config.yaml)")
	format := fs.String("format", "", "Output format: auto, text or json (default: output.format)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: areascan select [--config PATH] [--format FORMAT]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Cover every monitor with an overlay, let the user drag out a rectangle")
		fmt.Fprintln(os.Stderr, "and print it in global desktop coordinates as 'X,Y WxH'.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitFailure
	}

	a, err := loadApp(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	outFormat, err := outputFormat(a.cfg, *format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	ctx, cancel := signalContext()
	defer cancel()

	rect, err := a.lockedSelect(ctx)
	if err != nil {
		reportSelectError(err)
		return exitCodeFor(err)
	}
	if err := writeRect(os.Stdout, resolveFormat(outFormat, os.Stdout), rect); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}

func runScan(args []string) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/areascan/config.yaml)")
	format := fs.String("format", "", "Output format: auto, text or json (default: output.format)")
	save := fs.String("save", "", "Also write the captured region to this PNG file")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: areascan scan [--config PATH] [--format FORMAT] [--save FILE.png]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Select a region, capture it and print every QR code found as 'decoded: TEXT'.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitFailure
	}

	a, err := loadApp(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	outFormat, err := outputFormat(a.cfg, *format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	capturer, err := a.capturer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	ctx, cancel := signalContext()
	defer cancel()

	release, err := a.acquireLock()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	defer release()

	rect, err := a.selectRegion(ctx)
	if err != nil {
		reportSelectError(err)
		return exitCodeFor(err)
	}
	if err := checkCaptureRegion(rect); err != nil {
		fmt.Fprintf(os.Stderr, "%v: %s\n", err, formatRect(rect))
		return exitCodeFor(err)
	}
	time.Sleep(captureDelay)

	img, err := capturer.Capture(ctx, rect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capture failed (%s): %v\n", capturer.Name(), err)
		return exitFailure
	}
	if *save != "" {
		if err := savePNG(*save, img); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		a.logger.Info("capture saved", "path", *save)
	}

	var codes []string
	if a.cfg.Decode.Enabled {
		codes, err = decode.QR(img)
		if err != nil && !errors.Is(err, decode.ErrNotFound) {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
	}

	resolved := resolveFormat(outFormat, os.Stdout)
	if err := writeScan(os.Stdout, resolved, rect, codes); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if a.cfg.Decode.Enabled && len(codes) == 0 {
		if resolved == config.FormatText {
			fmt.Fprintln(os.Stderr, errNothingDecoded)
		}
		return exitCodeFor(errNothingDecoded)
	}
	return exitOK
}

// checkCaptureRegion rejects a straight-line drag, which selects a valid
// rectangle with nothing in it.
func checkCaptureRegion(rect platform.Rect) error {
	if rect.Empty() {
		return errEmptySelection
	}
	return nil
}

func runOutputs(args []string) int {
	fs := flag.NewFlagSet("outputs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/areascan/config.yaml)")
	format := fs.String("format", "", "Output format: auto, text or json (default: output.format)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: areascan outputs [--config PATH] [--format FORMAT]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List connected monitors in global desktop coordinates.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitFailure
	}

	a, err := loadApp(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	outFormat, err := outputFormat(a.cfg, *format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	outputs, err := a.listOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if err := writeOutputs(os.Stdout, resolveFormat(outFormat, os.Stdout), outputs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}

// outputFormat returns the --format override, or the configured format.
func outputFormat(cfg *config.Config, flagValue string) (string, error) {
	if flagValue == "" {
		return cfg.Output.Format, nil
	}
	switch flagValue {
	case config.FormatAuto, config.FormatText, config.FormatJSON:
		return flagValue, nil
	default:
		return "", fmt.Errorf("unknown format %q (want auto, text or json)", flagValue)
	}
}

func reportSelectError(err error) {
	switch {
	case errors.Is(err, selection.ErrCancelled):
		fmt.Fprintln(os.Stderr, "selection cancelled")
	case errors.Is(err, selection.ErrNoSelection):
		fmt.Fprintln(os.Stderr, "no region selected")
	default:
		fmt.Fprintln(os.Stderr, err)
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
