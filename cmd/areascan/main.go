package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/areascan/internal/capture"
	"github.com/1broseidon/areascan/internal/config"
	"github.com/1broseidon/areascan/internal/logging"
	"github.com/1broseidon/areascan/internal/overlay"
	"github.com/1broseidon/areascan/internal/platform"
	"github.com/1broseidon/areascan/internal/runtimepath"
	"github.com/1broseidon/areascan/internal/selection"
)

const (
	exitOK       = 0
	exitNoResult = 1
	exitFailure  = 2
)

var (
	errNothingDecoded = errors.New("no QR code found in selection")
	errEmptySelection = errors.New("selected region has no area to capture")
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(exitOK)
	}

	switch os.Args[1] {
	case "select":
		os.Exit(runSelect(os.Args[2:]))
	case "scan":
		os.Exit(runScan(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(exitOK)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(exitFailure)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: areascan <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  select              Drag out a screen region and print it")
	fmt.Fprintln(w, "  scan                Select a region and decode QR codes in it")
	fmt.Fprintln(w, "  outputs             List connected monitors")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print the config file location")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  daemon              Run 'scan' on a global hotkey (foreground)")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Exit status: 0 on success, 1 when nothing was selected or decoded, 2 on errors.")
	fmt.Fprintln(w, "Run 'areascan <command> --help' for command-specific options.")
}

// exitCodeFor maps a command result to the process exit status.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, selection.ErrNoSelection), errors.Is(err, errNothingDecoded),
		errors.Is(err, errEmptySelection):
		return exitNoResult
	default:
		return exitFailure
	}
}

// app carries what every overlay command needs.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
}

func loadApp(configPath string) (*app, error) {
	var res *config.LoadResult
	var err error
	if configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(configPath)
	}
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, res.Config.Log.Level)
	if err != nil {
		return nil, err
	}
	if res.File != "" {
		logger.Debug("configuration loaded", "file", res.File)
	}
	return &app{cfg: res.Config, configPath: configPath, logger: logger}, nil
}

func (a *app) overlayOptions() (overlay.Options, error) {
	fill, err := a.cfg.FillColor()
	if err != nil {
		return overlay.Options{}, err
	}
	keys, err := a.cfg.CancelKeysyms()
	if err != nil {
		return overlay.Options{}, err
	}
	return overlay.Options{
		Fill:            fill,
		FPS:             a.cfg.Overlay.FPS,
		MinDragDistance: a.cfg.Overlay.MinDragDistance,
		CancelKeysyms:   keys,
		Logger:          a.logger,
	}, nil
}

// acquireLock takes the single-session lock, returning a release func.
func (a *app) acquireLock() (func(), error) {
	lock, err := runtimepath.Acquire()
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(); err != nil {
			a.logger.Warn("failed to release session lock", "error", err)
		}
	}, nil
}

// selectRegion runs one overlay session. The caller holds the session lock.
func (a *app) selectRegion(ctx context.Context) (platform.Rect, error) {
	opts, err := a.overlayOptions()
	if err != nil {
		return platform.Rect{}, err
	}
	backend, err := platform.NewLinuxBackend(a.cfg.Display, a.logger)
	if err != nil {
		return platform.Rect{}, err
	}
	defer backend.Close()

	rect, err := overlay.Select(ctx, backend, opts)
	if err != nil {
		return platform.Rect{}, err
	}
	a.logger.Debug("region selected", "x", rect.X, "y", rect.Y, "width", rect.Width, "height", rect.Height)
	return rect, nil
}

// lockedSelect is selectRegion under the session lock.
func (a *app) lockedSelect(ctx context.Context) (platform.Rect, error) {
	release, err := a.acquireLock()
	if err != nil {
		return platform.Rect{}, err
	}
	defer release()
	return a.selectRegion(ctx)
}

func (a *app) listOutputs() ([]platform.Output, error) {
	backend, err := platform.NewLinuxBackend(a.cfg.Display, a.logger)
	if err != nil {
		return nil, err
	}
	defer backend.Close()
	return backend.Outputs()
}

func (a *app) capturer() (capture.Capturer, error) {
	return capture.New(capture.Options{
		Backend:          a.cfg.Capture.Backend,
		NativeResolution: a.cfg.Capture.NativeResolution,
		IncludeCursor:    a.cfg.Capture.IncludeCursor,
		Timeout:          time.Duration(a.cfg.Capture.TimeoutSec) * time.Second,
		Logger:           a.logger,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func isHelpArg(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}
