package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/areascan/internal/hotkeys"
	"github.com/1broseidon/areascan/internal/x11"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/areascan/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: areascan daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Grab the configured hotkey and run 'areascan scan' each time it is pressed.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitFailure
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		return exitFailure
	}

	a, err := loadApp(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if a.cfg.Hotkey == "" {
		fmt.Fprintln(os.Stderr, "hotkey is not configured")
		return exitFailure
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to find executable: %v\n", err)
		return exitFailure
	}
	scanArgs := []string{"scan", "--format", "text"}
	if a.configPath != "" {
		scanArgs = append(scanArgs, "--config", a.configPath)
	}

	conn, err := x11.NewConnection(a.cfg.Display)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to display: %v\n", err)
		return exitFailure
	}

	launcher := hotkeys.NewLauncher(exe, scanArgs, a.logger)
	handler := hotkeys.NewHandler(conn.XUtil, conn.Root, a.logger)
	if err := handler.Register(a.cfg.Hotkey, func() { launcher.Trigger() }); err != nil {
		conn.Close()
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		a.logger.Info("shutting down", "signal", sig.String())
		handler.Quit()
		// Wakes the event loop blocked in WaitForEvent.
		conn.Close()
	}()

	a.logger.Info("areascan daemon started", "hotkey", a.cfg.Hotkey)
	handler.Run()
	return exitOK
}
