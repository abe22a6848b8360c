package hotkeys

import (
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// Launcher runs a command on each hotkey press, skipping presses while a
// previous run is still alive.
type Launcher struct {
	Path string
	Args []string

	logger *slog.Logger
	onExit func(error)

	mu      sync.Mutex
	running bool
}

// NewLauncher returns a launcher for path with args.
func NewLauncher(path string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{Path: path, Args: args, logger: logger}
}

// Trigger starts the command unless one is already running. It reports
// whether a new process was started.
func (l *Launcher) Trigger() bool {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.logger.Debug("previous run still active; ignoring hotkey")
		return false
	}
	l.running = true
	l.mu.Unlock()

	cmd := exec.Command(l.Path, l.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		l.logger.Error("failed to start command", "path", l.Path, "error", err)
		l.finish(err)
		return false
	}
	l.logger.Info("started", "path", l.Path, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		if err != nil {
			l.logger.Warn("command exited", "path", l.Path, "error", err)
		}
		l.finish(err)
	}()
	return true
}

// Running reports whether a started command has not yet exited.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Launcher) finish(err error) {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
	if l.onExit != nil {
		l.onExit(err)
	}
}
