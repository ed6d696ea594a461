package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/hexar-io/hexarctl/internal/builder"
	"github.com/hexar-io/hexarctl/internal/config"
	"github.com/hexar-io/hexarctl/internal/logging"
	"github.com/hexar-io/hexarctl/internal/marker"
)

// ErrAlreadyRunning indicates a live instance exists. Not treated as a
// failure: start short-circuits with a warning.
var ErrAlreadyRunning = errors.New("radar controller already running")

// Options selects the launch mode.
type Options struct {
	Daemon bool
	Unsafe bool
}

// Outcome describes a completed launch.
type Outcome struct {
	PID      int
	Daemon   bool
	ExitCode int // foreground mode only
}

// Launcher builds and starts the radar controller.
type Launcher struct {
	settings *config.Settings
	store    marker.Store
	builder  builder.Builder
	log      *logging.Logger
}

// New creates a launcher. The marker store and builder are injected so tests
// can substitute them.
func New(settings *config.Settings, store marker.Store, b builder.Builder, log *logging.Logger) *Launcher {
	return &Launcher{
		settings: settings,
		store:    store,
		builder:  b,
		log:      log,
	}
}

// deriveArgs constructs the controller's argument vector. The config path is
// forwarded only when the file actually exists; the controller falls back to
// its own defaults otherwise.
func (l *Launcher) deriveArgs(opts Options) []string {
	args := []string{"start"}
	if opts.Daemon {
		args = append(args, "--daemon")
	}
	if opts.Unsafe {
		args = append(args, "--unsafe")
	}
	if _, err := os.Stat(l.settings.RadarConfigPath); err == nil {
		args = append(args, "--config", l.settings.RadarConfigPath)
	}
	return args
}

// Start builds the controller and launches it. The caller has already
// confirmed no instance is alive; the exclusive marker acquire below only
// hardens the remaining race between two concurrent starts.
func (l *Launcher) Start(ctx context.Context, opts Options) (*Outcome, error) {
	if err := l.builder.Build(ctx); err != nil {
		return nil, err
	}

	if opts.Unsafe {
		l.log.Warn("UNSAFE MODE ENABLED: operator safety checks are disabled")
		l.log.Warn("the controller will transmit without interlock verification")
	}

	args := l.deriveArgs(opts)
	if opts.Daemon {
		return l.startDaemon(args)
	}
	return l.startForeground(ctx, args)
}

// startForeground launches the controller attached to the console and blocks
// until it exits. Its exit code becomes the supervisor's own.
func (l *Launcher) startForeground(ctx context.Context, args []string) (*Outcome, error) {
	l.log.Info("starting radar controller in foreground")

	cmd := exec.CommandContext(ctx, l.settings.BinaryPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Outcome{PID: cmd.Process.Pid, ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, fmt.Errorf("failed to run radar controller: %w", err)
	}
	return &Outcome{PID: cmd.Process.Pid}, nil
}

// startDaemon launches the controller detached from the session, with output
// redirected to the radar log sink, and records its PID before returning.
func (l *Launcher) startDaemon(args []string) (*Outcome, error) {
	logSink, err := os.OpenFile(l.settings.RadarLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open radar log %s: %w", l.settings.RadarLogPath(), err)
	}
	defer logSink.Close()

	cmd := exec.Command(l.settings.BinaryPath, args...)
	cmd.Stdout = logSink
	cmd.Stderr = logSink
	// New session: the controller survives the supervisor exiting and is
	// never reached by the operator's terminal signals.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start radar controller: %w", err)
	}
	pid := cmd.Process.Pid

	if err := l.store.Acquire(pid); err != nil {
		if errors.Is(err, marker.ErrMarkerExists) {
			// Lost the start race: tear down our child and defer to the winner.
			cmd.Process.Signal(syscall.SIGTERM)
			go cmd.Wait()
			return nil, fmt.Errorf("%w: concurrent start won the marker", ErrAlreadyRunning)
		}
		cmd.Process.Signal(syscall.SIGTERM)
		go cmd.Wait()
		return nil, fmt.Errorf("failed to record instance marker: %w", err)
	}

	// Reap asynchronously so a controller that exits before the supervisor
	// does is not left as a zombie.
	go cmd.Wait()

	l.log.Info("radar controller started (pid %d), logging to %s", pid, l.settings.RadarLogPath())
	return &Outcome{PID: pid, Daemon: true}, nil
}
