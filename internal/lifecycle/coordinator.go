package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/hexar-io/hexarctl/internal/logging"
	"github.com/hexar-io/hexarctl/internal/marker"
	"github.com/hexar-io/hexarctl/internal/probe"
)

// ErrShutdownFailed indicates the process survived the forced kill. The
// marker is intentionally left intact so the stale state stays visible.
var ErrShutdownFailed = errors.New("process survived forced kill")

// DefaultTimeUnit is the production poll interval. The graceful wait polls
// once per unit, and a forced kill gets two units to take effect.
const DefaultTimeUnit = 1 * time.Second

// Coordinator drives the two-phase stop: polite signal, bounded wait,
// forceful signal, verify. Bounded escalation avoids indefinite hangs while
// giving the controller a chance to release antenna and serial handles.
type Coordinator struct {
	store  marker.Store
	log    *logging.Logger
	alive  func(pid int) bool
	signal func(pid int, sig syscall.Signal) error
	unit   time.Duration

	state   State
	history []State
}

// Option adjusts coordinator behavior, mainly for tests.
type Option func(*Coordinator)

// WithTimeUnit overrides the wait granularity.
func WithTimeUnit(unit time.Duration) Option {
	return func(c *Coordinator) {
		c.unit = unit
	}
}

// WithProbe overrides the liveness probe.
func WithProbe(alive func(pid int) bool) Option {
	return func(c *Coordinator) {
		c.alive = alive
	}
}

// WithSignaller overrides signal delivery.
func WithSignaller(signal func(pid int, sig syscall.Signal) error) Option {
	return func(c *Coordinator) {
		c.signal = signal
	}
}

// NewCoordinator creates a shutdown coordinator over the given marker store.
func NewCoordinator(store marker.Store, log *logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		log:    log,
		alive:  probe.Alive,
		signal: sendSignal,
		unit:   DefaultTimeUnit,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.history = []State{StateIdle}
	return c
}

// State returns the current machine state.
func (c *Coordinator) State() State {
	return c.state
}

// History returns every state visited, in order.
func (c *Coordinator) History() []State {
	return c.history
}

func (c *Coordinator) transition(to State) {
	if err := ValidateTransition(c.state, to); err != nil {
		// A bad transition is a programming error in the coordinator itself.
		panic(fmt.Sprintf("shutdown coordinator: %v", err))
	}
	c.state = to
	c.history = append(c.history, to)
}

// Stop terminates the running instance, waiting up to timeoutSeconds units
// after the polite signal before escalating to SIGKILL. Absent or stale
// markers are resolved silently: stop is idempotent.
func (c *Coordinator) Stop(timeoutSeconds uint) error {
	pid, err := c.store.Read()
	if errors.Is(err, marker.ErrNoMarker) {
		c.log.Info("no instance running, nothing to stop")
		c.transition(StateTerminated)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read instance marker: %w", err)
	}

	if !c.alive(pid) {
		c.log.Warn("stale marker for pid %d, cleaning up", pid)
		c.transition(StateTerminated)
		return c.store.Clear()
	}

	c.log.Info("stopping radar controller (pid %d)", pid)
	c.transition(StateSignalSent)
	if err := c.signal(pid, syscall.SIGTERM); err != nil && c.alive(pid) {
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}

	c.transition(StateWaitingGraceful)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * c.unit)
	for time.Now().Before(deadline) {
		time.Sleep(c.unit)
		if !c.alive(pid) {
			c.log.Info("radar controller stopped gracefully")
			c.transition(StateTerminated)
			return c.store.Clear()
		}
	}

	c.log.Warn("graceful stop timed out after %d units, escalating to SIGKILL", timeoutSeconds)
	c.transition(StateSignalEscalated)
	// A process that died between the probe and the kill is already what
	// we wanted; delivery errors only matter if it is still alive.
	if err := c.signal(pid, syscall.SIGKILL); err != nil && c.alive(pid) {
		return fmt.Errorf("failed to kill pid %d: %w", pid, err)
	}

	c.transition(StateWaitingForce)
	time.Sleep(2 * c.unit)

	if c.alive(pid) {
		c.transition(StateFailed)
		return fmt.Errorf("%w: pid %d, marker left for investigation", ErrShutdownFailed, pid)
	}

	c.log.Info("radar controller terminated")
	c.transition(StateTerminated)
	return c.store.Clear()
}

func sendSignal(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}
