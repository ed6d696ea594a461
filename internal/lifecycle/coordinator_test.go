package lifecycle

import (
	"errors"
	"io"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/hexar-io/hexarctl/internal/logging"
	"github.com/hexar-io/hexarctl/internal/marker"
)

func quietLogger() *logging.Logger {
	log := logging.New(logging.ERROR)
	log.SetOutput(io.Discard)
	return log
}

// fakeProcess simulates a managed process's reaction to signals.
type fakeProcess struct {
	alive         bool
	diesOnTerm    bool
	diesOnKill    bool
	signals       []syscall.Signal
	signalDeliver error
}

func (p *fakeProcess) probe(pid int) bool {
	return p.alive
}

func (p *fakeProcess) signal(pid int, sig syscall.Signal) error {
	p.signals = append(p.signals, sig)
	if p.signalDeliver != nil {
		return p.signalDeliver
	}
	if (sig == syscall.SIGTERM && p.diesOnTerm) || (sig == syscall.SIGKILL && p.diesOnKill) {
		p.alive = false
	}
	return nil
}

func newTestCoordinator(store marker.Store, p *fakeProcess) *Coordinator {
	return NewCoordinator(store, quietLogger(),
		WithTimeUnit(5*time.Millisecond),
		WithProbe(p.probe),
		WithSignaller(p.signal),
	)
}

func TestStopNothingRunning(t *testing.T) {
	store := marker.NewMemoryStore()
	p := &fakeProcess{}

	c := newTestCoordinator(store, p)
	if err := c.Stop(2); err != nil {
		t.Fatalf("Stop with no marker should succeed: %v", err)
	}
	if c.State() != StateTerminated {
		t.Errorf("state = %v, want %v", c.State(), StateTerminated)
	}
	if len(p.signals) != 0 {
		t.Errorf("no signals should be sent, got %v", p.signals)
	}
}

func TestStopIdempotent(t *testing.T) {
	store := marker.NewMemoryStore()

	// Two consecutive stops with no process running both succeed and
	// leave no marker behind.
	for i := 0; i < 2; i++ {
		p := &fakeProcess{}
		c := newTestCoordinator(store, p)
		if err := c.Stop(2); err != nil {
			t.Fatalf("Stop #%d failed: %v", i+1, err)
		}
	}
	if _, err := store.Read(); !errors.Is(err, marker.ErrNoMarker) {
		t.Errorf("marker should be absent after double stop, got %v", err)
	}
}

func TestStopStaleMarker(t *testing.T) {
	store := marker.NewMemoryStore()
	if err := store.Write(9999); err != nil {
		t.Fatal(err)
	}
	p := &fakeProcess{alive: false}

	c := newTestCoordinator(store, p)
	if err := c.Stop(2); err != nil {
		t.Fatalf("Stop with a stale marker should self-heal: %v", err)
	}
	if _, err := store.Read(); !errors.Is(err, marker.ErrNoMarker) {
		t.Error("stale marker should be cleared")
	}
	if len(p.signals) != 0 {
		t.Errorf("dead process must not be signaled, got %v", p.signals)
	}
}

func TestStopGraceful(t *testing.T) {
	store := marker.NewMemoryStore()
	if err := store.Write(1234); err != nil {
		t.Fatal(err)
	}
	p := &fakeProcess{alive: true, diesOnTerm: true}

	c := newTestCoordinator(store, p)
	if err := c.Stop(30); err != nil {
		t.Fatalf("graceful stop failed: %v", err)
	}

	if len(p.signals) != 1 || p.signals[0] != syscall.SIGTERM {
		t.Errorf("signals = %v, want [SIGTERM]", p.signals)
	}
	if _, err := store.Read(); !errors.Is(err, marker.ErrNoMarker) {
		t.Error("marker should be cleared after graceful stop")
	}
	if c.State() != StateTerminated {
		t.Errorf("state = %v, want %v", c.State(), StateTerminated)
	}
}

func TestStopEscalation(t *testing.T) {
	store := marker.NewMemoryStore()
	if err := store.Write(1234); err != nil {
		t.Fatal(err)
	}
	// Process ignores SIGTERM, dies on SIGKILL.
	p := &fakeProcess{alive: true, diesOnKill: true}

	c := newTestCoordinator(store, p)
	start := time.Now()
	if err := c.Stop(2); err != nil {
		t.Fatalf("escalated stop failed: %v", err)
	}
	elapsed := time.Since(start)

	if len(p.signals) != 2 || p.signals[0] != syscall.SIGTERM || p.signals[1] != syscall.SIGKILL {
		t.Errorf("signals = %v, want [SIGTERM SIGKILL]", p.signals)
	}
	// Must have waited the full graceful window (2 units of 5ms) before
	// escalating.
	if elapsed < 10*time.Millisecond {
		t.Errorf("escalated after %v, want >= 10ms of graceful waiting", elapsed)
	}

	want := []State{StateIdle, StateSignalSent, StateWaitingGraceful,
		StateSignalEscalated, StateWaitingForce, StateTerminated}
	got := c.History()
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history = %v, want %v", got, want)
		}
	}

	if _, err := store.Read(); !errors.Is(err, marker.ErrNoMarker) {
		t.Error("marker should be cleared after escalated stop")
	}
}

func TestStopUnkillable(t *testing.T) {
	store := marker.NewMemoryStore()
	if err := store.Write(1234); err != nil {
		t.Fatal(err)
	}
	p := &fakeProcess{alive: true} // survives everything

	c := newTestCoordinator(store, p)
	err := c.Stop(1)
	if !errors.Is(err, ErrShutdownFailed) {
		t.Fatalf("Stop error = %v, want ErrShutdownFailed", err)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %v, want %v", c.State(), StateFailed)
	}
	// Marker stays for operator investigation.
	if pid, err := store.Read(); err != nil || pid != 1234 {
		t.Errorf("marker should be left intact, got (%d, %v)", pid, err)
	}
}

func TestStopSignalErrorOnDyingProcess(t *testing.T) {
	store := marker.NewMemoryStore()
	if err := store.Write(1234); err != nil {
		t.Fatal(err)
	}

	// Delivery fails, but the process turns out dead on re-probe:
	// treated as success.
	p := &fakeProcess{alive: true, signalDeliver: syscall.ESRCH}
	c := NewCoordinator(store, quietLogger(),
		WithTimeUnit(5*time.Millisecond),
		WithProbe(func(pid int) bool {
			alive := p.alive
			p.alive = false // dies right after the first probe
			return alive
		}),
		WithSignaller(p.signal),
	)

	if err := c.Stop(2); err != nil {
		t.Fatalf("signal error on a dying process should be resolved: %v", err)
	}
}

func TestStopRealProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real process test in short mode")
	}

	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start helper: %v", err)
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	store := marker.NewMemoryStore()
	if err := store.Write(cmd.Process.Pid); err != nil {
		t.Fatal(err)
	}

	// Reap in the background so the child does not linger as a zombie,
	// which the probe would still report alive.
	go cmd.Wait()

	c := NewCoordinator(store, quietLogger(), WithTimeUnit(50*time.Millisecond))
	if err := c.Stop(30); err != nil {
		t.Fatalf("stopping a real process failed: %v", err)
	}
	if _, err := store.Read(); !errors.Is(err, marker.ErrNoMarker) {
		t.Error("marker should be cleared")
	}
}
