package probe

import (
	"errors"
	"os"
	"syscall"
)

// Alive reports whether pid refers to a live process, using a no-op signal.
// EPERM means the process exists but belongs to someone else; from the
// supervisor's perspective it is still running. PID reuse after a crash can
// produce a false positive; callers treat liveness as best-effort.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
