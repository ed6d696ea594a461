package lifecycle

import "fmt"

// State is a stage of the shutdown state machine.
type State string

const (
	StateIdle            State = "idle"             // Nothing done yet
	StateSignalSent      State = "signal_sent"      // Polite SIGTERM delivered
	StateWaitingGraceful State = "waiting_graceful" // Polling for voluntary exit
	StateSignalEscalated State = "signal_escalated" // SIGKILL delivered after timeout
	StateWaitingForce    State = "waiting_force"    // Short grace after forced kill
	StateTerminated      State = "terminated"       // Process confirmed dead
	StateFailed          State = "failed"           // Survived the forced kill
)

// validTransitions maps from-state to allowed to-states
var validTransitions = map[State]map[State]bool{
	StateIdle: {
		StateTerminated: true, // Idle → Terminated (nothing to stop, or stale marker)
		StateSignalSent: true, // Idle → SignalSent (live process found)
	},
	StateSignalSent: {
		StateWaitingGraceful: true, // SignalSent → WaitingGraceful (begin polling)
	},
	StateWaitingGraceful: {
		StateTerminated:      true, // WaitingGraceful → Terminated (voluntary exit)
		StateSignalEscalated: true, // WaitingGraceful → SignalEscalated (timeout elapsed)
	},
	StateSignalEscalated: {
		StateWaitingForce: true, // SignalEscalated → WaitingForce (grace after kill)
	},
	StateWaitingForce: {
		StateTerminated: true, // WaitingForce → Terminated (kill took effect)
		StateFailed:     true, // WaitingForce → Failed (process survived SIGKILL)
	},
	// Terminal states (no transitions allowed)
	StateTerminated: {},
	StateFailed:     {},
}

// ValidateTransition checks if a state transition is valid
func ValidateTransition(from, to State) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source state: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalState returns true if no further transitions are allowed
func IsTerminalState(s State) bool {
	return s == StateTerminated || s == StateFailed
}
