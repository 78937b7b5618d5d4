// Package script implements the main tick-driven state machine of the
// hunter: target acquisition, engagement, kill monitoring, anchor
// management, and bounded recovery, preempted each tick by a strict
// priority interrupt chain.
package script

// State is the closed set of main-loop states.
//
// Invariant: exactly one State is active per session; StateStop is terminal.
type State int

const (
	// StateInit captures the anchor and baseline progress readings.
	StateInit State = iota
	// StateEnsureAnchor verifies the agent is inside the anchor tolerance,
	// walking back when displaced.
	StateEnsureAnchor
	// StateAcquire searches the hunt region for a cluster and correlates
	// it to a tracked identity.
	StateAcquire
	// StateEngage issues the menu-validated attack and confirms it via
	// overlay appearance.
	StateEngage
	// StateMonitor runs the kill-detection fusion rules each tick.
	StateMonitor
	// StateReengage re-attacks the locked identity after an anchor
	// interruption instead of reacquiring blindly.
	StateReengage
	// StatePostKill records the kill and routes onward. Loot execution is
	// a host concern; this state only routes.
	StatePostKill
	// StateLoot is the loot stage stub.
	StateLoot
	// StateRecovery applies the global retry budget and backoff.
	StateRecovery
	// StateStop is terminal.
	StateStop
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateEnsureAnchor:
		return "ENSURE_ANCHOR"
	case StateAcquire:
		return "ACQUIRE_TARGET"
	case StateEngage:
		return "ENGAGE_TARGET"
	case StateMonitor:
		return "MONITOR_COMBAT"
	case StateReengage:
		return "REENGAGE_LOCKED_TARGET"
	case StatePostKill:
		return "POST_KILL"
	case StateLoot:
		return "LOOT"
	case StateRecovery:
		return "RECOVERY"
	case StateStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}
