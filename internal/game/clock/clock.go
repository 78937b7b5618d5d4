// Package clock provides the time abstraction used by the tick engine so
// that timeout-driven decisions can be tested without sleeping.
package clock

import "time"

// Clock is the time provider for all timeout and evidence-ageing decisions.
//
// Implementations MUST be safe for concurrent use.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// systemClock implements Clock using the wall clock.
type systemClock struct{}

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}

// Now returns time.Now().
func (systemClock) Now() time.Time { return time.Now() }
