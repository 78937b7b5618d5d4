// Package testutil provides test helpers: a manually advanced clock, a
// deterministic randomness source, and function-field fakes for every
// sensor contract.
package testutil

import (
	"sync"
	"time"
)

// ManualClock is a clock.Clock advanced explicitly by tests, so timeout
// logic can be exercised without sleeping.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
//
// Precondition: d >= 0.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("testutil.ManualClock: cannot advance backwards")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// FixedSource is a dice.Source returning a scripted sequence of values,
// cycling when exhausted. A nil or empty sequence always returns 0.
type FixedSource struct {
	Values []int
	next   int
}

// Intn returns the next scripted value modulo n.
//
// Precondition: n > 0.
func (f *FixedSource) Intn(n int) int {
	if n <= 0 {
		panic("testutil.FixedSource: Intn called with n <= 0")
	}
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)] % n
	if v < 0 {
		v += n
	}
	f.next++
	return v
}
