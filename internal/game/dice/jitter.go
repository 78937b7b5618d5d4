// Package dice provides the randomness abstraction and jitter helpers for
// the hunter engine. All randomized timing (grace windows, eat thresholds,
// human-like delays, backoff jitter) flows through a Source so that tests
// can substitute a deterministic sequence.
package dice

import (
	"fmt"
	"time"
)

// Between returns a uniformly distributed int in [lo, hi] inclusive.
//
// Precondition: src must be non-nil; lo <= hi.
// Postcondition: lo <= return value <= hi.
func Between(src Source, lo, hi int) int {
	if lo > hi {
		panic(fmt.Sprintf("dice: Between called with lo %d > hi %d", lo, hi))
	}
	if lo == hi {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// DurationBetween returns a uniformly distributed duration in [lo, hi].
//
// Precondition: src must be non-nil; 0 <= lo <= hi.
func DurationBetween(src Source, lo, hi time.Duration) time.Duration {
	if lo > hi {
		panic(fmt.Sprintf("dice: DurationBetween called with lo %v > hi %v", lo, hi))
	}
	if lo == hi {
		return lo
	}
	span := int(hi-lo) + 1
	return lo + time.Duration(src.Intn(span))
}

// JitterSpec describes a configured randomized duration range.
//
// Invariant: 0 <= Min <= Max.
type JitterSpec struct {
	Min time.Duration
	Max time.Duration
}

// Validate checks the range invariant.
//
// Postcondition: Returns nil iff 0 <= Min <= Max.
func (j JitterSpec) Validate() error {
	if j.Min < 0 {
		return fmt.Errorf("jitter min must be >= 0, got %v", j.Min)
	}
	if j.Min > j.Max {
		return fmt.Errorf("jitter min %v must not exceed max %v", j.Min, j.Max)
	}
	return nil
}

// Roll draws a duration from the spec's range.
//
// Precondition: src must be non-nil; Validate() must return nil.
func (j JitterSpec) Roll(src Source) time.Duration {
	return DurationBetween(src, j.Min, j.Max)
}
