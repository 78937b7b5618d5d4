// Package wait provides the bounded-wait primitive used for every explicit
// suspension point in the tick loop.
package wait

import (
	"context"
	"time"

	"github.com/cory-johannsen/hunter/internal/game/clock"
)

// Until polls pred every poll interval until it returns true or max has
// elapsed. Cancellation always propagates: a cancelled ctx aborts the wait
// immediately with ctx.Err(), even when pred would have passed.
//
// Precondition: clk must not be nil; pred must not be nil; poll > 0.
// Postcondition: Returns (true, nil) when pred passed within max,
// (false, nil) on timeout, or (false, ctx.Err()) on cancellation.
func Until(ctx context.Context, clk clock.Clock, pred func() bool, max, poll time.Duration) (bool, error) {
	if pred == nil {
		panic("wait.Until: pred must not be nil")
	}
	if poll <= 0 {
		panic("wait.Until: poll must be > 0")
	}

	deadline := clk.Now().Add(max)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if pred() {
			return true, nil
		}
		if !clk.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(poll):
		}
	}
}
