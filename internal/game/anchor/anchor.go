// Package anchor tracks the session's fixed home position and executes
// bounded walk-backs when the agent drifts outside the tolerance radius.
package anchor

import (
	"context"
	"time"

	"github.com/cory-johannsen/hunter/internal/game/clock"
	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/sensors"
	"github.com/cory-johannsen/hunter/internal/game/wait"
)

// Monitor holds the immutable per-session anchor state.
//
// Invariant: tolerance > 0.
type Monitor struct {
	home      geom.Position
	tolerance float64

	player sensors.Player
	mover  sensors.Mover
	clock  clock.Clock

	walkTimeout time.Duration
	poll        time.Duration
}

// NewMonitor constructs a Monitor anchored at home.
//
// Precondition: tolerance > 0; player, mover, and clk must not be nil;
// walkTimeout > 0.
func NewMonitor(home geom.Position, tolerance float64, player sensors.Player, mover sensors.Mover, clk clock.Clock, walkTimeout, poll time.Duration) *Monitor {
	if tolerance <= 0 {
		panic("anchor.NewMonitor: tolerance must be > 0")
	}
	if player == nil || mover == nil || clk == nil {
		panic("anchor.NewMonitor: player, mover, and clock must not be nil")
	}
	if walkTimeout <= 0 {
		panic("anchor.NewMonitor: walkTimeout must be > 0")
	}
	return &Monitor{
		home:        home,
		tolerance:   tolerance,
		player:      player,
		mover:       mover,
		clock:       clk,
		walkTimeout: walkTimeout,
		poll:        poll,
	}
}

// Home returns the anchor position.
func (m *Monitor) Home() geom.Position { return m.home }

// Displaced reports whether the player is outside the tolerance radius.
// An unreadable player position counts as not displaced (no signal this
// tick).
func (m *Monitor) Displaced() bool {
	pos, ok := m.player.Position()
	if !ok {
		return false
	}
	return !m.home.WithinRadius(pos, m.tolerance)
}

// WalkBack issues a walk toward home and waits, bounded by the configured
// timeout, until the player is back inside the tolerance radius.
//
// Postcondition: Returns (true, nil) when the player is back within
// tolerance, (false, nil) when the walk request failed or timed out, or
// (false, ctx.Err()) on cancellation.
func (m *Monitor) WalkBack(ctx context.Context) (bool, error) {
	if !m.mover.WalkTo(m.home) {
		return false, nil
	}
	return wait.Until(ctx, m.clock, func() bool {
		return !m.Displaced()
	}, m.walkTimeout, m.poll)
}
