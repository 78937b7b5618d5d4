// Package track holds the mutable tracking state of a hunting session: the
// aged positional entity set and the combat tracker with its locked target,
// evidence timers, death record, and post-kill suppression.
//
// Concurrency: the engine is a single-threaded tick loop; nothing in this
// package is safe for concurrent use.
package track

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/hunter/internal/game/clock"
	"github.com/cory-johannsen/hunter/internal/game/geom"
)

// trackedEntity is one entry of the positional feed, stamped with the last
// tick it was observed.
type trackedEntity struct {
	pos      geom.Position
	lastSeen time.Time
}

// Tracker ingests periodic, possibly-incomplete positional snapshots and
// ages out identities not seen within the age-out window.
//
// Invariant: every entry's lastSeen is at most ageOut old after Prune.
type Tracker struct {
	ageOut  time.Duration
	clock   clock.Clock
	entries map[uuid.UUID]trackedEntity
}

// NewTracker creates an empty Tracker.
//
// Precondition: ageOut > 0; clk must not be nil.
func NewTracker(ageOut time.Duration, clk clock.Clock) *Tracker {
	if ageOut <= 0 {
		panic("track.NewTracker: ageOut must be > 0")
	}
	if clk == nil {
		panic("track.NewTracker: clock must not be nil")
	}
	return &Tracker{
		ageOut:  ageOut,
		clock:   clk,
		entries: make(map[uuid.UUID]trackedEntity),
	}
}

// Update refreshes the tracked set from a snapshot. Every identity present
// is stamped with the current time; entries older than the age-out window
// are removed. An empty snapshot still progresses ageing, so callers must
// feed an empty Update rather than skip a tick with no feed.
//
// Postcondition: every identity in pings is active afterwards.
func (t *Tracker) Update(pings []Ping) {
	now := t.clock.Now()
	for _, p := range pings {
		t.entries[p.ID] = trackedEntity{pos: p.Pos, lastSeen: now}
	}
	t.prune(now)
}

// Ping mirrors the positional feed entry shape so that the tracker does not
// depend on the sensor package.
type Ping struct {
	ID  uuid.UUID
	Pos geom.Position
}

// prune removes entries whose lastSeen is older than the age-out window.
func (t *Tracker) prune(now time.Time) {
	for id, e := range t.entries {
		if now.Sub(e.lastSeen) > t.ageOut {
			delete(t.entries, id)
		}
	}
}

// Active returns the identities seen within the age-out window, with their
// most recent positions.
//
// Postcondition: the returned map is a copy; mutating it does not affect
// the tracker.
func (t *Tracker) Active() map[uuid.UUID]geom.Position {
	now := t.clock.Now()
	out := make(map[uuid.UUID]geom.Position, len(t.entries))
	for id, e := range t.entries {
		if now.Sub(e.lastSeen) <= t.ageOut {
			out[id] = e.pos
		}
	}
	return out
}

// IsActive reports whether id has been seen within the age-out window.
func (t *Tracker) IsActive(id uuid.UUID) bool {
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	return t.clock.Now().Sub(e.lastSeen) <= t.ageOut
}

// Position returns the most recent position for id, aged or not.
//
// Postcondition: Returns (pos, true) if the identity has ever been seen and
// not yet pruned, or (zero, false) otherwise.
func (t *Tracker) Position(id uuid.UUID) (geom.Position, bool) {
	e, ok := t.entries[id]
	if !ok {
		return geom.Position{}, false
	}
	return e.pos, true
}

// LastSeen returns when id was last observed.
//
// Postcondition: Returns (time, true) if the identity is known (possibly
// aged but not yet pruned), or (zero, false) otherwise.
func (t *Tracker) LastSeen(id uuid.UUID) (time.Time, bool) {
	e, ok := t.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return e.lastSeen, true
}

// Len returns the number of tracked (not yet pruned) entries.
func (t *Tracker) Len() int { return len(t.entries) }
