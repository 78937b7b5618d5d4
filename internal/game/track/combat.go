package track

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/hunter/internal/game/clock"
	"github.com/cory-johannsen/hunter/internal/game/geom"
)

// DeathRecord remembers where and when the last confirmed kill happened.
// It survives a target clear so that post-kill stages can read it.
type DeathRecord struct {
	Position geom.Position
	Time     time.Time
}

// Combat is the mutable state of the current engagement.
//
// Invariant: at most one identity is locked at a time; a new identity can
// only be adopted through Clear followed by Lock.
type Combat struct {
	clock clock.Clock

	locked   bool
	identity uuid.UUID

	// LastKnownPos is the target's most recent confirmed tile.
	LastKnownPos geom.Position
	// lastKnownHP is the most recent overlay HP reading for the target.
	lastKnownHP int
	hasHP       bool
	// Engaged is true once an attack has been confirmed.
	Engaged bool

	// Evidence timers maintained by the fusion engine.
	firstSeenAt         time.Time
	idleSince           time.Time
	overlayMissingSince time.Time
	overlaySeen         bool
	hpChangedAt         time.Time
	lastActiveAt        time.Time

	lastKill    DeathRecord
	hasLastKill bool

	// suppress maps identity to the post-kill lock expiry.
	suppress map[uuid.UUID]time.Time
}

// NewCombat creates an empty combat tracker.
//
// Precondition: clk must not be nil.
func NewCombat(clk clock.Clock) *Combat {
	if clk == nil {
		panic("track.NewCombat: clock must not be nil")
	}
	return &Combat{
		clock:    clk,
		suppress: make(map[uuid.UUID]time.Time),
	}
}

// Lock adopts id as the current target.
//
// Precondition: no identity is currently locked.
// Postcondition: Returns an error (and changes nothing) if a target is
// already locked; otherwise the target is locked with fresh evidence timers.
func (c *Combat) Lock(id uuid.UUID, pos geom.Position) error {
	if c.locked {
		return fmt.Errorf("combat: target %s already locked; clear before adopting %s", c.identity, id)
	}
	now := c.clock.Now()
	c.locked = true
	c.identity = id
	c.LastKnownPos = pos
	c.firstSeenAt = now
	c.lastActiveAt = now
	return nil
}

// Locked returns the current target identity.
//
// Postcondition: Returns (id, true) while a target is locked, or
// (uuid.Nil, false) otherwise.
func (c *Combat) Locked() (uuid.UUID, bool) {
	if !c.locked {
		return uuid.Nil, false
	}
	return c.identity, true
}

// Clear resets the engagement: identity, HP, engaged flag, and every
// evidence timer. The death record and post-kill suppressions survive.
func (c *Combat) Clear() {
	c.locked = false
	c.identity = uuid.Nil
	c.hasHP = false
	c.lastKnownHP = 0
	c.Engaged = false
	c.firstSeenAt = time.Time{}
	c.idleSince = time.Time{}
	c.overlayMissingSince = time.Time{}
	c.overlaySeen = false
	c.hpChangedAt = time.Time{}
	c.lastActiveAt = time.Time{}
	c.LastKnownPos = geom.Position{}
}

// FirstSeenAt returns when the current target was locked.
func (c *Combat) FirstSeenAt() time.Time { return c.firstSeenAt }

// ObserveHP records an overlay HP reading for the current target.
//
// Postcondition: HPStalledFor measures from the most recent change.
func (c *Combat) ObserveHP(hp int) {
	now := c.clock.Now()
	if !c.hasHP || hp != c.lastKnownHP {
		c.hpChangedAt = now
	}
	c.hasHP = true
	c.lastKnownHP = hp
}

// HP returns the last known target HP.
//
// Postcondition: Returns (hp, true) once ObserveHP has been called for the
// current target, or (0, false) otherwise.
func (c *Combat) HP() (int, bool) {
	if !c.hasHP {
		return 0, false
	}
	return c.lastKnownHP, true
}

// HPStalledFor returns how long the HP reading has been unchanged.
//
// Postcondition: Returns 0 when no HP has been observed.
func (c *Combat) HPStalledFor() time.Duration {
	if !c.hasHP || c.hpChangedAt.IsZero() {
		return 0
	}
	return c.clock.Now().Sub(c.hpChangedAt)
}

// ObserveOverlay records overlay visibility for this tick. The first
// missing tick after a visible one starts the disappearance window.
func (c *Combat) ObserveOverlay(visible bool) {
	if visible {
		c.overlaySeen = true
		c.overlayMissingSince = time.Time{}
		return
	}
	if c.overlaySeen && c.overlayMissingSince.IsZero() {
		c.overlayMissingSince = c.clock.Now()
	}
}

// OverlaySeen reports whether the overlay has been visible at any point for
// the current target.
func (c *Combat) OverlaySeen() bool { return c.overlaySeen }

// OverlayMissingFor returns how long the overlay has been continuously
// missing after having been visible.
//
// Postcondition: Returns 0 while the overlay is visible or was never seen.
func (c *Combat) OverlayMissingFor() time.Duration {
	if c.overlayMissingSince.IsZero() {
		return 0
	}
	return c.clock.Now().Sub(c.overlayMissingSince)
}

// ObserveIdle records the player-idle signal for this tick.
func (c *Combat) ObserveIdle(idle bool) {
	if !idle {
		c.idleSince = time.Time{}
		return
	}
	if c.idleSince.IsZero() {
		c.idleSince = c.clock.Now()
	}
}

// IdleFor returns how long the player has been continuously idle.
//
// Postcondition: Returns 0 while the player is not idle.
func (c *Combat) IdleFor() time.Duration {
	if c.idleSince.IsZero() {
		return 0
	}
	return c.clock.Now().Sub(c.idleSince)
}

// ObserveActive records whether the locked identity appeared in the entity
// tracker this tick, updating its last-seen position when it did.
func (c *Combat) ObserveActive(active bool, pos geom.Position) {
	if !active {
		return
	}
	c.lastActiveAt = c.clock.Now()
	c.LastKnownPos = pos
}

// InactiveFor returns how long the locked identity has been absent from the
// entity tracker.
//
// Postcondition: Returns 0 when the identity was active this tick or no
// target is locked.
func (c *Combat) InactiveFor() time.Duration {
	if !c.locked || c.lastActiveAt.IsZero() {
		return 0
	}
	return c.clock.Now().Sub(c.lastActiveAt)
}

// RecordKill caches the death position and stamps a post-kill suppression
// on the current identity until expiry.
//
// Precondition: a target must be locked.
func (c *Combat) RecordKill(lockFor time.Duration) {
	if !c.locked {
		panic("combat: RecordKill with no locked target")
	}
	now := c.clock.Now()
	c.lastKill = DeathRecord{Position: c.LastKnownPos, Time: now}
	c.hasLastKill = true
	c.suppress[c.identity] = now.Add(lockFor)
}

// LastKill returns the cached death record.
//
// Postcondition: Returns (record, true) once a kill has been recorded this
// session, or (zero, false) otherwise.
func (c *Combat) LastKill() (DeathRecord, bool) {
	return c.lastKill, c.hasLastKill
}

// Suppressed reports whether id is under a post-kill lock. Expired locks
// are pruned as a side effect.
func (c *Combat) Suppressed(id uuid.UUID) bool {
	now := c.clock.Now()
	until, ok := c.suppress[id]
	if !ok {
		return false
	}
	if now.After(until) {
		delete(c.suppress, id)
		return false
	}
	return true
}
