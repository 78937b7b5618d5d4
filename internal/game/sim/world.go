// Package sim provides a deterministic in-process sensor backend for
// dry-running the engine without a game client. It is the development
// harness behind cmd/hunter and the end-to-end engine tests.
package sim

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/hunter/internal/game/clock"
	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/sensors"
	"github.com/cory-johannsen/hunter/internal/game/target"
)

// tileScale maps one tile to this many pixels in the fake projection.
const tileScale = 10

// creature is one simulated huntable.
type creature struct {
	id        uuid.UUID
	pos       geom.Position
	hp        int
	alive     bool
	despawnAt time.Time
}

// World is a minimal hunting ground: one player, a handful of creatures
// that lose HP while engaged, die, despawn, and respawn nearby.
//
// World implements every sensors contract; use Backend to bundle it.
// It is single-threaded like the engine that drives it.
type World struct {
	clk clock.Clock
	src dice.Source

	profile *target.Profile

	playerPos geom.Position
	playerXP  int

	creatures []*creature
	engaged   uuid.UUID
	hasTarget bool

	food      map[int]int
	respawnAt time.Time

	maxHP      int
	damage     int
	lastStepAt time.Time
}

// Config tunes the simulated world.
type Config struct {
	// Creatures is the initial population.
	Creatures int
	// MaxHP is each creature's starting health.
	MaxHP int
	// DamagePerSecond is the HP drain while engaged.
	DamagePerSecond int
	// FoodItemID seeds the inventory, matching the hunt configuration.
	FoodItemID int
	// FoodCount is the initial food stock.
	FoodCount int
}

// NewWorld creates a World populated around the origin.
//
// Precondition: profile, clk, and src must not be nil; cfg.Creatures >= 1;
// cfg.MaxHP >= 1; cfg.DamagePerSecond >= 1.
func NewWorld(profile *target.Profile, cfg Config, clk clock.Clock, src dice.Source) *World {
	if profile == nil || clk == nil || src == nil {
		panic("sim.NewWorld: profile, clock, and source must not be nil")
	}
	if cfg.Creatures < 1 || cfg.MaxHP < 1 || cfg.DamagePerSecond < 1 {
		panic("sim.NewWorld: creatures, max hp, and damage must be >= 1")
	}
	w := &World{
		clk:        clk,
		src:        src,
		profile:    profile,
		maxHP:      cfg.MaxHP,
		damage:     cfg.DamagePerSecond,
		food:       map[int]int{},
		lastStepAt: clk.Now(),
	}
	if cfg.FoodItemID != 0 {
		w.food[cfg.FoodItemID] = cfg.FoodCount
	}
	for i := 0; i < cfg.Creatures; i++ {
		w.spawn()
	}
	return w
}

// spawn adds a living creature at a random offset from the origin.
func (w *World) spawn() {
	offset := func() int { return dice.Between(w.src, -4, 4) }
	w.creatures = append(w.creatures, &creature{
		id:    uuid.New(),
		pos:   geom.Position{X: offset(), Y: offset()},
		hp:    w.maxHP,
		alive: true,
	})
}

// Step advances the simulation to the current clock reading: engaged
// creatures take damage, dead ones despawn and eventually respawn.
func (w *World) Step() {
	now := w.clk.Now()
	elapsed := now.Sub(w.lastStepAt)
	w.lastStepAt = now

	if w.hasTarget {
		if c := w.find(w.engaged); c != nil && c.alive {
			loss := int(elapsed.Seconds() * float64(w.damage))
			if loss > 0 {
				c.hp -= loss
				if c.hp <= 0 {
					c.hp = 0
					c.alive = false
					c.despawnAt = now.Add(1200 * time.Millisecond)
					w.playerXP += 40
					w.respawnAt = now.Add(3 * time.Second)
				}
			}
		}
	}

	kept := w.creatures[:0]
	for _, c := range w.creatures {
		if !c.alive && now.After(c.despawnAt) {
			if w.hasTarget && w.engaged == c.id {
				w.hasTarget = false
			}
			continue
		}
		kept = append(kept, c)
	}
	w.creatures = kept

	if !w.respawnAt.IsZero() && now.After(w.respawnAt) {
		w.respawnAt = time.Time{}
		w.spawn()
	}
}

// find returns the creature with id, or nil.
func (w *World) find(id uuid.UUID) *creature {
	for _, c := range w.creatures {
		if c.id == id {
			return c
		}
	}
	return nil
}

// engagedCreature returns the live engaged creature, or nil.
func (w *World) engagedCreature() *creature {
	if !w.hasTarget {
		return nil
	}
	c := w.find(w.engaged)
	if c == nil || !c.alive {
		return nil
	}
	return c
}

// project maps a tile to a screen rectangle.
func project(p geom.Position) geom.ScreenBounds {
	return geom.ScreenBounds{
		X:      (p.X + 64) * tileScale,
		Y:      (p.Y + 64) * tileScale,
		Width:  tileScale,
		Height: tileScale,
	}
}

// ProjectRegion implements sensors.Screen.
func (w *World) ProjectRegion(r geom.Region) (geom.ScreenBounds, bool) {
	minB := project(r.Min)
	maxB := project(r.Max)
	return geom.ScreenBounds{
		X:      minB.X,
		Y:      minB.Y,
		Width:  maxB.X + maxB.Width - minB.X,
		Height: maxB.Y + maxB.Height - minB.Y,
	}, true
}

// ProjectPosition implements sensors.Screen.
func (w *World) ProjectPosition(p geom.Position) (geom.ScreenBounds, bool) {
	return project(p), true
}

// FindClusters implements sensors.Screen: every living creature inside the
// region produces one cluster.
func (w *World) FindClusters(region geom.ScreenBounds, _ target.Signature) []geom.ScreenBounds {
	var out []geom.ScreenBounds
	for _, c := range w.creatures {
		if !c.alive {
			continue
		}
		b := project(c.pos)
		if region.Intersection(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Visible implements sensors.Overlay.
func (w *World) Visible() bool { return w.engagedCreature() != nil }

// HP implements sensors.Overlay.
func (w *World) HP() (int, bool) {
	c := w.engagedCreature()
	if c == nil {
		return 0, false
	}
	return c.hp, true
}

// EntityPositions implements sensors.Minimap.
func (w *World) EntityPositions() []sensors.Ping {
	out := make([]sensors.Ping, 0, len(w.creatures))
	for _, c := range w.creatures {
		if c.alive {
			out = append(out, sensors.Ping{ID: c.id, Pos: c.pos})
		}
	}
	return out
}

// TapWithMenuValidation implements sensors.Input: a tap with the profile's
// attack action on a creature's bounds engages it.
func (w *World) TapWithMenuValidation(bounds geom.ScreenBounds, wantAction string) bool {
	if wantAction != w.profile.AttackAction {
		return false
	}
	for _, c := range w.creatures {
		if c.alive && project(c.pos).Intersection(bounds) > 0 {
			w.engaged = c.id
			w.hasTarget = true
			return true
		}
	}
	return false
}

// Snapshot implements sensors.Inventory.
func (w *World) Snapshot(itemIDs []int) map[int]int {
	out := make(map[int]int, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = w.food[id]
	}
	return out
}

// Consume implements sensors.Inventory.
func (w *World) Consume(itemID int) bool {
	if w.food[itemID] <= 0 {
		return false
	}
	w.food[itemID]--
	return true
}

// State implements sensors.Dialogue; the sim never blocks on dialogues.
func (w *World) State() (sensors.DialogueKind, bool) { return sensors.DialogueOther, false }

// Dismiss implements sensors.Dialogue.
func (w *World) Dismiss() {}

// Self implements sensors.Vitals.
func (w *World) Self() (int, bool) { return 99, true }

// Position implements sensors.Player.
func (w *World) Position() (geom.Position, bool) { return w.playerPos, true }

// Idle implements sensors.Player: the player animates while fighting.
func (w *World) Idle() bool { return w.engagedCreature() == nil }

// XP implements sensors.Player.
func (w *World) XP() (int, bool) { return w.playerXP, true }

// LoggedIn implements sensors.Player.
func (w *World) LoggedIn() bool { return true }

// WalkTo implements sensors.Mover with an instant move.
func (w *World) WalkTo(dest geom.Position) bool {
	w.playerPos = dest
	return true
}

// Backend bundles the world into a sensors.Backend.
func (w *World) Backend() sensors.Backend {
	return sensors.Backend{
		Screen:    w,
		Overlay:   w,
		Minimap:   w,
		Input:     w,
		Inventory: w,
		Dialogue:  w,
		Vitals:    w,
		Player:    w,
		Mover:     w,
	}
}
