// Package sensors defines the contracts of the external collaborators the
// engine consumes: screen projection and cluster search, the target vitals
// overlay, the positional entity feed, menu-gated input simulation, the
// inventory, blocking dialogues, and the player's own vitals. The engine
// never touches the platform directly; a host supplies a Backend.
//
// Every sensor is allowed to fail on any tick. A failed read is reported
// through the boolean/empty return, never through an error: "no signal this
// tick" is a normal condition the decision layers absorb.
package sensors

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/target"
)

// Ping is one entry of the positional entity feed.
type Ping struct {
	// ID is the opaque session-scoped identity of the entity.
	ID uuid.UUID
	// Pos is the entity's world position at the time of the ping.
	Pos geom.Position
}

// Screen projects world space to pixel space and searches for visual
// clusters matching a target signature.
type Screen interface {
	// ProjectRegion maps a world-space region to its on-screen bounds.
	// Returns false when the region is not currently visible.
	ProjectRegion(r geom.Region) (geom.ScreenBounds, bool)

	// ProjectPosition maps a single tile to its on-screen bounds.
	// Returns false when the tile is off-screen.
	ProjectPosition(p geom.Position) (geom.ScreenBounds, bool)

	// FindClusters returns all pixel clusters inside region matching sig.
	// The result may be empty and carries no ordering guarantee.
	FindClusters(region geom.ScreenBounds, sig target.Signature) []geom.ScreenBounds
}

// Overlay reads the target name/health overlay.
type Overlay interface {
	// Visible reports whether the overlay is currently on screen.
	Visible() bool

	// HP returns the overlay's current HP reading.
	// Returns false when the overlay is absent or unreadable.
	HP() (int, bool)
}

// Minimap is the periodic positional feed of nearby entities.
type Minimap interface {
	// EntityPositions returns the current snapshot. The snapshot may be
	// empty or incomplete on any tick.
	EntityPositions() []Ping
}

// Input simulates taps gated on a context-menu label check.
type Input interface {
	// TapWithMenuValidation taps inside bounds only if the hovered menu
	// action matches wantAction. Returns false when the label did not
	// match and no tap was issued.
	TapWithMenuValidation(bounds geom.ScreenBounds, wantAction string) bool
}

// Inventory counts and consumes items the engine treats as resources.
type Inventory interface {
	// Snapshot returns current counts for the requested item IDs. Items
	// not present report 0.
	Snapshot(itemIDs []int) map[int]int

	// Consume uses one unit of the given item. Returns false when the
	// item could not be used this tick.
	Consume(itemID int) bool
}

// DialogueKind classifies a blocking dialogue.
type DialogueKind int

const (
	// DialogueLevelUp is the level-up congratulation box.
	DialogueLevelUp DialogueKind = iota
	// DialogueWarning is a generic modal warning.
	DialogueWarning
	// DialogueOther is any other blocking dialogue.
	DialogueOther
)

// String returns the dialogue kind name.
func (k DialogueKind) String() string {
	switch k {
	case DialogueLevelUp:
		return "level-up"
	case DialogueWarning:
		return "warning"
	default:
		return "other"
	}
}

// Dialogue detects and dismisses blocking dialogues.
type Dialogue interface {
	// State returns the current blocking dialogue, if any.
	State() (DialogueKind, bool)

	// Dismiss closes the current dialogue. A no-op when none is open.
	Dismiss()
}

// Vitals reads the player's own health.
type Vitals interface {
	// Self returns current HP as a percentage of maximum.
	// Returns false when unreadable.
	Self() (int, bool)
}

// Player exposes the agent's own observable state.
type Player interface {
	// Position returns the player's current tile.
	// Returns false when unreadable.
	Position() (geom.Position, bool)

	// Idle reports whether the player is performing no animation.
	Idle() bool

	// XP returns total experience, the engine's progress measure.
	// Returns false when unreadable.
	XP() (int, bool)

	// LoggedIn reports whether the session is currently in-world.
	LoggedIn() bool
}

// Mover walks the player toward a destination. Pathing is the host's
// concern; the engine only issues bounded walk requests.
type Mover interface {
	// WalkTo requests a walk toward dest. Returns false when the request
	// could not be issued.
	WalkTo(dest geom.Position) bool
}

// Backend bundles every collaborator the engine needs.
//
// Invariant: all fields are non-nil once the engine is constructed.
type Backend struct {
	Screen    Screen
	Overlay   Overlay
	Minimap   Minimap
	Input     Input
	Inventory Inventory
	Dialogue  Dialogue
	Vitals    Vitals
	Player    Player
	Mover     Mover
}

// Validate reports the first nil collaborator, if any.
//
// Postcondition: Returns nil iff every field is non-nil.
func (b Backend) Validate() error {
	switch {
	case b.Screen == nil:
		return errNilSensor("Screen")
	case b.Overlay == nil:
		return errNilSensor("Overlay")
	case b.Minimap == nil:
		return errNilSensor("Minimap")
	case b.Input == nil:
		return errNilSensor("Input")
	case b.Inventory == nil:
		return errNilSensor("Inventory")
	case b.Dialogue == nil:
		return errNilSensor("Dialogue")
	case b.Vitals == nil:
		return errNilSensor("Vitals")
	case b.Player == nil:
		return errNilSensor("Player")
	case b.Mover == nil:
		return errNilSensor("Mover")
	}
	return nil
}

type sensorError string

func errNilSensor(name string) error { return sensorError(name) }

func (e sensorError) Error() string { return "sensors: " + string(e) + " collaborator must not be nil" }
