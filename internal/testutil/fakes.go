package testutil

import (
	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/sensors"
	"github.com/cory-johannsen/hunter/internal/game/target"
)

// FakeScreen implements sensors.Screen via function fields. Unset fields
// report "not visible".
type FakeScreen struct {
	ProjectRegionFn   func(geom.Region) (geom.ScreenBounds, bool)
	ProjectPositionFn func(geom.Position) (geom.ScreenBounds, bool)
	FindClustersFn    func(geom.ScreenBounds, target.Signature) []geom.ScreenBounds
}

// ProjectRegion delegates to ProjectRegionFn.
func (f *FakeScreen) ProjectRegion(r geom.Region) (geom.ScreenBounds, bool) {
	if f.ProjectRegionFn == nil {
		return geom.ScreenBounds{}, false
	}
	return f.ProjectRegionFn(r)
}

// ProjectPosition delegates to ProjectPositionFn.
func (f *FakeScreen) ProjectPosition(p geom.Position) (geom.ScreenBounds, bool) {
	if f.ProjectPositionFn == nil {
		return geom.ScreenBounds{}, false
	}
	return f.ProjectPositionFn(p)
}

// FindClusters delegates to FindClustersFn.
func (f *FakeScreen) FindClusters(region geom.ScreenBounds, sig target.Signature) []geom.ScreenBounds {
	if f.FindClustersFn == nil {
		return nil
	}
	return f.FindClustersFn(region, sig)
}

// FakeOverlay implements sensors.Overlay with settable state.
type FakeOverlay struct {
	IsVisible bool
	HPValue   int
	HPValid   bool
}

// Visible returns the configured visibility.
func (f *FakeOverlay) Visible() bool { return f.IsVisible }

// HP returns the configured reading.
func (f *FakeOverlay) HP() (int, bool) { return f.HPValue, f.HPValid }

// FakeMinimap implements sensors.Minimap with a settable snapshot.
type FakeMinimap struct {
	Pings []sensors.Ping
}

// EntityPositions returns the configured snapshot.
func (f *FakeMinimap) EntityPositions() []sensors.Ping { return f.Pings }

// FakeInput implements sensors.Input, recording taps.
type FakeInput struct {
	// Accept controls the validation result; nil accepts everything.
	Accept func(bounds geom.ScreenBounds, wantAction string) bool
	// Taps records every issued tap's action label.
	Taps []string
}

// TapWithMenuValidation records and validates a tap.
func (f *FakeInput) TapWithMenuValidation(bounds geom.ScreenBounds, wantAction string) bool {
	if f.Accept != nil && !f.Accept(bounds, wantAction) {
		return false
	}
	f.Taps = append(f.Taps, wantAction)
	return true
}

// FakeInventory implements sensors.Inventory over a counts map.
type FakeInventory struct {
	Counts map[int]int
	// FailConsume makes Consume return false without decrementing.
	FailConsume bool
}

// Snapshot returns counts for the requested items.
func (f *FakeInventory) Snapshot(itemIDs []int) map[int]int {
	out := make(map[int]int, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = f.Counts[id]
	}
	return out
}

// Consume decrements one unit of itemID.
func (f *FakeInventory) Consume(itemID int) bool {
	if f.FailConsume || f.Counts[itemID] <= 0 {
		return false
	}
	f.Counts[itemID]--
	return true
}

// FakeDialogue implements sensors.Dialogue with a settable open dialogue.
type FakeDialogue struct {
	Kind      sensors.DialogueKind
	Open      bool
	Dismissed int
}

// State returns the configured dialogue.
func (f *FakeDialogue) State() (sensors.DialogueKind, bool) { return f.Kind, f.Open }

// Dismiss closes the dialogue and counts the call.
func (f *FakeDialogue) Dismiss() {
	f.Open = false
	f.Dismissed++
}

// FakeVitals implements sensors.Vitals.
type FakeVitals struct {
	HP    int
	Valid bool
}

// Self returns the configured vitals.
func (f *FakeVitals) Self() (int, bool) { return f.HP, f.Valid }

// FakePlayer implements sensors.Player with settable state.
type FakePlayer struct {
	Pos      geom.Position
	PosValid bool
	IsIdle   bool
	XPValue  int
	XPValid  bool
	InWorld  bool
}

// Position returns the configured position.
func (f *FakePlayer) Position() (geom.Position, bool) { return f.Pos, f.PosValid }

// Idle returns the configured idle flag.
func (f *FakePlayer) Idle() bool { return f.IsIdle }

// XP returns the configured experience.
func (f *FakePlayer) XP() (int, bool) { return f.XPValue, f.XPValid }

// LoggedIn returns the configured login state.
func (f *FakePlayer) LoggedIn() bool { return f.InWorld }

// FakeMover implements sensors.Mover, recording walk requests.
type FakeMover struct {
	// OnWalk, when set, is invoked with each destination; its result is
	// returned to the caller. Nil accepts every request.
	OnWalk func(geom.Position) bool
	Walks  []geom.Position
}

// WalkTo records the request.
func (f *FakeMover) WalkTo(dest geom.Position) bool {
	f.Walks = append(f.Walks, dest)
	if f.OnWalk != nil {
		return f.OnWalk(dest)
	}
	return true
}

// Rig bundles one fake of each sensor for convenience.
type Rig struct {
	Screen    *FakeScreen
	Overlay   *FakeOverlay
	Minimap   *FakeMinimap
	Input     *FakeInput
	Inventory *FakeInventory
	Dialogue  *FakeDialogue
	Vitals    *FakeVitals
	Player    *FakePlayer
	Mover     *FakeMover
}

// NewRig creates a Rig with benign defaults: a logged-in, non-idle player
// at the origin with full vitals and an empty world.
func NewRig() *Rig {
	return &Rig{
		Screen:    &FakeScreen{},
		Overlay:   &FakeOverlay{},
		Minimap:   &FakeMinimap{},
		Input:     &FakeInput{},
		Inventory: &FakeInventory{Counts: map[int]int{}},
		Dialogue:  &FakeDialogue{},
		Vitals:    &FakeVitals{HP: 100, Valid: true},
		Player:    &FakePlayer{PosValid: true, InWorld: true},
		Mover:     &FakeMover{},
	}
}

// Backend assembles the rig into a sensors.Backend.
func (r *Rig) Backend() sensors.Backend {
	return sensors.Backend{
		Screen:    r.Screen,
		Overlay:   r.Overlay,
		Minimap:   r.Minimap,
		Input:     r.Input,
		Inventory: r.Inventory,
		Dialogue:  r.Dialogue,
		Vitals:    r.Vitals,
		Player:    r.Player,
		Mover:     r.Mover,
	}
}
