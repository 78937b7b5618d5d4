package sim_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/sim"
	"github.com/cory-johannsen/hunter/internal/game/target"
	"github.com/cory-johannsen/hunter/internal/testutil"
)

func simProfile() *target.Profile {
	return &target.Profile{
		ID:           "chicken",
		Name:         "Chicken",
		AttackAction: "Attack Chicken",
		Signature: target.Signature{
			Red: 236, Green: 232, Blue: 224, Tolerance: 12, MinClusterPx: 24,
		},
		SearchRadiusTiles: 8,
	}
}

func newWorld(clk *testutil.ManualClock) *sim.World {
	return sim.NewWorld(simProfile(), sim.Config{
		Creatures:       2,
		MaxHP:           30,
		DamagePerSecond: 10,
		FoodItemID:      329,
		FoodCount:       3,
	}, clk, &testutil.FixedSource{})
}

// engage locks the world's first visible creature through the input path.
func engage(t *testing.T, w *sim.World) {
	t.Helper()
	pings := w.EntityPositions()
	require.NotEmpty(t, pings)
	bounds, ok := w.ProjectPosition(pings[0].Pos)
	require.True(t, ok)
	require.True(t, w.TapWithMenuValidation(bounds, "Attack Chicken"))
}

func TestWorld_BackendValidates(t *testing.T) {
	w := newWorld(testutil.NewManualClock(time.Now()))
	assert.NoError(t, w.Backend().Validate())
}

func TestWorld_TapRequiresMatchingAction(t *testing.T) {
	w := newWorld(testutil.NewManualClock(time.Now()))
	pings := w.EntityPositions()
	bounds, _ := w.ProjectPosition(pings[0].Pos)

	assert.False(t, w.TapWithMenuValidation(bounds, "Attack Wolf"))
	assert.False(t, w.Visible())
	assert.True(t, w.TapWithMenuValidation(bounds, "Attack Chicken"))
	assert.True(t, w.Visible())
	assert.False(t, w.Idle(), "the player animates while fighting")
}

func TestWorld_EngagedCreatureDiesAndDespawns(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	w := newWorld(clk)
	engage(t, w)

	hp, ok := w.HP()
	require.True(t, ok)
	assert.Equal(t, 30, hp)
	xpBefore, _ := w.XP()

	// 30 HP at 10 damage/s drains in 3 seconds.
	clk.Advance(3100 * time.Millisecond)
	w.Step()

	assert.False(t, w.Visible(), "a dead creature drops the overlay")
	_, ok = w.HP()
	assert.False(t, ok)
	xpAfter, _ := w.XP()
	assert.Greater(t, xpAfter, xpBefore, "a kill grants experience")

	assert.Len(t, w.EntityPositions(), 1, "the corpse leaves the feed")

	// Past the despawn delay the corpse is culled; past the respawn delay a
	// replacement appears.
	clk.Advance(4 * time.Second)
	w.Step()
	assert.Len(t, w.EntityPositions(), 2)
}

func TestWorld_StepWithoutEngagementIsStable(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	w := newWorld(clk)

	before := len(w.EntityPositions())
	clk.Advance(10 * time.Second)
	w.Step()
	assert.Len(t, w.EntityPositions(), before)
	assert.True(t, w.Idle())
}

func TestWorld_FindClustersTracksLivingCreatures(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	w := newWorld(clk)

	region, ok := w.ProjectRegion(geom.RegionAround(geom.Position{}, 8))
	require.True(t, ok)
	clusters := w.FindClusters(region, simProfile().Signature)
	assert.Len(t, clusters, 2)

	engage(t, w)
	clk.Advance(4 * time.Second)
	w.Step()
	clusters = w.FindClusters(region, simProfile().Signature)
	assert.Len(t, clusters, 1)
}

func TestWorld_InventoryConsumes(t *testing.T) {
	w := newWorld(testutil.NewManualClock(time.Now()))

	counts := w.Snapshot([]int{329, 999})
	assert.Equal(t, 3, counts[329])
	assert.Zero(t, counts[999])

	for i := 0; i < 3; i++ {
		assert.True(t, w.Consume(329))
	}
	assert.False(t, w.Consume(329))
}

func TestWorld_WalkToMovesPlayer(t *testing.T) {
	w := newWorld(testutil.NewManualClock(time.Now()))
	dest := geom.Position{X: 5, Y: -3}
	require.True(t, w.WalkTo(dest))
	pos, ok := w.Position()
	require.True(t, ok)
	assert.Equal(t, dest, pos)
}
