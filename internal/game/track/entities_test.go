package track_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/track"
	"github.com/cory-johannsen/hunter/internal/testutil"
)

func TestTracker_UpdateStampsAndReports(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	tracker := track.NewTracker(3*time.Second, clk)

	id := uuid.New()
	tracker.Update([]track.Ping{{ID: id, Pos: geom.Position{X: 5, Y: 6}}})

	require.True(t, tracker.IsActive(id))
	pos, ok := tracker.Position(id)
	require.True(t, ok)
	assert.Equal(t, geom.Position{X: 5, Y: 6}, pos)
	assert.Len(t, tracker.Active(), 1)
}

func TestTracker_AgesOutUnseenIdentities(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	tracker := track.NewTracker(3*time.Second, clk)

	stale := uuid.New()
	fresh := uuid.New()
	tracker.Update([]track.Ping{
		{ID: stale, Pos: geom.Position{X: 1, Y: 1}},
		{ID: fresh, Pos: geom.Position{X: 2, Y: 2}},
	})

	clk.Advance(2 * time.Second)
	tracker.Update([]track.Ping{{ID: fresh, Pos: geom.Position{X: 2, Y: 3}}})
	assert.True(t, tracker.IsActive(stale), "within the age-out window the stale identity still counts")

	clk.Advance(1500 * time.Millisecond)
	tracker.Update([]track.Ping{{ID: fresh, Pos: geom.Position{X: 2, Y: 4}}})

	assert.False(t, tracker.IsActive(stale))
	_, ok := tracker.Position(stale)
	assert.False(t, ok, "pruned identities lose their position")
	assert.True(t, tracker.IsActive(fresh))
	assert.Equal(t, 1, tracker.Len())
}

func TestTracker_EmptyUpdateProgressesAgeing(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	tracker := track.NewTracker(time.Second, clk)

	id := uuid.New()
	tracker.Update([]track.Ping{{ID: id, Pos: geom.Position{}}})

	clk.Advance(1500 * time.Millisecond)
	tracker.Update(nil)
	assert.Equal(t, 0, tracker.Len())
	assert.Empty(t, tracker.Active())
}

func TestTracker_EmptyUpdateIsIdempotentOnEmptySet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clk := testutil.NewManualClock(time.Now())
		tracker := track.NewTracker(time.Second, clk)

		// Populate, then age everything out.
		n := rapid.IntRange(0, 8).Draw(t, "entities")
		pings := make([]track.Ping, n)
		for i := range pings {
			pings[i] = track.Ping{ID: uuid.New(), Pos: geom.Position{X: i}}
		}
		tracker.Update(pings)
		clk.Advance(2 * time.Second)
		tracker.Update(nil)

		repeats := rapid.IntRange(1, 5).Draw(t, "repeats")
		for i := 0; i < repeats; i++ {
			clk.Advance(time.Duration(rapid.Int64Range(0, int64(time.Second)).Draw(t, "gap")))
			tracker.Update(nil)
			if tracker.Len() != 0 {
				t.Fatalf("empty update resurrected %d entries", tracker.Len())
			}
		}
	})
}

func TestTracker_ActiveReturnsCopy(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	tracker := track.NewTracker(time.Second, clk)

	id := uuid.New()
	tracker.Update([]track.Ping{{ID: id, Pos: geom.Position{X: 9}}})

	active := tracker.Active()
	active[id] = geom.Position{X: -1}

	pos, ok := tracker.Position(id)
	require.True(t, ok)
	assert.Equal(t, geom.Position{X: 9}, pos)
}

func TestTracker_LastSeen(t *testing.T) {
	start := time.Now()
	clk := testutil.NewManualClock(start)
	tracker := track.NewTracker(time.Minute, clk)

	id := uuid.New()
	tracker.Update([]track.Ping{{ID: id}})
	clk.Advance(10 * time.Second)
	tracker.Update([]track.Ping{{ID: id}})

	seen, ok := tracker.LastSeen(id)
	require.True(t, ok)
	assert.Equal(t, start.Add(10*time.Second), seen)

	_, ok = tracker.LastSeen(uuid.New())
	assert.False(t, ok)
}
