package fusion_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/fusion"
	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/track"
	"github.com/cory-johannsen/hunter/internal/testutil"
)

func testConfig() fusion.Config {
	return fusion.Config{
		OverlayGrace:        dice.JitterSpec{Min: 2 * time.Second, Max: 2 * time.Second},
		IdleConfirm:         3 * time.Second,
		HPStallTimeout:      5 * time.Second,
		InactiveKillTimeout: 10 * time.Second,
		LostTimeout:         18 * time.Second,
	}
}

// fixture wires a locked combat tracker and a fusion engine onto one
// manual clock.
type fixture struct {
	clk    *testutil.ManualClock
	cbt    *track.Combat
	engine *fusion.Engine
}

func newFixture(t *testing.T, cfg fusion.Config, src dice.Source) *fixture {
	t.Helper()
	require.NoError(t, cfg.Validate())
	clk := testutil.NewManualClock(time.Now())
	cbt := track.NewCombat(clk)
	require.NoError(t, cbt.Lock(uuid.New(), geom.Position{X: 1, Y: 1}))
	return &fixture{
		clk:    clk,
		cbt:    cbt,
		engine: fusion.NewEngine(cfg, src, zap.NewNop()),
	}
}

func visibleHP(hp int) fusion.Signals {
	return fusion.Signals{OverlayVisible: true, OverlayHP: hp, OverlayHPValid: true, TargetActive: true}
}

func TestEvaluate_HPCountdownToZero(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	for _, hp := range []int{50, 30} {
		d := f.engine.Evaluate(f.cbt, visibleHP(hp))
		assert.Equal(t, fusion.VerdictNone, d.Verdict)
		f.clk.Advance(600 * time.Millisecond)
	}

	d := f.engine.Evaluate(f.cbt, visibleHP(0))
	assert.Equal(t, fusion.VerdictKill, d.Verdict)
	assert.Equal(t, fusion.RuleHPZero, d.Rule)
}

func TestEvaluate_HPZeroOutranksEveryOtherRule(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	// Build up competing evidence: overlay seen then gone past grace, the
	// identity inactive, the player idle.
	f.engine.Evaluate(f.cbt, visibleHP(10))
	f.engine.Evaluate(f.cbt, fusion.Signals{PlayerIdle: true})
	f.clk.Advance(20 * time.Second)
	f.cbt.ObserveHP(0)

	d := f.engine.Evaluate(f.cbt, fusion.Signals{PlayerIdle: true})
	assert.Equal(t, fusion.VerdictKill, d.Verdict)
	assert.Equal(t, fusion.RuleHPZero, d.Rule)
}

func TestEvaluate_OverlayGoneKillAfterGrace(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	d := f.engine.Evaluate(f.cbt, visibleHP(20))
	require.Equal(t, fusion.VerdictNone, d.Verdict)

	// Overlay disappears; the identity also drops out of the feed.
	d = f.engine.Evaluate(f.cbt, fusion.Signals{})
	assert.Equal(t, fusion.VerdictNone, d.Verdict, "the grace window must elapse first")

	f.clk.Advance(time.Second)
	d = f.engine.Evaluate(f.cbt, fusion.Signals{})
	assert.Equal(t, fusion.VerdictNone, d.Verdict)

	f.clk.Advance(time.Second)
	d = f.engine.Evaluate(f.cbt, fusion.Signals{})
	assert.Equal(t, fusion.VerdictKill, d.Verdict)
	assert.Equal(t, fusion.RuleOverlayGone, d.Rule)
}

func TestEvaluate_OverlayGoneNeedsSecondarySignal(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	f.engine.Evaluate(f.cbt, visibleHP(20))
	f.engine.Evaluate(f.cbt, fusion.Signals{TargetActive: true})
	f.clk.Advance(3 * time.Second)

	// Identity still active and the player not idle: the disappearance
	// alone is not enough.
	d := f.engine.Evaluate(f.cbt, fusion.Signals{TargetActive: true})
	assert.Equal(t, fusion.VerdictNone, d.Verdict)

	// Sustained idle supplies the secondary signal.
	f.engine.Evaluate(f.cbt, fusion.Signals{TargetActive: true, PlayerIdle: true})
	f.clk.Advance(3 * time.Second)
	d = f.engine.Evaluate(f.cbt, fusion.Signals{TargetActive: true, PlayerIdle: true})
	assert.Equal(t, fusion.VerdictKill, d.Verdict)
	assert.Equal(t, fusion.RuleOverlayGone, d.Rule)
}

func TestEvaluate_GraceRerolledPerDisappearance(t *testing.T) {
	cfg := testConfig()
	cfg.OverlayGrace = dice.JitterSpec{Min: time.Second, Max: 3 * time.Second}
	// First disappearance rolls 1s, second rolls 3s.
	src := &testutil.FixedSource{Values: []int{0, int(2 * time.Second)}}
	f := newFixture(t, cfg, src)
	f.cbt.Engaged = true

	f.engine.Evaluate(f.cbt, visibleHP(20))
	f.engine.Evaluate(f.cbt, fusion.Signals{})
	f.clk.Advance(time.Second)
	d := f.engine.Evaluate(f.cbt, fusion.Signals{})
	require.Equal(t, fusion.VerdictKill, d.Verdict, "first window is 1s")

	// Overlay comes back, then disappears again with a longer window.
	f.engine.Evaluate(f.cbt, visibleHP(20))
	f.engine.Evaluate(f.cbt, fusion.Signals{})
	f.clk.Advance(time.Second)
	d = f.engine.Evaluate(f.cbt, fusion.Signals{})
	assert.Equal(t, fusion.VerdictNone, d.Verdict, "second window is 3s; 1s is not enough")
	f.clk.Advance(2 * time.Second)
	d = f.engine.Evaluate(f.cbt, fusion.Signals{})
	assert.Equal(t, fusion.VerdictKill, d.Verdict)
}

func TestEvaluate_HPStallForcesReacquisition(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	f.engine.Evaluate(f.cbt, visibleHP(40))
	f.clk.Advance(6 * time.Second)
	d := f.engine.Evaluate(f.cbt, visibleHP(40))
	assert.Equal(t, fusion.VerdictLost, d.Verdict)
	assert.Equal(t, fusion.RuleHPStall, d.Rule)
}

func TestEvaluate_HPChangeRestartsStallWindow(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	f.engine.Evaluate(f.cbt, visibleHP(40))
	f.clk.Advance(4 * time.Second)
	f.engine.Evaluate(f.cbt, visibleHP(39))
	f.clk.Advance(4 * time.Second)
	d := f.engine.Evaluate(f.cbt, visibleHP(39))
	assert.Equal(t, fusion.VerdictNone, d.Verdict)
}

func TestEvaluate_VisibleOverlayBlocksFallbackRules(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	// Unreadable HP, identity gone, sustained idle: with the overlay still
	// on screen none of the absence rules may fire.
	sig := fusion.Signals{OverlayVisible: true, PlayerIdle: true}
	f.engine.Evaluate(f.cbt, sig)
	f.clk.Advance(30 * time.Second)
	d := f.engine.Evaluate(f.cbt, sig)
	assert.Equal(t, fusion.VerdictNone, d.Verdict)
}

func TestEvaluate_InactiveIdleKillRequiresEngagement(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})

	sig := fusion.Signals{PlayerIdle: true}
	f.engine.Evaluate(f.cbt, sig)
	f.clk.Advance(4 * time.Second)
	d := f.engine.Evaluate(f.cbt, sig)
	assert.Equal(t, fusion.VerdictNone, d.Verdict, "no confirmed engagement, no kill call")

	f.cbt.Engaged = true
	d = f.engine.Evaluate(f.cbt, sig)
	assert.Equal(t, fusion.VerdictKill, d.Verdict)
	assert.Equal(t, fusion.RuleInactiveIdle, d.Rule)
}

func TestEvaluate_InactiveTimeoutKill(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true

	// Player never idles (still moving between swings) but the identity has
	// been gone past the extended timeout.
	sig := fusion.Signals{}
	f.engine.Evaluate(f.cbt, sig)
	f.clk.Advance(11 * time.Second)
	d := f.engine.Evaluate(f.cbt, sig)
	assert.Equal(t, fusion.VerdictKill, d.Verdict)
	assert.Equal(t, fusion.RuleInactiveTimeout, d.Rule)
}

func TestEvaluate_IdleUnseenLost(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	// Engagement never confirmed: the absence rules may only call lost.

	sig := fusion.Signals{PlayerIdle: true}
	f.engine.Evaluate(f.cbt, sig)
	f.clk.Advance(19 * time.Second)
	d := f.engine.Evaluate(f.cbt, sig)
	assert.Equal(t, fusion.VerdictLost, d.Verdict)
	assert.Equal(t, fusion.RuleIdleUnseen, d.Rule)
}

func TestEvaluate_NoSignalsNoDecision(t *testing.T) {
	f := newFixture(t, testConfig(), &testutil.FixedSource{})
	f.cbt.Engaged = true
	d := f.engine.Evaluate(f.cbt, fusion.Signals{TargetActive: true})
	assert.Equal(t, fusion.VerdictNone, d.Verdict)
	assert.Empty(t, d.Rule)
}

func TestEvaluate_PanicsWithoutLock(t *testing.T) {
	clk := testutil.NewManualClock(time.Now())
	engine := fusion.NewEngine(testConfig(), &testutil.FixedSource{}, zap.NewNop())
	assert.Panics(t, func() { engine.Evaluate(track.NewCombat(clk), fusion.Signals{}) })
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fusion.Config)
		wantErr bool
	}{
		{"valid", func(*fusion.Config) {}, false},
		{"zero idle confirm", func(c *fusion.Config) { c.IdleConfirm = 0 }, true},
		{"zero hp stall", func(c *fusion.Config) { c.HPStallTimeout = 0 }, true},
		{"zero inactive kill", func(c *fusion.Config) { c.InactiveKillTimeout = 0 }, true},
		{"lost below inactive kill", func(c *fusion.Config) { c.LostTimeout = 5 * time.Second }, true},
		{"inverted grace", func(c *fusion.Config) {
			c.OverlayGrace = dice.JitterSpec{Min: 2 * time.Second, Max: time.Second}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
