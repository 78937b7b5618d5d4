package recovery_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/recovery"
	"github.com/cory-johannsen/hunter/internal/testutil"
)

func testConfig() recovery.Config {
	return recovery.Config{
		MaxRetries:    3,
		BackoffBase:   time.Second,
		BackoffFactor: 2,
		BackoffCap:    10 * time.Second,
	}
}

func newController(t *testing.T, cfg recovery.Config) *recovery.Controller {
	t.Helper()
	require.NoError(t, cfg.Validate())
	return recovery.NewController(cfg, &testutil.FixedSource{}, zap.NewNop())
}

func TestEnter_ConsumesBudgetThenRefuses(t *testing.T) {
	c := newController(t, testConfig())

	for i := 1; i <= 3; i++ {
		wait, ok := c.Enter()
		require.True(t, ok, "attempt %d is within budget", i)
		assert.Positive(t, wait)
		assert.Equal(t, i, c.Count())
	}

	wait, ok := c.Enter()
	assert.False(t, ok, "the fourth attempt exceeds a budget of 3")
	assert.Zero(t, wait)
}

func TestEnter_BackoffGrowsAndCaps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 6
	c := newController(t, cfg)

	var waits []time.Duration
	for i := 0; i < 6; i++ {
		wait, ok := c.Enter()
		require.True(t, ok)
		waits = append(waits, wait)
	}

	// 1s, 2s, 4s, 8s, then capped at 10s. No jitter configured.
	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, waits)
}

func TestEnter_JitterAddsOnTop(t *testing.T) {
	cfg := testConfig()
	cfg.BackoffJitter = dice.JitterSpec{Min: 100 * time.Millisecond, Max: 300 * time.Millisecond}
	require.NoError(t, cfg.Validate())
	c := recovery.NewController(cfg, dice.NewCryptoSource(), zap.NewNop())

	wait, ok := c.Enter()
	require.True(t, ok)
	assert.GreaterOrEqual(t, wait, time.Second+100*time.Millisecond)
	assert.LessOrEqual(t, wait, time.Second+300*time.Millisecond)
}

func TestResetSession_RestoresBudget(t *testing.T) {
	c := newController(t, testConfig())
	for i := 0; i < 3; i++ {
		_, ok := c.Enter()
		require.True(t, ok)
	}

	c.ResetSession()
	assert.Zero(t, c.Count())

	_, ok := c.Enter()
	assert.True(t, ok, "a relogin restores the full budget")
}

func TestCount_MonotoneWithoutSessionReset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := testConfig()
		cfg.MaxRetries = rapid.IntRange(1, 10).Draw(t, "max")
		c := recovery.NewController(cfg, &testutil.FixedSource{}, zap.NewNop())

		prev := c.Count()
		attempts := rapid.IntRange(1, 25).Draw(t, "attempts")
		for i := 0; i < attempts; i++ {
			_, ok := c.Enter()
			if got := c.Count(); got <= prev {
				t.Fatalf("count went from %d to %d; must strictly increase", prev, got)
			} else {
				prev = got
			}
			if ok != (c.Count() <= cfg.MaxRetries) {
				t.Fatalf("admission %v disagrees with count %d / budget %d", ok, c.Count(), cfg.MaxRetries)
			}
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*recovery.Config)
	}{
		{"zero retries", func(c *recovery.Config) { c.MaxRetries = 0 }},
		{"zero base", func(c *recovery.Config) { c.BackoffBase = 0 }},
		{"shrinking factor", func(c *recovery.Config) { c.BackoffFactor = 0.5 }},
		{"cap below base", func(c *recovery.Config) { c.BackoffCap = 500 * time.Millisecond }},
		{"inverted jitter", func(c *recovery.Config) {
			c.BackoffJitter = dice.JitterSpec{Min: time.Second, Max: 0}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
