// Package recovery centralizes the session-global retry budget and the
// exponential backoff applied between compound-failure recoveries.
package recovery

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/game/dice"
)

// Config holds the retry budget and backoff tuning.
//
// Invariant: MaxRetries >= 1; BackoffBase > 0; BackoffFactor >= 1;
// BackoffCap >= BackoffBase.
type Config struct {
	// MaxRetries is the session-wide recovery budget.
	MaxRetries int
	// BackoffBase is the wait before the first retry.
	BackoffBase time.Duration
	// BackoffFactor multiplies the wait per consecutive retry.
	BackoffFactor float64
	// BackoffCap bounds the grown wait.
	BackoffCap time.Duration
	// BackoffJitter is added uniformly on top of the grown wait.
	BackoffJitter dice.JitterSpec
}

// Validate checks the tuning invariants.
//
// Postcondition: Returns nil iff all invariants hold.
func (c Config) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("recovery max_retries must be >= 1, got %d", c.MaxRetries)
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("recovery backoff_base must be > 0, got %v", c.BackoffBase)
	}
	if c.BackoffFactor < 1 {
		return fmt.Errorf("recovery backoff_factor must be >= 1, got %v", c.BackoffFactor)
	}
	if c.BackoffCap < c.BackoffBase {
		return fmt.Errorf("recovery backoff_cap %v must be >= backoff_base %v", c.BackoffCap, c.BackoffBase)
	}
	if err := c.BackoffJitter.Validate(); err != nil {
		return fmt.Errorf("recovery backoff_jitter: %w", err)
	}
	return nil
}

// Controller tracks recovery attempts across the whole session.
//
// Invariant: the retry count is monotonically non-decreasing; only
// ResetSession (a full reconnect/relogin) may reset it.
type Controller struct {
	cfg    Config
	src    dice.Source
	logger *zap.Logger
	count  int
}

// NewController constructs a Controller.
//
// Precondition: cfg must validate; src and logger must not be nil.
func NewController(cfg Config, src dice.Source, logger *zap.Logger) *Controller {
	if src == nil {
		panic("recovery.NewController: src must not be nil")
	}
	if logger == nil {
		panic("recovery.NewController: logger must not be nil")
	}
	return &Controller{cfg: cfg, src: src, logger: logger}
}

// Count returns the number of recoveries entered this session.
func (c *Controller) Count() int { return c.count }

// Enter consumes one retry from the budget.
//
// Postcondition: the count is incremented. Returns (wait, true) with the
// backoff to apply when budget remains, or (0, false) when the budget is
// exhausted and the session must stop.
func (c *Controller) Enter() (time.Duration, bool) {
	c.count++
	if c.count > c.cfg.MaxRetries {
		c.logger.Error("recovery budget exhausted",
			zap.Int("count", c.count),
			zap.Int("max", c.cfg.MaxRetries),
		)
		return 0, false
	}
	backoff := c.backoff(c.count)
	c.logger.Warn("entering recovery",
		zap.Int("attempt", c.count),
		zap.Int("max", c.cfg.MaxRetries),
		zap.Duration("backoff", backoff),
	)
	return backoff, true
}

// backoff computes base*factor^(attempt-1), capped, plus jitter.
func (c *Controller) backoff(attempt int) time.Duration {
	grown := float64(c.cfg.BackoffBase)
	for i := 1; i < attempt; i++ {
		grown *= c.cfg.BackoffFactor
		if time.Duration(grown) >= c.cfg.BackoffCap {
			grown = float64(c.cfg.BackoffCap)
			break
		}
	}
	d := time.Duration(grown)
	if d > c.cfg.BackoffCap {
		d = c.cfg.BackoffCap
	}
	return d + c.cfg.BackoffJitter.Roll(c.src)
}

// ResetSession clears the retry count. Only a full session reset
// (reconnect/relogin) may call this.
func (c *Controller) ResetSession() {
	if c.count != 0 {
		c.logger.Info("recovery budget reset by session reset",
			zap.Int("previous_count", c.count),
		)
	}
	c.count = 0
}
