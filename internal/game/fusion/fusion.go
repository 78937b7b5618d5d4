// Package fusion combines overlay, positional, and idle evidence into a
// kill-confirmed / target-lost decision through ordered confidence rules.
package fusion

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/track"
)

// Verdict is the per-tick outcome of the fusion engine.
type Verdict int

const (
	// VerdictNone means no decision this tick; keep monitoring.
	VerdictNone Verdict = iota
	// VerdictKill means the kill is confirmed.
	VerdictKill
	// VerdictLost means the target is lost and must be reacquired.
	VerdictLost
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictKill:
		return "kill"
	case VerdictLost:
		return "lost"
	default:
		return "none"
	}
}

// Rule names, ordered highest confidence first.
const (
	RuleHPZero          = "hp-zero"
	RuleOverlayGone     = "overlay-gone-confirmed"
	RuleHPStall         = "hp-stall"
	RuleInactiveIdle    = "inactive-idle"
	RuleInactiveTimeout = "inactive-timeout"
	RuleIdleUnseen      = "idle-unseen"
)

// Signals is the per-tick sensor snapshot the engine evaluates.
type Signals struct {
	// OverlayVisible reports whether the vitals overlay is on screen.
	OverlayVisible bool
	// OverlayHP is the overlay HP reading; valid only when OverlayHPValid.
	OverlayHP      int
	OverlayHPValid bool
	// TargetActive reports whether the locked identity appeared in the
	// entity tracker this tick.
	TargetActive bool
	// PlayerIdle reports whether the player shows no animation.
	PlayerIdle bool
}

// Decision is the engine's output for one tick.
type Decision struct {
	Verdict Verdict
	// Rule is the name of the rule that fired; empty for VerdictNone.
	Rule string
}

// Config holds the fusion timeouts.
//
// Invariant: every duration is > 0 and LostTimeout >= InactiveKillTimeout.
type Config struct {
	// OverlayGrace is the randomized window the overlay must stay missing
	// before its disappearance counts as evidence.
	OverlayGrace dice.JitterSpec
	// IdleConfirm is the sustained player-idle threshold.
	IdleConfirm time.Duration
	// HPStallTimeout is how long an unchanged HP reading counts as a stall.
	HPStallTimeout time.Duration
	// InactiveKillTimeout is how long the identity must be absent for the
	// lowest-confidence kill rule.
	InactiveKillTimeout time.Duration
	// LostTimeout is how long the identity must be absent, combined with
	// sustained idle, to call the target lost instead of killed.
	LostTimeout time.Duration
}

// Validate checks the timeout invariants.
//
// Postcondition: Returns nil iff all durations are positive and
// LostTimeout >= InactiveKillTimeout.
func (c Config) Validate() error {
	if err := c.OverlayGrace.Validate(); err != nil {
		return fmt.Errorf("fusion overlay_grace: %w", err)
	}
	if c.IdleConfirm <= 0 {
		return fmt.Errorf("fusion idle_confirm must be > 0, got %v", c.IdleConfirm)
	}
	if c.HPStallTimeout <= 0 {
		return fmt.Errorf("fusion hp_stall_timeout must be > 0, got %v", c.HPStallTimeout)
	}
	if c.InactiveKillTimeout <= 0 {
		return fmt.Errorf("fusion inactive_kill_timeout must be > 0, got %v", c.InactiveKillTimeout)
	}
	if c.LostTimeout < c.InactiveKillTimeout {
		return fmt.Errorf("fusion lost_timeout %v must be >= inactive_kill_timeout %v", c.LostTimeout, c.InactiveKillTimeout)
	}
	return nil
}

// Engine evaluates the ordered confidence rules once per monitoring tick.
//
// Invariant: src and logger are non-nil.
type Engine struct {
	cfg    Config
	src    dice.Source
	logger *zap.Logger

	// grace is the rolled window for the current overlay disappearance.
	grace       time.Duration
	graceRolled bool
}

// NewEngine constructs a fusion Engine.
//
// Precondition: cfg must validate; src and logger must not be nil.
func NewEngine(cfg Config, src dice.Source, logger *zap.Logger) *Engine {
	if src == nil {
		panic("fusion.NewEngine: src must not be nil")
	}
	if logger == nil {
		panic("fusion.NewEngine: logger must not be nil")
	}
	return &Engine{cfg: cfg, src: src, logger: logger}
}

// Evaluate folds this tick's signals into the combat tracker's evidence
// timers and returns the first rule that fires, highest confidence first:
//
//  1. HP reached exactly 0 → kill.
//  2. Overlay disappeared for at least the rolled grace window AND a
//     secondary signal holds (identity inactive, or sustained idle) → kill.
//  3. HP unchanged beyond the stall timeout → lost.
//  4. Overlay still visible with positive (or unreadable) HP → no decision;
//     direct evidence contradicts every fallback below.
//  5. Identity inactive + sustained idle, after a confirmed engagement → kill.
//  6. Identity inactive beyond the extended timeout, after a confirmed
//     engagement → kill.
//  7. Sustained idle + identity unseen beyond the lost timeout → lost.
//  8. Otherwise no decision.
//
// Precondition: cbt must not be nil and must hold a locked target.
func (e *Engine) Evaluate(cbt *track.Combat, sig Signals) Decision {
	if _, locked := cbt.Locked(); !locked {
		panic("fusion.Evaluate: no target locked")
	}

	e.ingest(cbt, sig)

	// Rule 1: direct HP evidence.
	if hp, ok := cbt.HP(); ok && hp == 0 {
		return e.decide(VerdictKill, RuleHPZero)
	}

	// Rule 2: overlay disappearance with secondary confirmation.
	if missing := cbt.OverlayMissingFor(); e.graceRolled && missing >= e.grace {
		if !sig.TargetActive || cbt.IdleFor() >= e.cfg.IdleConfirm {
			return e.decide(VerdictKill, RuleOverlayGone)
		}
	}

	// Rule 3: HP stall forces reacquisition.
	if hp, ok := cbt.HP(); ok && hp > 0 && cbt.HPStalledFor() > e.cfg.HPStallTimeout {
		return e.decide(VerdictLost, RuleHPStall)
	}

	// Rule 4: a visible overlay contradicts every fallback below.
	if sig.OverlayVisible {
		return Decision{Verdict: VerdictNone}
	}

	// Rules 5 and 6 are low-confidence kill calls; both require that the
	// engagement was actually confirmed, otherwise a fight that never
	// started would be celebrated as a kill.
	if cbt.Engaged && !sig.TargetActive {
		// Rule 5: identity gone + sustained idle.
		if cbt.IdleFor() >= e.cfg.IdleConfirm {
			return e.decide(VerdictKill, RuleInactiveIdle)
		}
		// Rule 6: identity gone for the extended timeout.
		if cbt.InactiveFor() >= e.cfg.InactiveKillTimeout {
			return e.decide(VerdictKill, RuleInactiveTimeout)
		}
	}

	// Rule 7: sustained idle with the identity unseen even longer → lost.
	if cbt.IdleFor() >= e.cfg.IdleConfirm && cbt.InactiveFor() >= e.cfg.LostTimeout {
		return e.decide(VerdictLost, RuleIdleUnseen)
	}

	return Decision{Verdict: VerdictNone}
}

// ingest updates the tracker's evidence timers and manages the grace roll.
func (e *Engine) ingest(cbt *track.Combat, sig Signals) {
	if sig.OverlayVisible && sig.OverlayHPValid {
		cbt.ObserveHP(sig.OverlayHP)
	}
	cbt.ObserveOverlay(sig.OverlayVisible)
	cbt.ObserveIdle(sig.PlayerIdle)

	if sig.OverlayVisible {
		e.graceRolled = false
		return
	}
	if cbt.OverlaySeen() && !e.graceRolled {
		e.grace = e.cfg.OverlayGrace.Roll(e.src)
		e.graceRolled = true
	}
}

// decide logs and wraps a fired rule.
func (e *Engine) decide(v Verdict, rule string) Decision {
	e.logger.Debug("fusion rule fired",
		zap.String("rule", rule),
		zap.String("verdict", v.String()),
	)
	return Decision{Verdict: v, Rule: rule}
}

// Reset clears the rolled grace window. Call when a new target is adopted.
func (e *Engine) Reset() {
	e.grace = 0
	e.graceRolled = false
}
