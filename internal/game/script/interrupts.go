package script

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/interrupt"
)

// Interrupt names, in chain priority order.
const (
	InterruptDepletion = "resource-depletion"
	InterruptEat       = "eat"
	InterruptAnchor    = "anchor-displacement"
	InterruptDialogue  = "dialogue"
	InterruptWatchdog  = "progress-watchdog"
	InterruptFirstCast = "first-cast-gate"
)

// buildChain assembles the fixed-priority interrupt chain over s. The
// order is the contract: the first applicable interrupt consumes the tick.
func buildChain(s *Session) []interrupt.Interrupt {
	return []interrupt.Interrupt{
		{
			Name:    InterruptDepletion,
			Applies: s.runesDepleted,
			Fire: func(context.Context) error {
				s.State = s.stop("required runes exhausted")
				return nil
			},
		},
		{
			Name:    InterruptEat,
			Applies: s.shouldEat,
			Fire:    s.fireEat,
		},
		{
			Name:    InterruptAnchor,
			Applies: s.anchorDrifted,
			Fire: func(context.Context) error {
				if _, locked := s.Combat.Locked(); locked && s.Combat.Engaged {
					s.ReengageArmed = true
					s.logger.Info("displaced mid-engagement, arming reengage")
				}
				s.State = StateEnsureAnchor
				return nil
			},
		},
		{
			Name: InterruptDialogue,
			Applies: func() bool {
				_, open := s.backend.Dialogue.State()
				return open
			},
			Fire: s.fireDialogue,
		},
		{
			Name:    InterruptWatchdog,
			Applies: s.watchdogDue,
			Fire:    s.fireWatchdog,
		},
		{
			Name:    InterruptFirstCast,
			Applies: s.FirstCastArmed,
			Fire:    s.fireFirstCast,
		},
	}
}

// runesDepleted reports whether any required (non-staff-covered) rune has
// run out. No runes configured means casting is not resource-gated.
func (s *Session) runesDepleted() bool {
	required := s.cfg.Runes.Required()
	if len(required) == 0 {
		return false
	}
	counts := s.backend.Inventory.Snapshot(required)
	for _, id := range required {
		if counts[id] <= 0 {
			return true
		}
	}
	return false
}

// shouldEat reports whether self vitals are at or below the rolled
// threshold, subject to the cooldown and food being configured.
func (s *Session) shouldEat() bool {
	if s.cfg.Food.ItemID == 0 {
		return false
	}
	if !s.lastEatAt.IsZero() && s.clock.Now().Sub(s.lastEatAt) < s.cfg.Eat.Cooldown {
		return false
	}
	hp, ok := s.backend.Vitals.Self()
	if !ok {
		return false
	}
	return hp <= s.eatThreshold
}

// fireEat consumes one food item and re-rolls the threshold. Running out
// of food while needing to eat is a fatal resource depletion.
func (s *Session) fireEat(context.Context) error {
	counts := s.backend.Inventory.Snapshot([]int{s.cfg.Food.ItemID})
	if counts[s.cfg.Food.ItemID] <= 0 {
		s.State = s.stop("out of food")
		return nil
	}
	if !s.backend.Inventory.Consume(s.cfg.Food.ItemID) {
		// A failed consume is an action miss; retry next tick.
		return nil
	}
	s.lastEatAt = s.clock.Now()
	previous := s.eatThreshold
	s.rollEatThreshold()
	s.logger.Info("ate food",
		zap.Int("item", s.cfg.Food.ItemID),
		zap.Int("previous_threshold", previous),
		zap.Int("next_threshold", s.eatThreshold),
	)
	return nil
}

// anchorDrifted reports displacement outside the states that legitimately
// leave the anchor radius.
func (s *Session) anchorDrifted() bool {
	if s.Anchor == nil {
		return false
	}
	switch s.State {
	case StateInit, StateEnsureAnchor, StateLoot, StateRecovery, StateStop:
		return false
	}
	return s.Anchor.Displaced()
}

// fireDialogue dismisses a blocking dialogue after a human-like delay.
func (s *Session) fireDialogue(ctx context.Context) error {
	kind, open := s.backend.Dialogue.State()
	if !open {
		return nil
	}
	delay := dice.DurationBetween(s.src, s.cfg.Engine.DialogueDelayMin, s.cfg.Engine.DialogueDelayMax)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}
	s.backend.Dialogue.Dismiss()
	s.logger.Info("dismissed dialogue", zap.String("kind", kind.String()))
	return nil
}

// watchdogDue reports whether the progress watchdog needs the tick, either
// to warn ahead of expiry or to stop the session.
func (s *Session) watchdogDue() bool {
	if !s.cfg.XPFailsafe.Enabled || s.lastProgressAt.IsZero() {
		return false
	}
	if s.cfg.XPFailsafe.PauseDuringLogout && !s.backend.Player.LoggedIn() {
		return false
	}
	since := s.sinceProgress()
	timeout := s.cfg.XPFailsafe.Timeout()
	if since >= timeout {
		return true
	}
	return since >= timeout-s.cfg.XPFailsafe.WarnBefore && !s.watchdogWarned
}

// fireWatchdog warns once ahead of expiry, then stops fatally.
func (s *Session) fireWatchdog(context.Context) error {
	since := s.sinceProgress()
	timeout := s.cfg.XPFailsafe.Timeout()
	if since >= timeout {
		s.State = s.stop("no progress within xp failsafe timeout")
		return nil
	}
	s.watchdogWarned = true
	s.logger.Warn("xp failsafe approaching",
		zap.Duration("since_progress", since),
		zap.Duration("timeout", timeout),
	)
	return nil
}

// fireFirstCast holds the tick until a confirming combat signal appears or
// the deadline passes, then releases into normal flow, re-routing through
// anchor recovery first when displaced.
func (s *Session) fireFirstCast(context.Context) error {
	if s.backend.Overlay.Visible() || !s.backend.Player.Idle() {
		s.disarmFirstCast()
		s.logger.Debug("first cast confirmed")
		return nil
	}
	if s.clock.Now().After(s.firstCastDeadline) {
		s.disarmFirstCast()
		s.logger.Debug("first cast gate expired")
		if s.Anchor != nil && s.Anchor.Displaced() {
			s.State = StateEnsureAnchor
		}
	}
	return nil
}
