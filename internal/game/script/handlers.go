package script

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/game/anchor"
	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/wait"
)

// Handler executes one tick in a given state and returns the next state.
// A returned error is a cancellation or host failure propagated out of the
// tick; state remains unchanged in that case.
type Handler func(ctx context.Context, s *Session) (State, error)

// defaultHandlers maps every state to its handler.
func defaultHandlers() map[State]Handler {
	return map[State]Handler{
		StateInit:         handleInit,
		StateEnsureAnchor: handleEnsureAnchor,
		StateAcquire:      handleAcquire,
		StateEngage:       handleEngage,
		StateMonitor:      handleMonitor,
		StateReengage:     handleReengage,
		StatePostKill:     handlePostKill,
		StateLoot:         handleLoot,
		StateRecovery:     handleRecovery,
		StateStop:         handleStop,
	}
}

// handleInit anchors the session at the player's current position and
// baselines the progress watchdog. An unreadable position is no signal
// this tick; the state is retried.
func handleInit(_ context.Context, s *Session) (State, error) {
	pos, ok := s.backend.Player.Position()
	if !ok {
		return StateInit, nil
	}
	if s.Anchor == nil {
		s.Anchor = anchor.NewMonitor(
			pos,
			s.cfg.Anchor.ToleranceTiles,
			s.backend.Player,
			s.backend.Mover,
			s.clock,
			s.cfg.Anchor.WalkbackTimeout,
			s.cfg.Engine.WaitPoll,
		)
	}
	if xp, ok := s.backend.Player.XP(); ok {
		s.lastXP = xp
		s.hasXP = true
	}
	s.markProgress()
	s.logger.Info("session anchored",
		zap.Int("x", s.Anchor.Home().X),
		zap.Int("y", s.Anchor.Home().Y),
		zap.String("target", s.profile.Name),
	)
	return StateEnsureAnchor, nil
}

// handleEnsureAnchor walks back toward the anchor when displaced, bounded
// by the configured retry count, then escalates to recovery.
func handleEnsureAnchor(ctx context.Context, s *Session) (State, error) {
	if !s.Anchor.Displaced() {
		s.anchorRetries = 0
		return s.afterAnchor(), nil
	}

	arrived, err := s.Anchor.WalkBack(ctx)
	if err != nil {
		return StateEnsureAnchor, err
	}
	if arrived {
		s.anchorRetries = 0
		return s.afterAnchor(), nil
	}

	s.anchorRetries++
	s.logger.Warn("walk-back failed",
		zap.Int("attempt", s.anchorRetries),
		zap.Int("max", s.cfg.Anchor.MaxWalkbackRetries),
	)
	if s.anchorRetries >= s.cfg.Anchor.MaxWalkbackRetries {
		s.anchorRetries = 0
		return StateRecovery, nil
	}
	return StateEnsureAnchor, nil
}

// afterAnchor routes to reengagement when armed, otherwise to acquisition.
func (s *Session) afterAnchor() State {
	if s.ReengageArmed {
		if _, locked := s.Combat.Locked(); locked {
			return StateReengage
		}
		s.ReengageArmed = false
	}
	return StateAcquire
}

// handleAcquire searches the hunt region for the profile's cluster and
// correlates it to an active identity. Every missing or ambiguous signal
// simply waits for the next tick.
func handleAcquire(_ context.Context, s *Session) (State, error) {
	if _, locked := s.Combat.Locked(); locked {
		// A locked target means a previous engage was interrupted; resume it.
		return StateEngage, nil
	}

	region := geom.RegionAround(s.Anchor.Home(), s.profile.SearchRadiusTiles)
	cluster, ok := s.Locator.Locate(region, s.profile.Signature)
	if !ok {
		return StateAcquire, nil
	}

	id, ok := s.Locator.Correlate(cluster, s.Entities.Active(), s.Combat.Suppressed)
	if !ok {
		return StateAcquire, nil
	}

	pos, _ := s.Entities.Position(id)
	if err := s.Combat.Lock(id, pos); err != nil {
		// Unreachable while the invariant holds; surface loudly.
		return StateAcquire, err
	}
	s.Fusion.Reset()
	s.logger.Info("target acquired",
		zap.String("identity", id.String()),
		zap.Int("x", pos.X),
		zap.Int("y", pos.Y),
	)
	return StateEngage, nil
}

// handleEngage issues the menu-validated attack tap and confirms the
// engagement by overlay appearance within the configured timeout.
func handleEngage(ctx context.Context, s *Session) (State, error) {
	id, locked := s.Combat.Locked()
	if !locked {
		return StateAcquire, nil
	}

	pos := s.Combat.LastKnownPos
	if p, ok := s.Entities.Position(id); ok {
		pos = p
	}
	bounds, ok := s.backend.Screen.ProjectPosition(pos)
	if !ok {
		return StateEngage, nil
	}

	if !s.backend.Input.TapWithMenuValidation(bounds, s.profile.AttackAction) {
		return s.engageMiss("menu validation failed"), nil
	}

	s.armFirstCast()
	confirmed, err := wait.Until(ctx, s.clock, s.backend.Overlay.Visible,
		s.cfg.Combat.EngageConfirmTimeout, s.cfg.Engine.WaitPoll)
	if err != nil {
		return StateEngage, err
	}
	if confirmed {
		s.engageMisses = 0
		s.Combat.Engaged = true
		s.logger.Info("engagement confirmed", zap.String("identity", id.String()))
		return StateMonitor, nil
	}

	s.disarmFirstCast()
	if !s.Entities.IsActive(id) {
		// Overlay never appeared and the identity is gone; the acquisition
		// was stale.
		s.clearTarget()
		s.engageMisses = 0
		return StateAcquire, nil
	}
	return s.engageMiss("overlay never appeared"), nil
}

// engageMiss counts a bounded local engagement failure, clearing the
// target when the budget is spent.
func (s *Session) engageMiss(why string) State {
	s.engageMisses++
	s.logger.Debug("engage attempt failed",
		zap.String("why", why),
		zap.Int("misses", s.engageMisses),
		zap.Int("max", s.cfg.Combat.MaxEngageMisses),
	)
	if s.engageMisses >= s.cfg.Combat.MaxEngageMisses {
		s.engageMisses = 0
		s.clearTarget()
		return StateAcquire
	}
	return StateEngage
}

// handleStop is terminal.
func handleStop(_ context.Context, _ *Session) (State, error) {
	return StateStop, nil
}
