package script

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/fusion"
	"github.com/cory-johannsen/hunter/internal/game/wait"
)

// handleMonitor feeds this tick's sensor snapshot to the fusion engine and
// acts on its verdict.
func handleMonitor(_ context.Context, s *Session) (State, error) {
	id, locked := s.Combat.Locked()
	if !locked {
		return StateAcquire, nil
	}

	hp, hpValid := s.backend.Overlay.HP()
	sig := fusion.Signals{
		OverlayVisible: s.backend.Overlay.Visible(),
		OverlayHP:      hp,
		OverlayHPValid: hpValid,
		TargetActive:   s.Entities.IsActive(id),
		PlayerIdle:     s.backend.Player.Idle(),
	}

	decision := s.Fusion.Evaluate(s.Combat, sig)
	switch decision.Verdict {
	case fusion.VerdictKill:
		lockFor := dice.DurationBetween(s.src, s.cfg.Combat.PostKillLockMin, s.cfg.Combat.PostKillLockMax)
		s.Combat.RecordKill(lockFor)
		death, _ := s.Combat.LastKill()
		s.clearTarget()
		s.Kills++
		s.markProgress()
		s.logger.Info("kill confirmed",
			zap.String("identity", id.String()),
			zap.String("rule", decision.Rule),
			zap.Int("kills", s.Kills),
			zap.Int("death_x", death.Position.X),
			zap.Int("death_y", death.Position.Y),
		)
		return StatePostKill, nil
	case fusion.VerdictLost:
		s.logger.Info("target lost",
			zap.String("identity", id.String()),
			zap.String("rule", decision.Rule),
		)
		s.clearTarget()
		return StateAcquire, nil
	default:
		return StateMonitor, nil
	}
}

// handleReengage re-validates that the locked identity is still plausibly
// on its last known tile, then re-attacks it instead of reacquiring
// blindly. Its retries are bounded separately from engagement misses.
func handleReengage(ctx context.Context, s *Session) (State, error) {
	id, locked := s.Combat.Locked()
	if !locked {
		s.ReengageArmed = false
		return StateAcquire, nil
	}

	pos, known := s.Entities.Position(id)
	plausible := known &&
		s.Entities.IsActive(id) &&
		s.Combat.LastKnownPos.WithinRadius(pos, s.cfg.Combat.ReengageRadiusTiles)

	if plausible {
		if bounds, ok := s.backend.Screen.ProjectPosition(pos); ok {
			if s.backend.Input.TapWithMenuValidation(bounds, s.profile.AttackAction) {
				s.reengageRetries = 0
				s.ReengageArmed = false
				s.armFirstCast()
				confirmed, err := wait.Until(ctx, s.clock, s.backend.Overlay.Visible,
					s.cfg.Combat.EngageConfirmTimeout, s.cfg.Engine.WaitPoll)
				if err != nil {
					return StateReengage, err
				}
				if confirmed {
					s.Combat.Engaged = true
					s.logger.Info("reengaged locked target", zap.String("identity", id.String()))
					return StateMonitor, nil
				}
				s.disarmFirstCast()
			}
		}
	}

	s.reengageRetries++
	if s.reengageRetries > s.cfg.Combat.MaxReengageRetries {
		s.logger.Info("reengage exhausted, reacquiring",
			zap.String("identity", id.String()),
			zap.Int("retries", s.reengageRetries),
		)
		s.reengageRetries = 0
		s.ReengageArmed = false
		s.clearTarget()
		return StateAcquire, nil
	}
	return StateReengage, nil
}

// handlePostKill routes past the kill. The real loot/burying work is a host
// concern; this stage only reads the death record and picks the next state.
func handlePostKill(_ context.Context, s *Session) (State, error) {
	if s.cfg.Loot.Mode != "none" {
		return StateLoot, nil
	}
	return StateEnsureAnchor, nil
}

// handleLoot is the loot stage stub; it reads where the kill happened and
// hands back to anchor verification.
func handleLoot(_ context.Context, s *Session) (State, error) {
	if death, ok := s.Combat.LastKill(); ok {
		s.logger.Debug("loot stage",
			zap.String("mode", s.cfg.Loot.Mode),
			zap.Int("death_x", death.Position.X),
			zap.Int("death_y", death.Position.Y),
		)
	}
	return StateEnsureAnchor, nil
}
