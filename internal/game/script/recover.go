package script

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// handleRecovery consumes one retry from the session budget, resets combat
// intent, applies the exponential backoff, and routes back through anchor
// verification. Budget exhaustion is a fatal stop.
func handleRecovery(ctx context.Context, s *Session) (State, error) {
	backoff, ok := s.Recovery.Enter()
	if !ok {
		return s.stop("recovery budget exhausted"), nil
	}

	s.resetCombatIntent()

	// The backoff is an explicit bounded wait; cancellation must always
	// win, even mid-recovery.
	select {
	case <-ctx.Done():
		return StateRecovery, ctx.Err()
	case <-time.After(backoff):
	}

	s.logger.Info("recovery backoff complete",
		zap.Int("attempt", s.Recovery.Count()),
		zap.Duration("waited", backoff),
	)
	return StateEnsureAnchor, nil
}
