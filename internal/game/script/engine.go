package script

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/game/interrupt"
	"github.com/cory-johannsen/hunter/internal/game/track"
)

// Engine drives one Session through the tick protocol: cancellation check,
// entity-feed refresh, interrupt dispatch, then the current state's
// handler. At most one interrupt or one state handler executes per tick.
type Engine struct {
	session    *Session
	dispatcher *interrupt.Dispatcher
	handlers   map[State]Handler
	logger     *zap.Logger
}

// NewEngine constructs an Engine over s with the standard interrupt chain.
//
// Precondition: s must not be nil.
func NewEngine(s *Session) *Engine {
	if s == nil {
		panic("script.NewEngine: session must not be nil")
	}
	return &Engine{
		session:    s,
		dispatcher: interrupt.NewDispatcher(s.logger, buildChain(s)...),
		handlers:   defaultHandlers(),
		logger:     s.logger,
	}
}

// Session returns the engine's session.
func (e *Engine) Session() *Session { return e.session }

// Done reports whether the session has reached the terminal state.
func (e *Engine) Done() bool { return e.session.State == StateStop }

// Tick runs exactly one tick. Cancellation always propagates; sensor
// failures never do.
//
// Postcondition: Returns nil on a normal tick (including a consumed
// interrupt tick), or ctx.Err() when cancelled.
func (e *Engine) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := e.session
	if s.State == StateStop {
		return nil
	}

	e.observeWorld()

	if name, fired, err := e.dispatcher.Dispatch(ctx); fired {
		if err != nil {
			return fmt.Errorf("interrupt %s: %w", name, err)
		}
		return nil
	}

	handler, ok := e.handlers[s.State]
	if !ok {
		return fmt.Errorf("script: no handler for state %s", s.State)
	}

	before := s.State
	next, err := handler(ctx, s)
	if err != nil {
		return err
	}
	if next != before {
		e.logger.Info("state transition",
			zap.String("from", before.String()),
			zap.String("to", next.String()),
		)
	}
	s.State = next
	return nil
}

// observeWorld refreshes the entity tracker from the positional feed,
// updates the locked target's activity evidence, tracks XP progress, and
// handles the logged-out/logged-in session boundary.
func (e *Engine) observeWorld() {
	s := e.session
	now := s.clock.Now()

	// An empty or missing feed still progresses ageing.
	raw := s.backend.Minimap.EntityPositions()
	pings := make([]track.Ping, 0, len(raw))
	for _, p := range raw {
		pings = append(pings, track.Ping{ID: p.ID, Pos: p.Pos})
	}
	s.Entities.Update(pings)

	if id, locked := s.Combat.Locked(); locked {
		pos, _ := s.Entities.Position(id)
		s.Combat.ObserveActive(s.Entities.IsActive(id), pos)
	}

	// XP gain is measurable progress.
	if xp, ok := s.backend.Player.XP(); ok {
		if s.hasXP && xp > s.lastXP {
			s.markProgress()
		}
		s.lastXP = xp
		s.hasXP = true
	}

	loggedIn := s.backend.Player.LoggedIn()
	switch {
	case s.loggedOut && loggedIn:
		// A relogin is a full session reset: the only event allowed to
		// reset the recovery budget.
		e.logger.Info("session reconnected, resetting budgets")
		s.Recovery.ResetSession()
		s.resetCombatIntent()
		s.markProgress()
		s.loggedOut = false
	case !loggedIn:
		s.loggedOut = true
		// The watchdog clock pauses while logged out.
		if s.cfg.XPFailsafe.PauseDuringLogout && !s.lastProgressAt.IsZero() && !s.lastTickAt.IsZero() {
			s.lastProgressAt = s.lastProgressAt.Add(now.Sub(s.lastTickAt))
		}
	}
	s.lastTickAt = now
}
