package script

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/config"
	"github.com/cory-johannsen/hunter/internal/game/anchor"
	"github.com/cory-johannsen/hunter/internal/game/clock"
	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/fusion"
	"github.com/cory-johannsen/hunter/internal/game/locate"
	"github.com/cory-johannsen/hunter/internal/game/recovery"
	"github.com/cory-johannsen/hunter/internal/game/sensors"
	"github.com/cory-johannsen/hunter/internal/game/target"
	"github.com/cory-johannsen/hunter/internal/game/track"
)

// Session collects every piece of mutable run state in one place and is
// passed by reference into interrupts and state handlers. There is no
// ambient mutable state anywhere else in the package.
//
// Concurrency: the session is owned by the single-threaded tick loop and
// is not safe for concurrent use.
type Session struct {
	cfg     config.Config
	profile *target.Profile
	backend sensors.Backend
	logger  *zap.Logger
	clock   clock.Clock
	src     dice.Source

	// State is the current main-loop state.
	State State
	// StopReason is the human-readable reason the session stopped; set
	// before entering StateStop on fatal paths.
	StopReason string

	// Entities is the aged positional entity set.
	Entities *track.Tracker
	// Combat is the engagement tracker.
	Combat *track.Combat
	// Anchor is established by StateInit from the player's position, or
	// preset by the host before the first tick.
	Anchor   *anchor.Monitor
	Locator  *locate.Locator
	Fusion   *fusion.Engine
	Recovery *recovery.Controller

	// ReengageArmed routes the next acquisition to the locked target after
	// an anchor interruption mid-engagement.
	ReengageArmed bool
	// firstCastDeadline is the first-cast confirmation gate; zero when
	// disarmed.
	firstCastDeadline time.Time

	// Bounded local retry counters.
	anchorRetries   int
	engageMisses    int
	reengageRetries int

	// eatThreshold is the rolled self-HP percentage below which the agent
	// eats; re-rolled after each successful consumption.
	eatThreshold int
	lastEatAt    time.Time

	// Progress watchdog bookkeeping.
	lastProgressAt  time.Time
	lastXP          int
	hasXP           bool
	watchdogWarned  bool
	loggedOut       bool
	lastTickAt      time.Time

	// Kills is the session kill counter.
	Kills int
}

// NewSession constructs a Session in StateInit.
//
// Precondition: cfg must validate; profile must not be nil; backend must
// validate; logger, clk, and src must not be nil.
func NewSession(
	cfg config.Config,
	profile *target.Profile,
	backend sensors.Backend,
	logger *zap.Logger,
	clk clock.Clock,
	src dice.Source,
) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := backend.Validate(); err != nil {
		return nil, err
	}

	fusionCfg := fusion.Config{
		OverlayGrace:        dice.JitterSpec{Min: cfg.Combat.OverlayGraceMin, Max: cfg.Combat.OverlayGraceMax},
		IdleConfirm:         cfg.Combat.IdleConfirm,
		HPStallTimeout:      cfg.Combat.HPStallTimeout,
		InactiveKillTimeout: cfg.Combat.InactiveKillTimeout,
		LostTimeout:         cfg.Combat.LostTimeout,
	}
	if err := fusionCfg.Validate(); err != nil {
		return nil, err
	}
	recoveryCfg := recovery.Config{
		MaxRetries:    cfg.Recovery.MaxRetries,
		BackoffBase:   cfg.Recovery.BackoffBase,
		BackoffFactor: cfg.Recovery.BackoffFactor,
		BackoffCap:    cfg.Recovery.BackoffCap,
		BackoffJitter: dice.JitterSpec{Min: cfg.Recovery.BackoffJitterMin, Max: cfg.Recovery.BackoffJitterMax},
	}
	if err := recoveryCfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		profile: profile,
		backend: backend,
		logger:  logger,
		clock:   clk,
		src:     src,
		State:   StateInit,

		Entities: track.NewTracker(cfg.Tracker.AgeOut, clk),
		Combat:   track.NewCombat(clk),
		Locator: locate.NewLocator(backend.Screen, locate.Config{
			FloorPx:    cfg.Correlate.FloorPx,
			SizeFactor: cfg.Correlate.SizeFactor,
		}),
		Fusion:   fusion.NewEngine(fusionCfg, src, logger),
		Recovery: recovery.NewController(recoveryCfg, src, logger),
	}
	s.rollEatThreshold()
	return s, nil
}

// rollEatThreshold draws a fresh randomized eat threshold.
func (s *Session) rollEatThreshold() {
	s.eatThreshold = dice.Between(s.src, s.cfg.Eat.MinPercent, s.cfg.Eat.MaxPercent)
}

// EatThreshold returns the currently rolled eat threshold.
func (s *Session) EatThreshold() int { return s.eatThreshold }

// FirstCastArmed reports whether the first-cast gate is holding.
func (s *Session) FirstCastArmed() bool { return !s.firstCastDeadline.IsZero() }

// armFirstCast arms the confirmation gate for the configured window.
func (s *Session) armFirstCast() {
	s.firstCastDeadline = s.clock.Now().Add(s.cfg.Combat.FirstCastTimeout)
}

// disarmFirstCast releases the gate.
func (s *Session) disarmFirstCast() { s.firstCastDeadline = time.Time{} }

// markProgress stamps the watchdog's progress clock and clears any pending
// pre-expiry warning.
func (s *Session) markProgress() {
	s.lastProgressAt = s.clock.Now()
	s.watchdogWarned = false
}

// sinceProgress returns the time since the last measurable progress.
//
// Postcondition: Returns 0 before StateInit has baselined progress.
func (s *Session) sinceProgress() time.Duration {
	if s.lastProgressAt.IsZero() {
		return 0
	}
	return s.clock.Now().Sub(s.lastProgressAt)
}

// resetCombatIntent clears the target, all evidence timers, local retry
// counters, and any armed reengage or first-cast gates. The recovery
// budget and the death record survive.
func (s *Session) resetCombatIntent() {
	s.Combat.Clear()
	s.Fusion.Reset()
	s.ReengageArmed = false
	s.disarmFirstCast()
	s.anchorRetries = 0
	s.engageMisses = 0
	s.reengageRetries = 0
}

// stop records reason and drives the machine to the terminal state.
func (s *Session) stop(reason string) State {
	s.StopReason = reason
	s.logger.Error("session stopping", zap.String("reason", reason))
	return StateStop
}

// clearTarget drops the current lock and resets per-target fusion state.
func (s *Session) clearTarget() {
	s.Combat.Clear()
	s.Fusion.Reset()
}
