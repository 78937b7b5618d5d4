// Package main provides the hunter binary: it loads configuration and a
// target profile, then dry-runs the combat engine against the simulated
// backend. Production hosts embed the engine with their own sensor backend.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hunter/internal/config"
	"github.com/cory-johannsen/hunter/internal/game/clock"
	"github.com/cory-johannsen/hunter/internal/game/dice"
	"github.com/cory-johannsen/hunter/internal/game/script"
	"github.com/cory-johannsen/hunter/internal/game/sim"
	"github.com/cory-johannsen/hunter/internal/game/target"
	"github.com/cory-johannsen/hunter/internal/observability"
	"github.com/cory-johannsen/hunter/internal/server"
)

// simTicker steps the simulated world ahead of every engine tick.
type simTicker struct {
	world  *sim.World
	engine *script.Engine
}

// Tick advances the world, then the engine.
func (t simTicker) Tick(ctx context.Context) error {
	t.world.Step()
	return t.engine.Tick(ctx)
}

// Done reports whether the session reached its terminal state.
func (t simTicker) Done() bool { return t.engine.Done() }

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	targetsDir := flag.String("targets-dir", "content/targets", "path to target profile YAML directory")
	targetID := flag.String("target", "chicken", "target profile id to hunt")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.DebugLogging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	profiles, err := target.LoadProfiles(*targetsDir)
	if err != nil {
		logger.Fatal("loading target profiles", zap.Error(err))
	}
	profile, ok := target.FindProfile(profiles, *targetID)
	if !ok {
		logger.Fatal("unknown target profile", zap.String("target", *targetID))
	}
	logger.Info("target profile loaded",
		zap.String("id", profile.ID),
		zap.String("name", profile.Name),
		zap.Int("profiles", len(profiles)),
	)

	clk := clock.System()
	src := dice.NewCryptoSource()

	world := sim.NewWorld(profile, sim.Config{
		Creatures:       3,
		MaxHP:           20,
		DamagePerSecond: 8,
		FoodItemID:      cfg.Food.ItemID,
		FoodCount:       12,
	}, clk, src)

	session, err := script.NewSession(cfg, profile, world.Backend(), logger, clk, src)
	if err != nil {
		logger.Fatal("creating session", zap.Error(err))
	}
	engine := script.NewEngine(session)

	logger.Info("hunter initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("tick_interval", cfg.Engine.TickInterval),
	)

	runner := server.NewRunner(simTicker{world: world, engine: engine}, cfg.Engine.TickInterval, logger)
	if err := runner.Run(ctx); err != nil {
		logger.Fatal("tick loop error", zap.Error(err))
	}

	logger.Info("hunter exiting",
		zap.String("state", session.State.String()),
		zap.String("stop_reason", session.StopReason),
		zap.Int("kills", session.Kills),
		zap.Duration("uptime", time.Since(start)),
	)
}
