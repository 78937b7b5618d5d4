// Package server hosts the tick loop: it drives the engine at a fixed
// interval and translates SIGINT/SIGTERM into the cancellation token the
// engine's bounded waits observe.
package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Ticker is the engine surface the runner drives.
type Ticker interface {
	// Tick runs exactly one tick.
	Tick(ctx context.Context) error
	// Done reports whether the session reached its terminal state.
	Done() bool
}

// Runner owns the host loop for one session.
type Runner struct {
	engine   Ticker
	interval time.Duration
	logger   *zap.Logger
}

// NewRunner constructs a Runner.
//
// Precondition: engine and logger must not be nil; interval > 0.
func NewRunner(engine Ticker, interval time.Duration, logger *zap.Logger) *Runner {
	if engine == nil {
		panic("server.NewRunner: engine must not be nil")
	}
	if logger == nil {
		panic("server.NewRunner: logger must not be nil")
	}
	if interval <= 0 {
		panic("server.NewRunner: interval must be > 0")
	}
	return &Runner{engine: engine, interval: interval, logger: logger}
}

// Run ticks the engine until it reports Done, the context is cancelled, or
// a termination signal arrives. Cancellation mid-tick propagates out of
// the engine and is treated as a clean shutdown.
//
// Postcondition: Returns nil on a terminal session or clean shutdown; any
// other engine error is returned as-is.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			r.logger.Info("received signal, shutting down",
				zap.String("signal", sig.String()),
			)
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		if err := r.engine.Tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				r.logger.Info("tick loop cancelled",
					zap.Int("ticks", ticks),
					zap.Duration("uptime", time.Since(start)),
				)
				return nil
			}
			return err
		}
		ticks++
		if r.engine.Done() {
			r.logger.Info("session finished",
				zap.Int("ticks", ticks),
				zap.Duration("uptime", time.Since(start)),
			)
			return nil
		}

		select {
		case <-ctx.Done():
			r.logger.Info("tick loop cancelled",
				zap.Int("ticks", ticks),
				zap.Duration("uptime", time.Since(start)),
			)
			return nil
		case <-ticker.C:
		}
	}
}
