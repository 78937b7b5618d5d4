// Package interrupt provides the strict-priority interrupt chain evaluated
// ahead of the main state dispatch every tick. The chain is an ordered list
// of (predicate, handler) pairs: the first applicable interrupt consumes
// the tick and the remainder of the chain is skipped.
package interrupt

import (
	"context"

	"go.uber.org/zap"
)

// Interrupt is one prioritized preemption.
type Interrupt struct {
	// Name identifies the interrupt in logs and tests.
	Name string
	// Applies reports whether the interrupt should fire this tick. It must
	// be side-effect free.
	Applies func() bool
	// Fire handles the interrupt. It consumes the tick; a returned error
	// is a cancellation or fatal condition propagated to the host.
	Fire func(ctx context.Context) error
}

// Dispatcher evaluates a fixed-priority chain.
//
// Invariant: the chain order never changes after construction.
type Dispatcher struct {
	chain  []Interrupt
	logger *zap.Logger
}

// NewDispatcher constructs a Dispatcher over chain, evaluated in order.
//
// Precondition: logger must not be nil; every entry must have a non-empty
// Name and non-nil Applies and Fire.
func NewDispatcher(logger *zap.Logger, chain ...Interrupt) *Dispatcher {
	if logger == nil {
		panic("interrupt.NewDispatcher: logger must not be nil")
	}
	for _, in := range chain {
		if in.Name == "" || in.Applies == nil || in.Fire == nil {
			panic("interrupt.NewDispatcher: every interrupt needs a name, predicate, and handler")
		}
	}
	return &Dispatcher{chain: chain, logger: logger}
}

// Names returns the chain's interrupt names in priority order.
func (d *Dispatcher) Names() []string {
	names := make([]string, len(d.chain))
	for i, in := range d.chain {
		names[i] = in.Name
	}
	return names
}

// Dispatch runs the first applicable interrupt.
//
// Postcondition: Returns (name, true, err) when an interrupt consumed the
// tick, or ("", false, nil) when none applied and the main state dispatch
// may run.
func (d *Dispatcher) Dispatch(ctx context.Context) (string, bool, error) {
	for _, in := range d.chain {
		if !in.Applies() {
			continue
		}
		d.logger.Debug("interrupt fired", zap.String("interrupt", in.Name))
		return in.Name, true, in.Fire(ctx)
	}
	return "", false, nil
}
