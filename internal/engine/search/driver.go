// Package search runs a single team-formation solve to completion in its
// own goroutine, in the idiom of the teacher's worker package: a done
// channel that Wait blocks on, context cancellation, and a Logger rather
// than a bare fmt.
package search

import (
	"context"
	"time"

	"github.com/okian/cuju/internal/engine/cpsat"
	"github.com/okian/cuju/internal/engine/modelbuilder"
	"github.com/okian/cuju/pkg/logger"
)

// Event is one message emitted while a solve runs.
type Event struct {
	Incumbent *cpsat.Incumbent
	Terminal  *cpsat.Outcome
	Err       error
}

// Driver runs one solve and streams its events.
type Driver struct {
	builder  *modelbuilder.Builder
	deadline time.Duration
	logger   logger.Logger

	done chan struct{}
}

// New creates a Driver for a single solve of the given frozen builder.
func New(b *modelbuilder.Builder, deadline time.Duration) *Driver {
	return &Driver{
		builder:  b,
		deadline: deadline,
		logger:   logger.Get().Named("search"),
		done:     make(chan struct{}),
	}
}

// Run executes the solve, sending one Event per incumbent followed by
// exactly one terminal Event (Terminal, or Err if the solve failed), then
// closes events. Run blocks until the
// solve finishes or ctx is cancelled; callers typically invoke it in its
// own goroutine.
func (d *Driver) Run(ctx context.Context, events chan<- Event) {
	defer close(d.done)
	defer close(events)

	start := time.Now()
	outcome, err := cpsat.Solve(ctx, d.builder, d.deadline, func(inc cpsat.Incumbent) {
		select {
		case events <- Event{Incumbent: &inc}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		d.logger.Error(ctx, "solve failed", logger.Error(err))
		select {
		case events <- Event{Err: err}:
		case <-ctx.Done():
		}
		return
	}

	d.logger.Info(ctx, "solve finished",
		logger.String("status", string(outcome.Status)),
		logger.Float64("objective", outcome.Objective),
		logger.Float64("elapsed_seconds", time.Since(start).Seconds()),
	)
	select {
	case events <- Event{Terminal: &outcome}:
	case <-ctx.Done():
	}
}

// Wait blocks until Run has returned.
func (d *Driver) Wait() {
	<-d.done
}
