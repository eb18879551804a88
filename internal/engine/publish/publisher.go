// Package publish buffers solve progress for consumption by a caller that
// may be slower than the solver, in the teacher's InMemoryQueue idiom
// (buffered channel, capacity and closed-state tracked under a mutex) but
// sized for "latest incumbent wins" rather than FIFO delivery: a capacity-1
// progress slot that a new incumbent overwrites, plus a separate, never
// dropped terminal slot so the final outcome is always delivered exactly
// once.
package publish

import (
	"sync"

	"github.com/okian/cuju/internal/engine/cpsat"
)

// Publisher is a single-producer, single-consumer buffer for solve events:
// callers reading slower than the solver produces still see only the most
// recent incumbent, never a backlog, while the terminal record is
// guaranteed delivery.
type Publisher struct {
	mu       sync.Mutex
	progress *cpsat.Incumbent
	terminal *cpsat.Outcome
	err      error
	closed   bool

	signal chan struct{}
}

// New creates an empty Publisher.
func New() *Publisher {
	return &Publisher{signal: make(chan struct{}, 1)}
}

// PublishIncumbent overwrites the current progress slot with inc.
func (p *Publisher) PublishIncumbent(inc cpsat.Incumbent) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.progress = &inc
	p.mu.Unlock()
	p.notify()
}

// PublishTerminal records the final outcome and closes the publisher to
// further progress updates.
func (p *Publisher) PublishTerminal(outcome cpsat.Outcome) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.terminal = &outcome
	p.closed = true
	p.mu.Unlock()
	p.notify()
}

// PublishError records a terminal error and closes the publisher.
func (p *Publisher) PublishError(err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()
	p.notify()
}

func (p *Publisher) notify() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// Signal returns a channel that receives a value whenever new state is
// available to drain, coalescing bursts of incumbents into a single wakeup.
func (p *Publisher) Signal() <-chan struct{} {
	return p.signal
}

// Drain returns the latest pending progress (if any, consuming it), and the
// terminal outcome/error once published.
func (p *Publisher) Drain() (progress *cpsat.Incumbent, terminal *cpsat.Outcome, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	progress, p.progress = p.progress, nil
	terminal = p.terminal
	err = p.err
	return progress, terminal, err
}

// Closed reports whether a terminal record or error has been published.
func (p *Publisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
