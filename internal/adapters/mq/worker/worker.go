// Package worker implements the solver worker pool: a bounded number of
// goroutines that pull queued solve jobs and run each one to completion
// against a Solver, relaying its progress/complete/error stream back to
// the job's own result channel.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	queue "github.com/okian/cuju/internal/adapters/mq/queue"
	service "github.com/okian/cuju/internal/app"
	"github.com/okian/cuju/internal/domain/engineerr"
	"github.com/okian/cuju/internal/domain/types"
	"github.com/okian/cuju/pkg/logger"
	"github.com/okian/cuju/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU(): solves are CPU-heavy, unlike I/O-bound scoring
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is one queued solve request together with its result channel.
type Job = queue.Job

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker runs queued solve jobs against a Solver until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing solve jobs.
type InMemoryWorker struct {
	queue  Queue
	solver *service.Service
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, solver *service.Service, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		solver:   solver,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				return
			}
			w.processJob(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one solve job to completion and relays every event onto
// job.Results, closing it once the terminal record has been forwarded.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) {
	defer close(job.Results)

	start := time.Now()
	defer func() {
		w.logger.Debug(ctx, "job finished", logger.Float64("elapsed_ms", float64(time.Since(start).Milliseconds())))
	}()

	events, err := w.solver.Solve(ctx, job.Request)
	if err != nil {
		w.logger.Warn(ctx, "solve rejected", logger.Error(err))
		select {
		case job.Results <- service.Event{Err: &types.ErrorRecord{Kind: rejectKind(err), Message: err.Error()}}:
		case <-ctx.Done():
		}
		return
	}

	for ev := range events {
		select {
		case job.Results <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// rejectKind maps a rejected solve's error to its terminal-record kind,
// falling back to BadRequest for errors that wrap no engine sentinel.
func rejectKind(err error) string {
	if kind := engineerr.Kind(err); kind != "" {
		return kind
	}
	return "BadRequest"
}

// Pool manages multiple workers pulling from the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	solver  *service.Service

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount <= 0 defaults to
// 2*NumCPU().
func NewPool(workerCount int, q Queue, solver *service.Service) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		solver:   solver,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, solver, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkersActive(workerCount)

	return pool
}

// Count returns the number of workers in the pool.
func (p *Pool) Count() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers without closing the queue.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		close(w.shutdown)
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkersActive(0)
}

// Shutdown closes the queue, then gracefully stops all workers or times out.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkersActive(0)
	return nil
}
