package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/cuju/internal/adapters/http/api"
	"github.com/okian/cuju/internal/adapters/mq/queue"
	"github.com/okian/cuju/internal/adapters/mq/worker"
	app "github.com/okian/cuju/internal/app"
	"github.com/okian/cuju/internal/config"
	"github.com/okian/cuju/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics; the
	// process exposes its own domain counters instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithDefaultMaxTime(time.Duration(cfg.DefaultMaxTimeSeconds)*time.Second),
		app.WithCompileTimeout(cfg.CompileTimeout),
		app.WithDedupeSize(cfg.DedupeSize),
	)

	q := queue.NewInMemoryQueue()
	pool := worker.NewPool(cfg.SolverWorkerCount, q, svc)
	pool.Start(ctx)
	defer pool.Shutdown(context.Background())

	gw := &gateway{queue: q, pool: pool}

	mux := http.NewServeMux()
	apiServer := api.NewServer(gw, gw)
	apiServer.Register(ctx, mux, gw)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// gateway adapts the queue and worker pool to the HTTP layer's dependency
// interfaces (api.SolveDependencies, api.StatsProvider), keeping main the
// only place that knows the queue is in-memory and the pool is fixed-size.
type gateway struct {
	queue *queue.InMemoryQueue
	pool  *worker.Pool
}

func (g *gateway) Enqueue(ctx context.Context, j queue.Job) bool {
	return g.queue.Enqueue(ctx, j)
}

func (g *gateway) GetStats() map[string]any {
	return map[string]any{
		"queue_length":   g.queue.Len(context.Background()),
		"queue_capacity": g.queue.Capacity(),
		"worker_count":   g.pool.Count(),
	}
}
