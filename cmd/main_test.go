package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/cuju/internal/adapters/http/api"
	"github.com/okian/cuju/internal/adapters/mq/queue"
	"github.com/okian/cuju/internal/adapters/mq/worker"
	app "github.com/okian/cuju/internal/app"
	"github.com/okian/cuju/internal/config"
)

func TestConfigLoading(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("CUJU_ADDR", ":8080")
		_ = os.Setenv("CUJU_SOLVER_WORKER_COUNT", "4")
		defer func() {
			_ = os.Unsetenv("CUJU_ADDR")
			_ = os.Unsetenv("CUJU_SOLVER_WORKER_COUNT")
		}()

		convey.Convey("When loading config", func() {
			cfg, err := config.Load(context.Background())

			convey.Convey("Then it reflects the overrides", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SolverWorkerCount, convey.ShouldEqual, 4)
			})
		})
	})
}

func TestGatewayWiring(t *testing.T) {
	convey.Convey("Given a service, queue, and worker pool", t, func() {
		svc := app.New()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4), queue.WithBufferSize(4))
		pool := worker.NewPool(2, q, svc)
		gw := &gateway{queue: q, pool: pool}

		convey.Convey("When building the gateway's stats", func() {
			stats := gw.GetStats()

			convey.Convey("Then it reports queue and worker counters", func() {
				convey.So(stats["queue_capacity"], convey.ShouldEqual, 4)
				convey.So(stats["worker_count"], convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When enqueuing through the gateway", func() {
			results := make(chan app.Event, 1)
			ok := gw.Enqueue(context.Background(), queue.Job{
				Request: app.Request{},
				Results: results,
			})

			convey.Convey("Then the job is accepted", func() {
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}

func TestHTTPServerRegistration(t *testing.T) {
	convey.Convey("Given a gateway-backed API server", t, func() {
		svc := app.New()
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(1, q, svc)
		gw := &gateway{queue: q, pool: pool}

		apiServer := api.NewServer(gw, gw)
		mux := http.NewServeMux()
		apiServer.Register(context.Background(), mux, gw)

		convey.Convey("When hitting /healthz", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			convey.Convey("Then it responds 200", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When hitting /stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			convey.Convey("Then it responds 200 with counters", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "worker_count")
			})
		})
	})
}

func TestPoolLifecycle(t *testing.T) {
	convey.Convey("Given a running worker pool", t, func() {
		svc := app.New()
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(2, q, svc)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When shutting it down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then it stops without error", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}
