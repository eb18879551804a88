package worker_test

import (
	"context"
	"testing"
	"time"

	queue "github.com/okian/cuju/internal/adapters/mq/queue"
	worker "github.com/okian/cuju/internal/adapters/mq/worker"
	service "github.com/okian/cuju/internal/app"
	logging "github.com/okian/cuju/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func diverseRoster(n int) []map[string]any {
	participants := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		group := "a"
		if i%2 == 0 {
			group = "b"
		}
		participants[i] = map[string]any{"id": "p" + string(rune('0'+i)), "group": group}
	}
	return participants
}

func newJob(req service.Request) (worker.Job, chan service.Event) {
	results := make(chan service.Event, 8)
	return queue.Job{Request: req, Results: results}, results
}

func TestInMemoryWorker_ProcessesJobs(t *testing.T) {
	convey.Convey("Given a worker bound to a real service and an in-memory queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		svc := service.New(service.WithDefaultMaxTime(2 * time.Second))
		w := worker.NewInMemoryWorker(q, svc, worker.WithName("test-worker"))

		convey.So(w, convey.ShouldNotBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When a valid solve job is enqueued", func() {
			req := service.Request{
				Participants:   diverseRoster(6),
				TargetTeamSize: 3,
				MaxTimeSeconds: 2,
			}
			job, results := newJob(req)
			convey.So(q.Enqueue(ctx, job), convey.ShouldBeTrue)

			convey.Convey("Then the worker eventually delivers a terminal record", func() {
				var sawTerminal bool
				timeout := time.After(3 * time.Second)
			loop:
				for {
					select {
					case ev, ok := <-results:
						if !ok {
							break loop
						}
						if ev.Complete != nil || ev.Err != nil {
							sawTerminal = true
						}
					case <-timeout:
						break loop
					}
				}
				convey.So(sawTerminal, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an invalid request is enqueued", func() {
			req := service.Request{TargetTeamSize: 0}
			job, results := newJob(req)
			convey.So(q.Enqueue(ctx, job), convey.ShouldBeTrue)

			convey.Convey("Then an error record is delivered and the channel is closed", func() {
				ev, ok := <-results
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(ev.Err, convey.ShouldNotBeNil)
				_, stillOpen := <-results
				convey.So(stillOpen, convey.ShouldBeFalse)
			})
		})
	})
}

func TestWorkerPool_StartAndStop(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		svc := service.New()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, svc)
			convey.So(pool, convey.ShouldNotBeNil)
		})

		convey.Convey("When started and stopped", func() {
			pool := worker.NewPool(2, q, svc)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)
			time.Sleep(10 * time.Millisecond)
			pool.Stop()
		})
	})
}
