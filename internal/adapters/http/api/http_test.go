package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/cuju/internal/adapters/http/api"
	queue "github.com/okian/cuju/internal/adapters/mq/queue"
	service "github.com/okian/cuju/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeGateway implements api.Dependencies and api.StatsProvider for tests.
type fakeGateway struct {
	accept bool
	jobs   []queue.Job
}

func (g *fakeGateway) Enqueue(_ context.Context, j queue.Job) bool {
	if !g.accept {
		return false
	}
	g.jobs = append(g.jobs, j)
	// Stand in for a worker that has already forwarded the terminal record,
	// so the handler's drain loop ends.
	close(j.Results)
	return true
}

func (g *fakeGateway) GetStats() map[string]any {
	return map[string]any{"queue_length": len(g.jobs), "queue_capacity": 1024, "worker_count": 4}
}

func newTestServer(gw *fakeGateway) *http.ServeMux {
	server := api.NewServer(gw, gw)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux, gw)
	return mux
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newTestServer(&fakeGateway{accept: true})

		Convey("When GET /healthz is called", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it responds 200 with a status payload", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When POST /healthz is called", func() {
			req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given a registered server backed by a gateway", t, func() {
		gw := &fakeGateway{accept: true}
		mux := newTestServer(gw)

		Convey("When GET /stats is called", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it reports the gateway's counters", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "worker_count")
				So(rec.Body.String(), ShouldContainSubstring, "queue_capacity")
			})
		})
	})
}

func TestSolveEndpoint(t *testing.T) {
	Convey("Given a registered server", t, func() {
		Convey("When the request body is malformed", func() {
			mux := newTestServer(&fakeGateway{accept: true})
			req := httptest.NewRequest(http.MethodPost, "/solve", strings.NewReader("{not json"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it responds 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the gateway is at capacity", func() {
			mux := newTestServer(&fakeGateway{accept: false})
			body := strings.NewReader(`{"participants":[],"constraints":[],"target_team_size":3}`)
			req := httptest.NewRequest(http.MethodPost, "/solve", body)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it responds 429", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When the request is valid and the gateway accepts it", func() {
			gw := &fakeGateway{accept: true}
			mux := newTestServer(gw)
			body := strings.NewReader(`{"participants":[{"id":"a"}],"constraints":[],"target_team_size":3}`)
			req := httptest.NewRequest(http.MethodPost, "/solve", body)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the job reaches the gateway and streams a response", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(len(gw.jobs), ShouldEqual, 1)
				So(gw.jobs[0].Request, ShouldResemble, service.Request{
					Participants:   []map[string]any{{"id": "a"}},
					Constraints:    []service.ConstraintRequest{},
					TargetTeamSize: 3,
				})
			})
		})

		Convey("When the method is not POST", func() {
			mux := newTestServer(&fakeGateway{accept: true})
			req := httptest.NewRequest(http.MethodGet, "/solve", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it responds 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
