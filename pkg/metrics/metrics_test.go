package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given solve lifecycle metrics", t, func() {
		Convey("When recording a full solve lifecycle", func() {
			So(func() {
				RecordSolveRequest("accepted")
				RecordSolveRequest("rejected")
				IncActiveSolves()
				ResetSolveObjective()
				RecordCompileDuration(0.01)
				RecordSolveIncumbent(12.0)
				RecordSolveIncumbent(8.0)
				RecordSolveDuration(1.25)
				RecordSolveTerminal("optimal")
				DecActiveSolves()
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsEdgeCases(t *testing.T) {
	Convey("Given metrics edge cases", t, func() {
		Convey("When recording with zero and negative values", func() {
			So(func() {
				RecordSolveDuration(0)
				RecordSolveIncumbent(0)
				RecordSolveIncumbent(-5)
				RecordCompileDuration(0)
			}, ShouldNotPanic)
		})

		Convey("When recording every terminal kind", func() {
			So(func() {
				for _, kind := range []string{
					"optimal", "feasible", "infeasible", "no_solution",
					"bad_request", "compile_error", "cancelled",
				} {
					RecordSolveTerminal(kind)
				}
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent metrics recording", t, func() {
		Convey("When many goroutines record at once", func() {
			done := make(chan bool, 10)
			for i := 0; i < 10; i++ {
				go func(id int) {
					for j := 0; j < 100; j++ {
						RecordSolveIncumbent(float64(j))
						RecordSolveRequest("accepted")
					}
					done <- true
				}(i)
			}
			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then it should not panic", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}
