package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the padflow namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				manager.solves.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["padflow_engine_solves_total"], ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("solver"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithMetricsEnabled(false),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "solver")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
				So(manager.Enabled(), ShouldBeFalse)
			})
		})

		Convey("When empty options are passed", func() {
			manager := NewManager(WithNamespace(""), WithHistogramBuckets(nil), WithConstLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults remain", func() {
				So(manager.namespace, ShouldEqual, "padflow")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given a fresh global manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
		previous := get()
		So(SetGlobal(m), ShouldBeNil)
		defer func() { _ = SetGlobal(previous) }()

		Convey("When recording a solve", func() {
			RecordSolve(1.5, 3, 1, 0, 80)

			Convey("Then the counters move", func() {
				So(value(m.solves), ShouldEqual, 1.0)
				So(value(m.eventsSolved), ShouldEqual, 3.0)
				So(value(m.eventsUnplay), ShouldEqual, 1.0)
			})
		})

		Convey("When publishing results", func() {
			RecordResultPublished(true)
			RecordResultPublished(false)
			RecordResultPublished(false)

			Convey("Then stale discards are counted apart", func() {
				So(value(m.resultsAccepted), ShouldEqual, 1.0)
				So(value(m.resultsStale), ShouldEqual, 2.0)
			})
		})

		Convey("When recording the pipeline gauges", func() {
			UpdateQueueSize(4)
			UpdateQueueCapacity(8)
			UpdateQueueUtilization(0.5)
			UpdateWorkerCount(2)

			Convey("Then the gauges hold the latest values", func() {
				So(value(m.queueSize), ShouldEqual, 4.0)
				So(value(m.queueUtilization), ShouldEqual, 0.5)
				So(value(m.workerCount), ShouldEqual, 2.0)
			})
		})

		Convey("When labelled recorders receive odd labels", func() {
			So(func() {
				RecordHTTPRequest("", "", "200")
				RecordHTTPRequestDuration("/solve", "POST", "200", 3)
				RecordErrorByComponent("component-with-dash", "error_with_underscore")
				RecordStoreLatency("sqlite", "publish", 0.2)
				RecordSolveError()
				RecordJobDuplicate()
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(1)
				RecordWorkerProcessingLatency(4)
				RecordWorkerError()
				UpdateResultsStored(3)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})
	})

	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		previous := get()
		So(SetGlobal(m), ShouldBeNil)
		defer func() { _ = SetGlobal(previous) }()

		RecordSolve(1, 1, 0, 0, 100)
		So(value(m.solves), ShouldEqual, 0.0)
	})

	Convey("A nil manager cannot become global", t, func() {
		So(SetGlobal(nil), ShouldEqual, ErrNotInitialized)
	})
}

func TestConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordSolve(float64(j), 1, 0, 0, 100)
					UpdateQueueSize(j)
					RecordHTTPRequest("/solve", "POST", "200")
				}
			}()
		}
		wg.Wait()

		So(GetRegistry(), ShouldNotBeNil)
	})
}

func value(m prometheus.Metric) float64 {
	var d dto.Metric
	if err := m.Write(&d); err != nil {
		return -1
	}
	switch {
	case d.Counter != nil:
		return d.Counter.GetValue()
	case d.Gauge != nil:
		return d.Gauge.GetValue()
	}
	return -1
}
