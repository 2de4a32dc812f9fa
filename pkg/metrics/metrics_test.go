package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return -1
	}
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("gate"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"gate": "north"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.outcomes.WithLabelValues("success").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_gate_outcomes_total")
				So(names, ShouldContain, "test_gate_queue_size")
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "turnstile")
				So(manager.subsystem, ShouldEqual, "")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When arbitration metrics are recorded", func() {
			before := value(globalManager.candidates.WithLabelValues("camera", "suppress"))
			RecordCandidate("camera", "suppress")
			RecordCandidate("camera", "suppress")

			Convey("Then the counters move", func() {
				after := value(globalManager.candidates.WithLabelValues("camera", "suppress"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When the mode switches", func() {
			RecordModeSwitch("discrete", "camera", "discrete")

			Convey("Then only the live mode is marked", func() {
				So(value(globalManager.currentMode.WithLabelValues("discrete")), ShouldEqual, 1)
				So(value(globalManager.currentMode.WithLabelValues("camera")), ShouldEqual, 0)
			})
		})

		Convey("When gauges are updated", func() {
			UpdatePresentCount(42)
			UpdateQueueSize(3)
			UpdateQueueCapacity(64)
			UpdateRegistrations(500)

			Convey("Then they hold the last value", func() {
				So(value(globalManager.presentCount), ShouldEqual, 42)
				So(value(globalManager.queueSize), ShouldEqual, 3)
				So(value(globalManager.queueCapacity), ShouldEqual, 64)
				So(value(globalManager.registrations), ShouldEqual, 500)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordOutcome("success")
				RecordPendingReplacement()
				RecordStaleEvent()
				RecordNotice("camera")
				RecordGatewayCall("scan", "ok", 12.5)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordHTTPRequest("/stats", "GET", "200")
				RecordHTTPRequestDuration("/stats", "GET", "200", 1.5)
				RecordCheckIn("OK")
				RecordStoreLatency("mark", 0.7)
				RecordErrorByComponent("store", "io")
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
		})
	})
}
