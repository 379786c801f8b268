package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPolarityBuckets([]float64{-0.5, 0, 0.5}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.polarityBuckets, ShouldResemble, []float64{-0.5, 0, 0.5})
			})

			Convey("And the custom labels should be attached to every series", func() {
				manager.RecordPrediction("Positive", 0.4)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
				for _, mf := range families {
					So(mf.GetName(), ShouldStartWith, "test_namespace_")
					for _, m := range mf.GetMetric() {
						found := false
						for _, lp := range m.GetLabel() {
							if lp.GetName() == "env" && lp.GetValue() == "test" {
								found = true
							}
						}
						So(found, ShouldBeTrue)
					}
				}
			})
		})

		Convey("When passing empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "sentio")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.histogramBuckets, ShouldResemble, defaultLatencyBuckets)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("When predictions are recorded", func() {
			manager.RecordPrediction("Positive", 0.8)
			manager.RecordPrediction("Positive", 0.1)
			manager.RecordPrediction("Neutral", 0)

			Convey("Then the counters should be split by label", func() {
				So(testutil.ToFloat64(manager.predictions.WithLabelValues("Positive")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.predictions.WithLabelValues("Neutral")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.predictions.WithLabelValues("Negative")), ShouldEqual, 0)
			})

			Convey("And the polarity histogram should count every observation", func() {
				So(testutil.CollectAndCount(manager.polarity), ShouldEqual, 1)
				expected := `
# HELP sentio_api_predictions_total Total number of predictions served by sentiment label
# TYPE sentio_api_predictions_total counter
sentio_api_predictions_total{sentiment="Neutral"} 1
sentio_api_predictions_total{sentiment="Positive"} 2
`
				So(testutil.GatherAndCompare(registry, strings.NewReader(expected), "sentio_api_predictions_total"), ShouldBeNil)
			})
		})

		Convey("When failures are recorded", func() {
			manager.RecordScoringError("gcp")
			manager.RecordValidationError("missing")
			manager.RecordValidationError("missing")

			Convey("Then they should be counted", func() {
				So(testutil.ToFloat64(manager.scoringErrors.WithLabelValues("gcp")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.validationErrors.WithLabelValues("missing")), ShouldEqual, 2)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording business metrics", func() {
			So(func() {
				RecordPrediction("Positive", 0.5)
				RecordPrediction("Negative", -0.5)
				RecordScoringLatency(0.3)
				RecordScoringError("vader")
				RecordValidationError("wrong_type")
				SetScorerBackend("vader")
				SetScorerBackend("gcp")
				SetBuildInfo("dev", "none", "go1.24")
			}, ShouldNotPanic)

			Convey("Then only the latest scorer backend should be set", func() {
				So(testutil.ToFloat64(globalManager.scorerBackend.WithLabelValues("gcp")), ShouldEqual, 1)
				So(testutil.CollectAndCount(globalManager.scorerBackend), ShouldEqual, 1)
			})
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				IncHTTPInFlight()
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 1.5)
				RecordHTTPRequest("/predict", "POST", "422")
				DecHTTPInFlight()
			}, ShouldNotPanic)

			Convey("Then the in-flight gauge should return to zero", func() {
				So(testutil.ToFloat64(globalManager.httpInFlight), ShouldEqual, 0)
			})
		})

		Convey("When recording error and system metrics", func() {
			So(func() {
				RecordErrorByComponent("scoring", "timeout")
				RecordErrorByType("validation_error", "warning")
				RecordErrorByEndpoint("/predict", "POST", "internal_error")
				RecordErrorLatency("scoring", "timeout", 100.0)
				UpdateSystemMemoryUsage(1024 * 1024 * 100)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(0.0)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then sentio series should be exported", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				So(names, ShouldContain, "sentio_api_predictions_total")
				So(names, ShouldContain, "sentio_system_goroutines")
			})
		})
	})
}
