package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the defaults are applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "cfbtv")
				So(manager.subsystem, ShouldEqual, "dashboard")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.datasetGames.Set(7)

			Convey("Then metric names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					So(strings.HasPrefix(mf.GetName(), "test_ns_test_sub_"), ShouldBeTrue)
					if mf.GetName() == "test_ns_test_sub_dataset_games" {
						found = true
						So(mf.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 7)
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty option values are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then they are ignored", func() {
				So(manager.namespace, ShouldEqual, "cfbtv")
				So(manager.subsystem, ShouldEqual, "dashboard")
				So(manager.constLabels, ShouldBeNil)
			})
		})
	})
}

func TestDatasetMetrics(t *testing.T) {
	Convey("Given the global dataset gauges", t, func() {
		Convey("When a load is reported", func() {
			UpdateDatasetGames(120)
			UpdateDatasetSkippedRows(4)
			UpdateDatasetAnnualGroups(33)
			UpdateDatasetYearSpan(2011, 2019)
			RecordDatasetLoadDuration(12.5)

			Convey("Then the gauges hold the reported values", func() {
				So(testutil.ToFloat64(globalManager.datasetGames), ShouldEqual, 120)
				So(testutil.ToFloat64(globalManager.datasetSkippedRows), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.datasetAnnualGroups), ShouldEqual, 33)
				So(testutil.ToFloat64(globalManager.datasetFirstYear), ShouldEqual, 2011)
				So(testutil.ToFloat64(globalManager.datasetLastYear), ShouldEqual, 2019)
				So(testutil.ToFloat64(globalManager.datasetLoadDuration), ShouldEqual, 12.5)
			})
		})
	})
}

func TestQueryMetrics(t *testing.T) {
	Convey("Given the global query counters", t, func() {
		queries := globalManager.queries.WithLabelValues("viewers", "Both")
		before := testutil.ToFloat64(queries)
		emptyBefore := testutil.ToFloat64(globalManager.emptySelections)
		missBefore := testutil.ToFloat64(globalManager.lookupMisses.WithLabelValues("color"))

		Convey("When queries are recorded", func() {
			RecordQuery("viewers", "Both", 0.4, 12)
			RecordQuery("viewers", "Both", 0.2, 0)
			RecordEmptySelection()
			RecordLookupMiss("color")

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(queries), ShouldEqual, before+2)
				So(testutil.ToFloat64(globalManager.emptySelections), ShouldEqual, emptyBefore+1)
				So(testutil.ToFloat64(globalManager.lookupMisses.WithLabelValues("color")), ShouldEqual, missBefore+1)
			})
		})
	})
}

func TestChartAndHTTPMetrics(t *testing.T) {
	Convey("Given chart and HTTP metrics", t, func() {
		renders := globalManager.chartRenders.WithLabelValues("scores", "png")
		before := testutil.ToFloat64(renders)
		reqs := globalManager.httpRequests.WithLabelValues("/api/charts", "GET", "200")
		reqsBefore := testutil.ToFloat64(reqs)

		Convey("When they are recorded", func() {
			RecordChartRender("scores", "png", 30)
			RecordChartRenderError("svg")
			RecordHTTPRequest("/api/charts", "GET", "200")
			RecordHTTPRequestDuration("/api/charts", "GET", "200", 3)

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(renders), ShouldEqual, before+1)
				So(testutil.ToFloat64(reqs), ShouldEqual, reqsBefore+1)
				So(testutil.ToFloat64(globalManager.chartRenderErrors.WithLabelValues("svg")), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestRenderQueueMetrics(t *testing.T) {
	Convey("Given render queue metrics", t, func() {
		rejected := globalManager.renderQueueRejected.WithLabelValues("full")
		before := testutil.ToFloat64(rejected)

		Convey("When the queue reports its state", func() {
			UpdateRenderQueueCapacity(64)
			UpdateRenderQueueSize(3)
			UpdateRenderWorkers(4)
			RecordRenderQueueRejected("full")
			RecordRenderQueueWait(1.5)

			Convey("Then the gauges and counters follow", func() {
				So(testutil.ToFloat64(globalManager.renderQueueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.renderQueueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.renderWorkers), ShouldEqual, 4)
				So(testutil.ToFloat64(rejected), ShouldEqual, before+1)
			})
		})
	})
}

func TestErrorAndSystemMetrics(t *testing.T) {
	Convey("Given error and system metrics", t, func() {
		Convey("When recording them", func() {
			Convey("Then nothing panics and gauges are set", func() {
				So(func() {
					RecordErrorByType("bad_request", "warning")
					RecordErrorByEndpoint("/api/charts", "GET", "team_not_found")
					RecordErrorLatency("http", "team_not_found", 1.5)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)

				UpdateSystemMemoryUsage(2048)
				UpdateSystemGoroutineCount(9)
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldEqual, 2048)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 9)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		registry := GetRegistry()

		Convey("Then it holds the global metrics", func() {
			So(registry, ShouldNotBeNil)
			UpdateDatasetGames(1)

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, mf := range families {
				names = append(names, mf.GetName())
			}
			So(names, ShouldContain, "cfbtv_dashboard_dataset_games")
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given a namespace and constant labels", t, func() {
		before := GetRegistry()
		Reset(func() { Init() })

		Convey("When the global manager is rebuilt", func() {
			Init(WithNamespace("cfbtv_init"), WithConstLabels(map[string]string{"env": "test"}))
			UpdateDatasetGames(3)

			Convey("Then metrics move to a new registry under the new names", func() {
				So(GetRegistry(), ShouldNotPointTo, before)

				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				var games float64
				for _, mf := range families {
					if mf.GetName() == "cfbtv_init_dashboard_dataset_games" {
						games = mf.GetMetric()[0].GetGauge().GetValue()
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(games, ShouldEqual, 3)
			})
		})
	})
}
