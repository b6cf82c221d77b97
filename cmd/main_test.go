package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/cfbtv/internal/config"
	"github.com/okian/cfbtv/internal/domain/types"
	"github.com/okian/cfbtv/pkg/logger"
	"github.com/okian/cfbtv/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const (
	gamesCSV = `Date,Visitor Team,Home Team,VIEWERS,score_home,attend,GAME
2015-09-26,Florida,Tennessee,5000000,28,102455,Florida at Tennessee
2016-09-24,Tennessee,Florida,4100000,21,90000,Tennessee at Florida
2017-09-30,Georgia,Tennessee,3300000,0,100000,Georgia at Tennessee
`
	colorsCSV = `Team,Color
Tennessee,#FF8200
Florida,#0021A5
`
	logosCSV = `Team,Logo,Link
Tennessee,https://example.test/ut.png,https://utsports.com
Florida,https://example.test/uf.png,https://floridagators.com
`
)

// writeData writes the three input tables to a temporary directory and
// returns a config pointing at them.
func writeData(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.New()
	cfg.GamesPath = filepath.Join(dir, "games.csv")
	cfg.ColorsPath = filepath.Join(dir, "colors.csv")
	cfg.LogosPath = filepath.Join(dir, "logos.csv")
	for path, body := range map[string]string{cfg.GamesPath: gamesCSV, cfg.ColorsPath: colorsCSV, cfg.LogosPath: logosCSV} {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("CFBTV_ADDR", ":8080")
			t.Setenv("CFBTV_MAX_TEAMS", "10")
			t.Setenv("CFBTV_DEFAULT_TEAMS", "Florida,Tennessee")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxTeams, convey.ShouldEqual, 10)
				convey.So(cfg.DefaultTeams, convey.ShouldResemble, []string{"Florida", "Tennessee"})
			})
		})

		convey.Convey("When building the service from configuration", func() {
			cfg := config.New()
			cfg.CutoffYear = 2014
			cfg.MaxTeams = 7
			svc := newService(cfg, logger.Nop())

			convey.Convey("Then it should carry the configured settings", func() {
				stats := svc.GetStats()
				convey.So(stats["started"], convey.ShouldBeFalse)
				convey.So(stats["cutoffYear"], convey.ShouldEqual, 2014)
				convey.So(stats["maxTeams"], convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a service started from CSV files", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := writeData(t)
		svc := newService(cfg, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		handler := newHandler(ctx, svc, logger.Nop())
		get := func(target string, header http.Header) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			for k, v := range header {
				req.Header[k] = v
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w
		}

		convey.Convey("Then the API should serve chart payloads", func() {
			w := get("/api/charts/viewers?team=Tennessee&role=Home", nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var fig types.Figure
			convey.So(json.Unmarshal(w.Body.Bytes(), &fig), convey.ShouldBeNil)
			convey.So(fig.Series, convey.ShouldHaveLength, 1)
			convey.So(fig.Series[0].Points, convey.ShouldHaveLength, 2)
		})

		convey.Convey("And the API should serve the options", func() {
			w := get("/api/options", nil)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var opts types.Options
			convey.So(json.Unmarshal(w.Body.Bytes(), &opts), convey.ShouldBeNil)
			convey.So(opts.Teams, convey.ShouldResemble, []string{"Tennessee", "Florida"})
			convey.So(opts.Years.Min, convey.ShouldEqual, 2015)
			convey.So(opts.Years.Max, convey.ShouldEqual, 2017)
		})

		convey.Convey("And the dashboard page and API docs should be mounted", func() {
			convey.So(get("/", nil).Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs", nil).Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml", nil).Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz", nil).Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And every response should carry a request id", func() {
			w := get("/api/charts", nil)
			convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)

			w = get("/api/charts", http.Header{"X-Request-Id": {"check-42"}})
			convey.So(w.Header().Get("X-Request-ID"), convey.ShouldEqual, "check-42")
		})
	})

	convey.Convey("Given a service whose games file is missing", t, func() {
		cfg := writeData(t)
		cfg.GamesPath = filepath.Join(t.TempDir(), "missing.csv")
		svc := newService(cfg, logger.Nop())

		convey.Convey("Then starting it should fail", func() {
			convey.So(svc.Start(context.Background()), convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			t.Setenv("CFBTV_ADDR", "")

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the service has not been started", func() {
			svc := newService(config.New(), logger.Nop())
			handler := newHandler(context.Background(), svc, logger.Nop())

			convey.Convey("Then the API should report it is not ready", func() {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/options", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "not_ready")
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop with its context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestInitMetrics(t *testing.T) {
	convey.Convey("Given metrics settings in the configuration", t, func() {
		cfg := config.New()
		cfg.MetricsNamespace = "cfbtv_main"
		cfg.MetricsLabels = []string{"env=test"}
		cfg.MetricsBuckets = []float64{1, 10, 100}
		convey.Reset(func() { initMetrics(config.New()) })

		convey.Convey("When the registry is rebuilt", func() {
			initMetrics(cfg)
			metrics.RecordQuery("viewers", "HOME", 5, 2)

			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then metrics carry the configured name, labels and buckets", func() {
				var found bool
				for _, mf := range families {
					if mf.GetName() != "cfbtv_main_dashboard_query_latency_milliseconds" {
						continue
					}
					found = true
					m := mf.GetMetric()[0]
					convey.So(m.GetLabel(), convey.ShouldHaveLength, 1)
					convey.So(m.GetLabel()[0].GetName(), convey.ShouldEqual, "env")
					convey.So(m.GetLabel()[0].GetValue(), convey.ShouldEqual, "test")
					convey.So(m.GetHistogram().GetBucket()[0].GetUpperBound(), convey.ShouldEqual, 1)
					convey.So(m.GetHistogram().GetSampleCount(), convey.ShouldEqual, 1)
				}
				convey.So(found, convey.ShouldBeTrue)
			})
		})
	})
}
