package config_test

import (
	"errors"
	"testing"

	"github.com/okian/cfbtv/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.GamesPath, convey.ShouldEqual, "data/TV_Joined.csv")
			convey.So(cfg.ColorsPath, convey.ShouldEqual, "data/team_colors.csv")
			convey.So(cfg.LogosPath, convey.ShouldEqual, "data/team_logos.csv")
			convey.So(cfg.CutoffYear, convey.ShouldEqual, 2010)
			convey.So(cfg.DefaultTeams, convey.ShouldResemble, []string{"Tennessee"})
			convey.So(cfg.DefaultRole, convey.ShouldEqual, "Home")
			convey.So(cfg.MaxTeams, convey.ShouldEqual, 25)
			convey.So(cfg.RenderWorkers, convey.ShouldBeGreaterThan, 0)
			convey.So(cfg.RenderQueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "cfbtv")
			convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "dashboard")
			convey.So(cfg.ConstLabels(), convey.ShouldBeNil)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"empty games path":  func(c *config.Config) { c.GamesPath = "" },
			"empty colors path": func(c *config.Config) { c.ColorsPath = "" },
			"negative cutoff":   func(c *config.Config) { c.CutoffYear = -1 },
			"zero max teams":    func(c *config.Config) { c.MaxTeams = 0 },
			"zero width":        func(c *config.Config) { c.ChartWidth = 0 },
			"zero workers":      func(c *config.Config) { c.RenderWorkers = 0 },
			"zero render queue": func(c *config.Config) { c.RenderQueueSize = 0 },
			"bad level":         func(c *config.Config) { c.LogLevel = "chatty" },
			"bad format":        func(c *config.Config) { c.LogFormat = "xml" },
			"bad role":          func(c *config.Config) { c.DefaultRole = "Neutral" },
			"too many defaults": func(c *config.Config) { c.MaxTeams = 1; c.DefaultTeams = []string{"A", "B"} },
			"label without =":   func(c *config.Config) { c.MetricsLabels = []string{"prod"} },
			"label without key": func(c *config.Config) { c.MetricsLabels = []string{"=prod"} },
			"unsorted buckets":  func(c *config.Config) { c.MetricsBuckets = []float64{5, 1} },
			"repeated bucket":   func(c *config.Config) { c.MetricsBuckets = []float64{1, 1} },
			"dashed label":      func(c *config.Config) { c.MetricsLabels = []string{"build-id=7"} },
			"dotted namespace":  func(c *config.Config) { c.MetricsNamespace = "cfb.tv" },
			"empty subsystem":   func(c *config.Config) { c.MetricsSubsystem = "" },
		}

		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then an empty logos path is allowed", func() {
			cfg := config.New()
			cfg.LogosPath = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
