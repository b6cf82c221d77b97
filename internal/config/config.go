// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers an optional .env file, an optional YAML file and CFBTV_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/cfbtv/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// GamesPath, ColorsPath and LogosPath locate the input tables.
	// LogosPath may be empty, which disables the logo panel.
	GamesPath  string `koanf:"games_path"`
	ColorsPath string `koanf:"colors_path"`
	LogosPath  string `koanf:"logos_path"`

	// CutoffYear drops games played in or before this year at load.
	CutoffYear int `koanf:"cutoff_year"`

	// DefaultTeams is the selection used when a request names none.
	DefaultTeams []string `koanf:"default_teams"`

	// DefaultRole is the role used when a request names none.
	DefaultRole string `koanf:"default_role"`

	// MaxTeams caps the number of teams one request may select.
	MaxTeams int `koanf:"max_teams"`

	// ChartWidth and ChartHeight size rendered images in pixels.
	ChartWidth  int `koanf:"chart_width"`
	ChartHeight int `koanf:"chart_height"`

	// RenderWorkers bounds how many images render at once; RenderQueueSize
	// bounds how many more may wait before requests are refused.
	RenderWorkers   int `koanf:"render_workers"`
	RenderQueueSize int `koanf:"render_queue_size"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLabels are constant labels as key=value pairs, e.g. env=prod.
	MetricsLabels []string `koanf:"metrics_labels"`

	// MetricsBuckets overrides the latency histogram buckets, in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		GamesPath:    "data/TV_Joined.csv",
		ColorsPath:   "data/team_colors.csv",
		LogosPath:    "data/team_logos.csv",
		CutoffYear:   2010,
		DefaultTeams: []string{"Tennessee"},
		DefaultRole:  string(model.RoleHome),
		MaxTeams:     25,
		ChartWidth:   1024,
		ChartHeight:  600,

		RenderWorkers:   runtime.NumCPU(),
		RenderQueueSize: 64,

		MetricsNamespace: "cfbtv",
		MetricsSubsystem: "dashboard",
	}
}

// ConstLabels returns MetricsLabels as a map. Validate has already checked
// every pair.
func (c *Config) ConstLabels() map[string]string {
	if len(c.MetricsLabels) == 0 {
		return nil
	}
	labels := make(map[string]string, len(c.MetricsLabels))
	for _, pair := range c.MetricsLabels {
		k, v, _ := strings.Cut(pair, "=")
		labels[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return labels
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.GamesPath == "":
		return fmt.Errorf("%w: games_path must not be empty", ErrInvalidConfig)
	case c.ColorsPath == "":
		return fmt.Errorf("%w: colors_path must not be empty", ErrInvalidConfig)
	case c.CutoffYear < 0:
		return fmt.Errorf("%w: cutoff_year must not be negative", ErrInvalidConfig)
	case c.MaxTeams <= 0:
		return fmt.Errorf("%w: max_teams must be positive", ErrInvalidConfig)
	case c.ChartWidth <= 0 || c.ChartHeight <= 0:
		return fmt.Errorf("%w: chart_width and chart_height must be positive", ErrInvalidConfig)
	case c.RenderWorkers <= 0 || c.RenderQueueSize <= 0:
		return fmt.Errorf("%w: render_workers and render_queue_size must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	if _, err := model.ParseRole(c.DefaultRole); err != nil {
		return fmt.Errorf("%w: default_role: %w", ErrInvalidConfig, err)
	}
	if len(c.DefaultTeams) > c.MaxTeams {
		return fmt.Errorf("%w: default_teams exceeds max_teams", ErrInvalidConfig)
	}

	if !isMetricName(c.MetricsNamespace) || !isMetricName(c.MetricsSubsystem) {
		return fmt.Errorf("%w: metrics_namespace and metrics_subsystem must match [A-Za-z_][A-Za-z0-9_]*", ErrInvalidConfig)
	}
	for _, pair := range c.MetricsLabels {
		k, _, ok := strings.Cut(pair, "=")
		if !ok || !isMetricName(strings.TrimSpace(k)) {
			return fmt.Errorf("%w: metrics_labels entry %q is not key=value", ErrInvalidConfig, pair)
		}
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("%w: metrics_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// isMetricName reports whether s is usable as a Prometheus name part or
// label name.
func isMetricName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
