// Package service provides the dashboard service that implements the
// dependencies required by the HTTP API: chart figures, images, the logo
// panel and the dropdown options.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/cfbtv/internal/adapters/chart"
	"github.com/okian/cfbtv/internal/adapters/mq/worker"
	"github.com/okian/cfbtv/internal/adapters/repository"
	"github.com/okian/cfbtv/internal/domain/model"
	"github.com/okian/cfbtv/internal/domain/query"
	"github.com/okian/cfbtv/internal/domain/types"
	"github.com/okian/cfbtv/pkg/logger"
	"github.com/okian/cfbtv/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Renderer draws a figure as an image.
type Renderer interface {
	Render(ctx context.Context, fig types.Figure, format chart.Format, w io.Writer) error
}

// Selection is the dashboard state a request carries.
//
// A nil Teams means "not given" and selects the default teams; a non-nil
// empty Teams is an empty selection. An empty Role selects the default role.
// From and To are inclusive season years; zero means the dataset bound.
type Selection struct {
	Teams []string
	Role  model.Role
	From  int
	To    int
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	engine   query.Engine
	renderer Renderer
	pool     *worker.Pool

	// Configuration
	paths        repository.Paths
	cutoffYear   int
	defaultTeams []string
	defaultRole  model.Role
	maxTeams     int
	chartWidth   int
	chartHeight  int
	renderers    int
	renderQueue  int

	// State
	started   bool
	startedAt time.Time

	// Counters reported by GetStats
	queries      atomic.Int64
	renders      atomic.Int64
	lookupMisses atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPaths sets the CSV files loaded by Start.
func WithPaths(p repository.Paths) Option {
	return func(s *Service) {
		s.paths = p
	}
}

// WithStore supplies already loaded state; Start then skips the CSV load.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithCutoffYear keeps only games played after year.
func WithCutoffYear(year int) Option {
	return func(s *Service) {
		if year >= 0 {
			s.cutoffYear = year
		}
	}
}

// WithDefaultTeams sets the selection used when a request names no team.
func WithDefaultTeams(teams []string) Option {
	return func(s *Service) {
		if teams != nil {
			s.defaultTeams = append([]string(nil), teams...)
		}
	}
}

// WithDefaultRole sets the role used when a request names none.
func WithDefaultRole(role model.Role) Option {
	return func(s *Service) {
		if role.Valid() {
			s.defaultRole = role
		}
	}
}

// WithMaxTeams caps the number of teams one selection may hold.
func WithMaxTeams(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTeams = n
		}
	}
}

// WithChartSize sets the rendered image size in pixels.
func WithChartSize(width, height int) Option {
	return func(s *Service) {
		if width > 0 && height > 0 {
			s.chartWidth, s.chartHeight = width, height
		}
	}
}

// WithRenderWorkers sets how many images may render at once.
func WithRenderWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.renderers = n
		}
	}
}

// WithRenderQueueSize sets how many image requests may wait for a render
// worker before further ones are refused with ErrBusy.
func WithRenderQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.renderQueue = n
		}
	}
}

// WithRenderer replaces the go-chart image renderer.
func WithRenderer(r Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		paths: repository.Paths{
			Games:  "data/TV_Joined.csv",
			Colors: "data/team_colors.csv",
			Logos:  "data/team_logos.csv",
		},
		cutoffYear:   repository.DefaultCutoffYear,
		defaultTeams: []string{"Tennessee"},
		defaultRole:  model.RoleHome,
		maxTeams:     25,
		chartWidth:   1024,
		chartHeight:  600,
		renderers:    runtime.NumCPU(),
		renderQueue:  64,
		logger:       nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the dataset (unless a store was supplied) and builds the
// query engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting dashboard service...")

	if s.store == nil {
		loader := repository.NewCSVLoader(
			repository.WithCutoffYear(s.cutoffYear),
			repository.WithLogger(s.logger.Named("repository")),
		)
		snap, err := loader.Load(ctx, s.paths)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		s.store = snap
	}
	s.engine = query.New(s.store.Dataset())

	if s.renderer == nil {
		s.renderer = chart.NewRenderer(
			chart.WithSize(s.chartWidth, s.chartHeight),
			chart.WithLogger(s.logger.Named("chart")),
		)
	}
	s.pool = worker.NewPool(s.renderer,
		worker.WithWorkers(s.renderers),
		worker.WithQueueSize(s.renderQueue),
		worker.WithLogger(s.logger.Named("render")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("games", s.store.Dataset().Len()),
		logger.Int("teams", len(s.store.Dataset().HomeTeams())),
		logger.Int("colors", s.store.Directory().ColorCount()),
		logger.Int("logos", s.store.Directory().LogoCount()),
	)

	return nil
}

// Stop marks the service stopped. The loaded dataset is kept so a later
// Start does not reload it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "render pool did not stop cleanly", logger.Error(err))
	}
	s.pool = nil

	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
}

// snapshot returns the components a request needs, or ErrNotStarted.
func (s *Service) snapshot() (repository.Store, query.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.engine, nil
}

// resolve applies defaults to sel and checks the team count.
func (s *Service) resolve(ds *model.Dataset, sel Selection) (query.Request, error) {
	req := query.Request{Teams: sel.Teams, Role: sel.Role}
	if req.Teams == nil {
		req.Teams = s.defaultTeams
	}
	if len(req.Teams) > s.maxTeams {
		return query.Request{}, fmt.Errorf("%w: %d > %d", ErrTooManyTeams, len(req.Teams), s.maxTeams)
	}
	if req.Role == "" {
		req.Role = s.defaultRole
	}

	span, _ := ds.Span()
	req.Years = span
	if sel.From != 0 {
		req.Years.Min = sel.From
	}
	if sel.To != 0 {
		req.Years.Max = sel.To
	}

	// A single bound beyond the data selects nothing rather than an
	// inverted range.
	switch {
	case sel.To == 0 && req.Years.Max < req.Years.Min:
		req.Years.Max = req.Years.Min
	case sel.From == 0 && req.Years.Min > req.Years.Max:
		req.Years.Min = req.Years.Max
	}
	return req, nil
}

// Figure builds the chart payload for chartID. Every selected team must have
// a colour; the first one without fails with model.ErrTeamNotFound.
func (s *Service) Figure(ctx context.Context, chartID string, sel Selection) (types.Figure, error) {
	def, ok := lookupChart(chartID)
	if !ok {
		return types.Figure{}, fmt.Errorf("%w: %q", ErrUnknownChart, chartID)
	}
	store, engine, err := s.snapshot()
	if err != nil {
		return types.Figure{}, err
	}
	req, err := s.resolve(store.Dataset(), sel)
	if err != nil {
		return types.Figure{}, err
	}
	req.Metric = def.metric

	start := time.Now()
	var series []model.Series
	if def.info.Kind == types.KindAnnual {
		series, err = engine.Annual(ctx, req)
	} else {
		series, err = engine.Query(ctx, req)
	}
	if err != nil {
		return types.Figure{}, err
	}

	points := 0
	for _, sr := range series {
		points += len(sr.Points)
	}
	s.queries.Add(1)
	metrics.RecordQuery(chartID, string(req.Role), float64(time.Since(start).Microseconds())/1000, points)
	if len(req.Teams) == 0 {
		metrics.RecordEmptySelection()
	}

	fig := types.Figure{ChartInfo: def.info, Series: make([]types.Series, 0, len(series))}
	for _, sr := range series {
		color, err := store.Directory().Color(sr.Team)
		if err != nil {
			s.lookupMisses.Add(1)
			metrics.RecordLookupMiss("color")
			return types.Figure{}, err
		}
		fig.Series = append(fig.Series, types.Series{
			Team:   sr.Team,
			Color:  color,
			Points: toPayload(sr.Points, def.info.Kind),
		})
	}

	s.logger.Debug(ctx, "figure built",
		logger.String("chart", chartID),
		logger.Strings("teams", req.Teams),
		logger.String("role", string(req.Role)),
		logger.Int("from", req.Years.Min),
		logger.Int("to", req.Years.Max),
		logger.Int("points", points),
	)
	return fig, nil
}

func toPayload(points []model.Point, kind string) []types.Point {
	out := make([]types.Point, len(points))
	for i, p := range points {
		x := strconv.Itoa(p.Year)
		if kind == types.KindTimeline {
			x = p.Date.Format(dateLayout)
		}
		out[i] = types.Point{X: x, Y: p.Y, Label: p.Label}
	}
	return out
}

// Render builds the figure for chartID and writes it to w as an image.
func (s *Service) Render(ctx context.Context, chartID string, sel Selection, format chart.Format, w io.Writer) error {
	fig, err := s.Figure(ctx, chartID, sel)
	if err != nil {
		return err
	}

	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()
	if pool == nil {
		return ErrNotStarted
	}

	start := time.Now()
	if err := pool.Render(ctx, fig, format, w); err != nil {
		switch {
		case errors.Is(err, worker.ErrBusy):
			return fmt.Errorf("%w: %w", ErrBusy, err)
		case errors.Is(err, worker.ErrStopped):
			return ErrNotStarted
		}
		metrics.RecordChartRenderError(string(format))
		return err
	}
	s.renders.Add(1)
	metrics.RecordChartRender(chartID, string(format), float64(time.Since(start).Microseconds())/1000)
	return nil
}

// Panel returns the logo panel for the last team of the selection. A nil
// teams selects the default teams; an empty selection yields an empty panel.
func (s *Service) Panel(_ context.Context, teams []string) (types.Panel, error) {
	store, _, err := s.snapshot()
	if err != nil {
		return types.Panel{}, err
	}
	if teams == nil {
		teams = s.defaultTeams
	}
	if len(teams) == 0 {
		return types.Panel{}, nil
	}
	if len(teams) > s.maxTeams {
		return types.Panel{}, fmt.Errorf("%w: %d > %d", ErrTooManyTeams, len(teams), s.maxTeams)
	}

	team := teams[len(teams)-1]
	logo, err := store.Directory().Logo(team)
	if err != nil {
		s.lookupMisses.Add(1)
		metrics.RecordLookupMiss("logo")
		return types.Panel{}, err
	}
	return types.Panel{Team: team, LogoURL: logo.Logo, LinkURL: logo.Link}, nil
}

// Options returns the dropdown, radio and slider inputs of the dashboard.
func (s *Service) Options(_ context.Context) (types.Options, error) {
	store, _, err := s.snapshot()
	if err != nil {
		return types.Options{}, err
	}
	ds := store.Dataset()
	span, _ := ds.Span()

	return types.Options{
		Teams:    ds.HomeTeams(),
		Roles:    []model.Role{model.RoleHome, model.RoleAway, model.RoleBoth},
		Years:    span,
		Marks:    ds.Years(),
		MaxTeams: s.maxTeams,
		Defaults: types.Defaults{
			Teams: append([]string{}, s.defaultTeams...),
			Role:  s.defaultRole,
			Years: span,
		},
		Charts: s.Charts(),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"maxTeams":        s.maxTeams,
		"cutoffYear":      s.cutoffYear,
		"renderWorkers":   s.renderers,
		"renderQueueSize": s.renderQueue,
		"queries":         s.queries.Load(),
		"renders":         s.renders.Load(),
		"lookupMisses":    s.lookupMisses.Load(),
	}

	if s.started {
		ds := s.store.Dataset()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["games"] = ds.Len()
		stats["annualGroups"] = ds.AnnualLen()
		stats["teams"] = len(ds.HomeTeams())
		stats["colors"] = s.store.Directory().ColorCount()
		stats["logos"] = s.store.Directory().LogoCount()
		if span, ok := ds.Span(); ok {
			stats["firstYear"] = span.Min
			stats["lastYear"] = span.Max
		}
		if snap, ok := s.store.(*repository.Snapshot); ok {
			rep := snap.Report()
			stats["rowsRead"] = rep.Rows
			stats["rowsSkipped"] = rep.Rows - rep.Kept
		}
	}

	return stats
}
