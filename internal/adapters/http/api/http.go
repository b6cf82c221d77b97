// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/cfbtv/internal/adapters/chart"
	service "github.com/okian/cfbtv/internal/app"
	"github.com/okian/cfbtv/internal/domain/model"
	"github.com/okian/cfbtv/internal/domain/types"
	"github.com/okian/cfbtv/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Charts lists the chart catalogue.
	Charts() []types.ChartInfo

	// Figure builds a chart payload; Render draws it as an image.
	Figure(ctx context.Context, chartID string, sel service.Selection) (types.Figure, error)
	Render(ctx context.Context, chartID string, sel service.Selection, format chart.Format, w io.Writer) error

	// Panel returns the logo panel for the last selected team.
	Panel(ctx context.Context, teams []string) (types.Panel, error)

	// Options returns the dashboard inputs.
	Options(ctx context.Context) (types.Options, error)
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	chartsHandler  *ChartsHandler
	optionsHandler *OptionsHandler
	panelHandler   *PanelHandler
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.chartsHandler = NewChartsHandler(deps, s.logger)
	s.optionsHandler = NewOptionsHandler(deps, s.logger)
	s.panelHandler = NewPanelHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/options", MetricsMiddleware(s.optionsHandler.HandleGetOptions, "options"))
	mux.HandleFunc("/api/panel", MetricsMiddleware(s.panelHandler.HandleGetPanel, "panel"))
	mux.HandleFunc("/api/charts", MetricsMiddleware(s.chartsHandler.HandleListCharts, "charts"))
	mux.HandleFunc("/api/charts/", MetricsMiddleware(s.chartsHandler.HandleGetChart, "chart"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an upstream error to a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrTeamNotFound):
		return http.StatusNotFound, "team_not_found"
	case errors.Is(err, service.ErrUnknownChart):
		return http.StatusNotFound, "chart_not_found"
	case errors.Is(err, chart.ErrUnknownFormat):
		return http.StatusNotFound, "unknown_format"
	case errors.Is(err, service.ErrTooManyTeams):
		return http.StatusBadRequest, "too_many_teams"
	case errors.Is(err, model.ErrInvalidYears):
		return http.StatusBadRequest, "invalid_years"
	case errors.Is(err, model.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_ready"
	case errors.Is(err, service.ErrBusy):
		return http.StatusServiceUnavailable, "busy"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status; server-side failures are logged.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}
