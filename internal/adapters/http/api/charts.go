package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/okian/cfbtv/internal/adapters/chart"
	service "github.com/okian/cfbtv/internal/app"
	"github.com/okian/cfbtv/pkg/logger"
)

// ChartsHandler serves the chart catalogue, chart payloads and images.
type ChartsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewChartsHandler creates a new charts handler.
func NewChartsHandler(deps Dependencies, log logger.Logger) *ChartsHandler {
	return &ChartsHandler{deps: deps, logger: log}
}

// HandleListCharts handles GET /api/charts requests.
func (h *ChartsHandler) HandleListCharts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Charts())
}

// HandleGetChart handles GET /api/charts/{chart}, /api/charts/{chart}.png
// and /api/charts/{chart}.svg requests.
func (h *ChartsHandler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/charts/")
	if name == "" {
		h.HandleListCharts(w, r)
		return
	}
	if strings.Contains(name, "/") {
		writeError(w, http.StatusNotFound, "chart_not_found", fmt.Errorf("%w: %q", service.ErrUnknownChart, name))
		return
	}

	sel, err := parseSelection(r.URL.RawQuery)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}

	ext := path.Ext(name)
	if ext == "" {
		fig, err := h.deps.Figure(r.Context(), name, sel)
		if err != nil {
			fail(r.Context(), h.logger, w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, fig)
		return
	}

	format, err := chart.ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}

	// Render fully before writing so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.deps.Render(r.Context(), strings.TrimSuffix(name, ext), sel, format, &buf); err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
