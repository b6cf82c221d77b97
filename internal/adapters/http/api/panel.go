package api

import (
	"net/http"

	"github.com/okian/cfbtv/pkg/logger"
)

// PanelHandler serves the team logo panel.
type PanelHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPanelHandler creates a new panel handler.
func NewPanelHandler(deps Dependencies, log logger.Logger) *PanelHandler {
	return &PanelHandler{deps: deps, logger: log}
}

// HandleGetPanel handles GET /api/panel?team=... requests.
func (h *PanelHandler) HandleGetPanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	const op = "api.get_panel"
	q, err := parseQuery(r.URL.RawQuery)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	panel, err := h.deps.Panel(r.Context(), parseTeams(q))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}
