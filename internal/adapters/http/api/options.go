package api

import (
	"net/http"

	"github.com/okian/cfbtv/pkg/logger"
)

// OptionsHandler serves the dashboard inputs.
type OptionsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewOptionsHandler creates a new options handler.
func NewOptionsHandler(deps Dependencies, log logger.Logger) *OptionsHandler {
	return &OptionsHandler{deps: deps, logger: log}
}

// HandleGetOptions handles GET /api/options requests.
func (h *OptionsHandler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	opts, err := h.deps.Options(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, "api.get_options", err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
