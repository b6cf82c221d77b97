package api

import "net/http"

// StatsProvider reports the service counters served at /stats: queries,
// renders, lookup misses and the loaded dataset's size.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service counters.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}
