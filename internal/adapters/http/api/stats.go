package api

import (
	"net/http"
)

// StatsHandler handles GET /stats.
type StatsHandler struct {
	terminal Terminal
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(t Terminal) *StatsHandler {
	return &StatsHandler{terminal: t}
}

type statsResponse struct {
	Snapshot any            `json:"snapshot"`
	Service  map[string]any `json:"service"`
}

// HandleStats returns the engine snapshot plus service counters.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.terminal.Snapshot(r.Context())
	if err != nil {
		writeCommandError(w, "api.stats", err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Snapshot: snap, Service: h.terminal.GetStats()})
}
