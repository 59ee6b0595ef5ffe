package api

import (
	"encoding/json"
	"net/http"
)

// StatsProvider exposes runtime counters of the monitoring service,
// such as queue depth, worker count and total stored readings.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service counters as JSON.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler backed by the given provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(h.provider.GetStats())
}
