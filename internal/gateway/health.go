package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"` // "ok" or "degraded"
	Facts    int    `json:"facts"`
	UptimeMS int64  `json:"uptime_ms"`
	Provider string `json:"provider,omitempty"` // "ok" or the probe error
}

// handleHealth returns an http.HandlerFunc for GET /health. Returns 200
// when the store is reachable and the provider probe (if configured)
// passes, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Facts:    g.store.Len(),
			UptimeMS: time.Since(g.startedAt).Milliseconds(),
		}

		if g.provider != nil {
			if err := g.provider.HealthCheck(r.Context()); err != nil {
				resp.Status = "degraded"
				resp.Provider = err.Error()
			} else {
				resp.Provider = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
