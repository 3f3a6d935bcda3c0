package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleMetrics serves /metrics as OpenMetrics text, per spec.md §6.1.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	// promhttp sets Content-Type from the request's Accept header, so ask
	// for OpenMetrics 1.0.0 regardless of what the client sent.
	req := r.Clone(r.Context())
	req.Header.Set("Accept", "application/openmetrics-text; version=1.0.0")
	handler.ServeHTTP(w, req)
}
