package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/zapdos-labs/videopipeline/lifecycle"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.controller.GetStatus().String())
}

// handleShutdown parses /shutdown/{token}/{mode}.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/shutdown/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.Error(w, "Invalid path. Expected /shutdown/{token}/{mode}", http.StatusBadRequest)
		return
	}
	token, mode := parts[0], lifecycle.ShutdownMode(parts[1])

	err := s.controller.Shutdown(token, mode)
	switch {
	case err == nil:
		s.events.broadcastStatus(s.controller.GetStatus())
		w.Write([]byte("ok"))
	case errors.Is(err, lifecycle.ErrTokenMismatch):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, lifecycle.ErrNoShutdownToken), errors.Is(err, lifecycle.ErrAlreadyShuttingDown):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		log.Printf("[HTTPAPI] shutdown: unexpected error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
