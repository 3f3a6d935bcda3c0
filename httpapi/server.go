// Package httpapi implements the KVS + lifecycle HTTP surface from
// spec.md §6.1: a net/http.ServeMux-based router with a CORS wrapper,
// modeled directly on the teacher's StartHTTPAPIServer/StartWorkerAPIServer.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zapdos-labs/videopipeline/internal/metrics"
	"github.com/zapdos-labs/videopipeline/kvs"
	"github.com/zapdos-labs/videopipeline/lifecycle"
)

// Server wires the lifecycle controller and KVS store to HTTP handlers.
type Server struct {
	controller *lifecycle.Controller
	store      *kvs.Store
	codec      AttributeCodec
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	events     *eventBroadcaster
}

// NewServer constructs a Server. codec defaults to JSONCodec if nil.
func NewServer(controller *lifecycle.Controller, store *kvs.Store, codec AttributeCodec) *Server {
	if codec == nil {
		codec = JSONCodec{}
	}
	reg := prometheus.NewRegistry()
	return &Server{
		controller: controller,
		store:      store,
		codec:      codec,
		metrics:    metrics.New(reg),
		registry:   reg,
		events:     newEventBroadcaster(),
	}
}

// Metrics returns the Server's Prometheus collectors, so callers can wire
// pipeline and KVS activity into them via SetMetricsSink.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Handler builds the CORS-wrapped mux. Exported so cmd/pipelined can test
// or further wrap it without going through StartHTTPServer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/shutdown/", s.handleShutdown)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/ws/events", s.handleEventsWS)

	mux.HandleFunc("/kvs/set", s.handleKVSSet)
	mux.HandleFunc("/kvs/set-with-ttl/", s.handleKVSSetWithTTL)
	mux.HandleFunc("/kvs/delete/", s.handleKVSDelete)
	mux.HandleFunc("/kvs/delete-single/", s.handleKVSDeleteSingle)
	mux.HandleFunc("/kvs/get/", s.handleKVSGet)
	mux.HandleFunc("/kvs/search/", s.handleKVSSearch)
	mux.HandleFunc("/kvs/search-keys/", s.handleKVSSearchKeys)

	return corsMiddleware(mux)
}

// corsMiddleware adds permissive CORS headers to every response.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartHTTPServer starts the server on addr, calling Controller.InitWebserver
// to capture the PID. Mirrors relay.StartHTTPAPIServer's shape: construct,
// log, background ListenAndServe, return the *http.Server for shutdown.
func StartHTTPServer(s *Server, addr string) (*http.Server, error) {
	s.controller.InitWebserver()

	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	log.Printf("[HTTPAPI] Starting HTTP API on %s", addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[HTTPAPI] Server error: %v", err)
		}
	}()

	return server, nil
}

// Shutdown gracefully stops the HTTP server with a bounded timeout.
func Shutdown(server *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.Shutdown(ctx)
}
