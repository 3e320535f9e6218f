// ABOUTME: Liveness HTTP endpoints served next to the gRPC port
// ABOUTME: /healthz process-up, /readyz serving state, /metrics prometheus

package server

import "net/http"

// healthMux routes the liveness server's endpoints.
func (s *Server) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// handleHealthz returns 200 OK whenever the process is up.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReadyz returns 200 once the listeners accept conversations and 503
// while starting up or draining.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
