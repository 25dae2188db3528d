package server

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) adminHandler() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/healthz", s.handleHealthz)
	router.HandlerFunc(http.MethodGet, "/version", s.handleVersion)
	router.HandlerFunc(http.MethodGet, "/routing", s.handleRouting)
	router.HandlerFunc(http.MethodGet, "/mismatches", s.handleMismatches)
	router.Handler(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": s.version})
}

// handleRouting reports the routing snapshot as the next request would see
// it.
func (s *Server) handleRouting(w http.ResponseWriter, r *http.Request) {
	cfg := s.provider.Snapshot()

	post := make(map[string]string, len(cfg.POSTModes))
	for name, mode := range cfg.POSTModes {
		post[name] = mode.String()
	}

	writeJSON(w, map[string]any{
		"valid":          cfg.Valid,
		"new_service":    cfg.NewServiceURL,
		"legacy_service": cfg.LegacyServiceURL,
		"get":            cfg.GETMode.String(),
		"post":           post,
	})
}

func (s *Server) handleMismatches(w http.ResponseWriter, r *http.Request) {
	store := s.interceptor.Mismatches()
	writeJSON(w, map[string]any{
		"total":   store.Total(),
		"entries": store.Entries(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
