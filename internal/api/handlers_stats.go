package api

import (
	"net/http"
)

func (s *Server) handleConvertStats(w http.ResponseWriter, r *http.Request) {
	loader := s.orchestrator.Loader()
	writeJSON(w, http.StatusOK, map[string]any{
		"convert":     loader.Stats().Snapshot(),
		"cache":       loader.Cache().Stats(),
		"sessions":    s.orchestrator.Sessions().Len(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

func (s *Server) handleCachePurge(w http.ResponseWriter, r *http.Request) {
	n := s.orchestrator.Loader().Cache().Purge()
	s.log.Info("cache purged", "entries", n)
	writeJSON(w, http.StatusOK, map[string]any{"purged": n})
}
