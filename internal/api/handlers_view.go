package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docview/internal/nav"
	"github.com/dgallion1/docview/internal/pipeline"
	"github.com/dgallion1/docview/internal/viewer"
)

type selectRequest struct {
	Topic string `json:"topic"`
	Async bool   `json:"async"`
}

type selectResponse struct {
	viewer.Snapshot
	Stale bool `json:"stale"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type searchResponse struct {
	viewer.Snapshot
	Visible int `json:"visible"`
}

// maxBody bounds JSON request bodies.
const maxBody = 64 << 10

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	topic := nav.TopicFromLabel(req.Topic)
	if topic == "" {
		jsonError(w, "topic is required", http.StatusBadRequest)
		return
	}

	st := s.session(w, r)
	if req.Async {
		token, err := s.orchestrator.Submit(st, topic)
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrStopped) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"session":  st.ID(),
			"topic":    topic,
			"token":    token,
			"status":   "queued",
			"poll_url": "/api/view",
		})
		return
	}

	snap, stale, err := s.orchestrator.Select(r.Context(), st, topic)
	if err != nil {
		jsonError(w, "load aborted: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{Snapshot: snap, Stale: stale})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	st := s.session(w, r)
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	st := s.session(w, r)
	res := st.Search(req.Term)
	writeJSON(w, http.StatusOK, searchResponse{Snapshot: st.Snapshot(), Visible: res.Visible()})
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	menu := s.orchestrator.Menu()
	groups := []*nav.Group{}
	if menu != nil {
		groups = append(groups, menu.Groups...)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groups": groups,
		"topics": menu.Topics(),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": s.orchestrator.Loader().Outlines(r.Context()),
	})
}
