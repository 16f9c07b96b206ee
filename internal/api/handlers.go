package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/bookrag/internal/pipeline"
	"github.com/dgallion1/bookrag/internal/retrieve"
	"github.com/dgallion1/bookrag/internal/vecindex"
)

type queryRequest struct {
	Question  string  `json:"question"`
	K         int     `json:"k,omitempty"`
	Threshold float32 `json:"threshold,omitempty"`
	Strategy  string  `json:"strategy,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	var strategy retrieve.Strategy
	switch req.Strategy {
	case "":
	case string(retrieve.StrategyTopDown), string(retrieve.StrategyBottomUp), string(retrieve.StrategyHybrid):
		strategy = retrieve.Strategy(req.Strategy)
	default:
		jsonError(w, "unknown strategy: "+req.Strategy, http.StatusBadRequest)
		return
	}

	ans, err := s.pipeline.Ask(r.Context(), req.Question, pipeline.AskOptions{
		K:         req.K,
		Threshold: req.Threshold,
		Strategy:  strategy,
	})
	if err != nil {
		if errors.Is(err, vecindex.ErrIndexNotReady) {
			jsonError(w, "index not ready", http.StatusServiceUnavailable)
			return
		}
		s.log.Error("query failed", "error", err)
		jsonError(w, "query failed", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, ans)
}

// hierarchyNode is the wire form of one tree node, text reduced to a preview.
type hierarchyNode struct {
	ID          string `json:"id"`
	Level       int    `json:"level"`
	Kind        string `json:"kind"`
	Label       string `json:"label,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	ChildCount  int    `json:"child_count"`
	TextPreview string `json:"text_preview"`
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	tree := s.pipeline.Tree()
	if tree == nil {
		jsonError(w, "hierarchy unavailable (index restored from snapshot)", http.StatusNotFound)
		return
	}

	nodes := make(map[string]hierarchyNode, len(tree.Nodes))
	for id, n := range tree.Nodes {
		preview := n.Text
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		nodes[id] = hierarchyNode{
			ID:          n.ID,
			Level:       n.Level,
			Kind:        n.Meta.Kind,
			Label:       n.Meta.Label,
			ParentID:    n.ParentID,
			ChildCount:  len(n.ChildrenIDs),
			TextPreview: preview,
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"root_nodes": tree.Roots,
		"nodes":      nodes,
	})
}

func (s *Server) handleIndexStats(w http.ResponseWriter, r *http.Request) {
	if !s.pipeline.Ready() {
		jsonError(w, "index not ready", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, s.pipeline.Stats())
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
