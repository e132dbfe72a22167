package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"provider":    s.llm.Name(),
		"model":       s.llm.Model(),
		"stats":       s.llm.Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

// handleTaxonomy exposes the object/category/attribute vocabulary the
// service extracts against.
func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"objects":    s.reg.Objects(),
		"categories": s.reg.Categories(),
		"attributes": s.reg.Attributes(),
	})
}
