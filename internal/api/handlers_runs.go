package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shikhar5647/scene-graph-agent/internal/export"
	"github.com/shikhar5647/scene-graph-agent/internal/pipeline"
	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
)

// runStatusResponse is a run snapshot plus the scene graph once the run has
// finished producing one.
type runStatusResponse struct {
	pipeline.RunSnapshot
	Result *scenegraph.Graph `json:"result,omitempty"`
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	resp := runStatusResponse{RunSnapshot: run.Snapshot()}
	if resp.Status.Terminal() {
		resp.Result = run.Result()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleRunCancel cancels a queued or running run. Cancelling a finished run
// is a no-op; the current status is returned either way.
func (s *Server) handleRunCancel(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	run.Cancel()
	snap := run.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"run_id": snap.ID,
		"status": snap.Status,
	})
}

// runGraph resolves a run's finished scene graph, writing the error response
// when the run is unknown or has not produced one.
func (s *Server) runGraph(w http.ResponseWriter, r *http.Request) (*scenegraph.Graph, bool) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	g := run.Result()
	if g == nil {
		jsonError(w, "run has no result", http.StatusConflict)
		return nil, false
	}
	return g, true
}

func (s *Server) handleMatrixCSV(w http.ResponseWriter, r *http.Request) {
	g, ok := s.runGraph(w, r)
	if !ok {
		return
	}
	m, err := scenegraph.BuildMatrix(s.reg, g)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMatrixCSV(&buf, m); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="scene_graph_matrix.csv"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleMatrixXLSX(w http.ResponseWriter, r *http.Request) {
	g, ok := s.runGraph(w, r)
	if !ok {
		return
	}
	m, err := scenegraph.BuildMatrix(s.reg, g)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMatrixXLSX(&buf, m); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="scene_graph_matrix.xlsx"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleRunMetadata(w http.ResponseWriter, r *http.Request) {
	g, ok := s.runGraph(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="scene_graph_metadata.json"`)
	if err := export.WriteMetadataJSON(w, export.BuildMetadata(s.reg, g)); err != nil {
		s.log.Error("write metadata", "error", err)
	}
}
