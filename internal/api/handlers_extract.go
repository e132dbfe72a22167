package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shikhar5647/scene-graph-agent/internal/parser"
	"github.com/shikhar5647/scene-graph-agent/internal/pipeline"
)

type extractRequest struct {
	Report string `json:"report"`
}

// handleExtract runs the pipeline synchronously and returns the scene-graph
// document. Accepts either a JSON body with a "report" field or a multipart
// upload with a "report" file.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readReport(w, r)
	if !ok {
		return
	}

	run := pipeline.NewRun(data, filename)
	s.runner.Execute(r.Context(), run)

	snap := run.Snapshot()
	switch snap.Status {
	case pipeline.StatusDone, pipeline.StatusPartialFailure:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run.Result())
	case pipeline.StatusCancelled:
		jsonError(w, "extraction cancelled", http.StatusServiceUnavailable)
	default:
		msg := "extraction failed"
		if len(snap.Progress.Errors) > 0 {
			msg = snap.Progress.Errors[0]
		}
		// Failures while segmenting mean unusable input, not a broken service.
		code := http.StatusInternalServerError
		if snap.Stage == pipeline.StageSegmenting {
			code = http.StatusBadRequest
		}
		jsonError(w, msg, code)
	}
}

// handleExtractAsync queues the report for a pipeline worker and returns the
// run id to poll.
func (s *Server) handleExtractAsync(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readReport(w, r)
	if !ok {
		return
	}

	run := pipeline.NewRun(data, filename)
	if err := s.orchestrator.Submit(run); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":     run.ID,
		"status":     pipeline.StatusQueued,
		"status_url": fmt.Sprintf("/api/runs/%s", run.ID),
	})
}

// readReport pulls report bytes out of an extract request. For uploads the
// returned filename selects the parser; plain JSON submissions return an
// empty filename.
func (s *Server) readReport(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	// Limit total request size, with slack for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxReportBytes+1024*1024)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return s.readReportFile(w, r)
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	if strings.TrimSpace(req.Report) == "" {
		jsonError(w, "report text is required", http.StatusBadRequest)
		return nil, "", false
	}
	return []byte(req.Report), "", true
}

func (s *Server) readReportFile(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("report")
	if err != nil {
		jsonError(w, "report file is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxReportBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, "", false
	}
	if int64(len(data)) > s.cfg.MaxReportBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxReportBytes), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	return data, filename, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
