package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
)

// Stage is the position of a run in the pipeline state machine. Stages
// advance strictly in order; items within a stage may run concurrently.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageSegmenting  Stage = "segmenting"
	StageExtracting  Stage = "extracting"
	StageEnriching   Stage = "enriching"
	StageVerifying   Stage = "verifying"
	StageAggregating Stage = "aggregating"
	StageDone        Stage = "done"
)

// Status is the overall outcome of a run.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	// StatusPartialFailure means some candidates failed enrichment but the
	// run produced a full scene graph anyway.
	StatusPartialFailure Status = "partial_failure"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

// Terminal reports whether a run in this status will never change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusPartialFailure, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Progress tracks per-stage counts for one run.
type Progress struct {
	Sentences        int      `json:"sentences"`
	Candidates       int      `json:"candidates"`
	Enriched         int      `json:"enriched"`
	EnrichmentFailed int      `json:"enrichment_failed"`
	Verified         int      `json:"verified"`
	Corrected        int      `json:"corrected"`
	Discarded        int      `json:"discarded"`
	Errors           []string `json:"errors"`
}

// Run tracks the state of one report extraction. Each run owns its own
// state; nothing is shared across concurrent runs except the read-only
// taxonomy.
type Run struct {
	mu sync.Mutex

	ID       string   `json:"run_id"`
	Status   Status   `json:"status"`
	Stage    Stage    `json:"stage"`
	Filename string   `json:"filename,omitempty"`
	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	input  []byte
	result *scenegraph.Graph
	errors []string
	cancel context.CancelFunc
}

// NewRun creates a queued run for raw input bytes. Filename is empty for
// plain text submissions and carries the upload name otherwise, so the
// worker knows which parser to use.
func NewRun(input []byte, filename string) *Run {
	now := time.Now()
	return &Run{
		ID:        generateULID(),
		Status:    StatusQueued,
		Stage:     StageQueued,
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		input:     input,
	}
}

// SetStage advances the state machine and marks the run as running.
func (r *Run) SetStage(stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stage = stage
	if !r.Status.Terminal() {
		r.Status = StatusRunning
	}
	r.UpdatedAt = time.Now()
}

// Finish records the terminal status. Once terminal, the status never
// changes again.
func (r *Run) Finish(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status.Terminal() {
		return
	}
	r.Status = status
	if status == StatusDone || status == StatusPartialFailure {
		r.Stage = StageDone
	}
	r.UpdatedAt = time.Now()
}

// AddError records a per-item error.
func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.Progress.Errors = r.errors
	r.UpdatedAt = time.Now()
}

// SetCounts records segmentation and extraction totals.
func (r *Run) SetCounts(sentences, candidates int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Sentences = sentences
	r.Progress.Candidates = candidates
	r.UpdatedAt = time.Now()
}

// AddEnriched records enrichment outcomes.
func (r *Run) AddEnriched(ok, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Enriched += ok
	r.Progress.EnrichmentFailed += failed
	r.UpdatedAt = time.Now()
}

// AddVerified records verification outcomes.
func (r *Run) AddVerified(accepted, corrected, discarded int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Verified += accepted + corrected
	r.Progress.Corrected += corrected
	r.Progress.Discarded += discarded
	r.UpdatedAt = time.Now()
}

// SetResult stores the final scene graph.
func (r *Run) SetResult(g *scenegraph.Graph) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = g
	r.UpdatedAt = time.Now()
}

// Result returns the final scene graph, nil until aggregation finished.
func (r *Run) Result() *scenegraph.Graph {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Input returns the raw submitted bytes.
func (r *Run) Input() ([]byte, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.input, r.Filename
}

func (r *Run) setCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = cancel
}

// Cancel stops a run. A queued run is cancelled in place; a running run has
// its context cancelled and finishes as cancelled once in-flight calls
// return. Terminal runs are left alone.
func (r *Run) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	if !r.Status.Terminal() && cancel == nil {
		r.Status = StatusCancelled
		r.UpdatedAt = time.Now()
	}
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string    `json:"run_id"`
	Status    Status    `json:"status"`
	Stage     Stage     `json:"stage"`
	Filename  string    `json:"filename,omitempty"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := r.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	p := r.Progress
	p.Errors = errs
	return RunSnapshot{
		ID:        r.ID,
		Status:    r.Status,
		Stage:     r.Stage,
		Filename:  r.Filename,
		Progress:  p,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		expired := now.Sub(run.UpdatedAt) > s.ttl
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}
