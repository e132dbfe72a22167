package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shikhar5647/scene-graph-agent/internal/config"
	"github.com/shikhar5647/scene-graph-agent/internal/enrich"
	"github.com/shikhar5647/scene-graph-agent/internal/llm"
	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
	"github.com/shikhar5647/scene-graph-agent/internal/verify"
)

// stubProvider scripts completions by matching prompt fragments, so tests
// control exactly what the model "said" for each sentence.
type stubProvider struct {
	mu    sync.Mutex
	calls int
	fn    func(prompt string) (string, error)
}

func (p *stubProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.fn(req.Prompt)
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// scripted returns a provider that answers by sentence fragment. Fragments
// must be mutually exclusive across the report's sentences; an unmatched
// prompt gets an unparseable reply so the affected test fails visibly.
func scripted(script map[string]string) *stubProvider {
	return &stubProvider{fn: func(prompt string) (string, error) {
		for frag, reply := range script {
			if strings.Contains(prompt, frag) {
				return reply, nil
			}
		}
		return "no scripted reply for this prompt", nil
	}}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(provider llm.Provider) *Runner {
	reg := taxonomy.Default()
	log := testLogger()
	enricher := enrich.NewClient(provider, reg, nil, 1, log)
	verifier := verify.NewVerifier(reg, verify.ModeHeuristic, nil, nil, 0, log)
	return NewRunner(reg, enricher, verifier, log, 4, 4)
}

func sampleReportScript() map[string]string {
	return map[string]string{
		"cardiac silhouette is normal": `{"bbox_name":"cardiac silhouette","presence":"present","normality":"normal"}`,
		"No cardiomegaly":              `{"bbox_name":"cardiac silhouette","presence":"present","attributes":["anatomicalfinding|no|cardiomegaly"]}`,
		"right mid and lower lung zones": `{"bbox_name":"lung zone","presence":"present","laterality":"right",` +
			`"attributes":["anatomicalfinding|yes|lung opacity"]}`,
		"No pleural effusion": `{"bbox_name":"costophrenic angle","presence":"absent",` +
			`"attributes":["anatomicalfinding|no|pleural effusion","anatomicalfinding|no|pneumothorax"]}`,
		"suspicious for infectious process": `{"bbox_name":"right lower lung zone","presence":"present","laterality":"right",` +
			`"attributes":["anatomicalfinding|yes|consolidation","nlp|yes|abnormal"]}`,
	}
}

func TestProcess_UnmentionedObjectsStillListed(t *testing.T) {
	provider := scripted(nil)
	runner := newTestRunner(provider)

	graph, err := runner.Process(context.Background(), "Patient tolerated the procedure well.")
	if err != nil {
		t.Fatal(err)
	}
	reg := taxonomy.Default()
	if len(graph.Objects) != reg.NumObjects() {
		t.Fatalf("expected %d entries, got %d", reg.NumObjects(), len(graph.Objects))
	}
	for name, e := range graph.Objects {
		if e.Mentioned {
			t.Errorf("object %q should not be mentioned", name)
		}
		if e.Attributes.Presence != scenegraph.PresenceNotMentioned {
			t.Errorf("object %q: presence = %q, want %q", name, e.Attributes.Presence, scenegraph.PresenceNotMentioned)
		}
		if e.Provenance.WinnerSentence != -1 {
			t.Errorf("object %q: winner sentence = %d, want -1", name, e.Provenance.WinnerSentence)
		}
	}
	if graph.Summary.Candidates != 0 {
		t.Errorf("expected 0 candidates, got %d", graph.Summary.Candidates)
	}
	if !graph.Summary.Complete {
		t.Error("run with no candidates should still be complete")
	}
	if provider.callCount() != 0 {
		t.Errorf("completion service called %d times for a report with no candidates", provider.callCount())
	}
}

func TestProcess_DeterministicOutput(t *testing.T) {
	report, err := os.ReadFile("testdata/sample_report.txt")
	if err != nil {
		t.Fatal(err)
	}
	provider := scripted(sampleReportScript())
	runner := newTestRunner(provider)

	first, err := runner.Process(context.Background(), string(report))
	if err != nil {
		t.Fatal(err)
	}
	second, err := runner.Process(context.Background(), string(report))
	if err != nil {
		t.Fatal(err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("identical input produced different JSON:\n%s\n%s", a, b)
	}
}

func TestProcess_ImpressionOverridesFindings(t *testing.T) {
	report := "Findings: Patchy opacity in the right lower lung.\n" +
		"Impression: No focal consolidation in the right lower lung."
	provider := scripted(map[string]string{
		"Patchy opacity":         `{"bbox_name":"right lower lung zone","presence":"present","attributes":["anatomicalfinding|yes|opacity"]}`,
		"No focal consolidation": `{"bbox_name":"right lower lung zone","presence":"absent","attributes":["anatomicalfinding|no|consolidation"]}`,
	})
	runner := newTestRunner(provider)

	graph, err := runner.Process(context.Background(), report)
	if err != nil {
		t.Fatal(err)
	}

	entry := graph.Objects["right lower lung zone"]
	if entry == nil || !entry.Mentioned {
		t.Fatal("expected a mentioned entry for right lower lung zone")
	}
	// Both contributions scored a clean 1.0; the impression must win the tie.
	if entry.Provenance.Confidence != 1.0 {
		t.Errorf("winner confidence = %v, want 1.0", entry.Provenance.Confidence)
	}
	if entry.Attributes.Presence != scenegraph.PresenceAbsent {
		t.Errorf("presence = %q, want %q (impression negation wins)", entry.Attributes.Presence, scenegraph.PresenceAbsent)
	}
	if entry.Provenance.WinnerSentence != 1 {
		t.Errorf("winner sentence = %d, want 1", entry.Provenance.WinnerSentence)
	}
	wantSections := []string{"findings", "impression"}
	if !reflect.DeepEqual(entry.Provenance.Sections, wantSections) {
		t.Errorf("sections = %v, want %v", entry.Provenance.Sections, wantSections)
	}
	wantFindings := []scenegraph.Finding{
		{Category: "anatomicalfinding", Relation: scenegraph.RelationNo, Label: "consolidation"},
		{Category: "anatomicalfinding", Relation: scenegraph.RelationYes, Label: "opacity"},
	}
	if !reflect.DeepEqual(entry.Attributes.Findings, wantFindings) {
		t.Errorf("findings = %v, want %v", entry.Attributes.Findings, wantFindings)
	}
}

func TestExecute_FailedCandidateContained(t *testing.T) {
	provider := &stubProvider{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "trachea") {
			return "", &llm.RetryableError{StatusCode: 503, Message: "upstream unavailable"}
		}
		return `{"bbox_name":"cardiac silhouette","presence":"present","normality":"normal"}`, nil
	}}
	runner := newTestRunner(provider)

	run := NewRun([]byte("Findings: The trachea is midline. The heart is normal."), "")
	runner.Execute(context.Background(), run)

	snap := run.Snapshot()
	if snap.Status != StatusPartialFailure {
		t.Fatalf("status = %q, want %q", snap.Status, StatusPartialFailure)
	}
	graph := run.Result()
	if graph == nil {
		t.Fatal("partial failure must still produce a scene graph")
	}
	if len(graph.Objects) != taxonomy.Default().NumObjects() {
		t.Errorf("expected full entry set, got %d", len(graph.Objects))
	}

	trachea := graph.Objects["trachea"]
	if trachea.Mentioned || trachea.Attributes.Presence != scenegraph.PresenceNotMentioned {
		t.Errorf("failed candidate's object should default to unmentioned, got %+v", trachea.Attributes)
	}
	cardiac := graph.Objects["cardiac silhouette"]
	if !cardiac.Mentioned || cardiac.Attributes.Presence != scenegraph.PresencePresent {
		t.Errorf("surviving candidate lost: %+v", cardiac.Attributes)
	}
	if cardiac.Attributes.Normality != "normal" {
		t.Errorf("normality = %q, want normal", cardiac.Attributes.Normality)
	}

	s := graph.Summary
	if s.EnrichmentFailed != 1 || s.Enriched != 1 {
		t.Errorf("enriched/failed = %d/%d, want 1/1", s.Enriched, s.EnrichmentFailed)
	}
	if s.Complete {
		t.Error("summary must mark the run incomplete")
	}
	if len(snap.Progress.Errors) == 0 || !strings.Contains(snap.Progress.Errors[0], "trachea") {
		t.Errorf("expected a recorded enrichment error naming the object, got %v", snap.Progress.Errors)
	}
}

func TestExecute_EmptyReportFails(t *testing.T) {
	provider := scripted(nil)
	runner := newTestRunner(provider)

	run := NewRun([]byte("   \n\t"), "")
	runner.Execute(context.Background(), run)

	snap := run.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", snap.Status, StatusFailed)
	}
	if snap.Stage != StageSegmenting {
		t.Errorf("stage = %q, want %q", snap.Stage, StageSegmenting)
	}
	if run.Result() != nil {
		t.Error("failed segmentation must not produce a graph")
	}
	if len(snap.Progress.Errors) == 0 || !strings.Contains(snap.Progress.Errors[0], "empty") {
		t.Errorf("expected an empty-report error, got %v", snap.Progress.Errors)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	provider := scripted(nil)
	runner := newTestRunner(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	graph, err := runner.Process(ctx, "The heart is normal.")
	if graph != nil {
		t.Error("cancelled run must not return a graph")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if provider.callCount() != 0 {
		t.Errorf("completion service called %d times after cancellation", provider.callCount())
	}
}

func TestExecute_SampleReport(t *testing.T) {
	report, err := os.ReadFile("testdata/sample_report.txt")
	if err != nil {
		t.Fatal(err)
	}
	provider := scripted(sampleReportScript())
	runner := newTestRunner(provider)

	run := NewRun(report, "")
	runner.Execute(context.Background(), run)

	if got := run.Snapshot().Status; got != StatusDone {
		t.Fatalf("status = %q, want %q (errors: %v)", got, StatusDone, run.Snapshot().Progress.Errors)
	}
	graph := run.Result()
	if graph == nil {
		t.Fatal("expected a scene graph")
	}
	if len(graph.Objects) != taxonomy.Default().NumObjects() {
		t.Fatalf("expected full entry set, got %d", len(graph.Objects))
	}

	s := graph.Summary
	if s.Sentences != 7 || s.Candidates != 7 {
		t.Errorf("sentences/candidates = %d/%d, want 7/7", s.Sentences, s.Candidates)
	}
	if s.Enriched != 7 || s.EnrichmentFailed != 0 {
		t.Errorf("enriched/failed = %d/%d, want 7/0", s.Enriched, s.EnrichmentFailed)
	}
	if s.Verified != 7 || s.Corrected != 1 || s.Discarded != 0 {
		t.Errorf("verified/corrected/discarded = %d/%d/%d, want 7/1/0", s.Verified, s.Corrected, s.Discarded)
	}
	if !s.Complete {
		t.Error("expected a complete run")
	}
	if provider.callCount() != 7 {
		t.Errorf("completion calls = %d, want 7", provider.callCount())
	}

	cardiac := graph.Objects["cardiac silhouette"]
	if cardiac.Attributes.Presence != scenegraph.PresencePresent || cardiac.Attributes.Normality != "normal" {
		t.Errorf("cardiac = %+v, want present and normal", cardiac.Attributes)
	}
	wantCardiacFindings := []scenegraph.Finding{
		{Category: "anatomicalfinding", Relation: scenegraph.RelationNo, Label: "cardiomegaly"},
	}
	if !reflect.DeepEqual(cardiac.Attributes.Findings, wantCardiacFindings) {
		t.Errorf("cardiac findings = %v, want %v", cardiac.Attributes.Findings, wantCardiacFindings)
	}
	if cardiac.Provenance.WinnerSentence != 2 {
		t.Errorf("cardiac winner sentence = %d, want 2 (clean affirmation outranks corrected negation)", cardiac.Provenance.WinnerSentence)
	}

	mid := graph.Objects["right mid lung zone"]
	if mid.Attributes.Presence != scenegraph.PresencePresent {
		t.Errorf("right mid zone presence = %q, want present", mid.Attributes.Presence)
	}
	if len(mid.Attributes.Findings) != 1 || mid.Attributes.Findings[0].Label != "lung opacity" {
		t.Errorf("right mid zone findings = %v, want lung opacity", mid.Attributes.Findings)
	}

	lower := graph.Objects["right lower lung zone"]
	if lower.Attributes.Presence != scenegraph.PresencePresent || lower.Attributes.Laterality != "right" {
		t.Errorf("right lower zone = %+v, want present on the right", lower.Attributes)
	}
	if lower.Provenance.WinnerSentence != 6 {
		t.Errorf("right lower zone winner = %d, want the impression sentence 6", lower.Provenance.WinnerSentence)
	}
	wantSections := []string{"findings", "impression"}
	if !reflect.DeepEqual(lower.Provenance.Sections, wantSections) {
		t.Errorf("right lower zone sections = %v, want %v", lower.Provenance.Sections, wantSections)
	}
	wantLowerFindings := []scenegraph.Finding{
		{Category: "nlp", Relation: scenegraph.RelationYes, Label: "abnormal"},
		{Category: "anatomicalfinding", Relation: scenegraph.RelationYes, Label: "consolidation"},
		{Category: "anatomicalfinding", Relation: scenegraph.RelationYes, Label: "lung opacity"},
	}
	if !reflect.DeepEqual(lower.Attributes.Findings, wantLowerFindings) {
		t.Errorf("right lower zone findings = %v, want %v", lower.Attributes.Findings, wantLowerFindings)
	}

	wantPleural := []scenegraph.Finding{
		{Category: "anatomicalfinding", Relation: scenegraph.RelationNo, Label: "pleural effusion"},
		{Category: "anatomicalfinding", Relation: scenegraph.RelationNo, Label: "pneumothorax"},
	}
	for _, side := range []string{"left costophrenic angle", "right costophrenic angle"} {
		angle := graph.Objects[side]
		if angle.Attributes.Presence != scenegraph.PresenceAbsent {
			t.Errorf("%s presence = %q, want absent", side, angle.Attributes.Presence)
		}
		if !reflect.DeepEqual(angle.Attributes.Findings, wantPleural) {
			t.Errorf("%s findings = %v, want %v", side, angle.Attributes.Findings, wantPleural)
		}
	}
}

func TestExecute_SkipsCancelledRun(t *testing.T) {
	provider := scripted(nil)
	runner := newTestRunner(provider)

	run := NewRun([]byte("The heart is normal."), "")
	run.Cancel()
	runner.Execute(context.Background(), run)

	snap := run.Snapshot()
	if snap.Status != StatusCancelled {
		t.Errorf("status = %q, want %q", snap.Status, StatusCancelled)
	}
	if snap.Stage != StageQueued {
		t.Errorf("stage = %q, want %q (never started)", snap.Stage, StageQueued)
	}
	if provider.callCount() != 0 {
		t.Errorf("completion service called %d times for a cancelled run", provider.callCount())
	}
}

func testConfig() config.Config {
	return config.Config{
		WorkerCount:  1,
		MaxQueueSize: 4,
		RunTTL:       time.Hour,
	}
}

func waitTerminal(t *testing.T, run *Run) RunSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := run.Snapshot()
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s never reached a terminal status", run.ID)
	return RunSnapshot{}
}

func TestOrchestrator_ProcessesSubmittedRun(t *testing.T) {
	provider := scripted(map[string]string{
		"heart is normal": `{"bbox_name":"cardiac silhouette","presence":"present","normality":"normal"}`,
	})
	o := NewOrchestrator(testConfig(), newTestRunner(provider), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	run := NewRun([]byte("The heart is normal."), "")
	if err := o.Submit(run); err != nil {
		t.Fatal(err)
	}
	if got := o.GetRun(run.ID); got != run {
		t.Error("submitted run not retrievable by ID")
	}

	snap := waitTerminal(t, run)
	if snap.Status != StatusDone {
		t.Fatalf("status = %q, want %q (errors: %v)", snap.Status, StatusDone, snap.Progress.Errors)
	}
	graph := run.Result()
	if graph == nil {
		t.Fatal("expected a scene graph")
	}
	if got := graph.Objects["cardiac silhouette"].Attributes.Presence; got != scenegraph.PresencePresent {
		t.Errorf("cardiac presence = %q, want present", got)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, newTestRunner(scripted(nil)), testLogger())
	// Not started: nothing drains the queue.

	first := NewRun([]byte("a"), "")
	if err := o.Submit(first); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewRun([]byte("b"), "")
	err := o.Submit(second)
	if err == nil {
		t.Fatal("expected an error when the queue is full")
	}
	snap := second.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("rejected run status = %q, want %q", snap.Status, StatusFailed)
	}
	if len(snap.Progress.Errors) == 0 || !strings.Contains(snap.Progress.Errors[0], "queue full") {
		t.Errorf("expected a queue full error, got %v", snap.Progress.Errors)
	}
	// Rejected runs stay queryable so clients can see why they failed.
	if o.GetRun(second.ID) != second {
		t.Error("rejected run not retrievable by ID")
	}
}

// blockingProvider parks every completion call until its context is
// cancelled, to exercise mid-run cancellation.
type blockingProvider struct {
	started chan struct{}
	once    sync.Once
}

func (p *blockingProvider) Complete(ctx context.Context, _ llm.Request) (string, error) {
	p.once.Do(func() { close(p.started) })
	<-ctx.Done()
	return "", ctx.Err()
}

func (p *blockingProvider) Name() string { return "blocking" }

func TestOrchestrator_CancelRunningRun(t *testing.T) {
	provider := &blockingProvider{started: make(chan struct{})}
	o := NewOrchestrator(testConfig(), newTestRunner(provider), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	run := NewRun([]byte("The heart is normal."), "")
	if err := o.Submit(run); err != nil {
		t.Fatal(err)
	}

	select {
	case <-provider.started:
	case <-time.After(5 * time.Second):
		t.Fatal("run never reached the completion call")
	}
	run.Cancel()

	snap := waitTerminal(t, run)
	if snap.Status != StatusCancelled {
		t.Fatalf("status = %q, want %q", snap.Status, StatusCancelled)
	}
	if run.Result() != nil {
		t.Error("cancelled run must not keep partial results")
	}
}
