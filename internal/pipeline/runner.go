package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shikhar5647/scene-graph-agent/internal/enrich"
	"github.com/shikhar5647/scene-graph-agent/internal/extract"
	"github.com/shikhar5647/scene-graph-agent/internal/parser"
	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
	"github.com/shikhar5647/scene-graph-agent/internal/segment"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
	"github.com/shikhar5647/scene-graph-agent/internal/verify"
)

// Runner executes the extraction pipeline for a single run.
type Runner struct {
	reg       *taxonomy.Registry
	extractor *extract.Extractor
	enricher  *enrich.Client
	verifier  *verify.Verifier
	log       *slog.Logger

	maxConcurrentEnrich int
	maxConcurrentVerify int
}

func NewRunner(reg *taxonomy.Registry, enricher *enrich.Client, verifier *verify.Verifier, log *slog.Logger, maxEnrich, maxVerify int) *Runner {
	if maxEnrich <= 0 {
		maxEnrich = 1
	}
	if maxVerify <= 0 {
		maxVerify = 1
	}
	return &Runner{
		reg:                 reg,
		extractor:           extract.NewExtractor(reg),
		enricher:            enricher,
		verifier:            verifier,
		log:                 log,
		maxConcurrentEnrich: maxEnrich,
		maxConcurrentVerify: maxVerify,
	}
}

// Execute runs the full extraction pipeline for a run. The run always ends
// in a terminal status; a scene graph is attached unless segmentation or
// aggregation failed outright.
func (r *Runner) Execute(ctx context.Context, run *Run) {
	if run.Snapshot().Status.Terminal() {
		return
	}
	log := r.log.With("run_id", run.ID)

	// Phase 1: Segment
	run.SetStage(StageSegmenting)
	input, filename := run.Input()
	text := string(input)
	if filename != "" {
		p, err := parser.ForFile(filename)
		if err != nil {
			log.Error("unsupported format", "error", err)
			run.AddError(err.Error())
			run.Finish(StatusFailed)
			return
		}
		text, err = p.Parse(bytes.NewReader(input), filename)
		if err != nil {
			log.Error("parse failed", "error", err)
			run.AddError(fmt.Sprintf("parse: %s", err))
			run.Finish(StatusFailed)
			return
		}
	}

	sentences, err := segment.Split(text)
	if err != nil {
		log.Error("segmentation failed", "error", err)
		run.AddError(err.Error())
		run.Finish(StatusFailed)
		return
	}

	// Phase 2: Extract candidates
	run.SetStage(StageExtracting)
	candidates := r.extractor.FromSentences(sentences)
	run.SetCounts(len(sentences), len(candidates))
	log.Info("extracted candidates", "sentences", len(sentences), "candidates", len(candidates))

	if ctx.Err() != nil {
		run.Finish(StatusCancelled)
		return
	}

	// Phase 3: Enrich candidates with bounded concurrency.
	run.SetStage(StageEnriching)
	type enrichResult struct {
		cand enrich.EnrichedCandidate
		err  error
		idx  int
	}
	results := make(chan enrichResult, len(candidates))
	sem := make(chan struct{}, r.maxConcurrentEnrich)

	for i, cand := range candidates {
		sem <- struct{}{}
		go func(i int, cand extract.Candidate) {
			defer func() { <-sem }()
			ec, err := r.enricher.Enrich(ctx, cand, sentences[cand.SentenceIndex])
			results <- enrichResult{cand: ec, err: err, idx: i}
		}(i, cand)
	}

	enriched := make([]enrich.EnrichedCandidate, len(candidates))
	okCount, failCount := 0, 0
	for range candidates {
		res := <-results
		enriched[res.idx] = res.cand
		if res.cand.Failed {
			failCount++
			if res.err != nil {
				log.Error("enrichment failed", "object", res.cand.Object, "sentence", res.cand.SentenceIndex, "error", res.err)
				run.AddError(fmt.Sprintf("enrich %s (sentence %d): %s", res.cand.Object, res.cand.SentenceIndex, res.err))
			}
			continue
		}
		okCount++
	}
	run.AddEnriched(okCount, failCount)
	log.Info("enrichment complete", "enriched", okCount, "failed", failCount)

	if ctx.Err() != nil {
		run.Finish(StatusCancelled)
		return
	}

	// Phase 4: Verify enriched candidates with bounded concurrency.
	run.SetStage(StageVerifying)
	type verifyResult struct {
		verdict verify.Verdict
		idx     int
	}
	verifyResults := make(chan verifyResult, len(enriched))
	verifySem := make(chan struct{}, r.maxConcurrentVerify)

	for i, ec := range enriched {
		verifySem <- struct{}{}
		go func(i int, ec enrich.EnrichedCandidate) {
			defer func() { <-verifySem }()
			verdict := r.verifier.Verify(ctx, ec, sentences[ec.SentenceIndex])
			verifyResults <- verifyResult{verdict: verdict, idx: i}
		}(i, ec)
	}

	verdicts := make([]verify.Verdict, len(enriched))
	for range enriched {
		res := <-verifyResults
		verdicts[res.idx] = res.verdict
	}

	// Contributions are assembled in candidate order so downstream output
	// does not depend on goroutine scheduling.
	var contribs []scenegraph.Contribution
	accepted, corrected, discarded := 0, 0, 0
	for i, ec := range enriched {
		v := verdicts[i]
		switch v.Action {
		case verify.ActionDiscard:
			if !ec.Failed {
				discarded++
			}
			continue
		case verify.ActionCorrect:
			corrected++
		default:
			accepted++
		}
		contribs = append(contribs, scenegraph.Contribution{
			Object:        ec.Object,
			SentenceIndex: ec.SentenceIndex,
			Section:       sentences[ec.SentenceIndex].Section,
			Phrase:        ec.Phrase,
			Confidence:    v.Confidence,
			Corrections:   v.Corrections,
			Attrs:         v.Attrs,
		})
	}
	run.AddVerified(accepted, corrected, discarded)
	log.Info("verification complete", "accepted", accepted, "corrected", corrected, "discarded", discarded)

	if ctx.Err() != nil {
		run.Finish(StatusCancelled)
		return
	}

	// Phase 5: Aggregate into the scene graph.
	run.SetStage(StageAggregating)
	snap := run.Snapshot()
	summary := scenegraph.Summary{
		Sentences:        snap.Progress.Sentences,
		Candidates:       snap.Progress.Candidates,
		Enriched:         snap.Progress.Enriched,
		EnrichmentFailed: snap.Progress.EnrichmentFailed,
		Verified:         snap.Progress.Verified,
		Corrected:        snap.Progress.Corrected,
		Discarded:        snap.Progress.Discarded,
		Complete:         snap.Progress.EnrichmentFailed == 0,
	}
	graph, err := scenegraph.Aggregate(r.reg, contribs, summary)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		run.AddError(err.Error())
		run.Finish(StatusFailed)
		return
	}
	run.SetResult(graph)

	if failCount > 0 {
		run.Finish(StatusPartialFailure)
	} else {
		run.Finish(StatusDone)
	}
	log.Info("run complete", "status", run.Snapshot().Status)
}

// Process runs the pipeline synchronously for a plain text report and
// returns the resulting scene graph. It is the single-call path used by
// the synchronous API and the CLI.
func (r *Runner) Process(ctx context.Context, report string) (*scenegraph.Graph, error) {
	run := NewRun([]byte(report), "")
	r.Execute(ctx, run)
	snap := run.Snapshot()
	switch snap.Status {
	case StatusDone, StatusPartialFailure:
		return run.Result(), nil
	case StatusCancelled:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}
	if len(snap.Progress.Errors) > 0 {
		return nil, fmt.Errorf("pipeline: %s", snap.Progress.Errors[0])
	}
	return nil, fmt.Errorf("pipeline: run ended in status %s", snap.Status)
}
