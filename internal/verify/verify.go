package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shikhar5647/scene-graph-agent/internal/enrich"
	"github.com/shikhar5647/scene-graph-agent/internal/llm"
	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
	"github.com/shikhar5647/scene-graph-agent/internal/segment"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

// Mode selects how enrichments are cross-checked.
type Mode string

const (
	// ModeHeuristic re-checks attributes against the sentence with the
	// deterministic negation/hedge analysis only.
	ModeHeuristic Mode = "heuristic"
	// ModeLLM asks the completion service to revise the entry first, then
	// applies the same deterministic checks. Any service failure falls back
	// to ModeHeuristic behavior for that candidate.
	ModeLLM Mode = "llm"
)

// Action is the verification decision for one candidate.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionCorrect Action = "correct"
	ActionDiscard Action = "discard"
)

// Verdict is the outcome for one enriched candidate. Attrs is the possibly
// corrected attribute set to aggregate; discarded candidates never reach the
// aggregator.
type Verdict struct {
	Action      Action
	Confidence  float64
	Corrections []string
	Attrs       scenegraph.Attributes
}

// ConfidenceWeights sets how much each deterministic check contributes to
// the confidence score. Weights sum to 1.
type ConfidenceWeights struct {
	PhraseSupport       float64
	PresenceAgreement   float64
	FindingSupport      float64
	LateralityAgreement float64
}

var DefaultWeights = ConfidenceWeights{
	PhraseSupport:       0.2,
	PresenceAgreement:   0.4,
	FindingSupport:      0.3,
	LateralityAgreement: 0.1,
}

const (
	// DefaultThreshold discards candidates that fail more than one check.
	DefaultThreshold  = 0.35
	correctionPenalty = 0.15
	verifyMaxTokens   = 512
)

const defaultVerifyPromptText = `You are validating one entry of a Chest ImaGenome style scene graph extracted from a radiology report sentence.

Sentence: "{{.Sentence}}"
Section: {{.Section}}
Target object: {{.Object}}
Current entry JSON:
{{.AttrsJSON}}

Check the entry against the sentence only. Fix a wrong "presence", flip the relation of attributes the sentence negates, normalize labels (short, lowercase), and remove attributes the sentence does not support. Output only the corrected JSON in the same shape.`

var defaultVerifyTemplate = func() *enrich.Template {
	t, err := enrich.ParseTemplate(defaultVerifyPromptText)
	if err != nil {
		panic(err)
	}
	return t
}()

// verifyData is the substitution context for the verification prompt.
type verifyData struct {
	Object    string
	Sentence  string
	Section   string
	AttrsJSON string
}

// Verifier cross-checks enriched candidates against their source sentence.
// Verification is idempotent: identical inputs always produce the same
// verdict.
type Verifier struct {
	reg       *taxonomy.Registry
	mode      Mode
	provider  llm.Provider
	tmpl      *enrich.Template
	weights   ConfidenceWeights
	threshold float64
	log       *slog.Logger
}

func NewVerifier(reg *taxonomy.Registry, mode Mode, provider llm.Provider, tmpl *enrich.Template, threshold float64, log *slog.Logger) *Verifier {
	if mode == "" {
		mode = ModeHeuristic
	}
	if tmpl == nil {
		tmpl = defaultVerifyTemplate
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Verifier{
		reg:       reg,
		mode:      mode,
		provider:  provider,
		tmpl:      tmpl,
		weights:   DefaultWeights,
		threshold: threshold,
		log:       log,
	}
}

// Verify decides what happens to one enriched candidate: accept unchanged,
// correct specific values, or discard below the acceptance threshold.
func (v *Verifier) Verify(ctx context.Context, ec enrich.EnrichedCandidate, sent segment.Sentence) Verdict {
	if ec.Failed {
		return Verdict{Action: ActionDiscard}
	}

	attrs := cloneAttrs(ec.Attrs)
	var corrections []string

	if v.mode == ModeLLM && v.provider != nil {
		if revised, ok := v.revise(ctx, ec, sent); ok {
			corrections = append(corrections, diffCorrections(attrs, revised)...)
			attrs = revised
		}
	}

	conf, more := v.check(&attrs, ec.Phrase, sent)
	corrections = append(corrections, more...)

	if conf < v.threshold {
		return Verdict{Action: ActionDiscard, Confidence: conf, Corrections: corrections}
	}
	action := ActionAccept
	if len(corrections) > 0 {
		action = ActionCorrect
	}
	return Verdict{Action: action, Confidence: conf, Corrections: corrections, Attrs: attrs}
}

// check scores the attribute set against the sentence and corrects values
// the deterministic analysis contradicts. Corrections cost a fixed penalty
// so corrected candidates rank below clean ones during aggregation.
func (v *Verifier) check(attrs *scenegraph.Attributes, phrase string, sent segment.Sentence) (float64, []string) {
	a := analyze(sent.Text)
	conf := 0.0
	var corrections []string

	if a.containsPhrase(phrase) {
		conf += v.weights.PhraseSupport
	}

	want := a.presenceOf(phrase)
	if attrs.Presence == want {
		conf += v.weights.PresenceAgreement
	} else {
		corrections = append(corrections, fmt.Sprintf("presence: %s -> %s", attrs.Presence, want))
		attrs.Presence = want
		conf -= correctionPenalty
	}

	if len(attrs.Findings) == 0 {
		conf += v.weights.FindingSupport
	} else {
		support := 0.0
		for i := range attrs.Findings {
			f := &attrs.Findings[i]
			if !a.containsPhrase(f.Label) {
				// Normalized label with no lexical anchor in the sentence:
				// not verifiable either way.
				support += 0.5
				continue
			}
			wantRel := scenegraph.RelationYes
			if a.phraseNegated(f.Label) {
				wantRel = scenegraph.RelationNo
			}
			if f.Relation != wantRel {
				corrections = append(corrections, fmt.Sprintf("%s: relation %s -> %s", f.Label, f.Relation, wantRel))
				f.Relation = wantRel
				conf -= correctionPenalty
			}
			support += 1.0
		}
		conf += v.weights.FindingSupport * support / float64(len(attrs.Findings))
	}

	if lat := a.laterality(); lat == "" || attrs.Laterality == "" || attrs.Laterality == lat {
		conf += v.weights.LateralityAgreement
	} else {
		corrections = append(corrections, fmt.Sprintf("laterality: %s -> %s", attrs.Laterality, lat))
		attrs.Laterality = lat
		conf -= correctionPenalty
	}

	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf, corrections
}

// revise asks the completion service for a corrected entry. One lightweight
// call, no retries: on any failure the heuristic checks carry the candidate.
func (v *Verifier) revise(ctx context.Context, ec enrich.EnrichedCandidate, sent segment.Sentence) (scenegraph.Attributes, bool) {
	prompt, err := v.tmpl.Render(verifyData{
		Object:    ec.Object,
		Sentence:  sent.Text,
		Section:   string(sent.Section),
		AttrsJSON: attrsPayload(ec.Object, ec.Attrs),
	})
	if err != nil {
		v.log.Warn("verify prompt render failed", "object", ec.Object, "error", err)
		return scenegraph.Attributes{}, false
	}
	reply, err := v.provider.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: verifyMaxTokens, ForceJSON: true})
	if err != nil {
		v.log.Warn("verification call failed, using heuristic checks only",
			"object", ec.Object, "sentence", ec.SentenceIndex, "error", err)
		return scenegraph.Attributes{}, false
	}
	attrs, err := enrich.ParseResponse(v.reg, reply)
	if err != nil {
		v.log.Warn("unparseable verification reply, using heuristic checks only",
			"object", ec.Object, "sentence", ec.SentenceIndex, "error", err)
		return scenegraph.Attributes{}, false
	}
	return attrs, true
}

// attrsPayload renders attributes in the wire shape the prompts describe,
// with findings as "category|relation|label" strings.
func attrsPayload(object string, a scenegraph.Attributes) string {
	m := map[string]any{
		"bbox_name": object,
		"presence":  a.Presence,
	}
	if a.Normality != "" {
		m["normality"] = a.Normality
	}
	if a.Severity != "" {
		m["severity"] = a.Severity
	}
	if a.Laterality != "" {
		m["laterality"] = a.Laterality
	}
	if a.Temporal != "" {
		m["temporal"] = a.Temporal
	}
	if len(a.Findings) > 0 {
		attrs := make([]string, len(a.Findings))
		for i, f := range a.Findings {
			attrs[i] = fmt.Sprintf("%s|%s|%s", f.Category, f.Relation, f.Label)
		}
		m["attributes"] = attrs
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// diffCorrections records what a model revision changed, in stable order.
func diffCorrections(old, revised scenegraph.Attributes) []string {
	var out []string
	if old.Presence != revised.Presence {
		out = append(out, fmt.Sprintf("presence: %s -> %s (revised)", old.Presence, revised.Presence))
	}
	for _, d := range []struct{ name, from, to string }{
		{"normality", old.Normality, revised.Normality},
		{"severity", old.Severity, revised.Severity},
		{"laterality", old.Laterality, revised.Laterality},
		{"temporal", old.Temporal, revised.Temporal},
	} {
		if d.from != d.to {
			out = append(out, fmt.Sprintf("%s: %q -> %q (revised)", d.name, d.from, d.to))
		}
	}
	oldSet := make(map[scenegraph.Finding]bool, len(old.Findings))
	for _, f := range old.Findings {
		oldSet[f] = true
	}
	newSet := make(map[scenegraph.Finding]bool, len(revised.Findings))
	for _, f := range revised.Findings {
		newSet[f] = true
	}
	for _, f := range old.Findings {
		if !newSet[f] {
			out = append(out, fmt.Sprintf("dropped %s|%s|%s (revised)", f.Category, f.Relation, f.Label))
		}
	}
	for _, f := range revised.Findings {
		if !oldSet[f] {
			out = append(out, fmt.Sprintf("added %s|%s|%s (revised)", f.Category, f.Relation, f.Label))
		}
	}
	return out
}

func cloneAttrs(a scenegraph.Attributes) scenegraph.Attributes {
	out := a
	out.Findings = append([]scenegraph.Finding(nil), a.Findings...)
	return out
}
