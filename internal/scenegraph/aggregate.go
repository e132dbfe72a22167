package scenegraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

// ErrIntegrity indicates a taxonomy/graph mismatch. It should never occur
// for contributions produced by the extractor; it halts the run.
var ErrIntegrity = errors.New("scenegraph: graph does not match taxonomy")

// Aggregate merges verified contributions into one graph keyed by the full
// taxonomy. Every object gets an entry, defaulting to not_mentioned.
//
// When several contributions target the same object the winner is chosen by
// confidence, then section priority (impression over findings), then the
// later sentence. Scalar attributes follow the winner; finding triples union
// with the winner's relation prevailing on label conflicts; phrases and
// provenance union over all contributions.
func Aggregate(reg *taxonomy.Registry, contribs []Contribution, summary Summary) (*Graph, error) {
	g := &Graph{
		Objects: make(map[string]*Entry, reg.NumObjects()),
		Summary: summary,
	}
	for _, o := range reg.Objects() {
		g.Objects[o.Name] = &Entry{
			Object:    o.Name,
			ObjectID:  o.ID,
			Mentioned: false,
			Attributes: Attributes{
				Presence: PresenceNotMentioned,
			},
			Provenance: Provenance{
				Sentences:      []int{},
				Sections:       []string{},
				WinnerSentence: -1,
			},
		}
	}

	byObject := make(map[string][]Contribution)
	for _, c := range contribs {
		if _, ok := reg.Lookup(c.Object); !ok {
			return nil, fmt.Errorf("%w: contribution for unknown object %q", ErrIntegrity, c.Object)
		}
		byObject[c.Object] = append(byObject[c.Object], c)
	}

	for object, list := range byObject {
		mergeEntry(g.Objects[object], list)
	}

	if len(g.Objects) != reg.NumObjects() {
		return nil, fmt.Errorf("%w: %d entries for %d objects", ErrIntegrity, len(g.Objects), reg.NumObjects())
	}
	for _, o := range reg.Objects() {
		if g.Objects[o.Name] == nil {
			return nil, fmt.Errorf("%w: missing entry for %q", ErrIntegrity, o.Name)
		}
	}
	return g, nil
}

func mergeEntry(e *Entry, list []Contribution) {
	// Winner order: confidence, then section priority, then later sentence.
	// Sentence index is unique per object, so the order is total and the
	// merge deterministic.
	sort.Slice(list, func(i, j int) bool {
		if list[i].Confidence != list[j].Confidence {
			return list[i].Confidence > list[j].Confidence
		}
		pi, pj := list[i].Section.Priority(), list[j].Section.Priority()
		if pi != pj {
			return pi > pj
		}
		return list[i].SentenceIndex > list[j].SentenceIndex
	})

	winner := list[0]
	e.Mentioned = true
	e.Attributes = Attributes{
		Presence:   winner.Attrs.Presence,
		Normality:  winner.Attrs.Normality,
		Severity:   winner.Attrs.Severity,
		Laterality: winner.Attrs.Laterality,
		Temporal:   winner.Attrs.Temporal,
	}
	e.Provenance.WinnerSentence = winner.SentenceIndex
	e.Provenance.Confidence = winner.Confidence

	// Findings union in winner order: a label set by a stronger contribution
	// is never overridden by a weaker one.
	seen := make(map[string]bool)
	for _, c := range list {
		for _, f := range c.Attrs.Findings {
			if seen[f.Label] {
				continue
			}
			seen[f.Label] = true
			e.Attributes.Findings = append(e.Attributes.Findings, f)
		}
	}
	sort.Slice(e.Attributes.Findings, func(i, j int) bool {
		return e.Attributes.Findings[i].Label < e.Attributes.Findings[j].Label
	})

	// Phrases and provenance union in sentence order.
	bySentence := append([]Contribution(nil), list...)
	sort.Slice(bySentence, func(i, j int) bool {
		return bySentence[i].SentenceIndex < bySentence[j].SentenceIndex
	})
	seenPhrase := make(map[string]bool)
	seenSection := make(map[string]bool)
	for _, c := range bySentence {
		e.Provenance.Sentences = append(e.Provenance.Sentences, c.SentenceIndex)
		if sec := string(c.Section); !seenSection[sec] {
			seenSection[sec] = true
			e.Provenance.Sections = append(e.Provenance.Sections, sec)
		}
		if c.Phrase != "" && !seenPhrase[c.Phrase] {
			seenPhrase[c.Phrase] = true
			e.Phrases = append(e.Phrases, c.Phrase)
		}
		e.Provenance.Corrections = append(e.Provenance.Corrections, c.Corrections...)
	}
}
