package scenegraph

import (
	"github.com/shikhar5647/scene-graph-agent/internal/segment"
)

// Presence is the normalized mention state of an object.
type Presence string

const (
	PresencePresent      Presence = "present"
	PresenceAbsent       Presence = "absent"
	PresenceUncertain    Presence = "uncertain"
	PresenceNotMentioned Presence = "not_mentioned"
)

// Relation marks a finding as affirmed or negated.
type Relation string

const (
	RelationYes Relation = "yes"
	RelationNo  Relation = "no"
)

// Finding is one normalized attribute triple <category|relation|label>.
type Finding struct {
	Category string   `json:"category"`
	Relation Relation `json:"relation"`
	Label    string   `json:"label"`
}

// Attributes is the normalized attribute set for one object.
type Attributes struct {
	Presence   Presence  `json:"presence"`
	Normality  string    `json:"normality,omitempty"`
	Severity   string    `json:"severity,omitempty"`
	Laterality string    `json:"laterality,omitempty"`
	Temporal   string    `json:"temporal,omitempty"`
	Findings   []Finding `json:"findings,omitempty"`
}

// Provenance records where an entry's values came from. Sentences lists every
// contributing sentence index; WinnerSentence is the one whose scalar
// attributes prevailed (-1 when the object was never mentioned).
type Provenance struct {
	Sentences      []int    `json:"sentences"`
	Sections       []string `json:"sections"`
	WinnerSentence int      `json:"winner_sentence"`
	Confidence     float64  `json:"confidence"`
	Corrections    []string `json:"corrections,omitempty"`
}

// Entry is the merged result for one anatomical object.
type Entry struct {
	Object     string     `json:"object"`
	ObjectID   int        `json:"object_id"`
	Mentioned  bool       `json:"mentioned"`
	Attributes Attributes `json:"attributes"`
	Phrases    []string   `json:"phrases,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// Summary distinguishes partial results from complete ones.
type Summary struct {
	Sentences        int  `json:"sentences"`
	Candidates       int  `json:"candidates"`
	Enriched         int  `json:"enriched"`
	EnrichmentFailed int  `json:"enrichment_failed"`
	Verified         int  `json:"verified"`
	Corrected        int  `json:"corrected"`
	Discarded        int  `json:"discarded"`
	Complete         bool `json:"complete"`
}

// Graph is the terminal pipeline output: exactly one entry per taxonomy
// object. Map keys are sorted by encoding/json, so identical runs produce
// byte-identical documents.
type Graph struct {
	Objects map[string]*Entry `json:"objects"`
	Summary Summary           `json:"summary"`
}

// Contribution is one verified candidate offered to the aggregator.
type Contribution struct {
	Object        string
	SentenceIndex int
	Section       segment.Section
	Phrase        string
	Confidence    float64
	Corrections   []string
	Attrs         Attributes
}
