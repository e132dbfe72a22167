package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shikhar5647/scene-graph-agent/internal/segment"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

// Candidate is an unverified hypothesis that a sentence refers to an
// anatomical object. Phrase is the matched span from the sentence.
type Candidate struct {
	SentenceIndex int    `json:"sentence_index"`
	Object        string `json:"object"`
	Phrase        string `json:"phrase"`
}

// Extractor proposes candidates by matching sentences against the taxonomy
// alias sets. Matching is deterministic and entirely offline.
type Extractor struct {
	reg     *taxonomy.Registry
	aliases []aliasEntry
}

type aliasEntry struct {
	object string
	alias  string
}

// NewExtractor precompiles the alias table, longest alias first so the most
// specific phrase wins when several aliases overlap.
func NewExtractor(reg *taxonomy.Registry) *Extractor {
	e := &Extractor{reg: reg}
	for _, o := range reg.Objects() {
		for _, a := range reg.Aliases(o.Name) {
			e.aliases = append(e.aliases, aliasEntry{object: o.Name, alias: a})
		}
	}
	sort.Slice(e.aliases, func(i, j int) bool {
		if len(e.aliases[i].alias) != len(e.aliases[j].alias) {
			return len(e.aliases[i].alias) > len(e.aliases[j].alias)
		}
		return e.aliases[i].alias < e.aliases[j].alias
	})
	return e
}

// Coordinated lung-zone phrases: "right mid and lower lung zones",
// "bilateral lower lung zones", "lower lung fields".
var zoneCoordRe = regexp.MustCompile(`(?:\b(right|left|bilateral|both)\s+)?((?:(?:upper|mid|middle|lower)(?:\s*,\s*(?:and\s+)?|\s+and\s+|\s+))+)lung\s+(?:zones?|fields?)`)

var zoneWordRe = regexp.MustCompile(`upper|mid|middle|lower`)

// Plural anatomy that always expands to both sides.
var pluralForms = []struct {
	re      *regexp.Regexp
	objects []string
}{
	{regexp.MustCompile(`\b(?:both\s+|bilateral\s+)?lungs\b`), []string{"left lung", "right lung"}},
	{regexp.MustCompile(`\blung\s+bases\b|\bbibasilar\b|\bbibasal\b`), []string{"left lower lung zone", "right lower lung zone"}},
	{regexp.MustCompile(`\bcostophrenic\s+(?:angles|sulci)\b`), []string{"left costophrenic angle", "right costophrenic angle"}},
	{regexp.MustCompile(`\bhemidiaphragms\b|\bdiaphragms\b`), []string{"left hemidiaphragm", "right hemidiaphragm"}},
	{regexp.MustCompile(`\bclavicles\b`), []string{"left clavicle", "right clavicle"}},
	{regexp.MustCompile(`\b(?:lung\s+)?apices\b`), []string{"left apical zone", "right apical zone"}},
	{regexp.MustCompile(`\bhila\b`), []string{"left hilar structures", "right hilar structures"}},
}

// Unsided singular anatomy ("the diaphragm", "hilar enlargement"). These are
// side-resolved from the sentence and skipped entirely when an explicit
// sided alias already matched, so "right hemidiaphragm" never drags in the
// left one.
var unsidedForms = []struct {
	re   *regexp.Regexp
	pair [2]string // left, right
}{
	{regexp.MustCompile(`\bdiaphragm\b`), [2]string{"left hemidiaphragm", "right hemidiaphragm"}},
	{regexp.MustCompile(`\bhilar\b|\bhilum\b`), [2]string{"left hilar structures", "right hilar structures"}},
}

// Pleural-space findings have no standalone taxonomy object; they attach to
// the costophrenic angles, side-resolved from the sentence.
var pleuralRe = regexp.MustCompile(`\bpleural\s+effusions?\b|\bpneumothorax\b|\bpneumothoraces\b|\beffusions?\b|\bpleural\b`)

// FromSentence returns the candidates for one sentence, ordered by taxonomy
// ID. A sentence with no anatomical reference yields nil.
func (e *Extractor) FromSentence(s segment.Sentence) []Candidate {
	lower := strings.ToLower(s.Text)
	hits := make(map[string]string)

	// Pass 1: direct alias matches.
	for _, entry := range e.aliases {
		if containsWord(lower, entry.alias) {
			record(hits, entry.object, entry.alias)
		}
	}

	// Pass 2: coordinated zone phrases.
	for _, m := range zoneCoordRe.FindAllStringSubmatch(lower, -1) {
		phrase := strings.TrimSpace(m[0])
		for _, side := range sidesFor(m[1]) {
			for _, zone := range zoneWordRe.FindAllString(m[2], -1) {
				if zone == "middle" {
					zone = "mid"
				}
				record(hits, side+" "+zone+" lung zone", phrase)
			}
		}
	}

	// Pass 3: paired anatomy.
	for _, pf := range pluralForms {
		if m := pf.re.FindString(lower); m != "" {
			for _, obj := range pf.objects {
				record(hits, obj, strings.TrimSpace(m))
			}
		}
	}
	for _, uf := range unsidedForms {
		if _, l := hits[uf.pair[0]]; l {
			continue
		}
		if _, r := hits[uf.pair[1]]; r {
			continue
		}
		if m := uf.re.FindString(lower); m != "" {
			for _, side := range sidesFor(sideWord(lower)) {
				if side == "left" {
					record(hits, uf.pair[0], strings.TrimSpace(m))
				} else {
					record(hits, uf.pair[1], strings.TrimSpace(m))
				}
			}
		}
	}

	// Pass 4: pleural findings route to the costophrenic angles unless the
	// sentence already named one.
	if _, left := hits["left costophrenic angle"]; !left {
		if _, right := hits["right costophrenic angle"]; !right {
			if m := pleuralRe.FindString(lower); m != "" {
				for _, side := range sidesFor(sideWord(lower)) {
					record(hits, side+" costophrenic angle", strings.TrimSpace(m))
				}
			}
		}
	}

	if len(hits) == 0 {
		return nil
	}

	out := make([]Candidate, 0, len(hits))
	for obj, phrase := range hits {
		if _, ok := e.reg.Lookup(obj); !ok {
			continue
		}
		out = append(out, Candidate{SentenceIndex: s.Index, Object: obj, Phrase: phrase})
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := e.reg.Lookup(out[i].Object)
		b, _ := e.reg.Lookup(out[j].Object)
		return a.ID < b.ID
	})
	return out
}

// FromSentences extracts candidates for every sentence in order.
func (e *Extractor) FromSentences(sentences []segment.Sentence) []Candidate {
	var out []Candidate
	for _, s := range sentences {
		out = append(out, e.FromSentence(s)...)
	}
	return out
}

// record keeps the longest matched phrase per object.
func record(hits map[string]string, object, phrase string) {
	if cur, ok := hits[object]; ok && len(cur) >= len(phrase) {
		return
	}
	hits[object] = phrase
}

func sidesFor(side string) []string {
	switch side {
	case "left":
		return []string{"left"}
	case "right":
		return []string{"right"}
	default:
		return []string{"left", "right"}
	}
}

// sideWord finds an explicit laterality word in the sentence, or "" when
// unsided or bilateral.
func sideWord(lower string) string {
	left := containsWord(lower, "left")
	right := containsWord(lower, "right")
	if left && !right {
		return "left"
	}
	if right && !left {
		return "right"
	}
	return ""
}

// containsWord reports whether sub occurs in s on word boundaries.
func containsWord(s, sub string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(sub)
		beforeOK := i == 0 || !isWordChar(s[i-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		from = i + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
