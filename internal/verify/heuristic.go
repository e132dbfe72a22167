package verify

import (
	"strings"
	"unicode"

	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
)

// Negation and hedge cues open a scope that runs forward from the cue to the
// next clause boundary. Multi-word cues match on word boundaries.
var negationCues = []string{
	"no", "not", "without", "free of", "clear of", "negative for",
	"absence of", "rather than", "resolution of",
}

var uncertaintyCues = []string{
	"may", "might", "possible", "possibly", "probable", "probably", "likely",
	"suspicious for", "suspected", "concerning for", "cannot exclude",
	"cannot be excluded", "questionable", "equivocal", "versus",
}

// Clause boundaries stop a cue's scope. Commas do not: negations routinely
// span comma lists ("no effusion, pneumothorax, or consolidation").
var boundaryWords = []string{"but", "however", "although", "though", "yet"}

type span struct {
	start, end int
}

// analysis is the deterministic reading of one sentence: lowercased text
// plus the character ranges covered by negation and uncertainty cues.
type analysis struct {
	text      string
	negated   []span
	uncertain []span
}

func analyze(sentence string) analysis {
	a := analysis{text: strings.ToLower(sentence)}
	a.negated = cueScopes(a.text, negationCues)
	a.uncertain = cueScopes(a.text, uncertaintyCues)
	return a
}

func cueScopes(text string, cues []string) []span {
	var out []span
	for _, cue := range cues {
		from := 0
		for {
			i := indexWord(text[from:], cue)
			if i < 0 {
				break
			}
			cueEnd := from + i + len(cue)
			out = append(out, span{cueEnd, clauseEnd(text, cueEnd)})
			from = cueEnd
		}
	}
	return out
}

// clauseEnd scans forward from a cue for the first boundary: sentence
// punctuation or an adversative conjunction.
func clauseEnd(text string, from int) int {
	for i := from; i < len(text); i++ {
		switch text[i] {
		case '.', ';', ':':
			return i
		}
		for _, w := range boundaryWords {
			if strings.HasPrefix(text[i:], w) && boundedAt(text, i, len(w)) {
				return i
			}
		}
	}
	return len(text)
}

func (a analysis) containsPhrase(phrase string) bool {
	return indexWord(a.text, strings.ToLower(phrase)) >= 0
}

func (a analysis) phraseNegated(phrase string) bool {
	return phraseInScopes(a.text, a.negated, phrase)
}

func (a analysis) phraseUncertain(phrase string) bool {
	return phraseInScopes(a.text, a.uncertain, phrase)
}

// presenceOf reads the mention state of a phrase: a hedge wins over a
// negation (a hedged absence is still uncertain), a negation over plain
// mention.
func (a analysis) presenceOf(phrase string) scenegraph.Presence {
	switch {
	case a.phraseUncertain(phrase):
		return scenegraph.PresenceUncertain
	case a.phraseNegated(phrase):
		return scenegraph.PresenceAbsent
	default:
		return scenegraph.PresencePresent
	}
}

// laterality reads a side cue from the sentence. Both sides named reads as
// bilateral.
func (a analysis) laterality() string {
	left := indexWord(a.text, "left") >= 0
	right := indexWord(a.text, "right") >= 0
	switch {
	case indexWord(a.text, "bilateral") >= 0, indexWord(a.text, "both") >= 0:
		return "bilateral"
	case left && right:
		return "bilateral"
	case left:
		return "left"
	case right:
		return "right"
	}
	return ""
}

func phraseInScopes(text string, scopes []span, phrase string) bool {
	phrase = strings.ToLower(phrase)
	for _, s := range scopes {
		if indexWord(text[s.start:s.end], phrase) >= 0 {
			return true
		}
	}
	return false
}

// indexWord finds sub in s on word boundaries, -1 when absent.
func indexWord(s, sub string) int {
	if sub == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return -1
		}
		at := from + i
		if boundedAt(s, at, len(sub)) {
			return at
		}
		from = at + 1
	}
}

// boundedAt reports whether s[at:at+n] sits on word boundaries.
func boundedAt(s string, at, n int) bool {
	if at > 0 && isWordChar(rune(s[at-1])) {
		return false
	}
	if at+n < len(s) && isWordChar(rune(s[at+n])) {
		return false
	}
	return true
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
