package segment

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Section identifies which report section a sentence came from.
type Section string

const (
	SectionFindings   Section = "findings"
	SectionImpression Section = "impression"
	SectionOther      Section = "other"
)

// Priority orders sections for merge tie-breaking: the impression is the
// diagnostically authoritative summary.
func (s Section) Priority() int {
	switch s {
	case SectionImpression:
		return 2
	case SectionFindings:
		return 1
	default:
		return 0
	}
}

// Sentence is one segmented report sentence. Immutable once produced.
type Sentence struct {
	Index   int     `json:"index"`
	Section Section `json:"section"`
	Text    string  `json:"text"`
}

// ErrEmptyReport is returned when the input contains no usable text.
var ErrEmptyReport = errors.New("segment: report is empty")

// headerSections maps recognized section labels to their Section. Labels are
// matched at line start, case-insensitive, colon optional when the label is
// the whole line.
var headerSections = map[string]Section{
	"findings":         SectionFindings,
	"impression":       SectionImpression,
	"conclusion":       SectionImpression,
	"indication":       SectionOther,
	"comparison":       SectionOther,
	"technique":        SectionOther,
	"history":          SectionOther,
	"clinical history": SectionOther,
	"exam":             SectionOther,
	"examination":      SectionOther,
}

var headerRe = regexp.MustCompile(`(?i)^\s*(findings|impression|conclusion|indication|comparison|technique|clinical history|history|examination|exam)\s*:\s*`)

// Tokens that end with a period mid-sentence. Compared against the lowercased
// token preceding the period.
var abbreviations = map[string]bool{
	"dr":     true,
	"mr":     true,
	"mrs":    true,
	"ms":     true,
	"st":     true,
	"vs":     true,
	"approx": true,
	"fig":    true,
	"a.m":    true,
	"p.m":    true,
	"e.g":    true,
	"i.e":    true,
}

// Split segments a raw report into ordered, section-tagged sentences.
// Radiology reports often line-break per sentence, so lines are processed
// individually and then split on sentence-ending punctuation. Decimals
// ("5.2 cm") and common abbreviations never trigger a split.
func Split(report string) ([]Sentence, error) {
	text := normalize(report)
	if text == "" {
		return nil, ErrEmptyReport
	}

	var sentences []Sentence
	section := SectionFindings

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line, section = stripHeader(line, section)
		for _, s := range splitLine(line) {
			sentences = append(sentences, Sentence{
				Index:   len(sentences),
				Section: section,
				Text:    s,
			})
		}
	}

	if len(sentences) == 0 {
		return nil, ErrEmptyReport
	}
	return sentences, nil
}

// normalize applies NFKC and drops control characters except newlines and
// tabs, so the splitter sees clean text regardless of the upload path.
func normalize(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return strings.TrimSpace(normed)
}

// stripHeader detects a section label at the start of the line. It returns
// the line with the label removed and the section now in effect.
func stripHeader(line string, current Section) (string, Section) {
	if m := headerRe.FindStringSubmatch(line); m != nil {
		label := strings.ToLower(strings.TrimSpace(m[1]))
		if sec, ok := headerSections[label]; ok {
			return strings.TrimSpace(line[len(m[0]):]), sec
		}
	}
	// A bare label line ("IMPRESSION") also switches sections.
	if sec, ok := headerSections[strings.ToLower(strings.TrimSpace(line))]; ok {
		return "", sec
	}
	return line, current
}

// splitLine breaks one line into sentences on [.?!] followed by whitespace.
// Decimals never match (the period is followed by a digit) and abbreviations
// are checked against the token before the period.
func splitLine(line string) []string {
	var out []string
	var current strings.Builder
	runes := []rune(line)

	for i, r := range runes {
		current.WriteRune(r)
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes, i) {
			continue
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func isAbbreviation(runes []rune, period int) bool {
	start := period - 1
	for start >= 0 && !unicode.IsSpace(runes[start]) {
		start--
	}
	token := strings.ToLower(string(runes[start+1 : period]))
	if token == "" {
		return false
	}
	if abbreviations[token] {
		return true
	}
	// Single-letter initials ("T. Smith").
	if len([]rune(token)) == 1 && unicode.IsLetter(runes[period-1]) {
		return true
	}
	return false
}
