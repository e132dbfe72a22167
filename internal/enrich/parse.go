package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

// ErrNoPayload is returned when a model reply contains no recognizable JSON
// payload. The call attempt is spent; a fresh completion may still parse.
var ErrNoPayload = errors.New("enrich: no structured payload in response")

var (
	codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	jsonBlockRe = regexp.MustCompile(`(\{(?:.|\n)*\})`)
)

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// payload is the tolerated reply shape. Attributes elements may be
// ["category","relation","label"] arrays or "category|relation|label"
// strings; models produce both.
type payload struct {
	BBoxName   string            `json:"bbox_name"`
	Presence   string            `json:"presence"`
	Normality  string            `json:"normality"`
	Severity   string            `json:"severity"`
	Laterality string            `json:"laterality"`
	Temporal   string            `json:"temporal"`
	Attributes []json.RawMessage `json:"attributes"`
	Phrases    []string          `json:"phrases"`
}

// ParseResponse extracts the normalized attribute set from a model reply.
// The returned attributes always describe the queried object regardless of
// what bbox_name the model echoed back.
func ParseResponse(reg *taxonomy.Registry, text string) (scenegraph.Attributes, error) {
	raw := stripCodeBlock(text)
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// Trailing commentary around the JSON is common; take the outermost
		// brace block and try again.
		m := jsonBlockRe.FindStringSubmatch(raw)
		if m == nil {
			return scenegraph.Attributes{}, fmt.Errorf("%w: %s", ErrNoPayload, truncate(text, 200))
		}
		if err := json.Unmarshal([]byte(m[1]), &p); err != nil {
			return scenegraph.Attributes{}, fmt.Errorf("%w: %v", ErrNoPayload, err)
		}
	}

	attrs := scenegraph.Attributes{
		Normality:  strings.ToLower(strings.TrimSpace(p.Normality)),
		Severity:   strings.ToLower(strings.TrimSpace(p.Severity)),
		Laterality: normalizeLaterality(p.Laterality),
		Temporal:   strings.ToLower(strings.TrimSpace(p.Temporal)),
	}

	seen := make(map[scenegraph.Finding]bool)
	for _, raw := range p.Attributes {
		f, ok := decodeFinding(reg, raw)
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		attrs.Findings = append(attrs.Findings, f)
	}

	attrs.Presence = normalizePresence(p.Presence, attrs.Findings)
	return attrs, nil
}

// decodeFinding accepts one attributes element in either tolerated shape and
// normalizes it. Malformed elements are dropped, not fatal.
func decodeFinding(reg *taxonomy.Registry, raw json.RawMessage) (scenegraph.Finding, bool) {
	var parts []string
	if err := json.Unmarshal(raw, &parts); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return scenegraph.Finding{}, false
		}
		parts = strings.Split(s, "|")
	}
	if len(parts) == 1 && strings.Contains(parts[0], "|") {
		parts = strings.Split(parts[0], "|")
	}
	if len(parts) != 3 {
		return scenegraph.Finding{}, false
	}

	category := strings.ToLower(strings.TrimSpace(parts[0]))
	if !reg.IsCategory(category) {
		category = "nlp"
	}
	rel, ok := normalizeRelation(parts[1])
	if !ok {
		return scenegraph.Finding{}, false
	}
	label := strings.Join(strings.Fields(strings.ToLower(parts[2])), " ")
	if label == "" {
		return scenegraph.Finding{}, false
	}
	return scenegraph.Finding{Category: category, Relation: rel, Label: label}, true
}

func normalizeRelation(s string) (scenegraph.Relation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "affirmed", "positive":
		return scenegraph.RelationYes, true
	case "no", "false", "negated", "negative":
		return scenegraph.RelationNo, true
	}
	return "", false
}

// normalizePresence maps free-ish model output onto the fixed vocabulary.
// When the model omitted presence, the findings decide: all-negated reads as
// absent, an affirmed "uncertain" cue as uncertain, anything else as present.
func normalizePresence(s string, findings []scenegraph.Finding) scenegraph.Presence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present", "yes", "mentioned", "positive":
		return scenegraph.PresencePresent
	case "absent", "no", "negated", "negative":
		return scenegraph.PresenceAbsent
	case "uncertain", "possible", "equivocal", "indeterminate":
		return scenegraph.PresenceUncertain
	}
	affirmed := 0
	for _, f := range findings {
		if f.Relation == scenegraph.RelationYes {
			if f.Label == "uncertain" {
				return scenegraph.PresenceUncertain
			}
			affirmed++
		}
	}
	if len(findings) > 0 && affirmed == 0 {
		return scenegraph.PresenceAbsent
	}
	return scenegraph.PresencePresent
}

func normalizeLaterality(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "both", "bilateral":
		return "bilateral"
	default:
		return v
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
