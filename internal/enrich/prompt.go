package enrich

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// PromptData is the substitution context for one enrichment candidate.
// Other stages render the same Template type with their own data shapes.
type PromptData struct {
	Object     string
	Phrase     string
	Sentence   string
	Section    string
	Categories []string
}

// Template renders the enrichment prompt for a single candidate. The text is
// external configuration: LoadTemplate swaps in a custom file without
// touching pipeline logic.
type Template struct {
	t *template.Template
}

var funcMap = template.FuncMap{
	"join": strings.Join,
}

const defaultPromptText = `You are a clinical NLP assistant converting radiology report sentences into a Chest ImaGenome style scene graph entry.

Target object: {{.Object}}
Matched phrase: "{{.Phrase}}"
Section: {{.Section}}
Sentence: "{{.Sentence}}"

Rules:
1. Describe only the target object above. Do not invent other objects.
2. Report "presence" as one of: present, absent, uncertain. Use "absent" when the sentence mentions the object only to negate an abnormality, "uncertain" for hedged statements.
3. List "attributes" as triples "category|relation|label" where category is one of {{join .Categories ", "}}, relation is "yes" (affirmed) or "no" (negated), and label is a short normalized lowercase attribute (e.g. "lung opacity", "pneumothorax", "consolidation", "normal", "pleural effusion").
4. Be conservative: only assert attributes the sentence clearly affirms or negates. Prefer leaving unclear attributes out.
5. Include "severity" (mild/moderate/severe), "laterality" (left/right/bilateral), "temporal" (acute/chronic/unchanged/new/old) and "normality" (normal/abnormal) only when the sentence states them.
6. Output VALID JSON only, shaped as:
{"bbox_name": "{{.Object}}", "presence": "...", "normality": "...", "severity": "...", "laterality": "...", "temporal": "...", "attributes": ["category|relation|label"]}
Omit fields the sentence does not support. No commentary outside the JSON.`

// DefaultTemplate returns the compiled built-in prompt.
func DefaultTemplate() *Template {
	return &Template{t: template.Must(template.New("prompt").Funcs(funcMap).Parse(defaultPromptText))}
}

// ParseTemplate compiles prompt text.
func ParseTemplate(text string) (*Template, error) {
	t, err := template.New("prompt").Funcs(funcMap).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Template{t: t}, nil
}

// LoadTemplate compiles a prompt template from a file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return ParseTemplate(string(data))
}

// Render fills the template.
func (t *Template) Render(data any) (string, error) {
	var sb strings.Builder
	if err := t.t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
