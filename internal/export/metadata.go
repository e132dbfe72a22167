package export

import (
	"encoding/json"
	"io"

	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

// Metadata is the downloadable companion document for a matrix export: the
// vocabulary the matrix was projected onto, per-label families, finding
// statistics, and the run summary.
type Metadata struct {
	Objects             []taxonomy.Object         `json:"objects"`
	Attributes          []string                  `json:"attributes"`
	AttributeCategories map[string]string         `json:"attribute_categories"`
	Statistics          Statistics                `json:"statistics"`
	FindingsSummary     map[string]map[string]int `json:"findings_summary"`
	Summary             scenegraph.Summary        `json:"summary"`
}

// Statistics counts finding dispositions. Coverage is the percentage of
// objects with at least one finding.
type Statistics struct {
	Positive  int     `json:"positive"`
	Negative  int     `json:"negative"`
	Uncertain int     `json:"uncertain"`
	Coverage  float64 `json:"coverage"`
}

// BuildMetadata assembles the metadata document for a finished graph.
func BuildMetadata(reg *taxonomy.Registry, g *scenegraph.Graph) Metadata {
	stats := scenegraph.Stats(reg, g)
	attrs := reg.Attributes()
	labels := make([]string, len(attrs))
	families := make(map[string]string, len(attrs))
	for i, a := range attrs {
		labels[i] = a.Label
		families[a.Label] = a.Family
	}
	return Metadata{
		Objects:             reg.Objects(),
		Attributes:          labels,
		AttributeCategories: families,
		Statistics: Statistics{
			Positive:  stats.Affirmed,
			Negative:  stats.Negated,
			Uncertain: stats.Uncertain,
			Coverage:  stats.Coverage * 100,
		},
		FindingsSummary: scenegraph.FindingsSummary(g),
		Summary:         g.Summary,
	}
}

// WriteMetadataJSON writes the metadata document as indented JSON.
func WriteMetadataJSON(w io.Writer, md Metadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(md)
}
