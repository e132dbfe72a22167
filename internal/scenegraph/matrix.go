package scenegraph

import (
	"fmt"

	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

// Matrix is the dense object-by-attribute view of a graph. Rows follow
// taxonomy object order, columns the attribute vocabulary. Cell values:
// +1 affirmed, -1 uncertain, 0 negated or unmentioned.
type Matrix struct {
	Objects []string
	Columns []string
	Cells   [][]int8
}

// BuildMatrix projects a graph onto the attribute vocabulary. Finding labels
// outside the vocabulary are skipped; FindingsSummary keeps them.
func BuildMatrix(reg *taxonomy.Registry, g *Graph) (*Matrix, error) {
	attrs := reg.Attributes()
	m := &Matrix{
		Objects: make([]string, 0, reg.NumObjects()),
		Columns: make([]string, len(attrs)),
		Cells:   make([][]int8, reg.NumObjects()),
	}
	for i, a := range attrs {
		m.Columns[i] = a.Label
	}
	for _, o := range reg.Objects() {
		e, ok := g.Objects[o.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing entry for %q", ErrIntegrity, o.Name)
		}
		m.Objects = append(m.Objects, o.Name)
		row := make([]int8, len(attrs))
		for _, f := range e.Attributes.Findings {
			col, ok := reg.AttributeIndex(f.Label)
			if !ok {
				continue
			}
			row[col] = cellValue(f.Relation, e.Attributes.Presence)
		}
		m.Cells[o.ID] = row
	}
	return m, nil
}

func cellValue(rel Relation, presence Presence) int8 {
	if rel != RelationYes {
		return 0
	}
	if presence == PresenceUncertain {
		return -1
	}
	return 1
}

// FindingsSummary flattens per-object findings to label values, keeping
// labels the vocabulary does not know.
func FindingsSummary(g *Graph) map[string]map[string]int {
	out := make(map[string]map[string]int, len(g.Objects))
	for name, e := range g.Objects {
		if len(e.Attributes.Findings) == 0 {
			continue
		}
		labels := make(map[string]int, len(e.Attributes.Findings))
		for _, f := range e.Attributes.Findings {
			labels[f.Label] = int(cellValue(f.Relation, e.Attributes.Presence))
		}
		out[name] = labels
	}
	return out
}

// MatrixStats summarizes the findings carried by a graph.
type MatrixStats struct {
	Affirmed  int
	Uncertain int
	Negated   int
	// Coverage is the share of objects with at least one finding.
	Coverage float64
}

// Stats counts finding dispositions across all entries. Negated findings
// render as 0 in the matrix, so the count comes from the graph, not the
// cells.
func Stats(reg *taxonomy.Registry, g *Graph) MatrixStats {
	var s MatrixStats
	covered := 0
	for _, e := range g.Objects {
		if len(e.Attributes.Findings) > 0 {
			covered++
		}
		for _, f := range e.Attributes.Findings {
			switch cellValue(f.Relation, e.Attributes.Presence) {
			case 1:
				s.Affirmed++
			case -1:
				s.Uncertain++
			default:
				s.Negated++
			}
		}
	}
	if n := reg.NumObjects(); n > 0 {
		s.Coverage = float64(covered) / float64(n)
	}
	return s
}
