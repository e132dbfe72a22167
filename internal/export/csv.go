package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
)

// WriteMatrixCSV writes the object-by-attribute matrix with object names as
// row labels and attribute labels as column headers. The top-left cell is
// empty, matching the spreadsheet layout.
func WriteMatrixCSV(w io.Writer, m *scenegraph.Matrix) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(m.Columns)+1)
	header = append(header, "")
	header = append(header, m.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(m.Columns)+1)
	for i, name := range m.Objects {
		row[0] = name
		for j, v := range m.Cells[i] {
			row[j+1] = strconv.Itoa(int(v))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
