package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
)

const (
	matrixSheet = "Matrix"
	legendSheet = "Legend"
)

// WriteMatrixXLSX writes the matrix as a styled workbook: one sheet with
// value-coded fills (green affirmed, yellow uncertain, gray otherwise) and a
// legend sheet explaining the coding.
func WriteMatrixXLSX(w io.Writer, m *scenegraph.Matrix) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", matrixSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	affirmed, err := cellStyle(f, "D4EDDA", "155724")
	if err != nil {
		return err
	}
	uncertain, err := cellStyle(f, "FFF3CD", "856404")
	if err != nil {
		return err
	}
	zero, err := cellStyle(f, "F8F9FA", "6C757D")
	if err != nil {
		return err
	}
	styleFor := func(v int8) int {
		switch {
		case v > 0:
			return affirmed
		case v < 0:
			return uncertain
		default:
			return zero
		}
	}

	for j, col := range m.Columns {
		cell, _ := excelize.CoordinatesToCellName(j+2, 1)
		if err := f.SetCellValue(matrixSheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i, name := range m.Objects {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(matrixSheet, cell, name); err != nil {
			return fmt.Errorf("write row label: %w", err)
		}
		for j, v := range m.Cells[i] {
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			if err := f.SetCellValue(matrixSheet, cell, int(v)); err != nil {
				return fmt.Errorf("write cell: %w", err)
			}
			if err := f.SetCellStyle(matrixSheet, cell, cell, styleFor(v)); err != nil {
				return fmt.Errorf("style cell: %w", err)
			}
		}
	}

	lastHeader, _ := excelize.CoordinatesToCellName(len(m.Columns)+1, 1)
	if err := f.SetCellStyle(matrixSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	lastLabel, _ := excelize.CoordinatesToCellName(1, len(m.Objects)+1)
	if err := f.SetCellStyle(matrixSheet, "A2", lastLabel, headerStyle); err != nil {
		return fmt.Errorf("style row labels: %w", err)
	}
	if err := f.SetColWidth(matrixSheet, "A", "A", 26); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := writeLegend(f, styleFor); err != nil {
		return err
	}

	idx, err := f.GetSheetIndex(matrixSheet)
	if err != nil {
		return fmt.Errorf("sheet index: %w", err)
	}
	f.SetActiveSheet(idx)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellStyle(f *excelize.File, fill, font string) (int, error) {
	id, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Font: &excelize.Font{Color: font},
	})
	if err != nil {
		return 0, fmt.Errorf("cell style: %w", err)
	}
	return id, nil
}

func writeLegend(f *excelize.File, styleFor func(int8) int) error {
	if _, err := f.NewSheet(legendSheet); err != nil {
		return fmt.Errorf("legend sheet: %w", err)
	}
	rows := []struct {
		value   int8
		meaning string
	}{
		{1, "attribute affirmed for the object"},
		{-1, "attribute mentioned with uncertainty"},
		{0, "attribute negated or not mentioned"},
	}
	if err := f.SetCellValue(legendSheet, "A1", "Value"); err != nil {
		return fmt.Errorf("write legend: %w", err)
	}
	if err := f.SetCellValue(legendSheet, "B1", "Meaning"); err != nil {
		return fmt.Errorf("write legend: %w", err)
	}
	for i, r := range rows {
		valueCell, _ := excelize.CoordinatesToCellName(1, i+2)
		meaningCell, _ := excelize.CoordinatesToCellName(2, i+2)
		if err := f.SetCellValue(legendSheet, valueCell, int(r.value)); err != nil {
			return fmt.Errorf("write legend: %w", err)
		}
		if err := f.SetCellStyle(legendSheet, valueCell, valueCell, styleFor(r.value)); err != nil {
			return fmt.Errorf("style legend: %w", err)
		}
		if err := f.SetCellValue(legendSheet, meaningCell, r.meaning); err != nil {
			return fmt.Errorf("write legend: %w", err)
		}
	}
	if err := f.SetColWidth(legendSheet, "B", "B", 40); err != nil {
		return fmt.Errorf("set legend width: %w", err)
	}
	return nil
}
