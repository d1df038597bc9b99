package extract

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// readOOXML reads column A of the first sheet of an Open XML workbook.
// Only shared strings, inline strings and string formula results count as text.
func readOOXML(data []byte) ([]cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Debug("failed to close workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoSheets
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	cells := make([]cell, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}

		name, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		typ, err := f.GetCellType(sheet, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read cell %s: %w", name, err)
		}

		cells = append(cells, cell{value: row[0], text: isTextCell(typ)})
	}
	return cells, nil
}

func isTextCell(typ excelize.CellType) bool {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return true
	default:
		return false
	}
}
