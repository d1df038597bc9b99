package extract

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// readOLE2 reads column A of the first sheet of a legacy BIFF workbook.
// The decoder exposes display strings only; numeric cells never contain '@'
// so they fall out at the address check.
func readOLE2(data []byte) (cells []cell, err error) {
	// the BIFF decoder panics on some truncated streams
	defer func() {
		if r := recover(); r != nil {
			cells = nil
			err = fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errNoSheets
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errNoSheets
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			continue
		}
		cells = append(cells, cell{value: row.Col(0), text: true})
	}
	return cells, nil
}

// sheetRow returns row i, or nil when the sheet has no record for it.
// WorkSheet.Row dereferences the missing row instead of returning nil.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
