package tradelog

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadExcel reads a trade log from the first sheet of an XLSX workbook.
// The first row is the header and is held to the same required-column
// contract as the CSV loader.
func LoadExcel(path string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open trade log workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("trade log workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read trade log sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrMissingColumns)
	}

	header := rows[0]
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := make([]RawRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, RawRow{
			Key:            cell(row, "Key"),
			ExitTime:       cell(row, "ExitTime"),
			Symbol:         cell(row, "Symbol"),
			EntryPrice:     cell(row, "EntryPrice"),
			ExitPrice:      cell(row, "ExitPrice"),
			Quantity:       cell(row, "Quantity"),
			PositionStatus: cell(row, "PositionStatus"),
			Pnl:            cell(row, "Pnl"),
			ExitType:       cell(row, "ExitType"),
		})
	}
	return out, nil
}
