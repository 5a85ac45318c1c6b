package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxSheetName    = 31
	maxColWidth     = 60
)

// XLSX writes t to a single-sheet workbook. The header row is bold and the
// column widths follow the longest cell.
func XLSX(t Table) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := sheetName(t.Title)
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	if err := file.SetDocProps(&excelize.DocProperties{Title: t.Title, Description: t.Notice}); err != nil {
		return nil, fmt.Errorf("xlsx: properties: %w", err)
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: header style: %w", err)
	}

	widths := make([]int, len(t.Headers))
	set := func(col, row int, value string) {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = file.SetCellValue(sheet, cell, value)
		if col < len(widths) {
			if n := utf8.RuneCountInString(value); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for i, h := range t.Headers {
		set(i, 1, h)
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		_ = file.SetCellStyle(sheet, "A1", last, bold)
	}
	for r, row := range t.Rows {
		for c, value := range row {
			set(c, r+2, value)
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = file.SetColWidth(sheet, col, col, float64(min(w+2, maxColWidth)))
	}
	_ = file.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetName(title string) string {
	title = strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	).Replace(strings.TrimSpace(title))
	if title == "" {
		return "Export"
	}
	if utf8.RuneCountInString(title) > maxSheetName {
		title = string([]rune(title)[:maxSheetName])
	}
	return title
}
