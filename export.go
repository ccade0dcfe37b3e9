package docparse

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// writeReport exports per-document and per-page statistics as an XLSX
// workbook with a Summary sheet and a Pages sheet.
func writeReport(doc *Document, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}

	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Total pages", doc.TotalPages()},
		{"Input tokens", doc.Cost.InputTokens},
		{"Output tokens", doc.Cost.OutputTokens},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return err
		}
	}

	const pages = "Pages"
	if _, err := f.NewSheet(pages); err != nil {
		return err
	}
	header := []any{"Page", "Characters", "Images", "Figures", "Tables"}
	if err := f.SetSheetRow(pages, "A1", &header); err != nil {
		return err
	}
	for i, page := range doc.Contents {
		figures, tables := 0, 0
		for _, img := range page.Images {
			switch img.Category {
			case CategoryTable:
				tables++
			default:
				figures++
			}
		}
		row := []any{
			page.PageNumber,
			utf8.RuneCountInString(page.Contents),
			len(page.Images),
			figures,
			tables,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(pages, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
