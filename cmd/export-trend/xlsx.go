package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"cardash/pkg/models"
)

const trendSheet = "Trend"

// writeTrendXLSX writes the same columns as the CSV export plus a title row.
func writeTrendXLSX(outPath, title string, points []models.TrendPoint, rate float64) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", trendSheet); err != nil {
		return err
	}
	if err := f.SetCellValue(trendSheet, "A1", fmt.Sprintf("%s (rate %.2f)", title, rate)); err != nil {
		return err
	}

	for i, header := range []string{"year", "usd_price", "ngn_price"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(trendSheet, cell, header); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(trendSheet, "A", "C", 16); err != nil {
		return err
	}

	for i, p := range points {
		row := i + 3
		usd, ngn := trendRow(p, rate)
		f.SetCellValue(trendSheet, fmt.Sprintf("A%d", row), p.Year)
		f.SetCellValue(trendSheet, fmt.Sprintf("B%d", row), usd)
		if ngn != nil {
			f.SetCellValue(trendSheet, fmt.Sprintf("C%d", row), *ngn)
		}
	}

	return f.SaveAs(outPath)
}
