package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"cardash/pkg/models"
)

var samplePoints = []models.TrendPoint{
	{Year: 2018, AveragePrice: 16000},
	{Year: 2019, AveragePrice: 16333.333},
}

func TestWriteTrendCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trend.csv")
	if err := writeTrend(path, samplePoints, 1500); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "year,usd_price,ngn_price\n2018,16000.00,24000000.00\n2019,16333.33,24499999.50\n"
	if string(b) != want {
		t.Fatalf("csv =\n%s\nwant\n%s", b, want)
	}
}

func TestWriteTrendCSV_InvalidRateLeavesBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.csv")
	if err := writeTrend(path, samplePoints[:1], 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "2018,16000.00,\n") {
		t.Fatalf("expected blank ngn column, got %s", b)
	}
}

func TestWriteTrendXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.xlsx")
	if err := writeTrendXLSX(path, "ford Focus", samplePoints, 1500); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(trendSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected title, header and 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[1][0] != "year" || rows[2][0] != "2018" || rows[2][2] != "24000000" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
