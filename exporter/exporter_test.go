package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newhouse-analytics/dataset"
	"newhouse-analytics/utils"
)

func testSummary() *dataset.GroupSummary {
	return &dataset.GroupSummary{
		GroupBy: []string{"district"},
		Metrics: []string{"unit_price", dataset.CountColumn},
		Groups: []dataset.GroupRow{
			{Keys: []string{"浦东"}, Count: 2, Means: map[string]float64{"unit_price": 15000}},
			{Keys: []string{"闵行"}, Count: 1, Means: map[string]float64{"unit_price": 9000.5}},
		},
	}
}

func readExportedCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if !strings.HasPrefix(body, "\xef\xbb\xbf") {
		t.Error("exported CSV should start with a UTF-8 BOM")
	}
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, "\xef\xbb\xbf"))).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestExportSummary(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, utils.New(utils.LevelError))

	if err := e.ExportSummary("district_prices", testSummary()); err != nil {
		t.Fatal(err)
	}

	records := readExportedCSV(t, filepath.Join(dir, "district_prices.csv"))
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "district,count,unit_price" {
		t.Errorf("header: got %q", header)
	}
	if records[1][0] != "浦东" || records[1][1] != "2" || records[1][2] != "15000" {
		t.Errorf("row 1: got %v", records[1])
	}
	if records[2][2] != "9000.5" {
		t.Errorf("row 2 mean: got %q", records[2][2])
	}

	if _, err := os.Stat(filepath.Join(dir, "district_prices.xlsx")); err != nil {
		t.Errorf("xlsx output missing: %v", err)
	}
}

func TestExportPivotKeepsMissingCellsEmpty(t *testing.T) {
	tab := &dataset.CleanedTable{
		Columns: []string{"district", "type", "unit_price"},
		Rows: []dataset.Row{
			{Strings: map[string]string{"district": "A", "type": "X"}, Nums: map[string]float64{"unit_price": 100}},
			{Strings: map[string]string{"district": "B", "type": "Y"}, Nums: map[string]float64{"unit_price": 70}},
		},
	}
	s, err := dataset.GroupBy(tab, []string{"district", "type"}, []string{"unit_price"}, "")
	if err != nil {
		t.Fatal(err)
	}
	p, err := dataset.Pivot(s, "unit_price")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	e := New(dir, utils.New(utils.LevelError))
	if err := e.ExportPivot("matrix", p); err != nil {
		t.Fatal(err)
	}

	records := readExportedCSV(t, filepath.Join(dir, "matrix.csv"))
	// header: district, X, Y — row A has no Y observation.
	if records[1][0] != "A" || records[1][1] != "100" || records[1][2] != "" {
		t.Errorf("row A: got %v", records[1])
	}
	if records[2][0] != "B" || records[2][1] != "" || records[2][2] != "70" {
		t.Errorf("row B: got %v", records[2])
	}
}
