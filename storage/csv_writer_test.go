package storage

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newhouse-analytics/models"
)

func sampleRows() []*models.NormalizedRow {
	return []*models.NormalizedRow{
		{
			Name: "翡翠湾", Type: "住宅", District: "浦东", Street: "张江路", LocationDetail: "地铁站旁",
			RoomCount:  sql.NullInt64{Int64: 3, Valid: true},
			Area:       sql.NullInt64{Int64: 90, Valid: true},
			TotalPrice: sql.NullInt64{Int64: 120, Valid: true},
			UnitPrice:  sql.NullInt64{Int64: 15000, Valid: true},
		},
		{
			Name: "丽景苑", Type: "公寓", District: "闵行", Street: "", LocationDetail: "",
			// All numerics missing.
		},
	}
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "normalized.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	want := sampleRows()
	if err := w.WriteRows(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("round trip: got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if *got[i] != *want[i] {
			t.Errorf("row %d changed:\nwrote %+v\nread  %+v", i, want[i], got[i])
		}
	}
}

func TestCSVWriterMissingCellsAreEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normalized.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRows(sampleRows()[1:]); err != nil {
		t.Fatal(err)
	}
	w.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if !strings.HasPrefix(body, "\xef\xbb\xbf") {
		t.Error("file should start with a UTF-8 BOM")
	}
	if strings.Contains(body, "null") || strings.Contains(body, "NaN") {
		t.Errorf("missing values must be empty cells, got:\n%s", body)
	}

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, "\xef\xbb\xbf"))).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	row := records[1]
	for i := 5; i < 9; i++ {
		if row[i] != "" {
			t.Errorf("cell %d should be empty, got %q", i, row[i])
		}
	}
}

func TestCSVWriterHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normalized.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	w.Close()

	data, _ := os.ReadFile(path)
	header := strings.SplitN(strings.TrimPrefix(string(data), "\xef\xbb\xbf"), "\n", 2)[0]
	want := strings.Join(models.Columns, ",")
	if strings.TrimRight(header, "\r") != want {
		t.Errorf("header: got %q, want %q", header, want)
	}
}

func TestReadCSVRejectsForeignSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	if err := os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadCSV(path); err == nil {
		t.Error("foreign schema should be rejected")
	}
}
