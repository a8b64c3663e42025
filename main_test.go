package main

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newhouse-analytics/config"
	"newhouse-analytics/models"
	"newhouse-analytics/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		RawJSONPath:   filepath.Join(dir, "raw.json"),
		CSVOutputPath: filepath.Join(dir, "out.csv"),
	}
}

func TestNormalizeAllEntriesSkippedWritesHeaderOnly(t *testing.T) {
	cfg := testConfig(t)
	// Every entry is a non-record value, so all of them get skipped.
	if err := os.WriteFile(cfg.RawJSONPath, []byte(`["just a string", 42]`), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := normalize(cfg, utils.New(utils.LevelError))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no surviving rows, got %d", len(rows))
	}

	data, err := os.ReadFile(cfg.CSVOutputPath)
	if err != nil {
		t.Fatalf("artifact should exist even with zero rows: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\xef\xbb\xbf"))).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
	if got, want := strings.Join(records[0], ","), strings.Join(models.Columns, ","); got != want {
		t.Errorf("header: got %q, want %q", got, want)
	}
}

type stubReader struct {
	rows []*models.NormalizedRow
	err  error
}

func (s *stubReader) FetchAll() ([]*models.NormalizedRow, error) { return s.rows, s.err }

func TestFetchForInsightsPrefersStoredRows(t *testing.T) {
	stored := []*models.NormalizedRow{
		{Name: "翡翠湾", District: "浦东", UnitPrice: sql.NullInt64{Int64: 15000, Valid: true}},
	}
	fallback := []*models.NormalizedRow{{Name: "内存行"}}

	got := fetchForInsights(&stubReader{rows: stored}, fallback, utils.New(utils.LevelError))
	if len(got) != 1 || got[0].Name != "翡翠湾" {
		t.Errorf("expected stored rows, got %+v", got)
	}
}

func TestFetchForInsightsFallsBackOnError(t *testing.T) {
	fallback := []*models.NormalizedRow{{Name: "A苑"}, {Name: "B苑"}}

	got := fetchForInsights(&stubReader{err: errors.New("connection reset")}, fallback, utils.New(utils.LevelError))
	if len(got) != 2 || got[0].Name != "A苑" {
		t.Errorf("expected in-memory fallback, got %+v", got)
	}
}
