package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newhouse-analytics/utils"
)

func newTestIngestor() *Ingestor { return NewIngestor(utils.New(utils.LevelError)) }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestMissingSource(t *testing.T) {
	ing := newTestIngestor()
	_, err := ing.Ingest(filepath.Join(t.TempDir(), "absent.csv"), []string{"district"}, nil)
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestIngestEmptySource(t *testing.T) {
	ing := newTestIngestor()
	_, err := ing.Ingest(writeFile(t, "empty.csv", ""), []string{"district"}, nil)
	if !errors.Is(err, ErrSourceEmpty) {
		t.Errorf("expected ErrSourceEmpty, got %v", err)
	}
}

func TestIngestMalformedSource(t *testing.T) {
	ing := newTestIngestor()
	body := "district,unit_price\nA,100,extra\n"
	_, err := ing.Ingest(writeFile(t, "ragged.csv", body), []string{"district"}, nil)
	if !errors.Is(err, ErrSourceMalformed) {
		t.Errorf("expected ErrSourceMalformed, got %v", err)
	}
}

func TestIngestMissingColumn(t *testing.T) {
	ing := newTestIngestor()
	body := "name,unit_price\nA,100\n"
	path := writeFile(t, "cols.csv", body)

	_, err := ing.Ingest(path, []string{"unit_price", "district", "type"}, []string{"unit_price"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	// The first missing column in declared order is the one named.
	if !strings.Contains(err.Error(), "district") {
		t.Errorf("error should name district, got %q", err)
	}
}

func TestIngestCoercionAndCleaning(t *testing.T) {
	ing := newTestIngestor()
	body := "district,unit_price\n" +
		"A,100\n" +
		"B,not-a-number\n" + // coercion failure → missing → dropped
		",200\n" + // empty required categorical → dropped
		"C,300\n"
	tab, err := ing.Ingest(writeFile(t, "clean.csv", body), []string{"district", "unit_price"}, []string{"unit_price"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("expected 2 surviving rows, got %d", len(tab.Rows))
	}
	if tab.Rows[0].Strings["district"] != "A" || tab.Rows[0].Nums["unit_price"] != 100 {
		t.Errorf("row 0 mismatch: %+v", tab.Rows[0])
	}
	if tab.Rows[1].Strings["district"] != "C" {
		t.Errorf("row 1 mismatch: %+v", tab.Rows[1])
	}
}

func TestIngestOptionalNumericStaysMissing(t *testing.T) {
	ing := newTestIngestor()
	body := "district,unit_price,area\nA,100,\n"
	tab, err := ing.Ingest(writeFile(t, "opt.csv", body), []string{"district", "unit_price"}, []string{"unit_price", "area"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tab.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(tab.Rows))
	}
	if _, ok := tab.Rows[0].Nums["area"]; ok {
		t.Error("area should be missing, not coerced to a value")
	}
}

func TestIngestStripsBOM(t *testing.T) {
	ing := newTestIngestor()
	body := "\ufeffdistrict,unit_price\nA,100\n"
	tab, err := ing.Ingest(writeFile(t, "bom.csv", body), []string{"district", "unit_price"}, []string{"unit_price"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tab.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(tab.Rows))
	}
}

func TestIngestAllRowsDropped(t *testing.T) {
	ing := newTestIngestor()
	body := "district,unit_price\nA,x\nB,y\n"
	tab, err := ing.Ingest(writeFile(t, "drop.csv", body), []string{"district", "unit_price"}, []string{"unit_price"})
	if err != nil {
		t.Fatalf("empty-after-cleaning must not be an error, got %v", err)
	}
	if !tab.Empty() {
		t.Errorf("expected empty table, got %d rows", len(tab.Rows))
	}
}
