package storage

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"newhouse-analytics/models"
)

// CSVWriter writes normalized listing rows to the tabular artifact. The
// file starts with a UTF-8 BOM so spreadsheet tools pick up the encoding.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the fixed schema header. Intermediate directories are created
// automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(models.Columns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRows appends one CSV row per normalized listing, in input order.
// Missing numerics are written as empty cells.
func (c *CSVWriter) WriteRows(rows []*models.NormalizedRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		if err := c.writer.Write(r.Record()); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// ReadCSV loads a normalized-row artifact back into memory. It expects the
// exact nine-column header produced by CSVWriter; empty numeric cells come
// back as nulls.
func ReadCSV(path string) ([]*models.NormalizedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %q has no header", path)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if len(header) != len(models.Columns) {
		return nil, fmt.Errorf("csv: %q has %d columns, want %d", path, len(header), len(models.Columns))
	}
	for i, col := range models.Columns {
		if header[i] != col {
			return nil, fmt.Errorf("csv: %q column %d is %q, want %q", path, i, header[i], col)
		}
	}

	rows := make([]*models.NormalizedRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, &models.NormalizedRow{
			Name:           rec[0],
			Type:           rec[1],
			District:       rec[2],
			Street:         rec[3],
			LocationDetail: rec[4],
			RoomCount:      parseCell(rec[5]),
			Area:           parseCell(rec[6]),
			TotalPrice:     parseCell(rec[7]),
			UnitPrice:      parseCell(rec[8]),
		})
	}
	return rows, nil
}

func parseCell(s string) sql.NullInt64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
