// Package exporter writes grouped and pivoted report tables to files for
// the presentation layer. CSV output carries a UTF-8 BOM so Excel opens the
// CJK headers correctly.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"newhouse-analytics/dataset"
	"newhouse-analytics/utils"
)

// Exporter writes report tables under a base directory.
type Exporter struct {
	dir    string
	logger *utils.Logger
}

// New creates an Exporter rooted at dir.
func New(dir string, logger *utils.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// ExportSummary writes a grouped summary as <name>.csv and <name>.xlsx.
func (e *Exporter) ExportSummary(name string, s *dataset.GroupSummary) error {
	headers, records := summaryRecords(s)
	return e.export(name, headers, records)
}

// ExportPivot writes a pivot table as <name>.csv and <name>.xlsx. Missing
// cells stay empty in both formats.
func (e *Exporter) ExportPivot(name string, p *dataset.PivotTable) error {
	headers, records := pivotRecords(p)
	return e.export(name, headers, records)
}

func (e *Exporter) export(name string, headers []string, records [][]string) error {
	if err := e.writeCSV(name+".csv", headers, records); err != nil {
		return err
	}
	if err := e.writeXLSX(name+".xlsx", name, headers, records); err != nil {
		return err
	}
	e.logger.Info("[exporter] Wrote %s.csv and %s.xlsx (%d rows)", name, name, len(records))
	return nil
}

func (e *Exporter) writeCSV(name string, headers []string, records [][]string) error {
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("exporter: create dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("exporter: create %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("exporter: write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("exporter: write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("exporter: write record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (e *Exporter) writeXLSX(name, sheet string, headers []string, records [][]string) error {
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("exporter: create dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// Sheet names cap at 31 chars.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("exporter: name sheet: %w", err)
	}

	writeRow := func(rowIdx int, cells []string) error {
		for colIdx, cell := range cells {
			ref, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				if err := f.SetCellValue(sheet, ref, v); err != nil {
					return err
				}
				continue
			}
			if err := f.SetCellStr(sheet, ref, cell); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, headers); err != nil {
		return fmt.Errorf("exporter: xlsx header: %w", err)
	}
	for i, rec := range records {
		if err := writeRow(i+2, rec); err != nil {
			return fmt.Errorf("exporter: xlsx row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("exporter: save %q: %w", path, err)
	}
	return nil
}

// summaryRecords flattens a grouped summary: key columns, count, then one
// column per metric mean.
func summaryRecords(s *dataset.GroupSummary) ([]string, [][]string) {
	headers := append([]string(nil), s.GroupBy...)
	headers = append(headers, dataset.CountColumn)

	metrics := make([]string, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		if m != dataset.CountColumn {
			metrics = append(metrics, m)
		}
	}
	headers = append(headers, metrics...)

	records := make([][]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		rec := append([]string(nil), g.Keys...)
		count, _ := g.Metric(dataset.CountColumn)
		rec = append(rec, formatNum(count))
		for _, m := range metrics {
			if v, ok := g.Metric(m); ok {
				rec = append(rec, formatNum(v))
			} else {
				rec = append(rec, "")
			}
		}
		records = append(records, rec)
	}
	return headers, records
}

// pivotRecords flattens a pivot table: first column is the row key, one
// column per column key, empty cells for missing combinations.
func pivotRecords(p *dataset.PivotTable) ([]string, [][]string) {
	headers := append([]string{p.RowName}, p.ColKeys...)

	records := make([][]string, 0, len(p.RowKeys))
	for _, rk := range p.RowKeys {
		rec := []string{rk}
		for _, ck := range p.ColKeys {
			if v, ok := p.Cell(rk, ck); ok {
				rec = append(rec, formatNum(v))
			} else {
				rec = append(rec, "")
			}
		}
		records = append(records, rec)
	}
	return headers, records
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
