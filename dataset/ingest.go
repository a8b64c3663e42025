package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"newhouse-analytics/utils"
)

// Ingestion failure conditions. All of them are fatal to the report that
// triggered the load; none of them leave a partial table behind.
var (
	ErrSourceNotFound  = errors.New("source not found")
	ErrSourceEmpty     = errors.New("source empty")
	ErrSourceMalformed = errors.New("parse error")
	ErrMissingColumn   = errors.New("missing column")
)

// Ingestor loads a delimited source and applies the shared column contract:
// required columns must exist, declared numeric columns are coerced, and
// rows with a missing required value are dropped.
type Ingestor struct {
	logger *utils.Logger
}

// NewIngestor creates an Ingestor with the given logger.
func NewIngestor(logger *utils.Logger) *Ingestor {
	return &Ingestor{logger: logger}
}

// Ingest loads the CSV at path and cleans it in one step.
func (ing *Ingestor) Ingest(path string, required, numeric []string) (*CleanedTable, error) {
	tab, err := ing.Load(path)
	if err != nil {
		return nil, err
	}
	return ing.Clean(tab, required, numeric)
}

// Load reads the CSV source at path into a raw Table. A leading UTF-8 BOM
// on the header is stripped.
func (ing *Ingestor) Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSourceEmpty, path)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	return &Table{Columns: header, Rows: records[1:]}, nil
}

// Clean validates the column contract and coerces cell types. Required
// columns are checked in the caller's declared order and the first missing
// one is reported. Columns listed in numeric are parsed as floats, with
// unparseable cells becoming missing. Categorical cells are trimmed strings;
// absent or unconvertible categoricals become "" and a row whose required
// categorical is "" is dropped by the same required-value check.
func (ing *Ingestor) Clean(tab *Table, required, numeric []string) (*CleanedTable, error) {
	colIndex := make(map[string]int, len(tab.Columns))
	for i, c := range tab.Columns {
		colIndex[c] = i
	}
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	numSet := make(map[string]bool, len(numeric))
	for _, col := range numeric {
		numSet[col] = true
	}

	cleaned := &CleanedTable{Columns: append([]string(nil), tab.Columns...)}
	dropped := 0

	for _, rec := range tab.Rows {
		row := Row{
			Strings: make(map[string]string),
			Nums:    make(map[string]float64),
		}
		for i, col := range tab.Columns {
			if i >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[i])
			if numSet[col] {
				if v, err := strconv.ParseFloat(cell, 64); err == nil {
					row.Nums[col] = v
				}
				continue
			}
			row.Strings[col] = cell
		}

		if !hasRequired(row, required, numSet) {
			dropped++
			continue
		}
		cleaned.Rows = append(cleaned.Rows, row)
	}

	if dropped > 0 {
		ing.logger.Debug("[ingest] Dropped %d rows with missing required values", dropped)
	}
	ing.logger.Info("[ingest] Cleaned table: %d → %d rows", len(tab.Rows), len(cleaned.Rows))
	return cleaned, nil
}

func hasRequired(row Row, required []string, numSet map[string]bool) bool {
	for _, col := range required {
		if numSet[col] {
			if _, ok := row.Nums[col]; !ok {
				return false
			}
			continue
		}
		if row.Strings[col] == "" {
			return false
		}
	}
	return true
}
