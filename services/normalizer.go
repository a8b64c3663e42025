package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"newhouse-analytics/models"
	"newhouse-analytics/numtext"
	"newhouse-analytics/utils"
)

// ErrBadDocument is returned when the raw source cannot be read as a JSON
// listing document (a list of records, or a single record).
var ErrBadDocument = errors.New("source is not a JSON listing document")

// Normalizer maps raw, loosely-typed listing records onto the fixed
// nine-column schema. Averaged values (room_count, area midpoint) round
// half-to-even.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts one raw record into a NormalizedRow. It never fails:
// every field falls back to an empty string or a null numeric when the raw
// value is absent, null, or mistyped.
func (n *Normalizer) Normalize(rec models.RawRecord) models.NormalizedRow {
	row := models.NormalizedRow{
		Name: stringField(rec, "name"),
		Type: stringField(rec, "type"),
	}

	// location is an ordered list: district, street, specific location.
	locs, _ := rec["location"].([]any)
	row.District = locationPart(locs, 0)
	row.Street = locationPart(locs, 1)
	row.LocationDetail = locationPart(locs, 2)

	row.RoomCount = n.averageRooms(rec["room"])
	row.Area = n.parseArea(rec["area"])
	row.TotalPrice = parsePrice(rec["total_price"])
	row.UnitPrice = parsePrice(rec["unit_price"])

	return row
}

// NormalizeAll processes raw entries in input order. Entries that are not
// objects are skipped with a diagnostic rather than failing the batch.
func (n *Normalizer) NormalizeAll(entries []any) []*models.NormalizedRow {
	rows := make([]*models.NormalizedRow, 0, len(entries))
	skipped := 0

	for i, e := range entries {
		rec, ok := e.(map[string]any)
		if !ok {
			n.logger.Warn("[normalizer] Skipping entry %d: not a record (%T)", i, e)
			skipped++
			continue
		}
		row := n.Normalize(models.RawRecord(rec))
		rows = append(rows, &row)
	}

	n.logger.Info("[normalizer] Normalized %d → %d rows (skipped %d)",
		len(entries), len(rows), skipped)
	return rows
}

// ReadRecords loads the raw JSON source. A single top-level object is
// treated as a one-element list; any other top-level shape is a fatal
// ingestion error carrying the parse diagnostic.
func (n *Normalizer) ReadRecords(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw source %q: %w", path, err)
	}

	var entries []any
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}

	var single map[string]any
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadDocument, path, err)
	}
	return []any{single}, nil
}

// averageRooms flattens every numeric token across all string entries of
// the room list into one pool and returns its rounded mean. Non-string
// entries and a non-list room field contribute nothing.
func (n *Normalizer) averageRooms(v any) sql.NullInt64 {
	rooms, _ := v.([]any)

	var pool []float64
	for _, room := range rooms {
		for tok := range numtext.NumbersOf(room) {
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				pool = append(pool, f)
			}
		}
	}
	if len(pool) == 0 {
		return sql.NullInt64{}
	}

	var sum float64
	for _, f := range pool {
		sum += f
	}
	return roundedInt(sum / float64(len(pool)))
}

// parseArea reads the area text. Two or more tokens form a range whose
// rounded midpoint is used; a single token is rounded directly; tokens past
// the first two are ignored.
func (n *Normalizer) parseArea(v any) sql.NullInt64 {
	bounds := make([]float64, 0, 2)
	for tok := range numtext.NumbersOf(v) {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		bounds = append(bounds, f)
		if len(bounds) == 2 {
			break
		}
	}

	switch len(bounds) {
	case 0:
		return sql.NullInt64{}
	case 1:
		return roundedInt(bounds[0])
	default:
		return roundedInt((bounds[0] + bounds[1]) / 2)
	}
}

// parsePrice truncates the first numeric token to an integer. Truncation,
// not rounding: "1.98万" → 1.
func parsePrice(v any) sql.NullInt64 {
	for tok := range numtext.NumbersOf(v) {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		return sql.NullInt64{Int64: int64(f), Valid: true}
	}
	return sql.NullInt64{}
}

func roundedInt(f float64) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(math.RoundToEven(f)), Valid: true}
}

func stringField(rec models.RawRecord, key string) string {
	s, ok := rec[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func locationPart(locs []any, i int) string {
	if i >= len(locs) {
		return ""
	}
	s, ok := locs[i].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
