package models

import (
	"database/sql"
	"strconv"
)

// RawRecord is one unprocessed listing entry as decoded from the JSON source.
// Every field may be absent, null, or of an unexpected type; nothing is
// guaranteed until the normalizer has run.
type RawRecord map[string]any

// Columns is the fixed schema of the normalized tabular artifact, in the
// exact order it is written.
var Columns = []string{
	"name", "type", "district", "street", "location_detail",
	"room_count", "area", "total_price", "unit_price",
}

// NormalizedRow is one listing in the fixed nine-column schema. String
// fields fall back to "" when the source value is unusable; numeric fields
// carry an explicit null when no value could be extracted, which is distinct
// from zero.
type NormalizedRow struct {
	Name           string
	Type           string
	District       string
	Street         string
	LocationDetail string
	RoomCount      sql.NullInt64
	Area           sql.NullInt64 // square metres
	TotalPrice     sql.NullInt64 // ten-thousands
	UnitPrice      sql.NullInt64 // per square metre
}

// Record serializes the row as CSV cells in Columns order. Null numerics
// become empty cells, never "0" or "NaN".
func (r *NormalizedRow) Record() []string {
	return []string{
		r.Name,
		r.Type,
		r.District,
		r.Street,
		r.LocationDetail,
		cell(r.RoomCount),
		cell(r.Area),
		cell(r.TotalPrice),
		cell(r.UnitPrice),
	}
}

func cell(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

// InsightReport holds the computed analytics over the normalized dataset.
type InsightReport struct {
	TotalListings      int
	Districts          int
	AvgUnitPrice       float64
	MinUnitPrice       float64
	MaxUnitPrice       float64
	AvgTotalPrice      float64
	MostExpensive      *NormalizedRow
	ListingsByDistrict map[string]int
}
