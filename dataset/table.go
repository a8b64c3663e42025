// Package dataset implements the shared load → validate → coerce → clean →
// group → pivot pipeline that every report runs on.
package dataset

// Table is a raw tabular load: header plus string cells, before any
// validation or coercion has happened.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Row is one cleaned observation. Categorical cells live in Strings;
// successfully coerced numeric cells live in Nums. A numeric column absent
// from Nums is missing for that row.
type Row struct {
	Strings map[string]string
	Nums    map[string]float64
}

// CleanedTable holds the rows that survived the required-column checks.
type CleanedTable struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether cleaning removed every row. Callers treat this the
// same as a failed load at the boundary ("nothing to do"), but it signals a
// data-quality problem rather than a structural one.
func (t *CleanedTable) Empty() bool {
	return len(t.Rows) == 0
}
