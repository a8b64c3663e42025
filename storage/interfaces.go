package storage

import "newhouse-analytics/models"

// RowWriter is the interface any normalized-row sink must satisfy.
type RowWriter interface {
	WriteRows(rows []*models.NormalizedRow) error
	Close() error
}

// RowReader is the interface any normalized-row source must satisfy.
type RowReader interface {
	FetchAll() ([]*models.NormalizedRow, error)
}
