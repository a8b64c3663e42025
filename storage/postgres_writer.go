package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"newhouse-analytics/models"
)

// PostgresWriter persists normalized listing rows to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id              SERIAL PRIMARY KEY,
			name            TEXT    NOT NULL DEFAULT '',
			type            TEXT    NOT NULL DEFAULT '',
			district        TEXT    NOT NULL DEFAULT '',
			street          TEXT    NOT NULL DEFAULT '',
			location_detail TEXT    NOT NULL DEFAULT '',
			room_count      INTEGER,
			area            INTEGER,
			total_price     INTEGER,
			unit_price      INTEGER,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_district   ON listings(district);
		CREATE INDEX IF NOT EXISTS idx_listings_type       ON listings(type);
		CREATE INDEX IF NOT EXISTS idx_listings_unit_price ON listings(unit_price);
	`)
	return err
}

// Clear deletes all existing listings from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// WriteRows batch-inserts all normalized rows, clearing old data first.
// Null numerics are stored as SQL NULL, never as zero.
func (pw *PostgresWriter) WriteRows(rows []*models.NormalizedRow) error {
	if len(rows) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := pw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.NormalizedRow) error {
	const fields = 9
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*fields)

	for idx, r := range batch {
		base := idx * fields
		placeholders := make([]string, fields)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			r.Name, r.Type, r.District, r.Street, r.LocationDetail,
			r.RoomCount, r.Area, r.TotalPrice, r.UnitPrice)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (name, type, district, street, location_detail,
		                      room_count, area, total_price, unit_price)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// Close releases the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored rows in insertion order, so insights after
// a store run reflect the table contents.
func (pw *PostgresWriter) FetchAll() ([]*models.NormalizedRow, error) {
	dbRows, err := pw.db.Query(`
		SELECT name, type, district, street, location_detail,
		       room_count, area, total_price, unit_price
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer dbRows.Close()

	var rows []*models.NormalizedRow
	for dbRows.Next() {
		r := &models.NormalizedRow{}
		if err := dbRows.Scan(
			&r.Name, &r.Type, &r.District, &r.Street, &r.LocationDetail,
			&r.RoomCount, &r.Area, &r.TotalPrice, &r.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		rows = append(rows, r)
	}
	return rows, dbRows.Err()
}
