package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/geo"
)

// Neighbourhood is a named area with its boundary.
type Neighbourhood struct {
	ID         int64
	NameCode   string
	NamePretty string
	Polygon    orb.Polygon
}

// Report is the sales report PDF of one neighbourhood for one month.
type Report struct {
	ID              int64
	Year            int
	MonthName       string
	MonthNumber     int
	NeighbourhoodID int64
	URL             string
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertNeighbourhood inserts n, or updates the name and polygon of the
// neighbourhood with the same name code. Returns the row id.
func (s *Store) UpsertNeighbourhood(ctx context.Context, n Neighbourhood) (int64, error) {
	return upsertNeighbourhood(ctx, s.db, n)
}

func upsertNeighbourhood(ctx context.Context, q querier, n Neighbourhood) (int64, error) {
	if n.NameCode == "" {
		return 0, errors.New("upsert neighbourhood: empty name code")
	}
	data, err := geo.MarshalPolygon(n.Polygon)
	if err != nil {
		return 0, fmt.Errorf("upsert neighbourhood %s: %w", n.NameCode, err)
	}

	var id int64
	err = q.QueryRowContext(ctx, `
		INSERT INTO neighbourhoods (name_code, name_pretty, polygon_data)
		VALUES (?, ?, ?)
		ON CONFLICT(name_code) DO UPDATE SET
			name_pretty = excluded.name_pretty,
			polygon_data = excluded.polygon_data
		RETURNING id
	`, n.NameCode, n.NamePretty, string(data)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert neighbourhood %s: %w", n.NameCode, err)
	}
	return id, nil
}

// WriteReport inserts a report. A second report for the same neighbourhood
// and month is silently ignored.
//
// Note: The neighbourhood referenced by NeighbourhoodID must exist (foreign key constraint).
func (s *Store) WriteReport(ctx context.Context, r Report) error {
	return writeReport(ctx, s.db, r)
}

func writeReport(ctx context.Context, q querier, r Report) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO pdfs (year, month_name, month_number, neighbourhood_id, url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, r.Year, r.MonthName, r.MonthNumber, r.NeighbourhoodID, r.URL)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
