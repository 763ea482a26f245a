package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/salesmap/internal/geo"
)

// ErrNotFound is returned when a neighbourhood does not exist.
var ErrNotFound = errors.New("not found")

// Summary is a neighbourhood with its report count and latest report.
type Summary struct {
	Neighbourhood
	Reports int
	Latest  *Report
}

// Attributes returns the attribute bag of the neighbourhood's polygon
// feature. The latest_* keys are absent when there is no report.
func (s Summary) Attributes() map[string]any {
	attrs := map[string]any{
		"name_code": s.NameCode,
		"name":      s.NamePretty,
		"reports":   s.Reports,
	}
	if s.Latest != nil {
		attrs["latest_year"] = s.Latest.Year
		attrs["latest_month"] = s.Latest.MonthName
		attrs["latest_url"] = s.Latest.URL
	}
	return attrs
}

// ListNeighbourhoods returns every neighbourhood ordered by id.
func (s *Store) ListNeighbourhoods(ctx context.Context) ([]Neighbourhood, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name_code, name_pretty, polygon_data
		FROM neighbourhoods
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list neighbourhoods: %w", err)
	}
	defer rows.Close()

	var out []Neighbourhood
	for rows.Next() {
		n, err := scanNeighbourhood(rows)
		if err != nil {
			return nil, fmt.Errorf("list neighbourhoods: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list neighbourhoods: %w", err)
	}
	return out, nil
}

// Neighbourhood returns the neighbourhood with id, or ErrNotFound.
func (s *Store) Neighbourhood(ctx context.Context, id int64) (Neighbourhood, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name_code, name_pretty, polygon_data
		FROM neighbourhoods
		WHERE id = ?
	`, id)
	n, err := scanNeighbourhood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Neighbourhood{}, fmt.Errorf("neighbourhood %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Neighbourhood{}, fmt.Errorf("neighbourhood %d: %w", id, err)
	}
	return n, nil
}

// Reports returns the reports of a neighbourhood, newest first.
func (s *Store) Reports(ctx context.Context, neighbourhoodID int64) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, year, month_name, month_number, neighbourhood_id, url
		FROM pdfs
		WHERE neighbourhood_id = ?
		ORDER BY year DESC, month_number DESC, id ASC
	`, neighbourhoodID)
	if err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.Year, &r.MonthName, &r.MonthNumber, &r.NeighbourhoodID, &r.URL); err != nil {
			return nil, fmt.Errorf("reports: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}
	return out, nil
}

// Summaries returns every neighbourhood with its report count and latest
// report, ordered by id.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.name_code, n.name_pretty, n.polygon_data,
			(SELECT COUNT(*) FROM pdfs c WHERE c.neighbourhood_id = n.id),
			p.id, p.year, p.month_name, p.month_number, p.url
		FROM neighbourhoods n
		LEFT JOIN pdfs p ON p.id = (
			SELECT l.id FROM pdfs l
			WHERE l.neighbourhood_id = n.id
			ORDER BY l.year DESC, l.month_number DESC, l.id DESC
			LIMIT 1
		)
		ORDER BY n.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum      Summary
			polygon  string
			reportID sql.NullInt64
			year     sql.NullInt64
			month    sql.NullString
			monthNum sql.NullInt64
			url      sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.NameCode, &sum.NamePretty, &polygon,
			&sum.Reports, &reportID, &year, &month, &monthNum, &url); err != nil {
			return nil, fmt.Errorf("summaries: %w", err)
		}
		if sum.Polygon, err = geo.ParsePolygon([]byte(polygon)); err != nil {
			return nil, fmt.Errorf("summaries: neighbourhood %s: %w", sum.NameCode, err)
		}
		if reportID.Valid {
			sum.Latest = &Report{
				ID:              reportID.Int64,
				Year:            int(year.Int64),
				MonthName:       month.String,
				MonthNumber:     int(monthNum.Int64),
				NeighbourhoodID: sum.ID,
				URL:             url.String,
			}
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNeighbourhood(sc scanner) (Neighbourhood, error) {
	var (
		n       Neighbourhood
		polygon string
	)
	if err := sc.Scan(&n.ID, &n.NameCode, &n.NamePretty, &polygon); err != nil {
		return Neighbourhood{}, err
	}
	p, err := geo.ParsePolygon([]byte(polygon))
	if err != nil {
		return Neighbourhood{}, fmt.Errorf("neighbourhood %s: %w", n.NameCode, err)
	}
	n.Polygon = p
	return n, nil
}
