package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/roach88/salesmap/internal/geo"
)

// seedReport is the shape of one entry of a feature's "reports" property.
type seedReport struct {
	Year        int    `json:"year"`
	MonthName   string `json:"month_name"`
	MonthNumber int    `json:"month_number"`
	URL         string `json:"url"`
}

// Seed upserts one neighbourhood per feature of fc in a single transaction.
// Each feature needs a polygon geometry and a "name_code" property; "name"
// defaults to the code. An optional "reports" array adds its reports.
// Returns the number of neighbourhoods written.
func (s *Store) Seed(ctx context.Context, fc *geojson.FeatureCollection) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback()

	for i, f := range fc.Features {
		code := stringProp(f.Properties, "name_code", "")
		if code == "" {
			return 0, fmt.Errorf("seed: feature %d: missing name_code", i)
		}
		poly, err := geo.AsPolygon(f.Geometry)
		if err != nil {
			return 0, fmt.Errorf("seed: %s: %w", code, err)
		}
		id, err := upsertNeighbourhood(ctx, tx, Neighbourhood{
			NameCode:   code,
			NamePretty: stringProp(f.Properties, "name", code),
			Polygon:    poly,
		})
		if err != nil {
			return 0, fmt.Errorf("seed: %w", err)
		}

		reports, err := featureReports(f)
		if err != nil {
			return 0, fmt.Errorf("seed: %s: %w", code, err)
		}
		for _, r := range reports {
			err := writeReport(ctx, tx, Report{
				Year:            r.Year,
				MonthName:       r.MonthName,
				MonthNumber:     r.MonthNumber,
				NeighbourhoodID: id,
				URL:             r.URL,
			})
			if err != nil {
				return 0, fmt.Errorf("seed: %s: %w", code, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	return len(fc.Features), nil
}

func featureReports(f *geojson.Feature) ([]seedReport, error) {
	raw, ok := f.Properties["reports"]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}
	var out []seedReport
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}
	return out, nil
}

func stringProp(p geojson.Properties, key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}
