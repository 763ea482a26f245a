// Package store reads and seeds the SQLite database of neighbourhoods and
// their monthly sales reports.
//
// Two tables:
//   - neighbourhoods: name code, display name and the boundary polygon as a
//     GeoJSON geometry (polygon_data)
//   - pdfs: one report per neighbourhood and month, linked by
//     neighbourhood_id
//
// List queries order by id, reports newest first. Open enables WAL and
// foreign keys, and migrates older files through PRAGMA user_version.
package store
