// Package geo holds the coordinate helpers shared by the map core, the
// simulator and the neighbourhood store. Points use orb's [lng, lat] order.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// LatLng builds a point from latitude and longitude.
func LatLng(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("invalid coordinate %q: want \"lat,lng\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	if err := Validate(LatLng(lat, lng)); err != nil {
		return orb.Point{}, err
	}
	return LatLng(lat, lng), nil
}

// Validate checks the point lies within WGS84 ranges.
func Validate(p orb.Point) error {
	if math.IsNaN(p.Lat()) || p.Lat() < -90 || p.Lat() > 90 {
		return fmt.Errorf("latitude %v out of range", p.Lat())
	}
	if math.IsNaN(p.Lon()) || p.Lon() < -180 || p.Lon() > 180 {
		return fmt.Errorf("longitude %v out of range", p.Lon())
	}
	return nil
}

// FormatLatLng renders a point as "lat,lng".
func FormatLatLng(p orb.Point) string {
	return strconv.FormatFloat(p.Lat(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon(), 'f', -1, 64)
}

// E7 converts a coordinate to fixed-point degrees * 1e7. Traces carry E7
// integers so they serialise canonically.
func E7(deg float64) int64 {
	return int64(math.Round(deg * 1e7))
}

// Contains reports whether b contains p. A zero bound contains nothing.
func Contains(b orb.Bound, p orb.Point) bool {
	if b.IsZero() {
		return false
	}
	return b.Contains(p)
}

// Viewport computes the bound of a width x height pixel viewport centred on
// center at the given zoom, using 256px world tiles. Latitude is treated
// linearly, which is enough for a simulation of viewport containment.
func Viewport(center orb.Point, zoom, width, height int) orb.Bound {
	scale := math.Exp2(float64(zoom))
	lngSpan := 360 * float64(width) / 256 / scale
	latSpan := 360 * float64(height) / 256 / scale
	return orb.Bound{
		Min: orb.Point{clampLng(center.Lon() - lngSpan/2), clampLat(center.Lat() - latSpan/2)},
		Max: orb.Point{clampLng(center.Lon() + lngSpan/2), clampLat(center.Lat() + latSpan/2)},
	}
}

func clampLat(v float64) float64 {
	return math.Max(-90, math.Min(90, v))
}

func clampLng(v float64) float64 {
	return math.Max(-180, math.Min(180, v))
}
