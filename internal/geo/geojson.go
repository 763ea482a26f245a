package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ParsePolygon decodes a GeoJSON geometry, or a Feature wrapping one, into a
// polygon. A MultiPolygon yields its first member.
func ParsePolygon(data []byte) (orb.Polygon, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil || g == nil || g.Coordinates == nil {
		f, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil {
			if err != nil {
				return nil, fmt.Errorf("decode geojson: %w", err)
			}
			return nil, fmt.Errorf("decode geojson: %w", ferr)
		}
		return asPolygon(f.Geometry)
	}
	return asPolygon(g.Geometry())
}

// MarshalPolygon encodes a polygon as a GeoJSON geometry.
func MarshalPolygon(p orb.Polygon) ([]byte, error) {
	data, err := geojson.NewGeometry(p).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection.
func ParseFeatureCollection(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return fc, nil
}

// AsPolygon narrows a geometry to a polygon.
func AsPolygon(g orb.Geometry) (orb.Polygon, error) {
	return asPolygon(g)
}

func asPolygon(g orb.Geometry) (orb.Polygon, error) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 {
			return nil, fmt.Errorf("polygon has no rings")
		}
		return v, nil
	case orb.MultiPolygon:
		if len(v) == 0 || len(v[0]) == 0 {
			return nil, fmt.Errorf("multipolygon is empty")
		}
		return v[0], nil
	case orb.Ring:
		return orb.Polygon{v}, nil
	case nil:
		return nil, fmt.Errorf("geometry is missing")
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}

// Ring builds a closed ring from [lat, lng] pairs.
func Ring(pairs [][2]float64) orb.Ring {
	ring := make(orb.Ring, 0, len(pairs)+1)
	for _, pair := range pairs {
		ring = append(ring, LatLng(pair[0], pair[1]))
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}
