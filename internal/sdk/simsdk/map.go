package simsdk

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/sdk"
)

// Map is a simulated map. The viewport is derived from centre, zoom and the
// platform viewport size.
type Map struct {
	*emitter
	platform  *Platform
	id        string
	container string

	mu      sync.Mutex
	zoom    int
	minZoom int
	maxZoom int
	center  orb.Point
}

var _ sdk.Map = (*Map)(nil)

func (m *Map) ID() string { return m.id }

// Container returns the container the map was created in.
func (m *Map) Container() string { return m.container }

func (m *Map) Zoom() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom, true
}

// Center returns the current centre.
func (m *Map) Center() orb.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

func (m *Map) SetZoom(level int) {
	m.mu.Lock()
	from := m.zoom
	to := clampInt(level, m.minZoom, m.maxZoom)
	m.zoom = to
	m.mu.Unlock()

	m.platform.record(OpSetZoom, m.id, map[string]any{"from": from, "to": to})
	if from != to {
		m.emit(sdk.Event{Name: sdk.EventZoomChanged})
	}
}

func (m *Map) Bounds() (orb.Bound, bool) {
	if m.platform.boundsHidden {
		return orb.Bound{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return geo.Viewport(m.center, m.zoom, m.platform.width, m.platform.height), true
}

func (m *Map) PanTo(location orb.Point) {
	bounds, ok := m.Bounds()
	visible := ok && geo.Contains(bounds, location)

	m.mu.Lock()
	m.center = location
	m.mu.Unlock()

	m.platform.record(OpPanTo, m.id, map[string]any{
		"lat_e7":  geo.E7(location.Lat()),
		"lng_e7":  geo.E7(location.Lon()),
		"visible": visible,
	})
	m.emit(sdk.Event{Name: sdk.EventIdle})
}
