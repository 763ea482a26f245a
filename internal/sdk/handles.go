package sdk

import "github.com/paulmach/orb"

// EventName identifies an SDK event.
type EventName string

const (
	// EventIdle fires when the map has settled after panning.
	EventIdle EventName = "idle"
	// EventZoomChanged fires after the zoom level of a map changed.
	EventZoomChanged EventName = "zoom_changed"
	// EventClick, EventMouseOver and EventMouseOut fire on data layers.
	EventClick     EventName = "click"
	EventMouseOver EventName = "mouseover"
	EventMouseOut  EventName = "mouseout"
)

// Event is delivered to handlers. Feature is set for data layer mouse events.
type Event struct {
	Name    EventName
	Feature DataFeature
}

// Handler receives events on the SDK event loop.
type Handler func(Event)

// Listener is a registration that can be removed. Remove is idempotent.
type Listener interface {
	Remove()
}

// Evented is implemented by every handle that emits events.
type Evented interface {
	AddListener(name EventName, h Handler) Listener
	AddListenerOnce(name EventName, h Handler) Listener
	ClearListeners()
}

// Map is a renderable map instance.
type Map interface {
	Evented
	ID() string
	// Zoom reports the current zoom level; ok is false when the map cannot
	// report one yet.
	Zoom() (level int, ok bool)
	// SetZoom requests a zoom change. The change is confirmed asynchronously
	// by EventZoomChanged; requesting the current level emits nothing.
	SetZoom(level int)
	// Bounds reports the current viewport; ok is false when no viewport is
	// available.
	Bounds() (bounds orb.Bound, ok bool)
	// PanTo starts a pan; EventIdle fires once motion completes.
	PanTo(location orb.Point)
}

// Marker is a single point element whose attachment is its map field.
type Marker interface {
	// SetMap attaches the marker to m, or detaches it when m is nil.
	SetMap(m Map)
	Map() Map
}

// DataFeature is a geometry held by a Data layer.
type DataFeature interface {
	ID() string
	Geometry() orb.Geometry
}

// Data is a grouped vector layer rendering many features through one handle.
type Data interface {
	Evented
	Add(f DataFeature)
	Remove(f DataFeature)
	SetStyle(style Style)
	// OverrideStyle merges style into the override of a single feature.
	OverrideStyle(f DataFeature, style Style)
	// RevertStyle drops the override of f, or of every feature when f is nil.
	RevertStyle(f DataFeature)
	SetMap(m Map)
	Map() Map
}

// MapOptions configures a new map.
type MapOptions struct {
	MapID   string
	Center  orb.Point
	Zoom    int
	MinZoom int
	MaxZoom int
}

// MarkerOptions configures a new marker. Markers are created detached.
type MarkerOptions struct {
	Position orb.Point
	Title    string
}

// DataOptions configures a new data layer.
type DataOptions struct {
	Map   Map
	Style Style
}

// Factory constructs SDK handles.
type Factory interface {
	NewMap(container string, opts MapOptions) (Map, error)
	NewMarker(opts MarkerOptions) (Marker, error)
	NewData(opts DataOptions) (Data, error)
	NewDataFeature(id string, geometry orb.Polygon) DataFeature
}
