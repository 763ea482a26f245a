package maps

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/filter"
	"github.com/roach88/salesmap/internal/schema"
	"github.com/roach88/salesmap/internal/sdk"
)

// MarkerLayer toggles each marker's map attachment directly.
type MarkerLayer struct {
	*layerCore[*Marker]
}

var _ Layer = (*MarkerLayer)(nil)

// NewMarkerLayer creates a marker layer and registers it on s.
func NewMarkerLayer(s *Surface, opts LayerOptions) (*MarkerLayer, error) {
	if s == nil || s.Deleted() {
		return nil, newPreconditionError(KindMarker.layerEntity(), opts.ID, "surface")
	}
	l := &MarkerLayer{layerCore: newLayerCore[*Marker](s, KindMarker, opts)}
	l.render = markerRenderer{m: s.Map()}
	if err := s.AddLayer(l); err != nil {
		return nil, err
	}
	return l, nil
}

// SetFilter installs fn as the filter; nil removes it.
func (l *MarkerLayer) SetFilter(fn func(*Marker) bool) {
	l.setFilter(fn, nil)
}

// Markers returns the markers in insertion order.
func (l *MarkerLayer) Markers() []*Marker {
	return l.list()
}

// Marker looks up a marker by id.
func (l *MarkerLayer) Marker(id string) (*Marker, bool) {
	return l.get(id)
}

type markerRenderer struct {
	m sdk.Map
}

func (r markerRenderer) add(*Marker) {}

func (r markerRenderer) remove(mk *Marker) {
	r.attach(mk, false)
}

func (r markerRenderer) attach(mk *Marker, on bool) {
	if on {
		mk.handle.SetMap(r.m)
	} else {
		mk.handle.SetMap(nil)
	}
	mk.attached = on
}

func (r markerRenderer) showAll(ms []*Marker) {
	for _, mk := range ms {
		r.attach(mk, mk.visible)
	}
}

func (r markerRenderer) hideAll(ms []*Marker) {
	for _, mk := range ms {
		r.attach(mk, false)
	}
}

func (r markerRenderer) destroy() {}

// MarkerOptions configures a Marker.
type MarkerOptions struct {
	// ID identifies the marker within its layer. Generated when empty.
	ID       string
	Position orb.Point
	Title    string

	// Attributes are validated against Schema, or the layer schema when
	// Schema is nil.
	Attributes map[string]any
	Schema     *schema.Schema

	// Hidden creates the marker with its own state hidden.
	Hidden bool
}

// Marker is a single point feature.
type Marker struct {
	id         string
	position   orb.Point
	title      string
	attributes map[string]any
	surface    *Surface
	layer      *MarkerLayer
	handle     sdk.Marker

	// Guarded by the layer lock.
	visible  bool
	attached bool
}

var _ Feature = (*Marker)(nil)

// NewMarker creates a marker on layer l of surface s. Both must exist and
// the marker library must be loaded.
func NewMarker(s *Surface, l *MarkerLayer, opts MarkerOptions) (*Marker, error) {
	if s == nil || s.Deleted() {
		return nil, newPreconditionError(string(KindMarker), opts.ID, "surface")
	}
	if l == nil || l.Deleted() {
		return nil, newPreconditionError(string(KindMarker), opts.ID, KindMarker.layerEntity())
	}
	if l.Surface() != s {
		return nil, newPreconditionError(string(KindMarker), opts.ID, KindMarker.layerEntity()+" on surface "+s.ID())
	}
	if !s.Provider().Loaded(sdk.LibraryMarker) {
		return nil, newPreconditionError(string(KindMarker), opts.ID, "library "+string(sdk.LibraryMarker))
	}

	id := opts.ID
	if id == "" {
		id = s.nextID()
	}
	if err := validateAttributes(l, id, opts.Schema, opts.Attributes); err != nil {
		return nil, err
	}

	handle, err := s.client.NewMarker(sdk.MarkerOptions{Position: opts.Position, Title: opts.Title})
	if err != nil {
		return nil, fmt.Errorf("marker %s: %w", id, err)
	}
	mk := &Marker{
		id:         id,
		position:   opts.Position,
		title:      opts.Title,
		attributes: opts.Attributes,
		surface:    s,
		layer:      l,
		handle:     handle,
		visible:    !opts.Hidden,
	}
	if err := l.add(mk); err != nil {
		return nil, err
	}
	return mk, nil
}

func (mk *Marker) ID() string                 { return mk.id }
func (mk *Marker) Kind() Kind                 { return KindMarker }
func (mk *Marker) Layer() Layer               { return mk.layer }
func (mk *Marker) Surface() *Surface          { return mk.surface }
func (mk *Marker) Attributes() map[string]any { return mk.attributes }
func (mk *Marker) Position() orb.Point        { return mk.position }
func (mk *Marker) Title() string              { return mk.title }

// Handle returns the SDK marker.
func (mk *Marker) Handle() sdk.Marker { return mk.handle }

func (mk *Marker) Visible() bool {
	return mk.layer.featureVisible(mk)
}

func (mk *Marker) Attached() bool {
	mk.layer.mu.Lock()
	defer mk.layer.mu.Unlock()
	return mk.attached
}

func (mk *Marker) Show() { mk.layer.setFeatureVisible(mk, true) }
func (mk *Marker) Hide() { mk.layer.setFeatureVisible(mk, false) }

// Delete detaches the marker and removes it from its layer.
func (mk *Marker) Delete() {
	if !mk.layer.DeleteFeature(mk.id) {
		mk.layer.mu.Lock()
		markerRenderer{}.attach(mk, false)
		mk.layer.mu.Unlock()
	}
}

func (mk *Marker) ownVisible() bool     { return mk.visible }
func (mk *Marker) setOwnVisible(v bool) { mk.visible = v }

func (mk *Marker) env() filter.Env {
	return filter.Env{
		"id":         mk.id,
		"kind":       string(KindMarker),
		"layer":      mk.layer.id,
		"visible":    mk.visible,
		"attributes": mk.attributes,
		"position":   map[string]any{"lat": mk.position.Lat(), "lng": mk.position.Lon()},
	}
}
