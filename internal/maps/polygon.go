package maps

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/filter"
	"github.com/roach88/salesmap/internal/schema"
	"github.com/roach88/salesmap/internal/sdk"
)

// PolygonStyling holds the three style variants of a polygon layer.
type PolygonStyling struct {
	Default sdk.Style `json:"default" yaml:"default"`
	Hover   sdk.Style `json:"hover" yaml:"hover"`
	Click   sdk.Style `json:"click" yaml:"click"`
}

// DefaultPolygonStyling is applied under any consumer overrides.
var DefaultPolygonStyling = PolygonStyling{
	Default: sdk.Style{
		FillColor:     sdk.Ptr("#FF0000"),
		FillOpacity:   sdk.Ptr(0.5),
		StrokeColor:   sdk.Ptr("#FF0000"),
		StrokeWeight:  sdk.Ptr(2.0),
		StrokeOpacity: sdk.Ptr(1.0),
	},
	Hover: sdk.Style{
		StrokeWeight: sdk.Ptr(4.0),
		ZIndex:       sdk.Ptr(10),
	},
	Click: sdk.Style{
		FillColor:     sdk.Ptr("#07EDE5"),
		FillOpacity:   sdk.Ptr(0.5),
		StrokeColor:   sdk.Ptr("#07EDE5"),
		StrokeWeight:  sdk.Ptr(4.0),
		StrokeOpacity: sdk.Ptr(1.0),
		ZIndex:        sdk.Ptr(10),
	},
}

// Merge applies every property set in o on top of s, per variant.
func (s PolygonStyling) Merge(o PolygonStyling) PolygonStyling {
	return PolygonStyling{
		Default: s.Default.Merge(o.Default),
		Hover:   s.Hover.Merge(o.Hover),
		Click:   s.Click.Merge(o.Click),
	}
}

// Highlight names the interaction style currently applied to a polygon.
type Highlight string

const (
	HighlightNone  Highlight = ""
	HighlightHover Highlight = "hover"
	HighlightClick Highlight = "click"
)

// PolygonLayerOptions configures a PolygonLayer.
type PolygonLayerOptions struct {
	LayerOptions

	// Styling overrides DefaultPolygonStyling per variant.
	Styling PolygonStyling
}

// PolygonLayer renders its polygons through one shared SDK data layer.
// Layer visibility attaches or detaches the data layer; filters and
// per-polygon state override the visibility of single features.
type PolygonLayer struct {
	*layerCore[*Polygon]
	data    sdk.Data
	styling PolygonStyling

	// Guarded by the layer lock.
	highlight   Highlight
	highlighted string
}

var _ Layer = (*PolygonLayer)(nil)

// NewPolygonLayer creates a polygon layer with its data layer and
// interaction listeners, and registers it on s.
func NewPolygonLayer(s *Surface, opts PolygonLayerOptions) (*PolygonLayer, error) {
	if s == nil || s.Deleted() {
		return nil, newPreconditionError(KindPolygon.layerEntity(), opts.ID, "surface")
	}
	styling := DefaultPolygonStyling.Merge(opts.Styling)
	data, err := s.client.NewData(sdk.DataOptions{Style: styling.Default})
	if err != nil {
		return nil, fmt.Errorf("polygon layer: create data layer: %w", err)
	}

	l := &PolygonLayer{
		layerCore: newLayerCore[*Polygon](s, KindPolygon, opts.LayerOptions),
		data:      data,
		styling:   styling,
	}
	r := &polygonRenderer{data: data, m: s.Map()}
	l.render = r
	if l.visible {
		r.showAll(nil)
	}
	l.listen()

	if err := s.AddLayer(l); err != nil {
		data.ClearListeners()
		data.SetMap(nil)
		return nil, err
	}
	return l, nil
}

// SetFilter installs fn as the filter; nil removes it.
func (l *PolygonLayer) SetFilter(fn func(*Polygon) bool) {
	l.setFilter(fn, nil)
}

// Polygons returns the polygons in insertion order.
func (l *PolygonLayer) Polygons() []*Polygon {
	return l.list()
}

// Polygon looks up a polygon by id.
func (l *PolygonLayer) Polygon(id string) (*Polygon, bool) {
	return l.get(id)
}

// Data returns the shared SDK data layer.
func (l *PolygonLayer) Data() sdk.Data { return l.data }

// Styling returns the effective style variants.
func (l *PolygonLayer) Styling() PolygonStyling { return l.styling }

// Highlight reports the polygon carrying an interaction style, if any.
func (l *PolygonLayer) Highlight() (id string, h Highlight) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.highlighted, l.highlight
}

func (l *PolygonLayer) listen() {
	l.data.AddListener(sdk.EventClick, func(ev sdk.Event) { l.interact(ev, HighlightClick) })
	l.data.AddListener(sdk.EventMouseOver, func(ev sdk.Event) { l.interact(ev, HighlightHover) })
	l.data.AddListener(sdk.EventMouseOut, func(ev sdk.Event) { l.interact(ev, HighlightNone) })
}

// interact drops every style override, restores the visibility overrides
// and then styles the event's polygon with h.
func (l *PolygonLayer) interact(ev sdk.Event, h Highlight) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deleted {
		return
	}

	l.data.RevertStyle(nil)
	for _, p := range l.features.list() {
		l.data.OverrideStyle(p.feature, sdk.Style{Visible: sdk.Ptr(p.shown)})
	}
	l.highlight, l.highlighted = HighlightNone, ""
	if h == HighlightNone || ev.Feature == nil {
		return
	}

	p, ok := l.features.get(ev.Feature.ID())
	if !ok {
		return
	}
	style := l.styling.Hover
	if h == HighlightClick {
		style = l.styling.Click
	}
	l.data.OverrideStyle(p.feature, style)
	l.highlight, l.highlighted = h, p.id
	l.logger.Debug("polygon highlighted", "feature", p.id, "style", string(h))
}

type polygonRenderer struct {
	data  sdk.Data
	m     sdk.Map
	onMap bool
}

func (r *polygonRenderer) add(p *Polygon) {
	r.data.Add(p.feature)
}

// remove runs under the layer lock, which also guards the highlight.
func (r *polygonRenderer) remove(p *Polygon) {
	r.data.Remove(p.feature)
	p.shown = false
	if l := p.layer; l != nil && l.highlighted == p.id {
		l.highlight, l.highlighted = HighlightNone, ""
	}
}

func (r *polygonRenderer) attach(p *Polygon, on bool) {
	r.data.OverrideStyle(p.feature, sdk.Style{Visible: sdk.Ptr(on)})
	p.shown = on
}

func (r *polygonRenderer) showAll(ps []*Polygon) {
	r.data.SetMap(r.m)
	r.onMap = true
	for _, p := range ps {
		r.attach(p, p.visible)
	}
}

func (r *polygonRenderer) hideAll([]*Polygon) {
	r.data.SetMap(nil)
	r.onMap = false
}

func (r *polygonRenderer) destroy() {
	r.data.ClearListeners()
	r.data.SetMap(nil)
	r.onMap = false
}

// PolygonOptions configures a Polygon.
type PolygonOptions struct {
	// ID identifies the polygon within its layer. Generated when empty.
	ID       string
	Geometry orb.Polygon

	// Attributes are validated against Schema, or the layer schema when
	// Schema is nil.
	Attributes map[string]any
	Schema     *schema.Schema

	// Hidden creates the polygon with its own state hidden.
	Hidden bool
}

// Polygon is an area feature held by a polygon layer's data layer.
type Polygon struct {
	id         string
	geometry   orb.Polygon
	attributes map[string]any
	surface    *Surface
	layer      *PolygonLayer
	feature    sdk.DataFeature

	// Guarded by the layer lock.
	visible bool
	shown   bool
}

var _ Feature = (*Polygon)(nil)

// NewPolygon creates a polygon on layer l of surface s and adds its
// geometry to the layer's data layer.
func NewPolygon(s *Surface, l *PolygonLayer, opts PolygonOptions) (*Polygon, error) {
	if s == nil || s.Deleted() {
		return nil, newPreconditionError(string(KindPolygon), opts.ID, "surface")
	}
	if l == nil || l.Deleted() {
		return nil, newPreconditionError(string(KindPolygon), opts.ID, KindPolygon.layerEntity())
	}
	if l.Surface() != s {
		return nil, newPreconditionError(string(KindPolygon), opts.ID, KindPolygon.layerEntity()+" on surface "+s.ID())
	}
	if len(opts.Geometry) == 0 || len(opts.Geometry[0]) < 4 {
		return nil, errors.New("polygon: geometry needs a closed outer ring")
	}

	id := opts.ID
	if id == "" {
		id = s.nextID()
	}
	if err := validateAttributes(l, id, opts.Schema, opts.Attributes); err != nil {
		return nil, err
	}

	p := &Polygon{
		id:         id,
		geometry:   opts.Geometry,
		attributes: opts.Attributes,
		surface:    s,
		layer:      l,
		feature:    s.client.NewDataFeature(id, opts.Geometry),
		visible:    !opts.Hidden,
	}
	if err := l.add(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Polygon) ID() string                 { return p.id }
func (p *Polygon) Kind() Kind                 { return KindPolygon }
func (p *Polygon) Layer() Layer               { return p.layer }
func (p *Polygon) Surface() *Surface          { return p.surface }
func (p *Polygon) Attributes() map[string]any { return p.attributes }
func (p *Polygon) Geometry() orb.Polygon      { return p.geometry }

// DataFeature returns the SDK feature.
func (p *Polygon) DataFeature() sdk.DataFeature { return p.feature }

func (p *Polygon) Visible() bool {
	return p.layer.featureVisible(p)
}

// Attached reports whether the data layer is on the map and the polygon's
// visibility override is on.
func (p *Polygon) Attached() bool {
	p.layer.mu.Lock()
	defer p.layer.mu.Unlock()
	r := p.layer.render.(*polygonRenderer)
	return r.onMap && p.shown
}

func (p *Polygon) Show() { p.layer.setFeatureVisible(p, true) }
func (p *Polygon) Hide() { p.layer.setFeatureVisible(p, false) }

// Delete removes the polygon from its layer and data layer.
func (p *Polygon) Delete() {
	p.layer.DeleteFeature(p.id)
}

func (p *Polygon) ownVisible() bool     { return p.visible }
func (p *Polygon) setOwnVisible(v bool) { p.visible = v }

func (p *Polygon) env() filter.Env {
	center := p.geometry.Bound().Center()
	return filter.Env{
		"id":         p.id,
		"kind":       string(KindPolygon),
		"layer":      p.layer.id,
		"visible":    p.visible,
		"attributes": p.attributes,
		"position":   map[string]any{"lat": center.Lat(), "lng": center.Lon()},
	}
}
