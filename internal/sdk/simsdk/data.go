package simsdk

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/sdk"
)

// DataFeature is a simulated data-layer feature.
type DataFeature struct {
	id       string
	geometry orb.Geometry
}

var _ sdk.DataFeature = (*DataFeature)(nil)

func (f *DataFeature) ID() string             { return f.id }
func (f *DataFeature) Geometry() orb.Geometry { return f.geometry }

// Data is a simulated grouped vector layer.
type Data struct {
	*emitter

	mu        sync.Mutex
	order     []string
	features  map[string]*DataFeature
	overrides map[string]sdk.Style
	style     sdk.Style
	m         sdk.Map
}

var _ sdk.Data = (*Data)(nil)

func (d *Data) Add(f sdk.DataFeature) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.features[f.ID()]; !ok {
		d.order = append(d.order, f.ID())
	}
	d.features[f.ID()] = &DataFeature{id: f.ID(), geometry: f.Geometry()}
}

func (d *Data) Remove(f sdk.DataFeature) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.features[f.ID()]; !ok {
		return
	}
	delete(d.features, f.ID())
	delete(d.overrides, f.ID())
	for i, id := range d.order {
		if id == f.ID() {
			d.order = append(d.order[:i:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *Data) SetStyle(style sdk.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.style = style
}

func (d *Data) OverrideStyle(f sdk.DataFeature, style sdk.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overrides[f.ID()] = d.overrides[f.ID()].Merge(style)
}

func (d *Data) RevertStyle(f sdk.DataFeature) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f == nil {
		d.overrides = make(map[string]sdk.Style)
		return
	}
	delete(d.overrides, f.ID())
}

func (d *Data) SetMap(m sdk.Map) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m = m
}

func (d *Data) Map() sdk.Map {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m
}

// Len returns the number of features held.
func (d *Data) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.features)
}

// Has reports whether a feature with id is held.
func (d *Data) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.features[id]
	return ok
}

// EffectiveStyle is the layer style with the feature override applied.
func (d *Data) EffectiveStyle(id string) sdk.Style {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.style.Merge(d.overrides[id])
}

// Rendered reports whether the feature is drawn: the layer is on a map, the
// feature is held and its effective style is not hidden.
func (d *Data) Rendered(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m == nil {
		return false
	}
	if _, ok := d.features[id]; !ok {
		return false
	}
	return !d.style.Merge(d.overrides[id]).Hidden()
}

// RenderedIDs lists drawn features in insertion order.
func (d *Data) RenderedIDs() []string {
	d.mu.Lock()
	ids := append([]string(nil), d.order...)
	d.mu.Unlock()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if d.Rendered(id) {
			out = append(out, id)
		}
	}
	return out
}

// Dispatch injects a mouse event for the feature with id. It is a no-op
// when the feature is not held.
func (d *Data) Dispatch(name sdk.EventName, id string) {
	d.mu.Lock()
	f, ok := d.features[id]
	d.mu.Unlock()
	if !ok {
		return
	}
	d.emit(sdk.Event{Name: name, Feature: f})
}
