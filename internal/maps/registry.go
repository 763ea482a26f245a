package maps

import (
	"errors"
	"sync"
)

// Registry resolves surfaces, layers and features by scope id so callers
// can locate a parent without holding a reference to it. Surfaces created
// with SurfaceOptions.Registry register themselves and unregister on
// Delete; layers and features are resolved through their surface.
type Registry struct {
	mu       sync.Mutex
	surfaces *orderedMap[*Surface]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: newOrderedMap[*Surface]()}
}

func (r *Registry) register(s *Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.surfaces.add(s.ID(), s) {
		return newDuplicateError("surface", s.ID(), "registry")
	}
	return nil
}

func (r *Registry) unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces.remove(id)
}

// Surfaces returns the registered surfaces in creation order.
func (r *Registry) Surfaces() []*Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surfaces.list()
}

// Surface resolves a surface id.
func (r *Registry) Surface(id string) (*Surface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces.get(id)
	if !ok {
		return nil, newNotFoundError("surface", id)
	}
	return s, nil
}

// Layer resolves a layer within a surface.
func (r *Registry) Layer(surfaceID, layerID string) (Layer, error) {
	s, err := r.Surface(surfaceID)
	if err != nil {
		return nil, err
	}
	l, ok := s.Layer(layerID)
	if !ok {
		return nil, newNotFoundError("layer", layerID)
	}
	return l, nil
}

// MarkerLayer resolves a marker layer within a surface.
func (r *Registry) MarkerLayer(surfaceID, layerID string) (*Surface, *MarkerLayer, error) {
	s, err := r.Surface(surfaceID)
	if err != nil {
		return nil, nil, err
	}
	l, ok := s.Layer(layerID)
	ml, isMarker := l.(*MarkerLayer)
	if !ok || !isMarker {
		return nil, nil, newNotFoundError(KindMarker.layerEntity(), layerID)
	}
	return s, ml, nil
}

// PolygonLayer resolves a polygon layer within a surface.
func (r *Registry) PolygonLayer(surfaceID, layerID string) (*Surface, *PolygonLayer, error) {
	s, err := r.Surface(surfaceID)
	if err != nil {
		return nil, nil, err
	}
	l, ok := s.Layer(layerID)
	pl, isPolygon := l.(*PolygonLayer)
	if !ok || !isPolygon {
		return nil, nil, newNotFoundError(KindPolygon.layerEntity(), layerID)
	}
	return s, pl, nil
}

// Feature resolves a feature within a layer of a surface.
func (r *Registry) Feature(surfaceID, layerID, featureID string) (Feature, error) {
	l, err := r.Layer(surfaceID, layerID)
	if err != nil {
		return nil, err
	}
	f, ok := l.Feature(featureID)
	if !ok {
		return nil, newNotFoundError("feature", featureID)
	}
	return f, nil
}

// NewMarkerIn creates a marker in the scope (surfaceID, layerID). Missing
// parents fail with a precondition error.
func (r *Registry) NewMarkerIn(surfaceID, layerID string, opts MarkerOptions) (*Marker, error) {
	s, l, err := r.MarkerLayer(surfaceID, layerID)
	if err != nil {
		return nil, asPrecondition(err, string(KindMarker), opts.ID)
	}
	return NewMarker(s, l, opts)
}

// NewPolygonIn creates a polygon in the scope (surfaceID, layerID).
func (r *Registry) NewPolygonIn(surfaceID, layerID string, opts PolygonOptions) (*Polygon, error) {
	s, l, err := r.PolygonLayer(surfaceID, layerID)
	if err != nil {
		return nil, asPrecondition(err, string(KindPolygon), opts.ID)
	}
	return NewPolygon(s, l, opts)
}

// NewMarkerLayerIn creates a marker layer on the surface with surfaceID.
func (r *Registry) NewMarkerLayerIn(surfaceID string, opts LayerOptions) (*MarkerLayer, error) {
	s, err := r.Surface(surfaceID)
	if err != nil {
		return nil, asPrecondition(err, KindMarker.layerEntity(), opts.ID)
	}
	return NewMarkerLayer(s, opts)
}

// NewPolygonLayerIn creates a polygon layer on the surface with surfaceID.
func (r *Registry) NewPolygonLayerIn(surfaceID string, opts PolygonLayerOptions) (*PolygonLayer, error) {
	s, err := r.Surface(surfaceID)
	if err != nil {
		return nil, asPrecondition(err, KindPolygon.layerEntity(), opts.ID)
	}
	return NewPolygonLayer(s, opts)
}

// asPrecondition turns a failed parent lookup into the precondition error
// of the child being created.
func asPrecondition(err error, entity, id string) error {
	var me *Error
	if errors.As(err, &me) && me.Code == ErrCodeNotFound {
		return newPreconditionError(entity, id, me.Entity+" "+me.ID)
	}
	return err
}
