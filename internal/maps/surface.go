package maps

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/salesmap/internal/ids"
	"github.com/roach88/salesmap/internal/loader"
	"github.com/roach88/salesmap/internal/sdk"
)

// DefaultStepDelay is the pause before each zoom command so level changes
// are not visually instantaneous.
const DefaultStepDelay = 30 * time.Millisecond

// DefaultMaxZoom applies when the map options leave MaxZoom unset.
const DefaultMaxZoom = 22

// Hooks observes surface activity. Arguments are plain values so observers
// need not import this package.
type Hooks interface {
	StateChanged(surface, from, to string)
	ZoomStep(surface string, from, to int)
	Panned(surface string)
}

// SurfaceOptions configures a Surface.
type SurfaceOptions struct {
	// ID identifies the surface. Generated when empty.
	ID string

	// Container is the element the map renders into.
	Container string

	// Map holds the initial map options. MapID defaults to ID.
	Map sdk.MapOptions

	// StepDelay is the pause before each zoom command. Zero means
	// DefaultStepDelay; a negative value disables the pause.
	StepDelay time.Duration

	// IDs generates ids for the surface and for layers and features created
	// on it without one. Defaults to UUIDv7.
	IDs ids.Generator

	Logger   *slog.Logger
	Hooks    Hooks
	Registry *Registry
}

// Surface owns one SDK map, its layers and the zoom/pan state machine.
//
// Layer registry operations and visibility changes are safe for concurrent
// use. Concurrent SmoothZoom or ZoomTo calls on one surface are not
// serialized and interleave their zoom steps; callers must wait for one
// animation to finish before starting another.
type Surface struct {
	id        string
	container string
	provider  *loader.Provider
	client    sdk.Client
	m         sdk.Map
	minZoom   int
	maxZoom   int
	stepDelay time.Duration
	ids       ids.Generator
	logger    *slog.Logger
	hooks     Hooks
	registry  *Registry

	fsm stateMachine

	mu      sync.Mutex
	layers  *orderedMap[Layer]
	deleted bool
	gone    chan struct{} // closed by Delete
}

// NewSurface creates the SDK map. The provider must have loaded the maps
// library.
func NewSurface(p *loader.Provider, opts SurfaceOptions) (*Surface, error) {
	if p == nil {
		return nil, newPreconditionError("surface", opts.ID, "api provider")
	}
	if !p.Loaded(sdk.LibraryMaps) {
		return nil, newPreconditionError("surface", opts.ID, "library "+string(sdk.LibraryMaps))
	}
	client, err := p.Client()
	if err != nil {
		return nil, newPreconditionError("surface", opts.ID, "sdk client")
	}

	gen := opts.IDs
	if gen == nil {
		gen = ids.UUIDv7Generator{}
	}
	id := opts.ID
	if id == "" {
		id = gen.Generate()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := opts.StepDelay
	switch {
	case delay == 0:
		delay = DefaultStepDelay
	case delay < 0:
		delay = 0
	}

	mapOpts := opts.Map
	if mapOpts.MapID == "" {
		mapOpts.MapID = id
	}
	if mapOpts.MaxZoom <= 0 {
		mapOpts.MaxZoom = DefaultMaxZoom
	}
	if mapOpts.MinZoom < 0 || mapOpts.MinZoom > mapOpts.MaxZoom {
		return nil, fmt.Errorf("surface %s: invalid zoom range %d..%d", id, mapOpts.MinZoom, mapOpts.MaxZoom)
	}
	mapOpts.Zoom = clamp(mapOpts.Zoom, mapOpts.MinZoom, mapOpts.MaxZoom)

	m, err := client.NewMap(opts.Container, mapOpts)
	if err != nil {
		return nil, fmt.Errorf("surface %s: create map: %w", id, err)
	}

	s := &Surface{
		id:        id,
		container: opts.Container,
		provider:  p,
		client:    client,
		m:         m,
		minZoom:   mapOpts.MinZoom,
		maxZoom:   mapOpts.MaxZoom,
		stepDelay: delay,
		ids:       gen,
		logger:    logger.With("surface", id),
		hooks:     opts.Hooks,
		registry:  opts.Registry,
		layers:    newOrderedMap[Layer](),
		gone:      make(chan struct{}),
	}
	if s.registry != nil {
		if err := s.registry.register(s); err != nil {
			m.ClearListeners()
			return nil, err
		}
	}
	s.logger.Debug("surface created", "zoom", mapOpts.Zoom)
	return s, nil
}

// ID returns the surface id.
func (s *Surface) ID() string { return s.id }

// Container returns the element the map renders into.
func (s *Surface) Container() string { return s.container }

// Map returns the SDK map handle.
func (s *Surface) Map() sdk.Map { return s.m }

// Provider returns the provider the surface was created from.
func (s *Surface) Provider() *loader.Provider { return s.provider }

// State returns the animation state.
func (s *Surface) State() AnimationState { return s.fsm.state() }

// Zoom returns the current zoom level reported by the map.
func (s *Surface) Zoom() (int, bool) { return s.m.Zoom() }

// ZoomRange returns the minimum and maximum zoom levels.
func (s *Surface) ZoomRange() (min, max int) { return s.minZoom, s.maxZoom }

func (s *Surface) nextID() string { return s.ids.Generate() }

// AddLayer registers l. Layer constructors call it; it fails if l belongs
// to another surface or its id is taken.
func (s *Surface) AddLayer(l Layer) error {
	if l.Surface() != s {
		return newPreconditionError(l.Kind().layerEntity(), l.ID(), "surface "+s.id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return newPreconditionError(l.Kind().layerEntity(), l.ID(), "surface "+s.id)
	}
	if !s.layers.add(l.ID(), l) {
		return newDuplicateError(l.Kind().layerEntity(), l.ID(), "surface "+s.id)
	}
	s.logger.Debug("layer added", "layer", l.ID(), "kind", l.Kind())
	return nil
}

// Layer looks up a layer by id.
func (s *Surface) Layer(id string) (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers.get(id)
}

// Layers returns the layers in insertion order.
func (s *Surface) Layers() []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers.list()
}

// LayerIDs returns the layer ids in insertion order.
func (s *Surface) LayerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers.ids()
}

// DeleteLayer tears the layer down, then removes it from the registry.
// Reports whether the layer existed.
func (s *Surface) DeleteLayer(id string) bool {
	l, ok := s.Layer(id)
	if !ok {
		return false
	}
	l.teardown()

	s.mu.Lock()
	_, ok = s.layers.remove(id)
	s.mu.Unlock()
	if ok {
		s.logger.Debug("layer deleted", "layer", id)
	}
	return ok
}

// HideLayer hides a layer. Reports whether the layer exists.
func (s *Surface) HideLayer(id string) bool {
	l, ok := s.Layer(id)
	if ok {
		l.SetVisible(false)
	}
	return ok
}

// ShowLayer shows a layer. Reports whether the layer exists.
func (s *Surface) ShowLayer(id string) bool {
	l, ok := s.Layer(id)
	if ok {
		l.SetVisible(true)
	}
	return ok
}

// ClearLayers deletes every layer.
func (s *Surface) ClearLayers() {
	for _, id := range s.LayerIDs() {
		s.DeleteLayer(id)
	}
}

// Delete clears every layer, drops the map listeners and unregisters the
// surface. Layers cannot be added afterwards. A running SmoothZoom or ZoomTo
// stops at its next wait and returns a SURFACE_DELETED error.
func (s *Surface) Delete() {
	s.mu.Lock()
	if s.deleted {
		s.mu.Unlock()
		return
	}
	s.deleted = true
	close(s.gone)
	s.mu.Unlock()

	for _, id := range s.LayerIDs() {
		s.DeleteLayer(id)
	}
	s.m.ClearListeners()
	if s.registry != nil {
		s.registry.unregister(s.id)
	}
	s.logger.Debug("surface deleted")
}

// Deleted reports whether Delete was called.
func (s *Surface) Deleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleted
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
