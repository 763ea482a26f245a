package maps

import (
	"log/slog"
	"sync"

	"github.com/roach88/salesmap/internal/filter"
	"github.com/roach88/salesmap/internal/schema"
)

// Kind tags the two layer and feature variants.
type Kind string

const (
	KindMarker  Kind = "marker"
	KindPolygon Kind = "polygon"
)

func (k Kind) layerEntity() string { return string(k) + " layer" }

// Layer is the capability shared by marker and polygon layers.
type Layer interface {
	ID() string
	Name() string
	Kind() Kind
	Surface() *Surface

	// Visible reports the layer-level visibility.
	Visible() bool
	// SetVisible shows every feature whose own state is visible and
	// reapplies the filter, or hides every feature.
	SetVisible(visible bool)

	// Filtered reports whether a filter is set.
	Filtered() bool
	// SetFilterExpr compiles src and installs it as the filter.
	SetFilterExpr(dialect filter.Dialect, src string) error
	// ClearFilter removes the filter.
	ClearFilter()

	Len() int
	FeatureIDs() []string
	Feature(id string) (Feature, bool)
	ShowFeature(id string) bool
	HideFeature(id string) bool
	DeleteFeature(id string) bool
	ClearFeatures()

	// Delete tears the layer down and removes it from its surface.
	Delete()
	Deleted() bool

	teardown()
}

// Feature is the capability shared by markers and polygons.
type Feature interface {
	ID() string
	Kind() Kind
	Layer() Layer
	Surface() *Surface
	Attributes() map[string]any

	// Visible reports the feature's own visibility state.
	Visible() bool
	// Attached reports whether the feature is currently rendered.
	Attached() bool
	Show()
	Hide()
	Delete()
}

// LayerOptions configures either layer kind.
type LayerOptions struct {
	// ID identifies the layer within its surface. Generated when empty.
	ID string

	// Name is the display name used in messages.
	Name string

	// Hidden creates the layer not visible.
	Hidden bool

	// Schema validates the attributes of features that do not carry their
	// own schema.
	Schema *schema.Schema
}

// member is what a layer needs from its features. The own visibility state
// is guarded by the owning layer's lock.
type member interface {
	comparable
	Feature
	ownVisible() bool
	setOwnVisible(v bool)
	env() filter.Env
}

// renderer applies visibility decisions to the SDK.
type renderer[F member] interface {
	add(f F)
	remove(f F)
	attach(f F, on bool)
	showAll(fs []F)
	hideAll(fs []F)
	destroy()
}

// layerCore holds the registry, visibility and filter state shared by both
// layer kinds. Filters run under the layer lock and must not call back into
// the layer.
type layerCore[F member] struct {
	surface *Surface
	id      string
	name    string
	kind    Kind
	schema  *schema.Schema
	logger  *slog.Logger
	render  renderer[F]

	mu       sync.Mutex
	visible  bool
	filter   func(F) bool
	program  filter.Program
	features *orderedMap[F]
	deleted  bool
}

func newLayerCore[F member](s *Surface, kind Kind, opts LayerOptions) *layerCore[F] {
	id := opts.ID
	if id == "" {
		id = s.nextID()
	}
	name := opts.Name
	if name == "" {
		name = id
	}
	return &layerCore[F]{
		surface:  s,
		id:       id,
		name:     name,
		kind:     kind,
		schema:   opts.Schema,
		logger:   s.logger.With("layer", id),
		visible:  !opts.Hidden,
		features: newOrderedMap[F](),
	}
}

func (l *layerCore[F]) ID() string        { return l.id }
func (l *layerCore[F]) Name() string      { return l.name }
func (l *layerCore[F]) Kind() Kind        { return l.kind }
func (l *layerCore[F]) Surface() *Surface { return l.surface }

// Schema returns the layer schema, if any.
func (l *layerCore[F]) Schema() *schema.Schema { return l.schema }

func (l *layerCore[F]) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

func (l *layerCore[F]) SetVisible(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deleted {
		return
	}
	l.visible = visible
	if !visible {
		l.render.hideAll(l.features.list())
		l.logger.Debug("layer hidden")
		return
	}
	l.render.showAll(l.features.list())
	if l.filter != nil {
		l.applyFilterLocked()
	}
	l.logger.Debug("layer shown", "filtered", l.filter != nil)
}

func (l *layerCore[F]) applyFilterLocked() {
	for _, f := range l.features.list() {
		l.render.attach(f, f.ownVisible() && l.filter(f))
	}
}

// wantsLocked is the attachment gate of one feature.
func (l *layerCore[F]) wantsLocked(f F) bool {
	if !l.visible || !f.ownVisible() {
		return false
	}
	return l.filter == nil || l.filter(f)
}

func (l *layerCore[F]) setFilter(fn func(F) bool, prog filter.Program) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deleted {
		return
	}
	l.filter = fn
	l.program = prog
	if !l.visible {
		return
	}
	if fn != nil {
		l.applyFilterLocked()
	} else {
		l.render.showAll(l.features.list())
	}
}

func (l *layerCore[F]) Filtered() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter != nil
}

// FilterSource returns the text of a filter set with SetFilterExpr.
func (l *layerCore[F]) FilterSource() (filter.Dialect, string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.program == nil {
		return "", "", false
	}
	return l.program.Dialect(), l.program.Source(), true
}

// SetFilterExpr compiles src and installs it as the filter. A feature the
// predicate fails on is treated as not matching.
func (l *layerCore[F]) SetFilterExpr(dialect filter.Dialect, src string) error {
	prog, err := filter.Compile(dialect, src)
	if err != nil {
		return err
	}
	l.setFilter(func(f F) bool {
		ok, err := prog.Match(f.env())
		if err != nil {
			l.logger.Warn("filter failed", "feature", f.ID(), "error", err)
			return false
		}
		return ok
	}, prog)
	return nil
}

func (l *layerCore[F]) ClearFilter() {
	l.setFilter(nil, nil)
}

// add registers f and applies the current gate to f alone.
func (l *layerCore[F]) add(f F) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deleted {
		return newPreconditionError(string(l.kind), f.ID(), l.kind.layerEntity()+" "+l.id)
	}
	if !l.features.add(f.ID(), f) {
		return newDuplicateError(string(l.kind), f.ID(), l.kind.layerEntity()+" "+l.id)
	}
	l.render.add(f)
	l.render.attach(f, l.wantsLocked(f))
	l.logger.Debug("feature added", "feature", f.ID())
	return nil
}

func (l *layerCore[F]) setFeatureVisible(f F, visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f.setOwnVisible(visible)
	if cur, ok := l.features.get(f.ID()); !ok || cur != f {
		return
	}
	l.render.attach(f, l.wantsLocked(f))
}

func (l *layerCore[F]) featureVisible(f F) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return f.ownVisible()
}

func (l *layerCore[F]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.features.len()
}

func (l *layerCore[F]) FeatureIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.features.ids()
}

func (l *layerCore[F]) list() []F {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.features.list()
}

func (l *layerCore[F]) get(id string) (F, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.features.get(id)
}

func (l *layerCore[F]) Feature(id string) (Feature, bool) {
	f, ok := l.get(id)
	if !ok {
		return nil, false
	}
	return f, true
}

func (l *layerCore[F]) ShowFeature(id string) bool {
	f, ok := l.get(id)
	if ok {
		l.setFeatureVisible(f, true)
	}
	return ok
}

func (l *layerCore[F]) HideFeature(id string) bool {
	f, ok := l.get(id)
	if ok {
		l.setFeatureVisible(f, false)
	}
	return ok
}

// DeleteFeature removes the feature from the registry and detaches it.
func (l *layerCore[F]) DeleteFeature(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteLocked(id)
}

func (l *layerCore[F]) deleteLocked(id string) bool {
	f, ok := l.features.remove(id)
	if !ok {
		return false
	}
	l.render.remove(f)
	l.logger.Debug("feature deleted", "feature", id)
	return true
}

func (l *layerCore[F]) ClearFeatures() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range l.features.ids() {
		l.deleteLocked(id)
	}
}

func (l *layerCore[F]) Deleted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleted
}

// Delete tears the layer down and removes it from its surface.
func (l *layerCore[F]) Delete() {
	if !l.surface.DeleteLayer(l.id) {
		l.teardown()
	}
}

// teardown deletes every feature, then releases the SDK resources.
func (l *layerCore[F]) teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deleted {
		return
	}
	for _, id := range l.features.ids() {
		l.deleteLocked(id)
	}
	l.render.destroy()
	l.deleted = true
}

// ownerName labels the layer in validation errors.
func (l *layerCore[F]) ownerName() string { return l.name }

func validateAttributes(l interface {
	ownerName() string
	Kind() Kind
	Schema() *schema.Schema
}, featureID string, own *schema.Schema, attrs map[string]any) error {
	s := own
	if s == nil {
		s = l.Schema()
	}
	if s == nil {
		return nil
	}
	if problems := s.Validate(attrs); len(problems) > 0 {
		return &ValidationError{
			Layer:    l.ownerName(),
			Kind:     l.Kind(),
			Feature:  featureID,
			Problems: problems,
		}
	}
	return nil
}
