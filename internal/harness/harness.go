package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/filter"
	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/ids"
	"github.com/roach88/salesmap/internal/loader"
	"github.com/roach88/salesmap/internal/maps"
	"github.com/roach88/salesmap/internal/schema"
	"github.com/roach88/salesmap/internal/sdk"
	"github.com/roach88/salesmap/internal/sdk/simsdk"
)

// Hooks observes library loads and surface activity during a run.
type Hooks interface {
	loader.Hooks
	maps.Hooks
}

// Option configures Run.
type Option func(*runner)

// WithLogger routes component logs to logger. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

// WithHooks attaches h to the loader and the surface.
func WithHooks(h Hooks) Option {
	return func(r *runner) {
		r.hooks = h
	}
}

// runner holds the objects of one scenario execution.
type runner struct {
	logger   *slog.Logger
	hooks    Hooks
	platform *simsdk.Platform
	surface  *maps.Surface
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh simulated platform with a fresh loader.
// Setup failures (the surface cannot be created, a layer schema does not
// compile) are returned as errors; failed expectations and assertions are
// recorded in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	r := &runner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}

	var simOpts []simsdk.Option
	if scenario.Platform.NoBounds {
		simOpts = append(simOpts, simsdk.WithoutBounds())
	}
	failing, _ := sdk.ParseLibraries(scenario.Platform.FailLibraries)
	for _, lib := range failing {
		simOpts = append(simOpts, simsdk.WithLibraryFailure(lib, fmt.Errorf("import of %s refused", lib)))
	}
	r.platform = simsdk.New(simOpts...)
	defer r.platform.Close()

	result := NewResult()
	if err := r.setup(ctx, scenario, result); err != nil {
		return nil, fmt.Errorf("failed to set up scenario: %w", err)
	}
	defer r.surface.Delete()

	r.platform.Flush()
	r.platform.ResetTrace()

	for i, step := range scenario.Steps {
		err := r.execute(ctx, step)
		r.platform.Flush()
		if msg := checkExpectedError(err, step.ExpectError); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Action, msg))
		}
		r.logger.Debug("step completed", "step", i, "action", step.Action, "error", err)
	}

	for i, e := range r.platform.Trace() {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:    int64(i + 1),
			Op:     e.Op,
			Target: e.Target,
			Args:   e.Args,
		})
	}
	result.State = r.snapshot()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (r *runner) setup(ctx context.Context, sc *Scenario, result *Result) error {
	libs, _ := sdk.ParseLibraries(sc.Libraries)
	if len(libs) == 0 {
		libs = []sdk.Library{sdk.LibraryMaps, sdk.LibraryMarker}
	}

	var loaderOpts []loader.Option
	loaderOpts = append(loaderOpts, loader.WithLogger(r.logger))
	var surfaceHooks maps.Hooks
	if r.hooks != nil {
		loaderOpts = append(loaderOpts, loader.WithHooks(r.hooks))
		surfaceHooks = r.hooks
	}
	l := loader.New(r.platform, loaderOpts...)
	provider, err := loader.NewProvider(ctx, l, loader.ProviderOptions{
		Config:    sdk.Config{APIKey: "scenario", Version: "weekly"},
		Libraries: libs,
		OnError: func(err error) {
			r.logger.Warn("scenario libraries failed to load", "error", err)
		},
	})
	if err != nil {
		return err
	}

	center, _ := geo.ParseLatLng(sc.Surface.Center)
	id := sc.Surface.ID
	if id == "" {
		id = "s1"
	}
	r.surface, err = maps.NewSurface(provider, maps.SurfaceOptions{
		ID:        id,
		Container: "map",
		Map: sdk.MapOptions{
			Center:  center,
			Zoom:    sc.Surface.Zoom,
			MinZoom: sc.Surface.MinZoom,
			MaxZoom: sc.Surface.MaxZoom,
		},
		StepDelay: -1,
		IDs:       ids.NewCounter(id),
		Logger:    r.logger,
		Hooks:     surfaceHooks,
	})
	if err != nil {
		return err
	}

	for _, spec := range sc.Layers {
		if err := r.addLayer(spec, result); err != nil {
			r.surface.Delete()
			return fmt.Errorf("layer %s: %w", spec.ID, err)
		}
	}
	return nil
}

func (r *runner) addLayer(spec LayerSpec, result *Result) error {
	var sch *schema.Schema
	if spec.Schema != "" {
		var err error
		if sch, err = schema.Compile(spec.ID, spec.Schema); err != nil {
			return err
		}
	}
	opts := maps.LayerOptions{ID: spec.ID, Hidden: spec.Hidden, Schema: sch}

	var layer maps.Layer
	switch spec.Kind {
	case "marker":
		ml, err := maps.NewMarkerLayer(r.surface, opts)
		if err != nil {
			return err
		}
		for _, f := range spec.Features {
			pos, _ := geo.ParseLatLng(f.Position)
			_, err := maps.NewMarker(r.surface, ml, maps.MarkerOptions{
				ID:         f.ID,
				Position:   pos,
				Title:      f.ID,
				Attributes: f.Attributes,
				Hidden:     f.Hidden,
			})
			r.expectFeature(spec.ID, f, err, result)
		}
		layer = ml
	case "polygon":
		pl, err := maps.NewPolygonLayer(r.surface, maps.PolygonLayerOptions{LayerOptions: opts})
		if err != nil {
			return err
		}
		for _, f := range spec.Features {
			_, err := maps.NewPolygon(r.surface, pl, maps.PolygonOptions{
				ID:         f.ID,
				Geometry:   ring(f.Ring),
				Attributes: f.Attributes,
				Hidden:     f.Hidden,
			})
			r.expectFeature(spec.ID, f, err, result)
		}
		layer = pl
	}

	if spec.Filter != nil {
		dialect, _ := filter.ParseDialect(spec.Filter.Dialect)
		if err := layer.SetFilterExpr(dialect, spec.Filter.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) expectFeature(layerID string, f FeatureSpec, err error, result *Result) {
	if msg := checkExpectedError(err, f.ExpectError); msg != "" {
		result.AddError(fmt.Sprintf("layer %s feature %s: %s", layerID, f.ID, msg))
	}
}

func ring(pairs [][]float64) orb.Polygon {
	pts := make([][2]float64, len(pairs))
	for i, p := range pairs {
		pts[i] = [2]float64{p[0], p[1]}
	}
	return orb.Polygon{geo.Ring(pts)}
}

func (r *runner) execute(ctx context.Context, step Step) error {
	s := r.surface
	switch step.Action {
	case ActionSmoothZoom:
		var at *orb.Point
		if step.At != "" {
			p, _ := geo.ParseLatLng(step.At)
			at = &p
		}
		return s.SmoothZoom(ctx, *step.Zoom, at)
	case ActionZoomTo:
		return s.ZoomTo(ctx, *step.Zoom)
	case ActionClearLayers:
		s.ClearLayers()
		return nil
	}

	layer, ok := s.Layer(step.Layer)
	if !ok {
		return fmt.Errorf("layer %q: %w", step.Layer, errMissing)
	}
	switch step.Action {
	case ActionShowLayer:
		s.ShowLayer(step.Layer)
	case ActionHideLayer:
		s.HideLayer(step.Layer)
	case ActionDeleteLayer:
		s.DeleteLayer(step.Layer)
	case ActionSetFilter:
		dialect, err := filter.ParseDialect(step.Dialect)
		if err != nil {
			return err
		}
		return layer.SetFilterExpr(dialect, step.Expr)
	case ActionClearFilter:
		layer.ClearFilter()
	case ActionShowFeature:
		return present(layer.ShowFeature(step.Feature), step.Feature)
	case ActionHideFeature:
		return present(layer.HideFeature(step.Feature), step.Feature)
	case ActionDeleteFeature:
		return present(layer.DeleteFeature(step.Feature), step.Feature)
	case ActionClick, ActionHover, ActionMouseOut:
		pl, ok := layer.(*maps.PolygonLayer)
		if !ok {
			return fmt.Errorf("layer %q is not a polygon layer", step.Layer)
		}
		data, ok := pl.Data().(*simsdk.Data)
		if !ok {
			return fmt.Errorf("layer %q: data layer is not simulated", step.Layer)
		}
		data.Dispatch(mouseEvents[step.Action], step.Feature)
	}
	return nil
}

var mouseEvents = map[string]sdk.EventName{
	ActionClick:    sdk.EventClick,
	ActionHover:    sdk.EventMouseOver,
	ActionMouseOut: sdk.EventMouseOut,
}

var errMissing = errors.New("not found")

func present(ok bool, id string) error {
	if !ok {
		return fmt.Errorf("feature %q: %w", id, errMissing)
	}
	return nil
}

// snapshot captures the surface state after the last step.
func (r *runner) snapshot() FinalState {
	s := r.surface
	zoom, _ := s.Zoom()
	st := FinalState{
		Zoom:     zoom,
		State:    s.State().String(),
		Rendered: make(map[string][]string),
	}
	for _, l := range s.Layers() {
		rendered := []string{}
		for _, id := range l.FeatureIDs() {
			if f, ok := l.Feature(id); ok && f.Attached() {
				rendered = append(rendered, id)
			}
		}
		st.Rendered[l.ID()] = rendered

		if pl, ok := l.(*maps.PolygonLayer); ok {
			if id, h := pl.Highlight(); h != maps.HighlightNone {
				if st.Highlights == nil {
					st.Highlights = make(map[string]HighlightSnapshot)
				}
				st.Highlights[l.ID()] = HighlightSnapshot{Feature: id, Style: string(h)}
			}
		}
	}
	return st
}

// ErrorCode names the category of err for expect_error matching.
func ErrorCode(err error) string {
	var me *maps.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &me):
		return string(me.Code)
	case maps.IsValidationError(err):
		return "INVALID_ATTRIBUTES"
	case filter.IsEvaluationError(err):
		return "INVALID_FILTER"
	case errors.Is(err, errMissing):
		return "NOT_FOUND"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	default:
		return "ERROR"
	}
}

// checkExpectedError returns a failure message, or "" when err matches the
// expected code ("" expects success).
func checkExpectedError(err error, want string) string {
	got := ErrorCode(err)
	switch {
	case got == want:
		return ""
	case want == "":
		return fmt.Sprintf("unexpected error: %v", err)
	case got == "":
		return fmt.Sprintf("expected error %s, got success", want)
	default:
		return fmt.Sprintf("expected error %s, got %s: %v", want, got, err)
	}
}
