package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/salesmap/internal/filter"
	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/sdk"
)

// Scenario describes a surface, its layers, the steps to run against it and
// the assertions over the resulting trace and state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Libraries requested by the provider. Defaults to maps and marker.
	Libraries []string `yaml:"libraries,omitempty"`

	Platform PlatformSpec `yaml:"platform,omitempty"`
	Surface  SurfaceSpec  `yaml:"surface"`
	Layers   []LayerSpec  `yaml:"layers,omitempty"`
	Steps    []Step       `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions"`
}

// PlatformSpec configures the simulated SDK.
type PlatformSpec struct {
	// NoBounds makes the map report no viewport.
	NoBounds bool `yaml:"no_bounds,omitempty"`

	// FailLibraries lists libraries whose import fails.
	FailLibraries []string `yaml:"fail_libraries,omitempty"`
}

// SurfaceSpec configures the surface.
type SurfaceSpec struct {
	ID      string `yaml:"id,omitempty"`
	Center  string `yaml:"center"`
	Zoom    int    `yaml:"zoom"`
	MinZoom int    `yaml:"min_zoom,omitempty"`
	MaxZoom int    `yaml:"max_zoom,omitempty"`
}

// LayerSpec creates a layer and its features before the steps run.
type LayerSpec struct {
	ID       string        `yaml:"id"`
	Kind     string        `yaml:"kind"`
	Hidden   bool          `yaml:"hidden,omitempty"`
	Schema   string        `yaml:"schema,omitempty"`
	Filter   *FilterSpec   `yaml:"filter,omitempty"`
	Features []FeatureSpec `yaml:"features,omitempty"`
}

// FilterSpec is a string filter in one of the filter dialects.
type FilterSpec struct {
	Dialect string `yaml:"dialect,omitempty"`
	Expr    string `yaml:"expr"`
}

// FeatureSpec creates a marker (Position) or polygon (Ring of [lat, lng]
// pairs, closed automatically).
type FeatureSpec struct {
	ID         string         `yaml:"id"`
	Position   string         `yaml:"position,omitempty"`
	Ring       [][]float64    `yaml:"ring,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
	Hidden     bool           `yaml:"hidden,omitempty"`

	// ExpectError is the error code creation must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step is one operation against the surface.
type Step struct {
	Action  string `yaml:"action"`
	Zoom    *int   `yaml:"zoom,omitempty"`
	At      string `yaml:"at,omitempty"`
	Layer   string `yaml:"layer,omitempty"`
	Feature string `yaml:"feature,omitempty"`
	Dialect string `yaml:"dialect,omitempty"`
	Expr    string `yaml:"expr,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step actions.
const (
	ActionSmoothZoom    = "smooth_zoom"
	ActionZoomTo        = "zoom_to"
	ActionShowLayer     = "show_layer"
	ActionHideLayer     = "hide_layer"
	ActionDeleteLayer   = "delete_layer"
	ActionClearLayers   = "clear_layers"
	ActionSetFilter     = "set_filter"
	ActionClearFilter   = "clear_filter"
	ActionShowFeature   = "show_feature"
	ActionHideFeature   = "hide_feature"
	ActionDeleteFeature = "delete_feature"
	ActionClick         = "click"
	ActionHover         = "hover"
	ActionMouseOut      = "mouseout"
)

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of trace_count, trace_order, single_steps,
	// no_pan_before_visible or final_state.
	Type string `yaml:"type"`

	// Op and Event select entries for trace_count.
	Op    string `yaml:"op,omitempty"`
	Event string `yaml:"event,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Ops is the expected order for trace_order. Emitted events are written
	// "emit:<event>".
	Ops []string `yaml:"ops,omitempty"`

	// final_state fields. Only the fields set are checked.
	Zoom       *int                         `yaml:"zoom,omitempty"`
	State      string                       `yaml:"state,omitempty"`
	Rendered   map[string][]string          `yaml:"rendered,omitempty"`
	Highlights map[string]HighlightSnapshot `yaml:"highlights,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount         = "trace_count"
	AssertTraceOrder         = "trace_order"
	AssertSingleSteps        = "single_steps"
	AssertNoPanBeforeVisible = "no_pan_before_visible"
	AssertFinalState         = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file of dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, sc)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := sdk.ParseLibraries(s.Libraries); err != nil {
		return fmt.Errorf("libraries: %w", err)
	}
	if _, err := sdk.ParseLibraries(s.Platform.FailLibraries); err != nil {
		return fmt.Errorf("platform.fail_libraries: %w", err)
	}
	if _, err := geo.ParseLatLng(s.Surface.Center); err != nil {
		return fmt.Errorf("surface.center: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	layers := make(map[string]string, len(s.Layers))
	for i, l := range s.Layers {
		if err := validateLayer(i, l); err != nil {
			return err
		}
		if _, dup := layers[l.ID]; dup {
			return fmt.Errorf("layers[%d]: duplicate id %q", i, l.ID)
		}
		layers[l.ID] = l.Kind
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step, layers); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateLayer(index int, l LayerSpec) error {
	if l.ID == "" {
		return fmt.Errorf("layers[%d]: id is required", index)
	}
	if l.Filter != nil {
		if _, err := filter.ParseDialect(l.Filter.Dialect); err != nil {
			return fmt.Errorf("layers[%d].filter: %w", index, err)
		}
	}
	for j, f := range l.Features {
		switch l.Kind {
		case "marker":
			if _, err := geo.ParseLatLng(f.Position); err != nil {
				return fmt.Errorf("layers[%d].features[%d]: position: %w", index, j, err)
			}
		case "polygon":
			if len(f.Ring) < 3 {
				return fmt.Errorf("layers[%d].features[%d]: ring needs at least 3 points", index, j)
			}
			for _, pair := range f.Ring {
				if len(pair) != 2 {
					return fmt.Errorf("layers[%d].features[%d]: ring points are [lat, lng] pairs", index, j)
				}
			}
		}
	}
	switch l.Kind {
	case "marker", "polygon":
		return nil
	default:
		return fmt.Errorf("layers[%d]: unknown kind %q", index, l.Kind)
	}
}

func validateStep(index int, step Step, layers map[string]string) error {
	needLayer := func() error {
		if _, ok := layers[step.Layer]; !ok {
			return fmt.Errorf("steps[%d]: unknown layer %q", index, step.Layer)
		}
		return nil
	}
	switch step.Action {
	case ActionSmoothZoom, ActionZoomTo:
		if step.Zoom == nil {
			return fmt.Errorf("steps[%d]: zoom is required for %s", index, step.Action)
		}
		if step.At != "" {
			if step.Action == ActionZoomTo {
				return fmt.Errorf("steps[%d]: zoom_to takes no location", index)
			}
			if _, err := geo.ParseLatLng(step.At); err != nil {
				return fmt.Errorf("steps[%d]: at: %w", index, err)
			}
		}
	case ActionClearLayers:
	case ActionShowLayer, ActionHideLayer, ActionDeleteLayer, ActionClearFilter:
		return needLayer()
	case ActionSetFilter:
		if step.Expr == "" {
			return fmt.Errorf("steps[%d]: expr is required for set_filter", index)
		}
		return needLayer()
	case ActionShowFeature, ActionHideFeature, ActionDeleteFeature:
		if step.Feature == "" {
			return fmt.Errorf("steps[%d]: feature is required for %s", index, step.Action)
		}
		return needLayer()
	case ActionClick, ActionHover, ActionMouseOut:
		if step.Feature == "" {
			return fmt.Errorf("steps[%d]: feature is required for %s", index, step.Action)
		}
		if layers[step.Layer] != "polygon" {
			return fmt.Errorf("steps[%d]: %s needs a polygon layer", index, step.Action)
		}
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, step.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertSingleSteps, AssertNoPanBeforeVisible:
	case AssertFinalState:
		if a.Zoom == nil && a.State == "" && a.Rendered == nil && a.Highlights == nil {
			return fmt.Errorf("assertions[%d]: final_state needs at least one expectation", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
