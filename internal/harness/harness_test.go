package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/salesmap/internal/testutil"
)

func TestRun_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			result, err := Run(context.Background(), sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_RevealTrace(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", "reveal_distant_listing.yaml"))
	require.NoError(t, err)

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)

	var pan TraceEvent
	for _, e := range result.Trace {
		if e.Op == "pan_to" {
			pan = e
		}
	}
	assert.Equal(t, int64(436500000), pan.Args["lat_e7"])
	assert.Equal(t, int64(-770000000), pan.Args["lng_e7"])
	assert.Equal(t, true, pan.Args["visible"])
	assert.Equal(t, int64(1), result.Trace[0].Seq, "trace starts with the first step")
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: wrong
description: "expectations that do not hold"
surface: {center: "43.65,-79.38", zoom: 10, min_zoom: 10}
layers:
  - id: hoods
    kind: polygon
    features:
      - id: a
        ring: [[43.66, -79.41], [43.66, -79.40], [43.67, -79.40]]
        expect_error: PRECONDITION_FAILED
steps:
  - action: zoom_to
    zoom: 12
    expect_error: LOCATION_UNREACHABLE
  - action: show_feature
    layer: hoods
    feature: missing
assertions:
  - type: final_state
    zoom: 11
  - type: trace_count
    op: pan_to
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "feature a: expected error PRECONDITION_FAILED, got success")
	assert.Contains(t, result.Errors[1], "expected error LOCATION_UNREACHABLE, got success")
	assert.Contains(t, result.Errors[2], "unexpected error")
	assert.Contains(t, result.Errors[3], "zoom 11")
	assert.Contains(t, result.Errors[4], "1 occurrences of pan_to")
}

func TestRun_SetupFailure(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: bad_schema
description: "layer schema does not compile"
surface: {center: "43.65,-79.38", zoom: 10}
layers:
  - id: listings
    kind: marker
    schema: "status: ("
steps: [{action: clear_layers}]
assertions: [{type: single_steps}]
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	assert.ErrorContains(t, err, "layer listings")
}

func TestRun_MissingMapsLibrary(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: no_maps
description: "maps library fails"
platform: {fail_libraries: [maps]}
surface: {center: "43.65,-79.38", zoom: 10}
steps: [{action: clear_layers}]
assertions: [{type: single_steps}]
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	assert.ErrorContains(t, err, "PRECONDITION_FAILED")
}

func TestRun_Hooks(t *testing.T) {
	sc, err := ParseScenario([]byte(minimal))
	require.NoError(t, err)
	hooks := &testutil.Hooks{}

	_, err = Run(context.Background(), sc, WithHooks(hooks))
	require.NoError(t, err)

	assert.Contains(t, hooks.Calls(), "zoom s1 10->11")
	assert.Contains(t, hooks.Calls(), "settled maps LOADED")
}
