// Package harness runs map scenarios against the simulated SDK and checks
// the resulting command trace and final state.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: reveal_distant_listing
//	description: "Zooms out until the listing is visible, pans, zooms in"
//	libraries: [maps, marker]
//	surface:
//	  center: "43.65,-79.38"
//	  zoom: 10
//	layers:
//	  - id: listings
//	    kind: marker
//	    schema: |
//	      status: "sold" | "listed"
//	    features:
//	      - id: m1
//	        position: "43.65,-77.0"
//	        attributes: { status: sold }
//	steps:
//	  - action: smooth_zoom
//	    zoom: 14
//	    at: "43.65,-77.0"
//	assertions:
//	  - type: single_steps
//	  - type: no_pan_before_visible
//	  - type: trace_order
//	    ops: [set_zoom, pan_to, "emit:idle", set_zoom]
//	  - type: final_state
//	    zoom: 14
//	    state: idle
//
// # Assertion Types
//
//   - trace_count: an op (optionally an emitted event) occurs exactly N times
//   - trace_order: ops occur in the given order, other entries may intervene
//   - single_steps: every set_zoom changes the level by exactly one
//   - no_pan_before_visible: every pan_to targets a location already in view
//   - final_state: zoom level, animation state, rendered features per layer
//     and polygon highlights after the last step
//
// # Deterministic Traces
//
// The trace is cleared once the surface and its layers are built, so it
// covers the steps only, and entries are renumbered from 1. Scenarios run
// without a zoom step delay. Identical scenarios produce identical canonical
// JSON snapshots, which RunWithGolden compares against testdata/golden.
package harness
