package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the trace and final state of a scenario run.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	State        FinalState
}

// toCanonicalMap converts the snapshot to plain maps and slices for
// MarshalCanonical.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq": event.Seq,
			"op":  event.Op,
		}
		if event.Target != "" {
			eventMap["target"] = event.Target
		}
		if len(event.Args) > 0 {
			eventMap["args"] = event.Args
		}
		traceList[i] = eventMap
	}

	rendered := make(map[string]any, len(s.State.Rendered))
	for layer, ids := range s.State.Rendered {
		rendered[layer] = ids
	}
	state := map[string]any{
		"zoom":     s.State.Zoom,
		"state":    s.State.State,
		"rendered": rendered,
	}
	if len(s.State.Highlights) > 0 {
		highlights := make(map[string]any, len(s.State.Highlights))
		for layer, h := range s.State.Highlights {
			highlights[layer] = map[string]any{"feature": h.Feature, "style": h.Style}
		}
		state["highlights"] = highlights
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"state":         state,
	}
}

// Snapshot serialises the result of scenario as canonical JSON.
func Snapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		State:        result.State,
	}
	return MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against the
// golden file scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
