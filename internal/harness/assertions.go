package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", event.Seq, event.Op, event.Target, formatArgs(event.Args))
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertSingleSteps:
		return assertSingleSteps(result.Trace)
	case AssertNoPanBeforeVisible:
		return assertNoPanBeforeVisible(result.Trace)
	case AssertFinalState:
		return assertFinalState(result.State, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceCount checks the op (and event, for emits) occurs exactly
// Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op != a.Op {
			continue
		}
		if a.Event != "" && event.Args["event"] != a.Event {
			continue
		}
		count++
	}

	if count != a.Count {
		what := a.Op
		if a.Event != "" {
			what += ":" + a.Event
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks the ops occur in order. Each op is matched after
// the previous match, so repeated ops must repeat in the trace.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for i, want := range a.Ops {
		found := false
		for pos < len(trace) {
			key := trace[pos].key()
			pos++
			if key == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", a.Ops),
				Actual:   fmt.Sprintf("no %s after %v", want, a.Ops[:i]),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertSingleSteps checks every set_zoom moves exactly one level.
func assertSingleSteps(trace []TraceEvent) error {
	for _, event := range trace {
		if event.Op != "set_zoom" {
			continue
		}
		from, _ := event.Args["from"].(int)
		to, _ := event.Args["to"].(int)
		if to-from != 1 && from-to != 1 {
			return &AssertionError{
				Type:     AssertSingleSteps,
				Expected: "every set_zoom changes the level by one",
				Actual:   fmt.Sprintf("set_zoom #%d from %d to %d", event.Seq, from, to),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertNoPanBeforeVisible checks every pan_to targeted a location inside
// the viewport at the time of the pan.
func assertNoPanBeforeVisible(trace []TraceEvent) error {
	for _, event := range trace {
		if event.Op != "pan_to" {
			continue
		}
		if visible, _ := event.Args["visible"].(bool); !visible {
			return &AssertionError{
				Type:     AssertNoPanBeforeVisible,
				Expected: "pan_to only to visible locations",
				Actual:   fmt.Sprintf("pan_to #%d to a location outside the viewport", event.Seq),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertFinalState compares the fields set in a with the final state.
func assertFinalState(st FinalState, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: AssertFinalState, Expected: expected, Actual: actual}
	}
	if a.Zoom != nil && st.Zoom != *a.Zoom {
		return fail(fmt.Sprintf("zoom %d", *a.Zoom), fmt.Sprintf("zoom %d", st.Zoom))
	}
	if a.State != "" && st.State != a.State {
		return fail(fmt.Sprintf("state %s", a.State), fmt.Sprintf("state %s", st.State))
	}
	for _, layer := range sortedKeys(a.Rendered) {
		want := a.Rendered[layer]
		got, ok := st.Rendered[layer]
		if !ok {
			return fail(fmt.Sprintf("layer %s rendering %v", layer, want), fmt.Sprintf("no layer %s", layer))
		}
		if len(want) == 0 && len(got) == 0 {
			continue
		}
		if !reflect.DeepEqual(want, got) {
			return fail(fmt.Sprintf("layer %s rendering %v", layer, want), fmt.Sprintf("rendering %v", got))
		}
	}
	for _, layer := range sortedKeys(a.Highlights) {
		want := a.Highlights[layer]
		if got := st.Highlights[layer]; got != want {
			return fail(fmt.Sprintf("layer %s highlighting %+v", layer, want), fmt.Sprintf("highlighting %+v", got))
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	for _, k := range sortedKeys(args) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
