package harness

// TraceEvent is one SDK command or delivered event.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Op     string         `json:"op"`
	Target string         `json:"target,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
}

// key is the name trace_order and trace_count match on: the op, or
// "emit:<event>" for delivered events.
func (e TraceEvent) key() string {
	if ev, ok := e.Args["event"].(string); ok && e.Op == "emit" {
		return "emit:" + ev
	}
	return e.Op
}

// FinalState is the observable surface state after the last step.
type FinalState struct {
	Zoom       int                          `json:"zoom"`
	State      string                       `json:"state"`
	Rendered   map[string][]string          `json:"rendered"`
	Highlights map[string]HighlightSnapshot `json:"highlights,omitempty"`
}

// HighlightSnapshot is the interaction style of a polygon layer.
type HighlightSnapshot struct {
	Feature string `json:"feature" yaml:"feature"`
	Style   string `json:"style" yaml:"style"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the SDK commands and events issued by the steps.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	State FinalState `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
