package simsdk

// Trace operations.
const (
	OpConnect       = "connect"
	OpImportLibrary = "import_library"
	OpNewMap        = "new_map"
	OpSetZoom       = "set_zoom"
	OpPanTo         = "pan_to"
	OpEmit          = "emit"
)

// TraceEntry records one command or delivered event. Args only hold strings,
// integers and booleans so a trace can be serialised canonically.
type TraceEntry struct {
	Seq    int64          `json:"seq"`
	Op     string         `json:"op"`
	Target string         `json:"target,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
}

func (p *Platform) record(op, target string, args map[string]any) {
	p.traceMu.Lock()
	defer p.traceMu.Unlock()
	p.seq++
	p.trace = append(p.trace, TraceEntry{
		Seq:    p.seq,
		Op:     op,
		Target: target,
		Args:   args,
	})
}

// Trace returns a copy of the recorded trace.
func (p *Platform) Trace() []TraceEntry {
	p.traceMu.Lock()
	defer p.traceMu.Unlock()
	out := make([]TraceEntry, len(p.trace))
	copy(out, p.trace)
	return out
}

// Count returns how many entries have the given op. For OpEmit pass the
// event name as well to narrow the count.
func (p *Platform) Count(op string, event ...string) int {
	n := 0
	for _, e := range p.Trace() {
		if e.Op != op {
			continue
		}
		if len(event) > 0 && e.Args["event"] != event[0] {
			continue
		}
		n++
	}
	return n
}

// Seq returns the seq of the last recorded entry. It is not reset with the
// trace.
func (p *Platform) Seq() int64 {
	p.traceMu.Lock()
	defer p.traceMu.Unlock()
	return p.seq
}

// ResetTrace clears the trace. The clock keeps counting.
func (p *Platform) ResetTrace() {
	p.traceMu.Lock()
	defer p.traceMu.Unlock()
	p.trace = nil
}
