package testutil

import (
	"fmt"
	"sync"
)

// Hooks records loader and surface hook calls as readable lines.
//
// Thread-safety: safe for concurrent use.
type Hooks struct {
	mu    sync.Mutex
	calls []string
}

func (h *Hooks) add(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

func (h *Hooks) LibraryRequested(library string) {
	h.add("requested %s", library)
}

func (h *Hooks) LibrarySettled(library, state string) {
	h.add("settled %s %s", library, state)
}

func (h *Hooks) StateChanged(surface, from, to string) {
	h.add("state %s %s->%s", surface, from, to)
}

func (h *Hooks) ZoomStep(surface string, from, to int) {
	h.add("zoom %s %d->%d", surface, from, to)
}

func (h *Hooks) Panned(surface string) {
	h.add("pan %s", surface)
}

// Calls returns the recorded calls in order.
func (h *Hooks) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// Reset forgets recorded calls.
func (h *Hooks) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}
