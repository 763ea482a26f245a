// Package ids generates identifiers for surfaces, layers and features when
// callers do not supply their own.
package ids

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces identifiers.
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7. Panics if the system random source
// fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Counter generates "prefix-N" identifiers from a monotonic counter.
type Counter struct {
	prefix string
	n      atomic.Int64
}

// NewCounter creates a counter. An empty prefix defaults to "map".
func NewCounter(prefix string) *Counter {
	if prefix == "" {
		prefix = "map"
	}
	return &Counter{prefix: prefix}
}

// Generate returns the next identifier, starting at prefix-1.
func (c *Counter) Generate() string {
	return fmt.Sprintf("%s-%d", c.prefix, c.n.Add(1))
}

// FixedGenerator returns predetermined identifiers in order. It enables
// deterministic tests and golden trace comparison.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics once all ids are consumed: a test asked for more ids than it set up.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
