package simsdk

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/sdk"
)

// Marker is a simulated marker.
type Marker struct {
	position orb.Point
	title    string

	mu sync.Mutex
	m  sdk.Map
}

var _ sdk.Marker = (*Marker)(nil)

func (mk *Marker) SetMap(m sdk.Map) {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	mk.m = m
}

func (mk *Marker) Map() sdk.Map {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	return mk.m
}

// Attached reports whether the marker is on a map.
func (mk *Marker) Attached() bool {
	return mk.Map() != nil
}

// Position returns the marker position.
func (mk *Marker) Position() orb.Point { return mk.position }

// Title returns the marker title.
func (mk *Marker) Title() string { return mk.title }
