package maps

import "sync"

// AnimationState is the zoom/pan state of a surface.
type AnimationState int

const (
	Idle AnimationState = iota
	Zooming
	Panning
)

// String returns the state name.
func (s AnimationState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Zooming:
		return "zooming"
	case Panning:
		return "panning"
	default:
		return "unknown"
	}
}

// animationEvent drives the state machine. Only the zoom algorithm sends
// events; there is no public way to change state.
type animationEvent int

const (
	eventZoom animationEvent = iota
	eventPan
	eventSettle
)

func (e animationEvent) String() string {
	switch e {
	case eventZoom:
		return "zoom"
	case eventPan:
		return "pan"
	case eventSettle:
		return "settle"
	default:
		return "unknown"
	}
}

var transitions = map[AnimationState]map[animationEvent]AnimationState{
	Idle: {
		eventZoom: Zooming,
		eventPan:  Panning,
	},
	Zooming: {
		eventPan:    Panning,
		eventSettle: Idle,
	},
	Panning: {
		eventZoom:   Zooming,
		eventSettle: Idle,
	},
}

// stateMachine holds the animation state. At most one of Zooming and
// Panning is current at any instant.
type stateMachine struct {
	mu      sync.Mutex
	current AnimationState
}

func (m *stateMachine) state() AnimationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// send applies ev. It reports the states involved and whether ev was
// accepted; rejected events leave the state unchanged.
func (m *stateMachine) send(ev animationEvent) (from, to AnimationState, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from = m.current
	to, ok = transitions[from][ev]
	if !ok {
		return from, from, false
	}
	m.current = to
	return from, to, true
}
