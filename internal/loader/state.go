package loader

// State is the load state of one library.
type State int

const (
	NotLoaded State = iota
	Loading
	Loaded
	Error
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotLoaded:
		return "NOT_LOADED"
	case Loading:
		return "LOADING"
	case Loaded:
		return "LOADED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Settled reports whether the state is final.
func (s State) Settled() bool {
	return s == Loaded || s == Error
}
