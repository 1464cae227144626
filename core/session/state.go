package session

// State is the charging session lifecycle state. Exactly one orchestrator
// owns it; it changes only through the transition table below.
type State int

const (
	Idle State = iota
	Connecting
	Charging
	Derating
	Stopping
	Stopped
	Faulted
)

// String returns the lower-case state name used in statistics and logs.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Charging:
		return "charging"
	case Derating:
		return "derating"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition may leave s.
func (s State) Terminal() bool { return s == Stopped || s == Faulted }

// transitions is the complete set of legal state changes. Anything else is
// an invalid transition and is recorded, never applied.
var transitions = map[State][]State{
	Idle:       {Connecting},
	Connecting: {Charging, Faulted},
	Charging:   {Derating, Stopping},
	Derating:   {Charging, Stopping},
	Stopping:   {Stopped},
}

// allowed reports whether from -> to is listed in the transition table.
func allowed(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
