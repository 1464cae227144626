package model

// Protocol identifies one of the three simulated communication layers.
type Protocol int

const (
	// ProtocolBus is the vehicle-internal bus framing layer.
	ProtocolBus Protocol = iota
	// ProtocolControl is the charge-point control protocol layer.
	ProtocolControl
	// ProtocolSession is the vehicle-to-grid session protocol layer.
	ProtocolSession
	// ProtocolAll targets every layer at once. Only valid as an anomaly
	// target, never as a traffic unit origin.
	ProtocolAll
)

// String returns a human-readable representation of the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtocolBus:
		return "bus"
	case ProtocolControl:
		return "control"
	case ProtocolSession:
		return "session"
	case ProtocolAll:
		return "all"
	default:
		return "unknown"
	}
}

// Matches reports whether an anomaly targeting p applies to traffic on proto.
func (p Protocol) Matches(proto Protocol) bool {
	return p == ProtocolAll || p == proto
}
