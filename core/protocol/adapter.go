// Package protocol defines the adapter contracts the orchestrator consumes.
// Wire encodings live behind these interfaces; the core only routes units.
package protocol

import "github.com/voltguard/chargesim/core/model"

// AdapterStats counts traffic handled by one adapter.
type AdapterStats struct {
	Sent     int
	Received int
	Errors   int
}

// BusAdapter exchanges vehicle-bus frames.
type BusAdapter interface {
	// Send transmits one frame.
	Send(frame model.BusFrame) error
	// Receive drains up to max pending frames without blocking.
	Receive(max int) []model.BusFrame
	Stats() AdapterStats
}

// ControlAdapter exchanges charge-point control messages. Send returns the
// peer's response, if any.
type ControlAdapter interface {
	Send(msg model.ControlMessage) (*model.ControlMessage, error)
	Stats() AdapterStats
}

// SessionAdapter exchanges vehicle-to-grid session messages. Handle returns
// the peer's response unit.
type SessionAdapter interface {
	Handle(msg model.SessionMessage) (model.SessionMessage, error)
	Stats() AdapterStats
}
