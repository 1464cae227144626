// Package protocol provides in-memory simulated peers for the three
// communication layers. Each adapter models the remote side of the link well
// enough to exercise the orchestrator; no real bus or network is touched.
package protocol

import (
	"fmt"

	"github.com/voltguard/chargesim/core/model"
	coreprotocol "github.com/voltguard/chargesim/core/protocol"
)

// defaultBusBuffer bounds the pending frame queue of the simulated bus.
const defaultBusBuffer = 256

// SimBus is a loopback vehicle bus. Frames sent by the orchestrator are
// acknowledged by the simulated battery controller with a charging-state
// frame.
type SimBus struct {
	buffer  []model.BusFrame
	maxSize int
	stats   coreprotocol.AdapterStats
}

// NewSimBus creates a bus with the default buffer size.
func NewSimBus() *SimBus {
	return &SimBus{maxSize: defaultBusBuffer}
}

// Send queues the frame and lets the simulated controller respond. A full
// buffer drops the frame and reports an error, like a saturated bus would.
func (b *SimBus) Send(frame model.BusFrame) error {
	if len(frame.Data) > 8 {
		b.stats.Errors++
		return fmt.Errorf("bus: frame 0x%03X payload exceeds 8 bytes", frame.ID)
	}
	if len(b.buffer) >= b.maxSize {
		b.stats.Errors++
		return fmt.Errorf("bus: buffer full, frame 0x%03X dropped", frame.ID)
	}
	b.stats.Sent++
	if resp, ok := b.respond(frame); ok {
		b.buffer = append(b.buffer, resp)
	}
	return nil
}

// respond emulates the battery controller: battery status frames are
// answered with the matching charging-state frame.
func (b *SimBus) respond(frame model.BusFrame) (model.BusFrame, bool) {
	if frame.ID != model.FrameBatteryStatus || len(frame.Data) < 4 {
		return model.BusFrame{}, false
	}
	soc := int(frame.Data[0])
	state := 1 // charging
	if soc >= 100 {
		state = 0
	}
	return model.ChargingStateFrame(state, 32, 7360), true
}

// Receive drains up to max pending frames.
func (b *SimBus) Receive(max int) []model.BusFrame {
	if max <= 0 || max > len(b.buffer) {
		max = len(b.buffer)
	}
	out := make([]model.BusFrame, max)
	copy(out, b.buffer[:max])
	b.buffer = b.buffer[max:]
	b.stats.Received += len(out)
	return out
}

// Stats returns the adapter counters.
func (b *SimBus) Stats() coreprotocol.AdapterStats { return b.stats }
