package protocol

import (
	"fmt"

	"github.com/voltguard/chargesim/core/model"
	coreprotocol "github.com/voltguard/chargesim/core/protocol"
)

// FailingControl wraps a control adapter and fails sends on demand. Used by
// tests exercising the orchestrator's fault threshold.
type FailingControl struct {
	Inner    coreprotocol.ControlAdapter
	FailFrom int // fail every send once this many have gone through
	sent     int
	stats    coreprotocol.AdapterStats
}

// Send forwards to the inner adapter until the failure point is reached.
func (f *FailingControl) Send(msg model.ControlMessage) (*model.ControlMessage, error) {
	f.sent++
	if f.sent > f.FailFrom {
		f.stats.Errors++
		return nil, fmt.Errorf("control: link down")
	}
	f.stats.Sent++
	return f.Inner.Send(msg)
}

// Stats returns the wrapper counters.
func (f *FailingControl) Stats() coreprotocol.AdapterStats { return f.stats }
