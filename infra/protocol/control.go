package protocol

import (
	"fmt"
	"strconv"
	"time"

	"github.com/voltguard/chargesim/core/model"
	coreprotocol "github.com/voltguard/chargesim/core/protocol"
	"github.com/voltguard/chargesim/internal/simclock"
)

// SimControl emulates the charge-point side of the control protocol. It
// answers the six supported actions and tracks open transactions.
type SimControl struct {
	clock        simclock.Clock
	stats        coreprotocol.AdapterStats
	transactions map[int]map[string]any
	nextTxID     int
	msgCounter   int
}

// NewSimControl creates a control peer using the simulated clock for
// timestamps.
func NewSimControl(clock simclock.Clock) *SimControl {
	return &SimControl{clock: clock, transactions: make(map[int]map[string]any), nextTxID: 1}
}

// NextMessageID returns a fresh message identifier for an outgoing call.
func (c *SimControl) NextMessageID() string {
	c.msgCounter++
	return strconv.Itoa(c.msgCounter)
}

// Send delivers a call to the simulated charge point and returns its
// response. Non-call messages and unknown actions produce a CallError
// response, counted as an adapter error.
func (c *SimControl) Send(msg model.ControlMessage) (*model.ControlMessage, error) {
	c.stats.Sent++
	if msg.Type != model.Call {
		c.stats.Errors++
		return nil, fmt.Errorf("control: unexpected message type %d", msg.Type)
	}
	payload, ok := c.handle(msg)
	if !ok {
		c.stats.Errors++
		resp := model.ControlMessage{
			Type:      model.CallError,
			MessageID: msg.MessageID,
			Action:    msg.Action,
			Payload:   map[string]any{"errorCode": "NotImplemented"},
		}
		return &resp, nil
	}
	c.stats.Received++
	resp := model.ControlMessage{
		Type:      model.CallResult,
		MessageID: msg.MessageID,
		Action:    msg.Action,
		Payload:   payload,
	}
	return &resp, nil
}

func (c *SimControl) handle(msg model.ControlMessage) (map[string]any, bool) {
	now := c.clock.Now().UTC().Format(time.RFC3339)
	switch msg.Action {
	case model.ActionBootNotification:
		return map[string]any{"status": "Accepted", "currentTime": now, "interval": 30}, true
	case model.ActionHeartbeat:
		return map[string]any{"currentTime": now}, true
	case model.ActionMeterValues:
		return map[string]any{}, true
	case model.ActionStatusNotification:
		return map[string]any{}, true
	case model.ActionStartTransaction:
		id := c.nextTxID
		c.nextTxID++
		c.transactions[id] = msg.Payload
		return map[string]any{"transactionId": id, "idTagInfo": map[string]any{"status": "Accepted"}}, true
	case model.ActionStopTransaction:
		if id, ok := msg.Payload["transactionId"].(int); ok {
			delete(c.transactions, id)
		}
		return map[string]any{"idTagInfo": map[string]any{"status": "Accepted"}}, true
	default:
		return nil, false
	}
}

// OpenTransactions reports the number of transactions not yet stopped.
func (c *SimControl) OpenTransactions() int { return len(c.transactions) }

// Stats returns the adapter counters.
func (c *SimControl) Stats() coreprotocol.AdapterStats { return c.stats }
