package protocol

import (
	"testing"
	"time"

	"github.com/voltguard/chargesim/core/model"
	"github.com/voltguard/chargesim/internal/simclock"
)

func TestSimBusSendReceive(t *testing.T) {
	bus := NewSimBus()
	if err := bus.Send(model.BatteryStatusFrame(50, 30, 400)); err != nil {
		t.Fatalf("send: %v", err)
	}
	frames := bus.Receive(10)
	if len(frames) != 1 {
		t.Fatalf("expected charging-state response, got %d frames", len(frames))
	}
	if frames[0].ID != model.FrameChargingState {
		t.Fatalf("unexpected response frame 0x%03X", frames[0].ID)
	}
	stats := bus.Stats()
	if stats.Sent != 1 || stats.Received != 1 || stats.Errors != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSimBusRejectsOversizedFrame(t *testing.T) {
	bus := NewSimBus()
	frame := model.BusFrame{ID: 0x700, Data: make([]byte, 12), DLC: 12}
	if err := bus.Send(frame); err == nil {
		t.Fatalf("oversized frame must be rejected")
	}
	if bus.Stats().Errors != 1 {
		t.Fatalf("error not counted")
	}
}

func TestSimBusBufferFull(t *testing.T) {
	bus := NewSimBus()
	bus.maxSize = 1
	if err := bus.Send(model.BatteryStatusFrame(10, 25, 400)); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := bus.Send(model.BatteryStatusFrame(11, 25, 400)); err == nil {
		t.Fatalf("saturated bus must drop the frame")
	}
}

func TestSimControlActions(t *testing.T) {
	clk := simclock.New(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctrl := NewSimControl(clk)

	boot := model.ControlMessage{Type: model.Call, MessageID: ctrl.NextMessageID(),
		Action: model.ActionBootNotification, Payload: map[string]any{"chargePointModel": "SimulatedCP"}}
	resp, err := ctrl.Send(boot)
	if err != nil || resp == nil || resp.Type != model.CallResult {
		t.Fatalf("boot: resp=%+v err=%v", resp, err)
	}
	if resp.Payload["status"] != "Accepted" {
		t.Fatalf("boot not accepted: %+v", resp.Payload)
	}

	start := model.ControlMessage{Type: model.Call, MessageID: ctrl.NextMessageID(),
		Action: model.ActionStartTransaction, Payload: map[string]any{"idTag": "U-987"}}
	resp, err = ctrl.Send(start)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	txID, ok := resp.Payload["transactionId"].(int)
	if !ok || txID == 0 {
		t.Fatalf("missing transaction id: %+v", resp.Payload)
	}
	if ctrl.OpenTransactions() != 1 {
		t.Fatalf("transaction not tracked")
	}

	stop := model.ControlMessage{Type: model.Call, MessageID: ctrl.NextMessageID(),
		Action: model.ActionStopTransaction, Payload: map[string]any{"transactionId": txID}}
	if _, err := ctrl.Send(stop); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if ctrl.OpenTransactions() != 0 {
		t.Fatalf("transaction not closed")
	}
}

func TestSimControlUnknownAction(t *testing.T) {
	clk := simclock.New(time.Now())
	ctrl := NewSimControl(clk)
	resp, err := ctrl.Send(model.ControlMessage{Type: model.Call, MessageID: "1", Action: "Reboot", Payload: map[string]any{}})
	if err != nil {
		t.Fatalf("unknown action should answer, not fail: %v", err)
	}
	if resp.Type != model.CallError {
		t.Fatalf("expected call error, got %+v", resp)
	}
	if ctrl.Stats().Errors != 1 {
		t.Fatalf("error not counted")
	}
}

func TestSimSessionLifecycle(t *testing.T) {
	sess := NewSimSession(16000)

	// Status before a session is established is refused.
	resp, _ := sess.Handle(model.SessionMessage{Type: model.ChargingStatusReq, Fields: map[string]any{}})
	if resp.Type != model.SessionError {
		t.Fatalf("expected error before session start, got %v", resp.Type)
	}

	resp, _ = sess.Handle(model.SessionMessage{Type: model.SessionStartReq, Fields: map[string]any{}})
	if resp.Type != model.SessionStartRes || !sess.Active() {
		t.Fatalf("session not established: %+v", resp)
	}
	id := sess.SessionID()
	if id == "" {
		t.Fatalf("missing session id")
	}

	resp, _ = sess.Handle(model.SessionMessage{Type: model.ChargingStatusReq, Fields: map[string]any{"requestedPower": 7360}})
	if resp.Type != model.ChargingStatusRes || resp.Fields["sessionID"] != id {
		t.Fatalf("status response mismatch: %+v", resp)
	}

	resp, _ = sess.Handle(model.SessionMessage{Type: model.SessionStopReq, Fields: map[string]any{}})
	if resp.Type != model.SessionStopRes || sess.Active() {
		t.Fatalf("session not stopped: %+v", resp)
	}
}
