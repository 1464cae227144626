package anomaly

import (
	"errors"
	"testing"
	"time"

	"github.com/voltguard/chargesim/core/model"
	"github.com/voltguard/chargesim/internal/simclock"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestInjector(seed int64) (*Injector, *simclock.Simulated) {
	clk := simclock.New(testStart)
	return NewInjector(seed, clk, nil), clk
}

func TestInjectAndActiveOrder(t *testing.T) {
	inj, _ := newTestInjector(1)
	ev1, err := inj.Inject(model.FrameFuzzing, model.ProtocolBus, model.SeverityLow)
	if err != nil {
		t.Fatalf("inject: %v", err)
	}
	ev2, err := inj.Inject(model.MessageDelay, model.ProtocolAll, model.SeverityHigh)
	if err != nil {
		t.Fatalf("inject: %v", err)
	}
	if ev1.ID == ev2.ID {
		t.Fatalf("event ids must be unique")
	}
	active := inj.ActiveEvents()
	if len(active) != 2 || active[0].ID != ev1.ID || active[1].ID != ev2.ID {
		t.Fatalf("active set must preserve insertion order: %+v", active)
	}
	stats := inj.Statistics()
	if stats.TotalInjected != 2 || stats.ActiveCount != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.InjectedByKind[model.FrameFuzzing] != 1 || stats.InjectedByKind[model.MessageDelay] != 1 {
		t.Fatalf("unexpected by-kind stats %+v", stats.InjectedByKind)
	}
}

func TestInjectRejectsOutOfRangeSeverity(t *testing.T) {
	inj, _ := newTestInjector(1)
	if _, err := inj.Inject(model.Spoofing, model.ProtocolBus, 1.5); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter got %v", err)
	}
	if _, err := inj.Inject(model.Spoofing, model.ProtocolBus, -0.1); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter got %v", err)
	}
}

func TestRemoveIdempotence(t *testing.T) {
	inj, _ := newTestInjector(1)
	ev, _ := inj.Inject(model.Spoofing, model.ProtocolControl, model.SeverityMedium)
	if !inj.Remove(ev.ID) {
		t.Fatalf("first remove must report true")
	}
	if inj.Remove(ev.ID) {
		t.Fatalf("second remove must report false")
	}
	if inj.Remove("no-such-id") {
		t.Fatalf("unknown id must report false")
	}
	// History is not rewritten by removal.
	if stats := inj.Statistics(); stats.TotalInjected != 1 || stats.ActiveCount != 0 {
		t.Fatalf("unexpected stats after removal %+v", stats)
	}
}

func TestRemoveStopsFutureEffect(t *testing.T) {
	inj, _ := newTestInjector(7)
	ev, _ := inj.Inject(model.FrameFuzzing, model.ProtocolBus, model.SeverityHigh)
	frame := model.BatteryStatusFrame(50, 30, 400)

	_, effects := inj.ApplyOutbound(frame, model.ProtocolBus)
	if len(effects) != 1 || effects[0].EventID != ev.ID {
		t.Fatalf("expected one effect from %s, got %+v", ev.ID, effects)
	}
	inj.Remove(ev.ID)
	out, effects := inj.ApplyOutbound(frame, model.ProtocolBus)
	if len(effects) != 0 {
		t.Fatalf("removed anomaly must not fire: %+v", effects)
	}
	if len(out) != 1 {
		t.Fatalf("expected passthrough, got %d deliveries", len(out))
	}
	got := out[0].Unit.(model.BusFrame)
	for i := range frame.Data {
		if got.Data[i] != frame.Data[i] {
			t.Fatalf("payload altered after removal: %x vs %x", got.Data, frame.Data)
		}
	}
}

func TestTargetFiltering(t *testing.T) {
	inj, _ := newTestInjector(3)
	inj.Inject(model.FrameFuzzing, model.ProtocolControl, model.SeverityHigh)
	frame := model.BatteryStatusFrame(50, 30, 400)
	_, effects := inj.ApplyOutbound(frame, model.ProtocolBus)
	if len(effects) != 0 {
		t.Fatalf("control-targeted anomaly must not touch bus traffic")
	}
	msg := model.ControlMessage{Type: model.Call, MessageID: "1", Action: model.ActionHeartbeat, Payload: map[string]any{}}
	_, effects = inj.ApplyOutbound(msg, model.ProtocolControl)
	if len(effects) != 1 {
		t.Fatalf("expected effect on control traffic, got %+v", effects)
	}
}

func TestDeterministicForFixedSeed(t *testing.T) {
	run := func() [][]Delivery {
		inj, _ := newTestInjector(42)
		inj.Inject(model.FrameFuzzing, model.ProtocolBus, model.SeverityHigh)
		inj.Inject(model.DenialOfService, model.ProtocolBus, model.SeverityMedium)
		var out [][]Delivery
		for i := 0; i < 5; i++ {
			frame := model.BatteryStatusFrame(20+i, 30, 400)
			del, _ := inj.ApplyOutbound(frame, model.ProtocolBus)
			out = append(out, del)
		}
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("tick count mismatch")
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			t.Fatalf("tick %d: delivery count %d vs %d", i, len(a[i]), len(b[i]))
		}
		for j := range a[i] {
			fa, fb := a[i][j].Unit.(model.BusFrame), b[i][j].Unit.(model.BusFrame)
			if fa.ID != fb.ID || string(fa.Data) != string(fb.Data) {
				t.Fatalf("tick %d unit %d differs: %v vs %v", i, j, fa, fb)
			}
		}
	}
}

func TestChainingInsertionOrder(t *testing.T) {
	inj, _ := newTestInjector(9)
	inj.Inject(model.MessageDuplication, model.ProtocolSession, 0) // one extra copy
	inj.Inject(model.MessageDelay, model.ProtocolSession, model.SeverityLow)

	msg := model.SessionMessage{Type: model.ChargingStatusReq, Fields: map[string]any{"requestedPower": 7360}}
	out, effects := inj.ApplyOutbound(msg, model.ProtocolSession)
	if len(effects) != 2 {
		t.Fatalf("both anomalies must fire, got %+v", effects)
	}
	if len(out) != 2 {
		t.Fatalf("expected original + duplicate, got %d", len(out))
	}
	// The delay ran after the duplication, so every unit in the chained
	// stream carries a scheduled delivery time.
	for i, d := range out {
		if d.DeliverAt.IsZero() {
			t.Fatalf("delivery %d missed the chained delay", i)
		}
	}
}

func TestDelayScheduling(t *testing.T) {
	inj, clk := newTestInjector(5)
	inj.Inject(model.MessageDelay, model.ProtocolControl, 1.0)
	msg := model.ControlMessage{Type: model.Call, MessageID: "7", Action: model.ActionHeartbeat, Payload: map[string]any{}}
	out, _ := inj.ApplyOutbound(msg, model.ProtocolControl)
	if len(out) != 1 {
		t.Fatalf("expected single delivery")
	}
	want := clk.Now().Add(5 * time.Second)
	if !out[0].DeliverAt.Equal(want) {
		t.Fatalf("expected delivery at %v got %v", want, out[0].DeliverAt)
	}
}

func TestFloodKeepsLegitimateUnit(t *testing.T) {
	inj, _ := newTestInjector(11)
	inj.Inject(model.DenialOfService, model.ProtocolControl, model.SeverityHigh)
	msg := model.ControlMessage{Type: model.Call, MessageID: "3", Action: model.ActionHeartbeat, Payload: map[string]any{}}
	out, _ := inj.ApplyOutbound(msg, model.ProtocolControl)

	wantFlood := floodBase + int(model.SeverityHigh*floodSpan)
	legit, synthetic := 0, 0
	for _, d := range out {
		if d.Synthetic {
			synthetic++
		} else {
			legit++
		}
	}
	if legit != 1 {
		t.Fatalf("legitimate unit must survive the flood, got %d", legit)
	}
	if synthetic != wantFlood {
		t.Fatalf("expected %d flood units got %d", wantFlood, synthetic)
	}
}

func TestReplayEmitsPreviouslyObservedUnit(t *testing.T) {
	inj, _ := newTestInjector(13)
	first := model.SessionMessage{Type: model.ChargingStatusReq, Fields: map[string]any{"requestedPower": 7360}}
	inj.ApplyOutbound(first, model.ProtocolSession) // observed, no anomalies yet

	inj.Inject(model.ReplayAttack, model.ProtocolSession, model.SeverityMedium)
	second := model.SessionMessage{Type: model.PowerDeliveryReq, Fields: map[string]any{}}
	out, effects := inj.ApplyOutbound(second, model.ProtocolSession)
	if len(effects) != 1 {
		t.Fatalf("replay must fire once a unit was observed")
	}
	if len(out) != 2 {
		t.Fatalf("expected original + replayed unit, got %d", len(out))
	}
	replayed := out[1]
	if !replayed.Synthetic || replayed.DeliverAt.IsZero() {
		t.Fatalf("replayed unit must be synthetic and delayed: %+v", replayed)
	}
	if replayed.Unit.(model.SessionMessage).Type != model.PowerDeliveryReq {
		t.Fatalf("replay must re-emit the most recently observed unit")
	}
}

func TestTimingAttackMarksOutOfOrder(t *testing.T) {
	inj, _ := newTestInjector(17)
	inj.Inject(model.TimingAttack, model.ProtocolBus, model.SeverityLow)
	out, effects := inj.ApplyOutbound(model.BatteryStatusFrame(10, 25, 400), model.ProtocolBus)
	if len(effects) != 1 || !out[0].OutOfOrder {
		t.Fatalf("timing attack must mark units out of order: %+v", out)
	}
}

func TestPassthroughKindsDoNotTouchTraffic(t *testing.T) {
	inj, _ := newTestInjector(19)
	inj.Inject(model.PowerAnomaly, model.ProtocolAll, 1.0)
	inj.Inject(model.InvalidStateTransition, model.ProtocolAll, model.SeverityHigh)
	out, effects := inj.ApplyOutbound(model.BatteryStatusFrame(10, 25, 400), model.ProtocolBus)
	if len(effects) != 0 || len(out) != 1 {
		t.Fatalf("physical and state anomalies must not alter units: %d effects, %d deliveries", len(effects), len(out))
	}
}
