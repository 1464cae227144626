package anomaly

import (
	"time"

	"github.com/voltguard/chargesim/core/model"
)

// floodBase and floodSpan bound the synthetic unit burst of a denial of
// service event: 10 units at severity 0, 100 at severity 1.
const (
	floodBase = 10
	floodSpan = 90
)

// transform applies one anomaly event to the delivery stream. The switch is
// total over model.AnomalyKind; adding a kind without a transform is a
// compile-time review item, not a silent fallthrough. The returned boolean
// reports whether the stream was observably altered.
func (inj *Injector) transform(ev model.AnomalyEvent, stream []Delivery, proto model.Protocol, dir Direction) ([]Delivery, bool) {
	switch ev.Kind {
	case model.FrameInjection:
		return inj.injectForged(ev, stream, proto)
	case model.FrameFuzzing:
		return inj.fuzz(ev, stream)
	case model.MessageDelay:
		return inj.delay(ev, stream)
	case model.MessageDuplication:
		return inj.duplicate(ev, stream)
	case model.MessageModification:
		return inj.modify(ev, stream)
	case model.Spoofing:
		return inj.injectForged(ev, stream, proto)
	case model.ReplayAttack:
		return inj.replay(ev, stream, proto)
	case model.DenialOfService:
		return inj.flood(ev, stream, proto)
	case model.TimingAttack:
		return inj.reorder(stream)
	case model.InvalidStateTransition:
		// Handled at the orchestrator's state machine, not on traffic.
		return stream, false
	case model.PowerAnomaly:
		// Physical fault: the orchestrator raises the effective contact
		// resistance while the event is active.
		return stream, false
	}
	return stream, false
}

// injectForged appends a synthesized malicious unit for the protocol. Serves
// both frame injection (malformed bus frames) and spoofing (forged identity
// units); severity scales how many units are forged.
func (inj *Injector) injectForged(ev model.AnomalyEvent, stream []Delivery, proto model.Protocol) ([]Delivery, bool) {
	count := 1 + int(ev.Severity*2)
	for i := 0; i < count; i++ {
		stream = append(stream, Delivery{Unit: model.Forge(proto, inj.rng), Synthetic: true})
	}
	return stream, true
}

// fuzz corrupts payload bytes of every non-synthetic unit in the stream,
// proportionally to severity.
func (inj *Injector) fuzz(ev model.AnomalyEvent, stream []Delivery) ([]Delivery, bool) {
	changed := false
	for i, d := range stream {
		if d.Synthetic {
			continue
		}
		stream[i].Unit = d.Unit.Corrupt(inj.rng, ev.Severity)
		changed = true
	}
	return stream, changed
}

// delay reschedules immediate units for a later tick. The hold-back time
// scales with severity up to five simulated seconds.
func (inj *Injector) delay(ev model.AnomalyEvent, stream []Delivery) ([]Delivery, bool) {
	hold := time.Duration(1+ev.Severity*4) * time.Second
	changed := false
	for i, d := range stream {
		if !d.DeliverAt.IsZero() {
			continue
		}
		stream[i].DeliverAt = inj.clock.Now().Add(hold)
		changed = true
	}
	return stream, changed
}

// duplicate re-emits each unit 1+⌊severity·3⌋ extra times. Duplicates are
// synthetic: they never count toward legitimate send statistics.
func (inj *Injector) duplicate(ev model.AnomalyEvent, stream []Delivery) ([]Delivery, bool) {
	copies := 1 + int(ev.Severity*3)
	var dup []Delivery
	for _, d := range stream {
		if d.Synthetic {
			continue
		}
		for c := 0; c < copies; c++ {
			dup = append(dup, Delivery{Unit: d.Unit.Clone(), DeliverAt: d.DeliverAt, Synthetic: true})
		}
	}
	if len(dup) == 0 {
		return stream, false
	}
	return append(stream, dup...), true
}

// modify corrupts a single field or byte per unit regardless of severity,
// simulating targeted tampering rather than blind fuzzing.
func (inj *Injector) modify(ev model.AnomalyEvent, stream []Delivery) ([]Delivery, bool) {
	changed := false
	for i, d := range stream {
		if d.Synthetic {
			continue
		}
		stream[i].Unit = d.Unit.Corrupt(inj.rng, 0)
		changed = true
	}
	return stream, changed
}

// replay re-emits the last unit previously observed on the protocol, held
// back so it arrives out of its original context.
func (inj *Injector) replay(ev model.AnomalyEvent, stream []Delivery, proto model.Protocol) ([]Delivery, bool) {
	prev, ok := inj.lastSeen[proto]
	if !ok {
		return stream, false
	}
	hold := time.Duration(1+ev.Severity*4) * time.Second
	stream = append(stream, Delivery{
		Unit:      prev.Clone(),
		DeliverAt: inj.clock.Now().Add(hold),
		Synthetic: true,
	})
	return stream, true
}

// flood appends a burst of synthetic units. Legitimate units already in the
// stream are left untouched: flooding contends for bandwidth, it does not
// swallow the channel.
func (inj *Injector) flood(ev model.AnomalyEvent, stream []Delivery, proto model.Protocol) ([]Delivery, bool) {
	count := floodBase + int(ev.Severity*floodSpan)
	for i := 0; i < count; i++ {
		stream = append(stream, Delivery{Unit: model.Forge(proto, inj.rng), Synthetic: true})
	}
	return stream, true
}

// reorder marks every unit for out-of-order delivery within its tick.
func (inj *Injector) reorder(stream []Delivery) ([]Delivery, bool) {
	changed := false
	for i := range stream {
		if stream[i].OutOfOrder {
			continue
		}
		stream[i].OutOfOrder = true
		changed = true
	}
	return stream, changed
}
