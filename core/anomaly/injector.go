// Package anomaly implements the fault and attack injection engine. An
// Injector holds an insertion-ordered set of active anomalies and applies
// their transforms to traffic units routed by the session orchestrator.
// All randomness flows through a single seeded source so a fixed seed and a
// fixed call sequence reproduce byte-identical output.
package anomaly

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/voltguard/chargesim/core/logger"
	"github.com/voltguard/chargesim/core/model"
	"github.com/voltguard/chargesim/internal/simclock"
)

// Direction distinguishes traffic leaving the vehicle from traffic received.
type Direction int

const (
	Outbound Direction = iota
	Inbound
)

// Delivery wraps a traffic unit with injection metadata. A zero DeliverAt
// means immediate delivery within the current tick.
type Delivery struct {
	Unit model.TrafficUnit
	// DeliverAt schedules the unit for a later tick.
	DeliverAt time.Time
	// OutOfOrder marks the unit for reordered delivery within its tick.
	OutOfOrder bool
	// Synthetic marks units fabricated by an anomaly rather than produced
	// by legitimate traffic.
	Synthetic bool
}

// Effect records that one active anomaly observably altered the stream
// during a single Apply call.
type Effect struct {
	EventID string
	Kind    model.AnomalyKind
}

// Stats summarizes injector activity since construction.
type Stats struct {
	TotalInjected  int
	ActiveCount    int
	InjectedByKind map[model.AnomalyKind]int
}

// Injector owns the active anomaly set. It is driven exclusively by the
// orchestrator's cooperative tick loop and needs no locking.
type Injector struct {
	rng      *rand.Rand
	clock    simclock.Clock
	log      logger.Logger
	active   []model.AnomalyEvent
	byKind   map[model.AnomalyKind]int
	total    int
	lastSeen map[model.Protocol]model.TrafficUnit
}

// NewInjector builds an injector over a seeded random source. A nil logger
// disables logging.
func NewInjector(seed int64, clock simclock.Clock, log logger.Logger) *Injector {
	if log == nil {
		log = nopLogger{}
	}
	return &Injector{
		rng:      rand.New(rand.NewSource(seed)),
		clock:    clock,
		log:      log,
		byKind:   make(map[model.AnomalyKind]int),
		lastSeen: make(map[model.Protocol]model.TrafficUnit),
	}
}

// Inject activates a new anomaly and returns the created event. It cannot
// fail for any existing injector state; only an out-of-range severity is
// rejected.
func (inj *Injector) Inject(kind model.AnomalyKind, target model.Protocol, severity model.Severity) (model.AnomalyEvent, error) {
	if err := model.ValidateSeverity(severity); err != nil {
		return model.AnomalyEvent{}, err
	}
	ev := model.AnomalyEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Target:      target,
		Severity:    severity,
		CreatedAt:   inj.clock.Now(),
		Description: fmt.Sprintf("injected %s on %s with severity %.2f", kind, target, severity),
	}
	inj.active = append(inj.active, ev)
	inj.byKind[kind]++
	inj.total++
	inj.log.Infof("anomaly injected: %s (%s on %s, severity %.2f)", ev.ID, kind, target, severity)
	return ev, nil
}

// Remove deactivates the anomaly with the given id. The boolean reports
// whether it was present; removing an unknown id is not an error.
func (inj *Injector) Remove(id string) bool {
	for i, ev := range inj.active {
		if ev.ID == id {
			inj.active = append(inj.active[:i], inj.active[i+1:]...)
			inj.log.Infof("anomaly removed: %s", id)
			return true
		}
	}
	return false
}

// ActiveEvents returns the active set in insertion order.
func (inj *Injector) ActiveEvents() []model.AnomalyEvent {
	out := make([]model.AnomalyEvent, len(inj.active))
	copy(out, inj.active)
	return out
}

// ActiveOfKind returns the active events of the given kind, insertion order.
func (inj *Injector) ActiveOfKind(kind model.AnomalyKind) []model.AnomalyEvent {
	var out []model.AnomalyEvent
	for _, ev := range inj.active {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Statistics returns a snapshot of injector counters.
func (inj *Injector) Statistics() Stats {
	byKind := make(map[model.AnomalyKind]int, len(inj.byKind))
	for k, v := range inj.byKind {
		byKind[k] = v
	}
	return Stats{TotalInjected: inj.total, ActiveCount: len(inj.active), InjectedByKind: byKind}
}

// ApplyOutbound runs every matching active transform over an outbound unit,
// chaining in insertion order. It returns the resulting deliveries plus one
// Effect per anomaly that altered the stream.
func (inj *Injector) ApplyOutbound(unit model.TrafficUnit, proto model.Protocol) ([]Delivery, []Effect) {
	return inj.apply(unit, proto, Outbound)
}

// ApplyInbound is ApplyOutbound for received units.
func (inj *Injector) ApplyInbound(unit model.TrafficUnit, proto model.Protocol) ([]Delivery, []Effect) {
	return inj.apply(unit, proto, Inbound)
}

func (inj *Injector) apply(unit model.TrafficUnit, proto model.Protocol, dir Direction) ([]Delivery, []Effect) {
	inj.lastSeen[proto] = unit.Clone()
	stream := []Delivery{{Unit: unit}}
	var effects []Effect
	for _, ev := range inj.active {
		if !ev.Target.Matches(proto) {
			continue
		}
		next, changed := inj.transform(ev, stream, proto, dir)
		stream = next
		if changed {
			effects = append(effects, Effect{EventID: ev.ID, Kind: ev.Kind})
		}
	}
	return stream, effects
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
