// Package session owns the charging session state machine and the simulation
// tick loop. The orchestrator routes traffic through the three protocol
// adapters, consults the anomaly injector around every routed unit and stops
// the session when the thermal model turns critical, independent of any
// protocol state.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltguard/chargesim/core/anomaly"
	"github.com/voltguard/chargesim/core/logger"
	"github.com/voltguard/chargesim/core/metrics"
	"github.com/voltguard/chargesim/core/model"
	"github.com/voltguard/chargesim/core/protocol"
	"github.com/voltguard/chargesim/core/thermal"
	"github.com/voltguard/chargesim/internal/eventbus"
	"github.com/voltguard/chargesim/internal/simclock"
)

// Reason codes attached to session end transitions.
const (
	ReasonDurationElapsed = "duration elapsed"
	ReasonThermalCritical = "thermal_critical"
	ReasonStopRequested   = "stop requested"
	ReasonHandshakeFailed = "handshake failed"
	ReasonAdapterFailures = "adapter failures"
)

// Event is the union carried on the session event bus: either a
// metrics.TransitionEvent or a metrics.SummaryEvent.
type Event any

// Summary is returned by every simulated session, even those that ended
// early. Anomaly outcomes never surface as errors past this point.
type Summary struct {
	SessionID          string
	ElapsedSeconds     float64
	FinalState         State
	Reason             string
	Statistics         Statistics
	AnomaliesRequested int
	EffectiveByKind    map[model.AnomalyKind]int
}

type pendKey struct {
	proto model.Protocol
	dir   anomaly.Direction
}

// Orchestrator drives one charging session. All mutation happens on the
// cooperative tick loop; concurrent readers only ever receive snapshots.
type Orchestrator struct {
	cfg   Config
	id    string
	log   logger.Logger
	clock *simclock.Simulated

	thermalModel *thermal.Model
	injector     *anomaly.Injector
	bus          protocol.BusAdapter
	control      protocol.ControlAdapter
	v2g          protocol.SessionAdapter
	sink         metrics.SessionSink
	events       *eventbus.TypedBus[Event]

	mu           sync.Mutex
	state        State
	stats        Statistics
	reason       string
	stopRequest  bool
	currentIdx   int
	vehicle      model.Vehicle
	consecFails  map[string]int
	msgCounter   int
	lastStatusAt time.Time
	pending      map[pendKey][]anomaly.Delivery
	runners      []*anomaly.Runner
	scenarios    []anomaly.Scenario
}

// New validates the configuration and assembles an orchestrator. Invalid
// parameters surface here and nowhere later.
func New(cfg Config, bus protocol.BusAdapter, control protocol.ControlAdapter, v2g protocol.SessionAdapter, log logger.Logger, sink metrics.SessionSink, events *eventbus.TypedBus[Event]) (*Orchestrator, error) {
	if bus == nil || control == nil || v2g == nil {
		return nil, fmt.Errorf("%w: nil protocol adapter", model.ErrInvalidParameter)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if log == nil {
		log = noplog{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	// Simulated time starts at a fixed origin so a fixed seed reproduces
	// byte-identical runs, timestamps included.
	clock := simclock.New(time.Unix(0, 0).UTC())
	tm, err := thermal.NewModel(cfg.Thermal)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:          cfg,
		id:           cfg.SessionID,
		log:          log,
		clock:        clock,
		thermalModel: tm,
		injector:     anomaly.NewInjector(cfg.Seed, clock, log),
		bus:          bus,
		control:      control,
		v2g:          v2g,
		sink:         sink,
		events:       events,
		state:        Idle,
		stats:        newStatistics(),
		vehicle: model.Vehicle{
			ID:            "EV-001",
			BatteryKWh:    40,
			SoCPct:        20,
			MaxCurrentA:   cfg.NominalCurrentA,
			ChargeStepPct: 0.5,
		},
		consecFails: make(map[string]int),
		pending:     make(map[pendKey][]anomaly.Delivery),
	}, nil
}

// Injector exposes the anomaly injector for operators and scenarios.
func (o *Orchestrator) Injector() *anomaly.Injector { return o.injector }

// Clock returns the session's simulated clock.
func (o *Orchestrator) Clock() simclock.Clock { return o.clock }

// AddScenario attaches an attack scenario. Its step offsets are measured
// from session start.
func (o *Orchestrator) AddScenario(sc anomaly.Scenario) {
	o.mu.Lock()
	o.scenarios = append(o.scenarios, sc)
	o.mu.Unlock()
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// StatisticsSnapshot returns a deep copy of the counters. Safe to call while
// a session is running.
func (o *Orchestrator) StatisticsSnapshot() Statistics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats.Snapshot()
}

// ThermalSnapshot returns the connector state as of the last tick.
func (o *Orchestrator) ThermalSnapshot() thermal.State { return o.thermalModel.State() }

// Stop requests a cooperative stop, honored at the next tick boundary.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopRequest = true
	o.mu.Unlock()
}

// Start runs the connection handshake: Idle -> Connecting -> Charging, or
// Faulted when the handshake fails.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Idle {
		return fmt.Errorf("%w: session already started", model.ErrInvalidParameter)
	}
	o.transition(Connecting, "start requested")
	for _, sc := range o.scenarios {
		o.runners = append(o.runners, anomaly.NewRunner(sc, o.clock.Now()))
	}
	o.lastStatusAt = o.clock.Now()

	boot := model.ControlMessage{
		Type: model.Call, MessageID: o.nextMessageID(), Action: model.ActionBootNotification,
		Payload: map[string]any{"chargePointModel": "SimulatedCP", "chargePointVendor": "ChargeSim"},
	}
	bootResp, bootErr := o.routeControl(boot)
	startResp, startErr := o.routeSession(model.SessionMessage{Type: model.SessionStartReq, Fields: map[string]any{"vehicleID": o.vehicle.ID}})

	ok := bootErr == nil && startErr == nil &&
		bootResp != nil && bootResp.Type == model.CallResult &&
		startResp != nil && startResp.Type == model.SessionStartRes
	if !ok {
		o.transition(Faulted, ReasonHandshakeFailed)
		o.reason = ReasonHandshakeFailed
		o.log.Errorf("handshake failed: boot=%v session=%v", bootErr, startErr)
		return nil
	}
	o.transition(Charging, "handshake ok")
	return nil
}

// Tick executes one simulation step: scenario steps, thermal check, anomaly
// handling, one round of protocol traffic, statistics, clock advance.
func (o *Orchestrator) Tick() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Terminal() {
		return
	}
	now := o.clock.Now()

	for _, r := range o.runners {
		for _, ev := range r.Apply(now, o.injector) {
			o.recordAnomalyRequested(ev)
		}
	}

	resistance := o.effectiveResistance()
	st, err := o.thermalModel.Advance(o.cfg.TickSeconds, o.appliedCurrent(), resistance)
	if err != nil {
		// Config was validated up front; reaching this means a contract
		// violation worth surfacing loudly.
		o.log.Errorf("thermal advance: %v", err)
		o.stats.Errors++
		return
	}
	verdict := o.thermalModel.Classify(st.TemperatureC)
	o.emitTick(st)

	switch {
	case verdict == thermal.Critical && (o.state == Charging || o.state == Derating):
		// The safety cutover overrides all protocol activity.
		o.log.Warnf("critical connector temperature %.1fC at R=%.5f ohm, stopping session",
			st.TemperatureC, st.ContactResistanceOhm)
		o.transition(Stopping, ReasonThermalCritical)
		o.reason = ReasonThermalCritical
	case o.stopRequest && (o.state == Charging || o.state == Derating):
		o.transition(Stopping, ReasonStopRequested)
		o.reason = ReasonStopRequested
	case o.state == Charging && verdict == thermal.Derate:
		o.transition(Derating, "derate threshold crossed")
		o.derateOnce()
	case o.state == Derating && verdict == thermal.Derate:
		o.derateOnce()
	case o.state == Derating && verdict == thermal.Normal:
		o.transition(Charging, "temperature recovered")
		o.currentIdx = 0
	}

	o.applyForcedTransitions()

	if o.state == Charging || o.state == Derating {
		o.exchange(now)
	} else if o.state == Stopping {
		o.cleanup()
	}

	o.stats.AnomaliesRequested = o.injector.Statistics().TotalInjected
	o.stats.ElapsedSeconds += o.cfg.TickSeconds
	if now.Sub(o.lastStatusAt) >= 30*time.Second {
		o.log.Infof("session %s: state=%s T=%.1fC I=%.1fA soc=%.1f", o.id, o.state, st.TemperatureC, o.appliedCurrent(), o.vehicle.SoCPct)
		o.lastStatusAt = now
	}
	o.clock.Advance(time.Duration(o.cfg.TickSeconds * float64(time.Second)))
}

// Run drives the session to completion: handshake, tick loop until the
// configured duration elapses or a terminal state is reached, then summary.
// Context cancellation behaves like a cooperative stop request.
func (o *Orchestrator) Run(ctx context.Context) Summary {
	return o.SimulateChargingSession(ctx, nil)
}

// SimulateChargingSession runs a full session with the given anomaly kinds
// active from the first tick. It always returns a summary, even when the
// session ends early.
func (o *Orchestrator) SimulateChargingSession(ctx context.Context, kinds []model.AnomalyKind) Summary {
	if err := o.Start(); err != nil {
		o.log.Errorf("start: %v", err)
	}
	// Requested anomalies become active on the first tick; the handshake
	// itself runs clean.
	for _, k := range kinds {
		if ev, err := o.injector.Inject(k, model.ProtocolAll, model.SeverityMedium); err == nil {
			o.mu.Lock()
			o.recordAnomalyRequested(ev)
			o.mu.Unlock()
		}
	}
	for {
		o.mu.Lock()
		done := o.state.Terminal() || o.stats.ElapsedSeconds >= o.cfg.DurationSeconds
		o.mu.Unlock()
		if done {
			break
		}
		select {
		case <-ctx.Done():
			o.Stop()
		default:
		}
		o.Tick()
	}

	o.mu.Lock()
	// The configured duration elapsing is a normal end: wind the state
	// machine down through Stopping.
	if !o.state.Terminal() {
		if o.state == Charging || o.state == Derating {
			o.transition(Stopping, ReasonDurationElapsed)
			if o.reason == "" {
				o.reason = ReasonDurationElapsed
			}
			o.cleanup()
		} else if o.state == Stopping {
			o.cleanup()
		}
	}
	if o.reason == "" {
		o.reason = ReasonDurationElapsed
	}
	o.stats.FinalState = o.state
	summary := Summary{
		SessionID:          o.id,
		ElapsedSeconds:     o.stats.ElapsedSeconds,
		FinalState:         o.state,
		Reason:             o.reason,
		Statistics:         o.stats.Snapshot(),
		AnomaliesRequested: o.stats.AnomaliesRequested,
	}
	summary.EffectiveByKind = summary.Statistics.EffectiveByKind
	o.mu.Unlock()

	ev := metrics.SummaryEvent{
		SessionID:      summary.SessionID,
		FinalState:     summary.FinalState.String(),
		Reason:         summary.Reason,
		ElapsedSeconds: summary.ElapsedSeconds,
		Report:         summary.Statistics.Report(),
		Time:           o.clock.Now(),
	}
	if err := o.sink.RecordSummary(ev); err != nil {
		o.log.Errorf("record summary: %v", err)
	}
	if o.events != nil {
		o.events.Publish(ev)
	}
	o.log.Infof("session %s finished: state=%s reason=%q elapsed=%.0fs", summary.SessionID, summary.FinalState, summary.Reason, summary.ElapsedSeconds)
	return summary
}

// transition applies a state change if the table allows it. Disallowed
// changes are recorded as invalid transitions and left unapplied, except for
// the two documented overrides (fault escalation handled by fault()).
func (o *Orchestrator) transition(to State, reason string) bool {
	if !allowed(o.state, to) {
		o.stats.InvalidTransitions++
		o.stats.Errors++
		o.log.Warnf("invalid transition %s -> %s rejected (%s)", o.state, to, reason)
		return false
	}
	from := o.state
	o.state = to
	ev := metrics.TransitionEvent{SessionID: o.id, From: from.String(), To: to.String(), Reason: reason, Time: o.clock.Now()}
	if err := o.sink.RecordTransition(ev); err != nil {
		o.log.Errorf("record transition: %v", err)
	}
	if o.events != nil {
		o.events.Publish(ev)
	}
	o.log.Debugf("transition %s -> %s (%s)", from, to, reason)
	return true
}

// fault moves the session to Faulted outside the normal table. Used only for
// the recurring-adapter-failure escalation of the error contract.
func (o *Orchestrator) fault(reason string) {
	if o.state.Terminal() {
		return
	}
	from := o.state
	o.state = Faulted
	o.reason = reason
	ev := metrics.TransitionEvent{SessionID: o.id, From: from.String(), To: o.state.String(), Reason: reason, Time: o.clock.Now()}
	if err := o.sink.RecordTransition(ev); err != nil {
		o.log.Errorf("record transition: %v", err)
	}
	if o.events != nil {
		o.events.Publish(ev)
	}
	o.log.Errorf("session faulted: %s", reason)
}

// applyForcedTransitions models InvalidStateTransition anomalies: each one
// attempts a change the table forbids. The attempt must be detected and
// recorded, never applied, and never lands in a terminal state directly.
func (o *Orchestrator) applyForcedTransitions() {
	for _, ev := range o.injector.ActiveOfKind(model.InvalidStateTransition) {
		target := Idle
		if o.state == Idle {
			target = Charging
		}
		if o.transition(target, "forced by anomaly "+ev.ID) {
			// The targets above are never legal from any reachable
			// state; landing here means the table changed under us.
			o.log.Errorf("forced transition unexpectedly applied: %s", ev.ID)
		}
		o.recordAnomalyEffect(ev)
	}
}

// effectiveResistance folds active power anomalies into the contact
// resistance, capped at the degraded-contact value.
func (o *Orchestrator) effectiveResistance() float64 {
	res := o.cfg.ContactResistanceOhm
	span := o.cfg.DegradedResistanceOhm - o.cfg.ContactResistanceOhm
	for _, ev := range o.injector.ActiveOfKind(model.PowerAnomaly) {
		res += ev.Severity * span
		o.recordAnomalyEffect(ev)
	}
	if res > o.cfg.DegradedResistanceOhm {
		res = o.cfg.DegradedResistanceOhm
	}
	return res
}

func (o *Orchestrator) appliedCurrent() float64 {
	return o.cfg.DerateStepsA[o.currentIdx]
}

func (o *Orchestrator) derateOnce() {
	if o.currentIdx < len(o.cfg.DerateStepsA)-1 {
		o.currentIdx++
		o.log.Infof("derating: current reduced to %.1fA", o.appliedCurrent())
	}
}

// exchange services one round of traffic in the fixed order bus, control,
// session, keeping anomaly application deterministic across runs.
func (o *Orchestrator) exchange(now time.Time) {
	before := o.stats
	o.exchangeBus(now)
	o.exchangeControl(now)
	o.exchangeSession(now)
	o.vehicle.Charge()
	o.emitUnitDeltas(before)
}

// emitUnitDeltas reports the units routed during one exchange round.
func (o *Orchestrator) emitUnitDeltas(before Statistics) {
	now := o.clock.Now()
	emit := func(proto model.Protocol, dir string, count int, synthetic bool) {
		if count == 0 {
			return
		}
		ev := metrics.UnitEvent{SessionID: o.id, Protocol: proto, Direction: dir, Count: count, Synthetic: synthetic, Time: now}
		if err := o.sink.RecordUnits(ev); err != nil {
			o.log.Errorf("record units: %v", err)
		}
	}
	emit(model.ProtocolBus, "outbound", o.stats.BusSent-before.BusSent, false)
	emit(model.ProtocolBus, "inbound", o.stats.BusReceived-before.BusReceived, false)
	emit(model.ProtocolControl, "outbound", o.stats.ControlSent-before.ControlSent, false)
	emit(model.ProtocolControl, "inbound", o.stats.ControlReceived-before.ControlReceived, false)
	emit(model.ProtocolSession, "outbound", o.stats.SessionSent-before.SessionSent, false)
	emit(model.ProtocolSession, "inbound", o.stats.SessionReceived-before.SessionReceived, false)
	emit(model.ProtocolAll, "outbound", o.stats.FloodUnits-before.FloodUnits, true)
}

func (o *Orchestrator) exchangeBus(now time.Time) {
	frame := model.BatteryStatusFrame(int(o.vehicle.SoCPct), int(o.thermalModel.State().TemperatureC), 400)
	deliveries, effects := o.injector.ApplyOutbound(frame, model.ProtocolBus)
	o.recordEffects(effects)
	for _, d := range o.dueDeliveries(model.ProtocolBus, anomaly.Outbound, deliveries, now) {
		f, ok := d.Unit.(model.BusFrame)
		if !ok {
			continue
		}
		if err := o.bus.Send(f); err != nil {
			o.adapterFailure("bus", err)
			continue
		}
		o.adapterSuccess("bus")
		if d.Synthetic {
			o.stats.FloodUnits++
		} else {
			o.stats.BusSent++
		}
	}
	for _, in := range o.bus.Receive(0) {
		deliveries, effects := o.injector.ApplyInbound(in, model.ProtocolBus)
		o.recordEffects(effects)
		for _, d := range o.dueDeliveries(model.ProtocolBus, anomaly.Inbound, deliveries, now) {
			if !d.Synthetic {
				o.stats.BusReceived++
			}
		}
	}
}

func (o *Orchestrator) exchangeControl(now time.Time) {
	msg := model.ControlMessage{
		Type: model.Call, MessageID: o.nextMessageID(), Action: model.ActionHeartbeat,
		Payload: map[string]any{},
	}
	if int(o.stats.ElapsedSeconds)%30 == 0 {
		msg = model.ControlMessage{
			Type: model.Call, MessageID: msg.MessageID, Action: model.ActionMeterValues,
			Payload: map[string]any{
				"currentA": o.appliedCurrent(),
				"voltageV": o.lineVoltage(),
				"socPct":   o.vehicle.SoCPct,
			},
		}
	}
	deliveries, effects := o.injector.ApplyOutbound(msg, model.ProtocolControl)
	o.recordEffects(effects)
	for _, d := range o.dueDeliveries(model.ProtocolControl, anomaly.Outbound, deliveries, now) {
		m, ok := d.Unit.(model.ControlMessage)
		if !ok {
			continue
		}
		resp, err := o.control.Send(m)
		if err != nil {
			o.adapterFailure("control", err)
			continue
		}
		o.adapterSuccess("control")
		if d.Synthetic {
			o.stats.FloodUnits++
		} else {
			o.stats.ControlSent++
		}
		if resp == nil {
			continue
		}
		inDeliveries, inEffects := o.injector.ApplyInbound(*resp, model.ProtocolControl)
		o.recordEffects(inEffects)
		for _, rd := range o.dueDeliveries(model.ProtocolControl, anomaly.Inbound, inDeliveries, now) {
			if rm, ok := rd.Unit.(model.ControlMessage); ok && !rd.Synthetic {
				o.stats.ControlReceived++
				if rm.Type == model.CallError {
					o.stats.Errors++
				}
			}
		}
	}
}

func (o *Orchestrator) exchangeSession(now time.Time) {
	req := model.SessionMessage{
		Type:   model.ChargingStatusReq,
		Fields: map[string]any{"requestedPower": int(o.lineVoltage() * o.appliedCurrent())},
	}
	deliveries, effects := o.injector.ApplyOutbound(req, model.ProtocolSession)
	o.recordEffects(effects)
	for _, d := range o.dueDeliveries(model.ProtocolSession, anomaly.Outbound, deliveries, now) {
		m, ok := d.Unit.(model.SessionMessage)
		if !ok {
			continue
		}
		resp, err := o.v2g.Handle(m)
		if err != nil {
			o.adapterFailure("session", err)
			continue
		}
		o.adapterSuccess("session")
		if d.Synthetic {
			o.stats.FloodUnits++
		} else {
			o.stats.SessionSent++
		}
		inDeliveries, inEffects := o.injector.ApplyInbound(resp, model.ProtocolSession)
		o.recordEffects(inEffects)
		for _, rd := range o.dueDeliveries(model.ProtocolSession, anomaly.Inbound, inDeliveries, now) {
			if rm, ok := rd.Unit.(model.SessionMessage); ok && !rd.Synthetic {
				o.stats.SessionReceived++
				if rm.Type == model.SessionError {
					o.stats.Errors++
				}
			}
		}
	}
}

// routeControl pushes one control message through the injector and the
// adapter, returning the first response to a legitimate unit.
func (o *Orchestrator) routeControl(msg model.ControlMessage) (*model.ControlMessage, error) {
	deliveries, effects := o.injector.ApplyOutbound(msg, model.ProtocolControl)
	o.recordEffects(effects)
	var resp *model.ControlMessage
	var firstErr error
	for _, d := range o.dueDeliveries(model.ProtocolControl, anomaly.Outbound, deliveries, o.clock.Now()) {
		m, ok := d.Unit.(model.ControlMessage)
		if !ok {
			continue
		}
		r, err := o.control.Send(m)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			o.stats.Errors++
			continue
		}
		if d.Synthetic {
			o.stats.FloodUnits++
			continue
		}
		o.stats.ControlSent++
		if r != nil && resp == nil {
			o.stats.ControlReceived++
			resp = r
		}
	}
	return resp, firstErr
}

// routeSession is routeControl for the vehicle-to-grid session protocol.
func (o *Orchestrator) routeSession(msg model.SessionMessage) (*model.SessionMessage, error) {
	deliveries, effects := o.injector.ApplyOutbound(msg, model.ProtocolSession)
	o.recordEffects(effects)
	var resp *model.SessionMessage
	var firstErr error
	for _, d := range o.dueDeliveries(model.ProtocolSession, anomaly.Outbound, deliveries, o.clock.Now()) {
		m, ok := d.Unit.(model.SessionMessage)
		if !ok {
			continue
		}
		r, err := o.v2g.Handle(m)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			o.stats.Errors++
			continue
		}
		if d.Synthetic {
			o.stats.FloodUnits++
			continue
		}
		o.stats.SessionSent++
		if resp == nil {
			o.stats.SessionReceived++
			rc := r
			resp = &rc
		}
	}
	return resp, firstErr
}

// dueDeliveries merges freshly transformed deliveries with the pending queue
// for the protocol/direction, returning everything due now in delivery
// order: immediate units first, out-of-order units moved to the back.
func (o *Orchestrator) dueDeliveries(proto model.Protocol, dir anomaly.Direction, fresh []anomaly.Delivery, now time.Time) []anomaly.Delivery {
	key := pendKey{proto: proto, dir: dir}
	queue := append(o.pending[key], fresh...)

	var due, later, reordered []anomaly.Delivery
	for _, d := range queue {
		switch {
		case !d.DeliverAt.IsZero() && d.DeliverAt.After(now):
			later = append(later, d)
		case d.OutOfOrder:
			reordered = append(reordered, d)
		default:
			due = append(due, d)
		}
	}
	o.pending[key] = later
	return append(due, reordered...)
}

// cleanup performs the disconnection exchange and finishes the session.
// After a thermal trip no further protocol units are serviced.
func (o *Orchestrator) cleanup() {
	if o.reason != ReasonThermalCritical {
		stop := model.ControlMessage{
			Type: model.Call, MessageID: o.nextMessageID(), Action: model.ActionStopTransaction,
			Payload: map[string]any{"reason": o.reason},
		}
		if _, err := o.control.Send(stop); err != nil {
			o.adapterFailure("control", err)
		} else {
			o.stats.ControlSent++
		}
		if _, err := o.v2g.Handle(model.SessionMessage{Type: model.SessionStopReq, Fields: map[string]any{}}); err != nil {
			o.adapterFailure("session", err)
		} else {
			o.stats.SessionSent++
		}
	}
	o.transition(Stopped, "cleanup complete")
}

// adapterFailure counts consecutive failures per adapter; a success on one
// adapter never clears another's streak.
func (o *Orchestrator) adapterFailure(adapter string, err error) {
	o.stats.Errors++
	o.consecFails[adapter]++
	o.log.Warnf("%s adapter failure: %v", adapter, err)
	if o.consecFails[adapter] >= o.cfg.FaultThreshold {
		o.fault(ReasonAdapterFailures)
	}
}

func (o *Orchestrator) adapterSuccess(adapter string) { o.consecFails[adapter] = 0 }

func (o *Orchestrator) lineVoltage() float64 {
	return o.cfg.NominalVoltageV - o.appliedCurrent()*o.cfg.LineImpedanceOhm
}

func (o *Orchestrator) nextMessageID() string {
	o.msgCounter++
	return strconv.Itoa(o.msgCounter)
}

func (o *Orchestrator) recordEffects(effects []anomaly.Effect) {
	for _, e := range effects {
		o.stats.EffectiveByKind[e.Kind]++
		rec := metrics.AnomalyRecord{
			SessionID: o.id, EventID: e.EventID, Kind: e.Kind, Effective: true, Time: o.clock.Now(),
		}
		if err := o.sink.RecordAnomaly(rec); err != nil {
			o.log.Errorf("record anomaly: %v", err)
		}
	}
}

func (o *Orchestrator) recordAnomalyEffect(ev model.AnomalyEvent) {
	o.recordEffects([]anomaly.Effect{{EventID: ev.ID, Kind: ev.Kind}})
}

func (o *Orchestrator) recordAnomalyRequested(ev model.AnomalyEvent) {
	rec := metrics.AnomalyRecord{
		SessionID: o.id, EventID: ev.ID, Kind: ev.Kind, Target: ev.Target,
		Severity: ev.Severity, Effective: false, Time: o.clock.Now(),
	}
	if err := o.sink.RecordAnomaly(rec); err != nil {
		o.log.Errorf("record anomaly: %v", err)
	}
}

func (o *Orchestrator) emitTick(st thermal.State) {
	ev := metrics.TickEvent{
		SessionID:     o.id,
		State:         o.state.String(),
		TemperatureC:  st.TemperatureC,
		CurrentA:      st.AppliedCurrentA,
		ResistanceOhm: st.ContactResistanceOhm,
		LineVoltageV:  o.lineVoltage(),
		Time:          o.clock.Now(),
	}
	if err := o.sink.RecordTick(ev); err != nil {
		o.log.Errorf("record tick: %v", err)
	}
}

type noplog struct{}

func (noplog) Debugf(string, ...any)         {}
func (noplog) Debugw(string, map[string]any) {}
func (noplog) Infof(string, ...any)          {}
func (noplog) Warnf(string, ...any)          {}
func (noplog) Errorf(string, ...any)         {}
