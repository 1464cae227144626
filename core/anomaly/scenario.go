package anomaly

import (
	"time"

	"github.com/voltguard/chargesim/core/model"
)

// Step is one timed injection in a scenario. Offset is relative to the
// moment the scenario starts executing.
type Step struct {
	Offset   time.Duration
	Kind     model.AnomalyKind
	Target   model.Protocol
	Severity model.Severity
}

// Scenario is a reusable, time-ordered script of anomaly injections. It is
// immutable once constructed; executing it only mutates the injector's
// active set.
type Scenario struct {
	name        string
	description string
	steps       []Step
}

// NewScenario copies the steps so later mutation of the caller's slice
// cannot alter the template.
func NewScenario(name, description string, steps []Step) Scenario {
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Scenario{name: name, description: description, steps: cp}
}

// Name returns the scenario name.
func (s Scenario) Name() string { return s.name }

// Description returns the scenario description.
func (s Scenario) Description() string { return s.description }

// Steps returns a copy of the step list.
func (s Scenario) Steps() []Step {
	cp := make([]Step, len(s.steps))
	copy(cp, s.steps)
	return cp
}

// Runner replays a scenario against a live injector. The orchestrator polls
// Apply at every tick boundary; steps fire once their absolute time
// (scenario start + offset) has been reached. This is the cooperative
// suspension point of the scenario contract.
type Runner struct {
	scenario Scenario
	start    time.Time
	next     int
}

// NewRunner starts the scenario clock at the given instant.
func NewRunner(sc Scenario, start time.Time) *Runner {
	return &Runner{scenario: sc, start: start}
}

// Apply injects every step due at or before now, in scenario order, and
// returns the created events. Once exhausted, Apply is a no-op.
func (r *Runner) Apply(now time.Time, inj *Injector) []model.AnomalyEvent {
	var fired []model.AnomalyEvent
	for r.next < len(r.scenario.steps) {
		step := r.scenario.steps[r.next]
		if now.Before(r.start.Add(step.Offset)) {
			break
		}
		ev, err := inj.Inject(step.Kind, step.Target, step.Severity)
		if err == nil {
			fired = append(fired, ev)
		}
		r.next++
	}
	return fired
}

// Done reports whether every step has fired.
func (r *Runner) Done() bool { return r.next >= len(r.scenario.steps) }

// Canned attack scenarios mirroring the catalog an operator would reach for
// first. They are templates: each call returns an independent value.

// DoSFlood bursts synthesized units on the control protocol, then widens to
// the bus.
func DoSFlood() Scenario {
	return NewScenario("dos-flood", "floods the charging system with synthesized units", []Step{
		{Offset: 0, Kind: model.DenialOfService, Target: model.ProtocolControl, Severity: model.SeverityHigh},
		{Offset: 2 * time.Second, Kind: model.DenialOfService, Target: model.ProtocolBus, Severity: model.SeverityMedium},
	})
}

// Replay re-sends previously observed units after a delay to confuse session
// state.
func Replay() Scenario {
	return NewScenario("replay", "replays captured units to cause state confusion", []Step{
		{Offset: 0, Kind: model.ReplayAttack, Target: model.ProtocolControl, Severity: model.SeverityMedium},
		{Offset: 5 * time.Second, Kind: model.ReplayAttack, Target: model.ProtocolSession, Severity: model.SeverityMedium},
	})
}

// Spoofing injects forged identity units on bus and control layers.
func Spoofing() Scenario {
	return NewScenario("spoofing", "sends units with a forged identity", []Step{
		{Offset: 0, Kind: model.Spoofing, Target: model.ProtocolBus, Severity: model.SeverityHigh},
		{Offset: time.Second, Kind: model.Spoofing, Target: model.ProtocolControl, Severity: model.SeverityHigh},
	})
}

// FrameInjection pushes malformed bus frames at high severity.
func FrameInjection() Scenario {
	return NewScenario("frame-injection", "injects malformed frames on the vehicle bus", []Step{
		{Offset: 0, Kind: model.FrameInjection, Target: model.ProtocolBus, Severity: model.SeverityHigh},
		{Offset: time.Second, Kind: model.FrameFuzzing, Target: model.ProtocolBus, Severity: model.SeverityHigh},
	})
}

// Catalog maps scenario names to their constructors.
func Catalog() map[string]func() Scenario {
	return map[string]func() Scenario{
		"dos":             DoSFlood,
		"replay":          Replay,
		"spoofing":        Spoofing,
		"frame-injection": FrameInjection,
	}
}
