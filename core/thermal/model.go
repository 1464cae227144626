// Package thermal models resistive heating of the charging connector. Power
// dissipated at the contact is P = I²R; the connector temperature follows a
// first-order lag toward the ambient:
//
//	dT/dt = (P - k_loss * (T - T_ambient)) / C_thermal
//
// integrated with explicit forward stepping at the caller-chosen interval.
package thermal

import (
	"fmt"

	"github.com/voltguard/chargesim/core/model"
)

// Verdict classifies a connector temperature.
type Verdict int

const (
	Normal Verdict = iota
	Derate
	Critical
)

// String returns a human-readable representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case Normal:
		return "normal"
	case Derate:
		return "derate"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Config holds the scenario parameters of the connector model. Thresholds
// are configuration, not physics: a test bench may tighten them.
type Config struct {
	// AmbientC is the surrounding temperature in degrees Celsius.
	AmbientC float64 `json:"ambient_c"`
	// HeatCapacityJPerC is the effective thermal mass of the contact.
	HeatCapacityJPerC float64 `json:"heat_capacity_j_per_c"`
	// LossCoeffWPerC is the heat loss coefficient toward the ambient.
	LossCoeffWPerC float64 `json:"loss_coeff_w_per_c"`
	// DerateC is the temperature at which current must be reduced.
	DerateC float64 `json:"derate_c"`
	// CriticalC is the temperature at which the session must stop.
	CriticalC float64 `json:"critical_c"`
}

// SetDefaults applies the copper-contact reference parameters.
func (c *Config) SetDefaults() {
	if c.AmbientC == 0 {
		c.AmbientC = 25.0
	}
	if c.HeatCapacityJPerC == 0 {
		c.HeatCapacityJPerC = 200.0
	}
	if c.LossCoeffWPerC == 0 {
		c.LossCoeffWPerC = 2.0
	}
	if c.DerateC == 0 {
		c.DerateC = 80.0
	}
	if c.CriticalC == 0 {
		c.CriticalC = 100.0
	}
}

// Validate checks the physical plausibility of the parameters.
func (c Config) Validate() error {
	if c.HeatCapacityJPerC <= 0 {
		return fmt.Errorf("%w: heat capacity must be positive", model.ErrInvalidParameter)
	}
	if c.LossCoeffWPerC <= 0 {
		return fmt.Errorf("%w: loss coefficient must be positive", model.ErrInvalidParameter)
	}
	if c.DerateC >= c.CriticalC {
		return fmt.Errorf("%w: derate threshold %.1f must be below critical %.1f",
			model.ErrInvalidParameter, c.DerateC, c.CriticalC)
	}
	return nil
}

// State is a read-only snapshot of the connector. Temperature derives purely
// from the other fields over the elapsed time; it is never set directly.
type State struct {
	TemperatureC         float64
	ContactResistanceOhm float64
	AppliedCurrentA      float64
	ElapsedSeconds       float64
}

// Model integrates the connector temperature tick by tick. Once the critical
// threshold is crossed the model stays critical; only a fresh session resets
// it.
type Model struct {
	cfg      Config
	state    State
	tripped  bool
	lastRate float64
}

// NewModel builds a model at ambient temperature.
func NewModel(cfg Config) (*Model, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, state: State{TemperatureC: cfg.AmbientC}}, nil
}

// Advance steps the model by dtSeconds under the given current and contact
// resistance, returning the new state snapshot. Negative dt or resistance is
// a contract violation, never clamped.
func (m *Model) Advance(dtSeconds, currentA, resistanceOhm float64) (State, error) {
	if dtSeconds < 0 {
		return State{}, fmt.Errorf("%w: negative time step %v", model.ErrInvalidParameter, dtSeconds)
	}
	if resistanceOhm < 0 {
		return State{}, fmt.Errorf("%w: negative resistance %v", model.ErrInvalidParameter, resistanceOhm)
	}
	power := currentA * currentA * resistanceOhm
	loss := m.cfg.LossCoeffWPerC * (m.state.TemperatureC - m.cfg.AmbientC)
	rate := (power - loss) / m.cfg.HeatCapacityJPerC

	m.state.TemperatureC += rate * dtSeconds
	m.state.ContactResistanceOhm = resistanceOhm
	m.state.AppliedCurrentA = currentA
	m.state.ElapsedSeconds += dtSeconds
	m.lastRate = rate
	if m.state.TemperatureC >= m.cfg.CriticalC {
		m.tripped = true
	}
	return m.state, nil
}

// Classify maps a temperature to a verdict. Critical is terminal for the
// lifetime of the model.
func (m *Model) Classify(temperatureC float64) Verdict {
	if m.tripped || temperatureC >= m.cfg.CriticalC {
		return Critical
	}
	if temperatureC >= m.cfg.DerateC {
		return Derate
	}
	return Normal
}

// State returns the current snapshot.
func (m *Model) State() State { return m.state }

// RateCPerS returns the temperature slope of the last step.
func (m *Model) RateCPerS() float64 { return m.lastRate }

// Config returns the scenario parameters.
func (m *Model) Config() Config { return m.cfg }

// Reset returns the model to ambient temperature and clears the critical
// latch. Used only when a fresh session starts.
func (m *Model) Reset() {
	m.state = State{TemperatureC: m.cfg.AmbientC}
	m.tripped = false
	m.lastRate = 0
}
