package model

import "fmt"

// Vehicle models the electric vehicle on the simulated charging session.
// The orchestrator advances its state of charge once per tick and reports
// it on the bus and control protocols.
type Vehicle struct {
	ID          string
	BatteryKWh  float64 // total battery capacity in kWh
	SoCPct      float64 // state of charge, percent
	MaxCurrentA float64 // maximum charge current the vehicle accepts

	// ChargeStepPct is the SoC gained per simulation tick while charging.
	ChargeStepPct float64
}

// Validate checks that the vehicle configuration is sound. In particular
// BatteryKWh must be positive.
func (v Vehicle) Validate() error {
	if v.BatteryKWh <= 0 {
		return fmt.Errorf("%w: battery capacity must be positive", ErrInvalidParameter)
	}
	if v.SoCPct < 0 || v.SoCPct > 100 {
		return fmt.Errorf("%w: state of charge must be within [0, 100]", ErrInvalidParameter)
	}
	return nil
}

// Charge advances the state of charge by one tick, saturating at 100%.
func (v *Vehicle) Charge() {
	v.SoCPct += v.ChargeStepPct
	if v.SoCPct > 100 {
		v.SoCPct = 100
	}
}

// Full reports whether the battery has reached 100%.
func (v Vehicle) Full() bool { return v.SoCPct >= 100 }
