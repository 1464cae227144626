package session

import (
	"fmt"

	"github.com/voltguard/chargesim/core/model"
	"github.com/voltguard/chargesim/core/thermal"
)

// Config holds the electrical and scheduling parameters of one charging
// session. Resistance values mirror the reference contacts: copper at
// 0.00005 ohm and a degraded iron contact at 0.0035 ohm.
type Config struct {
	SessionID string `json:"session_id"`

	NominalCurrentA float64 `json:"nominal_current_a"`
	// DerateStepsA is the current ladder walked down while derating. The
	// first entry must equal the nominal current.
	DerateStepsA []float64 `json:"derate_steps_a"`

	ContactResistanceOhm  float64 `json:"contact_resistance_ohm"`
	DegradedResistanceOhm float64 `json:"degraded_resistance_ohm"`
	LineImpedanceOhm      float64 `json:"line_impedance_ohm"`
	NominalVoltageV       float64 `json:"nominal_voltage_v"`

	TickSeconds     float64 `json:"tick_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`

	// FaultThreshold is the number of consecutive adapter failures after
	// which the session faults.
	FaultThreshold int `json:"fault_threshold"`

	// Seed drives every random draw of the anomaly injector.
	Seed int64 `json:"seed"`

	Thermal thermal.Config `json:"thermal"`
}

// SetDefaults applies the reference scenario parameters.
func (c *Config) SetDefaults() {
	if c.NominalCurrentA == 0 {
		c.NominalCurrentA = 32.0
	}
	if len(c.DerateStepsA) == 0 {
		c.DerateStepsA = []float64{c.NominalCurrentA, 16.0, 10.0, 0.0}
	}
	if c.ContactResistanceOhm == 0 {
		c.ContactResistanceOhm = 0.00005
	}
	if c.DegradedResistanceOhm == 0 {
		c.DegradedResistanceOhm = 0.0035
	}
	if c.LineImpedanceOhm == 0 {
		c.LineImpedanceOhm = 0.02
	}
	if c.NominalVoltageV == 0 {
		c.NominalVoltageV = 230.0
	}
	if c.TickSeconds == 0 {
		c.TickSeconds = 1.0
	}
	if c.DurationSeconds == 0 {
		c.DurationSeconds = 300.0
	}
	if c.FaultThreshold == 0 {
		c.FaultThreshold = 3
	}
	c.Thermal.SetDefaults()
}

// Validate rejects physically or logically impossible parameters.
func (c Config) Validate() error {
	if c.TickSeconds <= 0 {
		return fmt.Errorf("%w: tick must be positive", model.ErrInvalidParameter)
	}
	if c.DurationSeconds <= 0 {
		return fmt.Errorf("%w: duration must be positive", model.ErrInvalidParameter)
	}
	if c.NominalCurrentA < 0 {
		return fmt.Errorf("%w: negative nominal current", model.ErrInvalidParameter)
	}
	if c.ContactResistanceOhm < 0 || c.DegradedResistanceOhm < 0 {
		return fmt.Errorf("%w: negative contact resistance", model.ErrInvalidParameter)
	}
	if c.DegradedResistanceOhm < c.ContactResistanceOhm {
		return fmt.Errorf("%w: degraded resistance below nominal", model.ErrInvalidParameter)
	}
	if len(c.DerateStepsA) == 0 || c.DerateStepsA[0] != c.NominalCurrentA {
		return fmt.Errorf("%w: derate ladder must start at the nominal current", model.ErrInvalidParameter)
	}
	for i := 1; i < len(c.DerateStepsA); i++ {
		if c.DerateStepsA[i] > c.DerateStepsA[i-1] {
			return fmt.Errorf("%w: derate ladder must be non-increasing", model.ErrInvalidParameter)
		}
	}
	if c.FaultThreshold <= 0 {
		return fmt.Errorf("%w: fault threshold must be positive", model.ErrInvalidParameter)
	}
	return c.Thermal.Validate()
}
