package thermal

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/voltguard/chargesim/core/model"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(Config{})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return m
}

func TestAdvanceRejectsNegativeInputs(t *testing.T) {
	m := newTestModel(t)
	if _, err := m.Advance(-1, 32, 0.00005); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter got %v", err)
	}
	if _, err := m.Advance(1, 32, -0.001); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter got %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{AmbientC: 25, HeatCapacityJPerC: -1, LossCoeffWPerC: 1, DerateC: 80, CriticalC: 100},
		{AmbientC: 25, HeatCapacityJPerC: 100, LossCoeffWPerC: -1, DerateC: 80, CriticalC: 100},
		{AmbientC: 25, HeatCapacityJPerC: 100, LossCoeffWPerC: 1, DerateC: 100, CriticalC: 80},
	}
	for i, cfg := range cases {
		if _, err := NewModel(cfg); !errors.Is(err, model.ErrInvalidParameter) {
			t.Errorf("case %d: expected ErrInvalidParameter got %v", i, err)
		}
	}
}

// Temperature after a fixed elapsed time must increase strictly with I²R.
// A Kendall tau of exactly 1 over the sampled power grid means the ranking
// is perfectly monotonic.
func TestTemperatureMonotonicInPower(t *testing.T) {
	currents := []float64{8, 16, 24, 32, 48, 64}
	resistances := []float64{0.00005, 0.0005, 0.0015, 0.0035}

	var powers, temps []float64
	for _, i := range currents {
		for _, r := range resistances {
			m := newTestModel(t)
			for s := 0; s < 120; s++ {
				if _, err := m.Advance(1, i, r); err != nil {
					t.Fatalf("advance: %v", err)
				}
			}
			powers = append(powers, i*i*r)
			temps = append(temps, m.State().TemperatureC)
		}
	}
	if tau := stat.Kendall(powers, temps, nil); tau != 1 {
		t.Fatalf("expected perfectly monotonic heating, Kendall tau=%v", tau)
	}
}

func TestClassifyThresholds(t *testing.T) {
	m := newTestModel(t)
	if v := m.Classify(25); v != Normal {
		t.Errorf("25C: expected normal got %v", v)
	}
	if v := m.Classify(80); v != Derate {
		t.Errorf("80C: expected derate got %v", v)
	}
	if v := m.Classify(100); v != Critical {
		t.Errorf("100C: expected critical got %v", v)
	}
}

func TestCriticalIsLatched(t *testing.T) {
	m, err := NewModel(Config{AmbientC: 25, HeatCapacityJPerC: 10, LossCoeffWPerC: 0.01, DerateC: 80, CriticalC: 100})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	// 200A through a badly degraded contact heats past critical quickly.
	for s := 0; s < 60; s++ {
		if _, err := m.Advance(1, 200, 0.01); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if v := m.Classify(m.State().TemperatureC); v != Critical {
		t.Fatalf("expected critical, temperature %.1f", m.State().TemperatureC)
	}
	// Cooling down does not clear the latch.
	for s := 0; s < 600; s++ {
		if _, err := m.Advance(1, 0, 0.00005); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if v := m.Classify(m.State().TemperatureC); v != Critical {
		t.Fatalf("critical verdict must latch, got %v at %.1fC", v, m.State().TemperatureC)
	}
	m.Reset()
	if v := m.Classify(m.State().TemperatureC); v != Normal {
		t.Fatalf("reset must clear the latch, got %v", v)
	}
}

func TestSteadyStateCopperContact(t *testing.T) {
	m := newTestModel(t)
	for s := 0; s < 3600; s++ {
		if _, err := m.Advance(1, 32, 0.00005); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	st := m.State()
	// P = 32² * 0.00005 ≈ 0.05 W barely warms the contact.
	if st.TemperatureC > 26 {
		t.Fatalf("copper contact should stay near ambient, got %.2fC", st.TemperatureC)
	}
	if st.ElapsedSeconds != 3600 {
		t.Fatalf("elapsed mismatch: %v", st.ElapsedSeconds)
	}
}
