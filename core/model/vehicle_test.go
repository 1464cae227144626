package model

import "testing"

func TestVehicleValidate(t *testing.T) {
	v := Vehicle{ID: "EV-001", BatteryKWh: 40, SoCPct: 20, ChargeStepPct: 0.5}
	if err := v.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.BatteryKWh = 0
	if err := v.Validate(); err == nil {
		t.Fatal("expected error for zero battery capacity")
	}
	v.BatteryKWh = 40
	v.SoCPct = 120
	if err := v.Validate(); err == nil {
		t.Fatal("expected error for out-of-range SoC")
	}
}

func TestVehicleChargeSaturates(t *testing.T) {
	v := Vehicle{BatteryKWh: 40, SoCPct: 99.8, ChargeStepPct: 0.5}
	v.Charge()
	if v.SoCPct != 100 {
		t.Fatalf("expected saturation at 100, got %v", v.SoCPct)
	}
	if !v.Full() {
		t.Fatal("expected Full after saturation")
	}
}
