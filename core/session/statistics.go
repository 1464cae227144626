package session

import "github.com/voltguard/chargesim/core/model"

// Statistics accumulates per-session counters. Only the orchestrator writes
// to it, at tick boundaries; external readers get value snapshots.
type Statistics struct {
	BusSent         int
	BusReceived     int
	ControlSent     int
	ControlReceived int
	SessionSent     int
	SessionReceived int

	// FloodUnits counts synthesized units delivered on behalf of
	// anomalies. They are kept apart from the legitimate counters above.
	FloodUnits int

	// AnomaliesRequested counts inject calls; EffectiveByKind counts
	// anomalies that observably altered traffic, physics or state. The
	// two differ whenever an injected anomaly has no visible effect
	// within the session duration.
	AnomaliesRequested int
	EffectiveByKind    map[model.AnomalyKind]int

	InvalidTransitions int
	Errors             int
	ElapsedSeconds     float64
	FinalState         State
}

func newStatistics() Statistics {
	return Statistics{EffectiveByKind: make(map[model.AnomalyKind]int)}
}

// Snapshot returns a deep copy safe to hand to concurrent readers.
func (s Statistics) Snapshot() Statistics {
	cp := s
	cp.EffectiveByKind = make(map[model.AnomalyKind]int, len(s.EffectiveByKind))
	for k, v := range s.EffectiveByKind {
		cp.EffectiveByKind[k] = v
	}
	return cp
}

// Report renders the statistics as the nested mapping consumed by external
// reporting.
func (s Statistics) Report() map[string]any {
	byKind := make(map[string]int, len(s.EffectiveByKind))
	effective := 0
	for k, v := range s.EffectiveByKind {
		byKind[k.String()] = v
		effective += v
	}
	return map[string]any{
		"elapsed_time": s.ElapsedSeconds,
		"messages": map[string]any{
			"bus_sent":         s.BusSent,
			"bus_received":     s.BusReceived,
			"control_sent":     s.ControlSent,
			"control_received": s.ControlReceived,
			"session_sent":     s.SessionSent,
			"session_received": s.SessionReceived,
		},
		"anomalies": map[string]any{
			"total_injected": s.AnomaliesRequested,
			"by_kind":        byKind,
			"effective":      effective,
		},
		"flood_units":         s.FloodUnits,
		"invalid_transitions": s.InvalidTransitions,
		"errors":              s.Errors,
		"final_state":         s.FinalState.String(),
	}
}
