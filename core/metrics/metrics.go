// Package metrics defines the observability events emitted by the session
// orchestrator and the sink interfaces infra adapters implement.
package metrics

import (
	"time"

	"github.com/voltguard/chargesim/core/model"
)

// TickEvent is a per-tick snapshot of the physical and electrical state.
type TickEvent struct {
	SessionID     string
	State         string
	TemperatureC  float64
	CurrentA      float64
	ResistanceOhm float64
	LineVoltageV  float64
	Time          time.Time
}

// TransitionEvent records one session state change.
type TransitionEvent struct {
	SessionID string
	From      string
	To        string
	Reason    string
	Time      time.Time
}

// AnomalyRecord captures an injected anomaly and whether it had an
// observable effect at the time of recording.
type AnomalyRecord struct {
	SessionID string
	EventID   string
	Kind      model.AnomalyKind
	Target    model.Protocol
	Severity  float64
	Effective bool
	Time      time.Time
}

// UnitEvent counts traffic units routed on one protocol in one direction.
type UnitEvent struct {
	SessionID string
	Protocol  model.Protocol
	Direction string
	Count     int
	Synthetic bool
	Time      time.Time
}

// SummaryEvent is the end-of-session report.
type SummaryEvent struct {
	SessionID      string
	FinalState     string
	Reason         string
	ElapsedSeconds float64
	Report         map[string]any
	Time           time.Time
}

// SessionSink records orchestrator events for observability purposes.
type SessionSink interface {
	RecordTick(ev TickEvent) error
	RecordTransition(ev TransitionEvent) error
	RecordAnomaly(ev AnomalyRecord) error
	RecordUnits(ev UnitEvent) error
	RecordSummary(ev SummaryEvent) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) RecordTick(TickEvent) error             { return nil }
func (NopSink) RecordTransition(TransitionEvent) error { return nil }
func (NopSink) RecordAnomaly(AnomalyRecord) error      { return nil }
func (NopSink) RecordUnits(UnitEvent) error            { return nil }
func (NopSink) RecordSummary(SummaryEvent) error       { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":9090"
	}
}
