// Package metrics provides the observability sinks: Prometheus counters,
// InfluxDB line-protocol writes, and a fan-out combining them.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/voltguard/chargesim/core/metrics"
)

// PromSink records session events in Prometheus metrics.
type PromSink struct {
	units       *prometheus.CounterVec
	anomalies   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	sessions    *prometheus.CounterVec
	temperature prometheus.Gauge
	current     prometheus.Gauge
}

// NewPromSink registers session metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.SessionSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.SessionSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargesim_units_total",
		Help: "Total traffic units routed per protocol and direction",
	}, []string{"protocol", "direction", "synthetic"})
	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargesim_anomalies_total",
		Help: "Total anomaly records by kind and effectiveness",
	}, []string{"kind", "effective"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargesim_state_transitions_total",
		Help: "Total session state transitions",
	}, []string{"from", "to", "reason"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargesim_sessions_total",
		Help: "Total finished sessions by final state and reason",
	}, []string{"final_state", "reason"})
	temperature := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargesim_connector_temperature_celsius",
		Help: "Connector temperature as of the last simulation tick",
	})
	current := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargesim_applied_current_amperes",
		Help: "Charging current as of the last simulation tick",
	})

	if err := reg.Register(units); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			units = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(anomalies); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			anomalies = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(sessions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sessions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(temperature); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			temperature = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(current); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			current = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		units:       units,
		anomalies:   anomalies,
		transitions: transitions,
		sessions:    sessions,
		temperature: temperature,
		current:     current,
	}, nil
}

// RecordTick updates the physical-state gauges.
func (s *PromSink) RecordTick(ev coremetrics.TickEvent) error {
	s.temperature.Set(ev.TemperatureC)
	s.current.Set(ev.CurrentA)
	return nil
}

// RecordTransition counts one state change.
func (s *PromSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	s.transitions.WithLabelValues(ev.From, ev.To, ev.Reason).Inc()
	return nil
}

// RecordAnomaly counts one anomaly record.
func (s *PromSink) RecordAnomaly(ev coremetrics.AnomalyRecord) error {
	s.anomalies.WithLabelValues(ev.Kind.String(), strconv.FormatBool(ev.Effective)).Inc()
	return nil
}

// RecordUnits adds routed unit counts.
func (s *PromSink) RecordUnits(ev coremetrics.UnitEvent) error {
	s.units.WithLabelValues(ev.Protocol.String(), ev.Direction, strconv.FormatBool(ev.Synthetic)).Add(float64(ev.Count))
	return nil
}

// RecordSummary counts one finished session.
func (s *PromSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	s.sessions.WithLabelValues(ev.FinalState, ev.Reason).Inc()
	return nil
}
