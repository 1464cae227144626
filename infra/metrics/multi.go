package metrics

import coremetrics "github.com/voltguard/chargesim/core/metrics"

// MultiSink fans session events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.SessionSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.SessionSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the snapshot to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTick(ev coremetrics.TickEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTick(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransition forwards state changes.
func (m *MultiSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTransition(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordAnomaly forwards anomaly records.
func (m *MultiSink) RecordAnomaly(ev coremetrics.AnomalyRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAnomaly(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordUnits forwards traffic counts.
func (m *MultiSink) RecordUnits(ev coremetrics.UnitEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordUnits(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSummary forwards the end-of-session report.
func (m *MultiSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSummary(ev); err != nil {
			return err
		}
	}
	return nil
}
