package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/voltguard/chargesim/core/metrics"
	"github.com/voltguard/chargesim/core/model"
)

func TestPromSinkRecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	prom, ok := sink.(*PromSink)
	require.True(t, ok)

	require.NoError(t, sink.RecordTick(coremetrics.TickEvent{TemperatureC: 42.5, CurrentA: 16}))
	require.NoError(t, sink.RecordTransition(coremetrics.TransitionEvent{From: "charging", To: "stopping", Reason: "thermal_critical"}))
	require.NoError(t, sink.RecordAnomaly(coremetrics.AnomalyRecord{Kind: model.DenialOfService, Effective: true}))
	require.NoError(t, sink.RecordUnits(coremetrics.UnitEvent{Protocol: model.ProtocolBus, Direction: "outbound", Count: 7}))
	require.NoError(t, sink.RecordSummary(coremetrics.SummaryEvent{FinalState: "stopped", Reason: "duration elapsed"}))

	assert.Equal(t, 42.5, testutil.ToFloat64(prom.temperature))
	assert.Equal(t, 16.0, testutil.ToFloat64(prom.current))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.transitions.WithLabelValues("charging", "stopping", "thermal_critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.anomalies.WithLabelValues("denial_of_service", "true")))
	assert.Equal(t, 7.0, testutil.ToFloat64(prom.units.WithLabelValues("bus", "outbound", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.sessions.WithLabelValues("stopped", "duration elapsed")))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	// Registering the same metrics twice must reuse the existing collectors.
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
}
