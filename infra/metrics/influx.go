package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/voltguard/chargesim/core/metrics"
	"github.com/voltguard/chargesim/infra/logger"
)

// InfluxSink writes session events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails, so a missing database never blocks a
// simulation.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.SessionSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes one physical-state snapshot.
func (s *InfluxSink) RecordTick(ev coremetrics.TickEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("session_tick").
		AddTag("session_id", ev.SessionID).
		AddTag("state", ev.State).
		AddField("temperature_c", round3(ev.TemperatureC)).
		AddField("current_a", round3(ev.CurrentA)).
		AddField("resistance_ohm", ev.ResistanceOhm).
		AddField("line_voltage_v", round3(ev.LineVoltageV)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTransition writes one state change.
func (s *InfluxSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("state_transition").
		AddTag("session_id", ev.SessionID).
		AddTag("from", ev.From).
		AddTag("to", ev.To).
		AddTag("reason", ev.Reason).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAnomaly writes one anomaly record.
func (s *InfluxSink) RecordAnomaly(ev coremetrics.AnomalyRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("anomaly_event").
		AddTag("session_id", ev.SessionID).
		AddTag("kind", ev.Kind.String()).
		AddTag("effective", strconv.FormatBool(ev.Effective)).
		AddField("event_id", ev.EventID).
		AddField("severity", round3(ev.Severity)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordUnits writes routed traffic counts.
func (s *InfluxSink) RecordUnits(ev coremetrics.UnitEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("traffic_units").
		AddTag("session_id", ev.SessionID).
		AddTag("protocol", ev.Protocol.String()).
		AddTag("direction", ev.Direction).
		AddTag("synthetic", strconv.FormatBool(ev.Synthetic)).
		AddField("count", ev.Count).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSummary writes the end-of-session report.
func (s *InfluxSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("session_summary").
		AddTag("session_id", ev.SessionID).
		AddTag("final_state", ev.FinalState).
		AddTag("reason", ev.Reason).
		AddField("elapsed_seconds", round3(ev.ElapsedSeconds)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close flushes and closes the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
