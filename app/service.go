// Package app assembles the simulator from its parts: protocol adapters,
// anomaly injector, session orchestrator, metrics sinks and the MQTT
// publisher.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/voltguard/chargesim/config"
	coremetrics "github.com/voltguard/chargesim/core/metrics"
	"github.com/voltguard/chargesim/core/model"
	coremqtt "github.com/voltguard/chargesim/core/mqtt"
	"github.com/voltguard/chargesim/core/session"
	"github.com/voltguard/chargesim/infra/logger"
	"github.com/voltguard/chargesim/infra/metrics"
	"github.com/voltguard/chargesim/infra/mqtt"
	infraprotocol "github.com/voltguard/chargesim/infra/protocol"
	"github.com/voltguard/chargesim/internal/eventbus"
	"github.com/voltguard/chargesim/internal/simclock"
)

// Service wires one charging session simulation and its observability.
type Service struct {
	Orchestrator *session.Orchestrator
	bus          *eventbus.TypedBus[session.Event]
	publisher    coremqtt.Publisher
	log          logger.Logger
	promEnabled  bool
	promPort     string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	var sinks []coremetrics.SessionSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.SessionSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	var publisher coremqtt.Publisher = coremqtt.NopPublisher{}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		publisher = pub
	}

	// The peers keep their own clock for response timestamps; simulated
	// session time is owned by the orchestrator.
	peerClock := simclock.New(time.Unix(0, 0).UTC())
	maxPowerW := int(cfg.Session.NominalVoltageV * cfg.Session.NominalCurrentA)

	bus := eventbus.NewTyped[session.Event]()
	orc, err := session.New(
		cfg.Session,
		infraprotocol.NewSimBus(),
		infraprotocol.NewSimControl(peerClock),
		infraprotocol.NewSimSession(maxPowerW),
		logger.New("session"),
		sink,
		bus,
	)
	if err != nil {
		return nil, fmt.Errorf("session orchestrator: %w", err)
	}

	return &Service{
		Orchestrator: orc,
		bus:          bus,
		publisher:    publisher,
		log:          logg,
		promEnabled:  cfg.Metrics.PrometheusEnabled,
		promPort:     cfg.Metrics.PrometheusPort,
	}, nil
}

// Run executes the session to completion and returns its summary. Any given
// anomaly kinds are active from the first tick. The context cancels the
// session cooperatively.
func (s *Service) Run(ctx context.Context, kinds ...model.AnomalyKind) (session.Summary, error) {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	// A tick can emit several events at once, size the buffer for bursts.
	events := s.bus.SubscribeBuffered(64)
	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for ev := range events {
			s.forward(ev)
		}
	}()

	summary := s.Orchestrator.SimulateChargingSession(ctx, kinds)
	s.bus.Close()
	<-forwardDone

	s.log.Infof("session %s: %s (%s)", summary.SessionID, summary.FinalState, summary.Reason)
	return summary, nil
}

func (s *Service) forward(ev session.Event) {
	switch e := ev.(type) {
	case coremetrics.TransitionEvent:
		if err := s.publisher.PublishTransition(e); err != nil {
			s.log.Warnf("publish transition: %v", err)
		}
	case coremetrics.SummaryEvent:
		if err := s.publisher.PublishSummary(e); err != nil {
			s.log.Warnf("publish summary: %v", err)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() {
	s.publisher.Close()
}
