// Package mqtt defines the outbound event publishing contract. Sessions run
// fine without a broker; publishing is best effort.
package mqtt

import "github.com/voltguard/chargesim/core/metrics"

// Publisher pushes session lifecycle events to external consumers.
type Publisher interface {
	PublishTransition(ev metrics.TransitionEvent) error
	PublishSummary(ev metrics.SummaryEvent) error
	Close()
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishTransition(metrics.TransitionEvent) error { return nil }
func (NopPublisher) PublishSummary(metrics.SummaryEvent) error       { return nil }
func (NopPublisher) Close()                                          {}
