package model

import (
	"fmt"
	"time"
)

// AnomalyKind is the closed set of fault and attack classes the injector can
// apply. Each kind maps to exactly one transform.
type AnomalyKind int

const (
	FrameInjection AnomalyKind = iota
	FrameFuzzing
	MessageDelay
	MessageDuplication
	MessageModification
	Spoofing
	ReplayAttack
	DenialOfService
	TimingAttack
	InvalidStateTransition
	PowerAnomaly
)

// AnomalyKinds lists every kind in declaration order.
var AnomalyKinds = []AnomalyKind{
	FrameInjection,
	FrameFuzzing,
	MessageDelay,
	MessageDuplication,
	MessageModification,
	Spoofing,
	ReplayAttack,
	DenialOfService,
	TimingAttack,
	InvalidStateTransition,
	PowerAnomaly,
}

// String returns the snake_case name used as a statistics key.
func (k AnomalyKind) String() string {
	switch k {
	case FrameInjection:
		return "frame_injection"
	case FrameFuzzing:
		return "frame_fuzzing"
	case MessageDelay:
		return "message_delay"
	case MessageDuplication:
		return "message_duplication"
	case MessageModification:
		return "message_modification"
	case Spoofing:
		return "spoofing"
	case ReplayAttack:
		return "replay_attack"
	case DenialOfService:
		return "denial_of_service"
	case TimingAttack:
		return "timing_attack"
	case InvalidStateTransition:
		return "invalid_state_transition"
	case PowerAnomaly:
		return "power_anomaly"
	default:
		return "unknown"
	}
}

// ParseAnomalyKind resolves a snake_case name back to its kind.
func ParseAnomalyKind(name string) (AnomalyKind, error) {
	for _, k := range AnomalyKinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown anomaly kind %q", ErrInvalidParameter, name)
}

// Severity scales how strongly a transform perturbs traffic, in [0,1].
type Severity = float64

// Named severity presets over the continuous scale.
const (
	SeverityLow    Severity = 0.1
	SeverityMedium Severity = 0.5
	SeverityHigh   Severity = 0.9
)

// ValidateSeverity rejects values outside [0,1].
func ValidateSeverity(s Severity) error {
	if s < 0 || s > 1 {
		return fmt.Errorf("%w: severity %v outside [0,1]", ErrInvalidParameter, s)
	}
	return nil
}

// AnomalyEvent is one active anomaly in the injector's working set. Events
// are passed by value; the injector owns the canonical copy.
type AnomalyEvent struct {
	ID          string
	Kind        AnomalyKind
	Target      Protocol
	Severity    Severity
	CreatedAt   time.Time
	Description string
}
