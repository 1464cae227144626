package protocol

import (
	"github.com/google/uuid"

	"github.com/voltguard/chargesim/core/model"
	coreprotocol "github.com/voltguard/chargesim/core/protocol"
)

// SimSession emulates the charge-point side of the vehicle-to-grid session
// protocol: request/response pairs with a session identifier established on
// SessionStartReq.
type SimSession struct {
	stats     coreprotocol.AdapterStats
	sessionID string
	active    bool
	maxPowerW int
}

// NewSimSession creates a session peer advertising the given maximum AC
// power in watts.
func NewSimSession(maxPowerW int) *SimSession {
	if maxPowerW <= 0 {
		maxPowerW = 16000
	}
	return &SimSession{maxPowerW: maxPowerW}
}

// Handle answers one request. Requests that need an active session while
// none exists yield an error-typed response; the error return is reserved
// for transport-level failures, which the in-memory peer never produces.
func (s *SimSession) Handle(msg model.SessionMessage) (model.SessionMessage, error) {
	s.stats.Sent++
	resp := s.respond(msg)
	if resp.Type == model.SessionError {
		s.stats.Errors++
	} else {
		s.stats.Received++
	}
	return resp, nil
}

func (s *SimSession) respond(msg model.SessionMessage) model.SessionMessage {
	switch msg.Type {
	case model.SessionStartReq:
		s.sessionID = uuid.NewString()
		s.active = true
		return model.SessionMessage{Type: model.SessionStartRes, Fields: map[string]any{
			"sessionID": s.sessionID, "evseID": "EVSE-001", "responseCode": "OK",
		}}
	case model.ServiceDiscoveryReq:
		return model.SessionMessage{Type: model.ServiceDiscoveryRes, Fields: map[string]any{
			"services": []map[string]any{
				{"serviceID": 1, "serviceName": "AC Charging", "maxPower": s.maxPowerW},
			},
		}}
	case model.ChargingStatusReq:
		if !s.active {
			return s.errorResponse("no active session")
		}
		return model.SessionMessage{Type: model.ChargingStatusRes, Fields: map[string]any{
			"sessionID": s.sessionID, "chargingState": "Active",
			"currentPower": msg.Fields["requestedPower"], "responseCode": "OK",
		}}
	case model.PowerDeliveryReq:
		if !s.active {
			return s.errorResponse("no active session")
		}
		return model.SessionMessage{Type: model.PowerDeliveryRes, Fields: map[string]any{
			"sessionID": s.sessionID, "responseCode": "OK", "powerAvailable": true,
		}}
	case model.SessionStopReq:
		s.active = false
		return model.SessionMessage{Type: model.SessionStopRes, Fields: map[string]any{"responseCode": "OK"}}
	default:
		return s.errorResponse("unknown message type")
	}
}

func (s *SimSession) errorResponse(reason string) model.SessionMessage {
	return model.SessionMessage{Type: model.SessionError, Fields: map[string]any{
		"errorCode": "ERROR", "errorDescription": reason,
	}}
}

// Active reports whether a session is established.
func (s *SimSession) Active() bool { return s.active }

// SessionID returns the identifier of the current session, if any.
func (s *SimSession) SessionID() string { return s.sessionID }

// Stats returns the adapter counters.
func (s *SimSession) Stats() coreprotocol.AdapterStats { return s.stats }
