package model

import (
	"fmt"
	"math/rand"
	"sort"
)

// TrafficUnit is one protocol data unit routed through the orchestrator.
// Implementations are value-like: Clone returns an independent copy and
// Corrupt never mutates the receiver.
type TrafficUnit interface {
	Protocol() Protocol
	Describe() string
	Clone() TrafficUnit
	// Corrupt returns a copy with payload bytes flipped. The number of
	// corrupted bytes scales with severity in [0,1].
	Corrupt(rng *rand.Rand, severity float64) TrafficUnit
}

// BusFrame is a vehicle-bus frame with a payload of at most eight bytes.
type BusFrame struct {
	ID   uint32
	Data []byte
	DLC  int
}

// Well-known frame identifiers used by the simulated vehicle.
const (
	FrameBatteryStatus uint32 = 0x100
	FrameChargingState uint32 = 0x101
	FrameErrorStatus   uint32 = 0x102
)

// NewBusFrame builds a frame, padding or truncating the payload to dlc bytes.
func NewBusFrame(id uint32, data []byte, dlc int) BusFrame {
	if dlc < 0 {
		dlc = 0
	}
	if dlc > 8 {
		dlc = 8
	}
	buf := make([]byte, dlc)
	copy(buf, data)
	return BusFrame{ID: id, Data: buf, DLC: dlc}
}

// BatteryStatusFrame encodes state of charge, temperature and pack voltage.
func BatteryStatusFrame(soc, temperature, voltage int) BusFrame {
	return NewBusFrame(FrameBatteryStatus, []byte{
		byte(soc), byte(temperature), byte(voltage >> 8), byte(voltage),
	}, 8)
}

// ChargingStateFrame encodes the charging state, current and power.
func ChargingStateFrame(state, current, power int) BusFrame {
	return NewBusFrame(FrameChargingState, []byte{
		byte(state), byte(current), byte(power >> 8), byte(power),
	}, 8)
}

// ErrorStatusFrame encodes an error code and severity level.
func ErrorStatusFrame(code, severity int) BusFrame {
	return NewBusFrame(FrameErrorStatus, []byte{byte(code), byte(severity)}, 8)
}

func (f BusFrame) Protocol() Protocol { return ProtocolBus }

func (f BusFrame) Describe() string {
	return fmt.Sprintf("bus frame 0x%03X dlc=%d data=%x", f.ID, f.DLC, f.Data)
}

func (f BusFrame) Clone() TrafficUnit {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return BusFrame{ID: f.ID, Data: data, DLC: f.DLC}
}

func (f BusFrame) Corrupt(rng *rand.Rand, severity float64) TrafficUnit {
	c := f.Clone().(BusFrame)
	if len(c.Data) == 0 {
		return c
	}
	n := corruptCount(len(c.Data), severity)
	for _, idx := range rng.Perm(len(c.Data))[:n] {
		c.Data[idx] = byte(rng.Intn(256))
	}
	return c
}

// CallType is the control-protocol message class.
type CallType int

const (
	Call       CallType = 2
	CallResult CallType = 3
	CallError  CallType = 4
)

// Control-protocol actions understood by the simulated charge point.
const (
	ActionBootNotification   = "BootNotification"
	ActionHeartbeat          = "Heartbeat"
	ActionMeterValues        = "MeterValues"
	ActionStartTransaction   = "StartTransaction"
	ActionStopTransaction    = "StopTransaction"
	ActionStatusNotification = "StatusNotification"
)

// ControlMessage is a charge-point control protocol unit.
type ControlMessage struct {
	Type      CallType
	MessageID string
	Action    string
	Payload   map[string]any
}

func (m ControlMessage) Protocol() Protocol { return ProtocolControl }

func (m ControlMessage) Describe() string {
	return fmt.Sprintf("control %d %s id=%s", m.Type, m.Action, m.MessageID)
}

func (m ControlMessage) Clone() TrafficUnit {
	payload := make(map[string]any, len(m.Payload))
	for k, v := range m.Payload {
		payload[k] = v
	}
	return ControlMessage{Type: m.Type, MessageID: m.MessageID, Action: m.Action, Payload: payload}
}

func (m ControlMessage) Corrupt(rng *rand.Rand, severity float64) TrafficUnit {
	c := m.Clone().(ControlMessage)
	keys := sortedKeys(c.Payload)
	if len(keys) == 0 {
		c.Payload["corrupted"] = rng.Intn(1 << 16)
		return c
	}
	n := corruptCount(len(keys), severity)
	for _, idx := range rng.Perm(len(keys))[:n] {
		c.Payload[keys[idx]] = rng.Intn(1 << 16)
	}
	return c
}

// SessionMessageType enumerates the vehicle-to-grid session message kinds.
type SessionMessageType int

const (
	SessionStartReq SessionMessageType = iota
	SessionStartRes
	ServiceDiscoveryReq
	ServiceDiscoveryRes
	ChargingStatusReq
	ChargingStatusRes
	PowerDeliveryReq
	PowerDeliveryRes
	SessionStopReq
	SessionStopRes
	SessionError
)

// String returns the wire name of the message type.
func (t SessionMessageType) String() string {
	switch t {
	case SessionStartReq:
		return "SessionStartReq"
	case SessionStartRes:
		return "SessionStartRes"
	case ServiceDiscoveryReq:
		return "ServiceDiscoveryReq"
	case ServiceDiscoveryRes:
		return "ServiceDiscoveryRes"
	case ChargingStatusReq:
		return "ChargingStatusReq"
	case ChargingStatusRes:
		return "ChargingStatusRes"
	case PowerDeliveryReq:
		return "PowerDeliveryReq"
	case PowerDeliveryRes:
		return "PowerDeliveryRes"
	case SessionStopReq:
		return "SessionStopReq"
	case SessionStopRes:
		return "SessionStopRes"
	case SessionError:
		return "SessionError"
	default:
		return "unknown"
	}
}

// SessionMessage is a vehicle-to-grid session protocol unit.
type SessionMessage struct {
	Type   SessionMessageType
	Fields map[string]any
}

func (m SessionMessage) Protocol() Protocol { return ProtocolSession }

func (m SessionMessage) Describe() string {
	return fmt.Sprintf("session %s", m.Type)
}

func (m SessionMessage) Clone() TrafficUnit {
	fields := make(map[string]any, len(m.Fields))
	for k, v := range m.Fields {
		fields[k] = v
	}
	return SessionMessage{Type: m.Type, Fields: fields}
}

func (m SessionMessage) Corrupt(rng *rand.Rand, severity float64) TrafficUnit {
	c := m.Clone().(SessionMessage)
	keys := sortedKeys(c.Fields)
	if len(keys) == 0 {
		c.Fields["corrupted"] = rng.Intn(1 << 16)
		return c
	}
	n := corruptCount(len(keys), severity)
	for _, idx := range rng.Perm(len(keys))[:n] {
		c.Fields[keys[idx]] = rng.Intn(1 << 16)
	}
	return c
}

// Forge synthesizes a malicious unit for the given protocol. The caller owns
// the random source so forged traffic is reproducible under a fixed seed.
func Forge(proto Protocol, rng *rand.Rand) TrafficUnit {
	switch proto {
	case ProtocolControl:
		return ControlMessage{
			Type:      Call,
			MessageID: fmt.Sprintf("forged-%d", rng.Intn(1<<20)),
			Action:    ActionStartTransaction,
			Payload:   map[string]any{"idTag": fmt.Sprintf("FORGED-%04X", rng.Intn(1<<16))},
		}
	case ProtocolSession:
		return SessionMessage{
			Type:   PowerDeliveryReq,
			Fields: map[string]any{"requestedPower": rng.Intn(400000), "forged": true},
		}
	default:
		data := make([]byte, 8)
		for i := range data {
			data[i] = byte(rng.Intn(256))
		}
		return NewBusFrame(uint32(rng.Intn(0x800)), data, 8)
	}
}

func corruptCount(n int, severity float64) int {
	c := int(float64(n) * severity)
	if c < 1 {
		c = 1
	}
	if c > n {
		c = n
	}
	return c
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic iteration order for seeded corruption.
	sort.Strings(keys)
	return keys
}
