// ABOUTME: Wire protocol for the hub's persistent channels
// ABOUTME: Named JSON event envelopes and their payload shapes

package relay

import (
	"encoding/json"
	"time"
)

// Origin marks hub-emitted envelopes so clients can tell relayed traffic
// from their own.
const Origin = "hub"

// Inbound event names (remote party → hub).
const (
	EventRegisterGateway = "register-gateway"
	EventHeartbeat       = "heartbeat"
	EventGatewayResponse = "gateway-response"
	EventCloudMessage    = "cloud-message"
	EventRequestDevices  = "request-devices"
	EventDeviceControl   = "device-control"
	EventStreamControl   = "stream-control"
)

// Outbound lifecycle event names (hub → observers).
const (
	EventGatewayConnected    = "gateway-connected"
	EventGatewayDisconnected = "gateway-disconnected"
	EventStreamStarted       = "stream-started"
	EventStreamEnded         = "stream-ended"
)

// Envelope is one inbound message: a named event with an opaque payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutEnvelope is one hub-emitted message, augmented with the server
// timestamp and origin marker.
type OutEnvelope struct {
	Event     string    `json:"event"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"origin"`
}

// RegisterPayload is the data of a register-gateway event. Absent fields are
// defaulted by the registry, never rejected.
type RegisterPayload struct {
	SiteName    string `json:"siteName,omitempty"`
	DeviceCount *int   `json:"deviceCount,omitempty"`
}

// HeartbeatPayload is the data of a heartbeat event.
type HeartbeatPayload struct {
	DeviceCount *int `json:"deviceCount,omitempty"`
}

// GatewayLifecyclePayload is the data of gateway-connected and
// gateway-disconnected events.
type GatewayLifecyclePayload struct {
	SiteName    string `json:"siteName"`
	DeviceCount *int   `json:"deviceCount,omitempty"`
}

// StreamLifecyclePayload is the data of stream-started and stream-ended
// events.
type StreamLifecyclePayload struct {
	StreamKey  string `json:"streamKey"`
	StreamPath string `json:"streamPath,omitempty"`
}
