// ABOUTME: WebSocket endpoint where site gateways and observers connect
// ABOUTME: Runs the per-connection reader loop and dispatches inbound events

package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/henrya860919/construction-system/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The hub fronts site gateways on a private network; origin checks
	// belong to whatever terminates TLS in front of it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSocket handles GET /ws. Every client connects the same way; a
// connection only becomes a gateway once it sends register-gateway.
func (h *Hub) handleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	connID := uuid.New().String()
	logger := h.logger.With("connection_id", connID)

	conn := relay.NewConn(connID, ws, h.config.Relay.SendBuffer, logger)
	h.conns.Add(conn)

	logger.Info("client connected", "remote", r.RemoteAddr)

	go conn.WritePump()
	h.readLoop(conn, ws, logger)
}

// readLoop reads inbound envelopes until the connection drops, then tears
// down the connection state. Events from one connection are dispatched in
// arrival order.
func (h *Hub) readLoop(conn *relay.Conn, ws *websocket.Conn, logger *slog.Logger) {
	defer h.teardown(conn, logger)

	ws.SetReadLimit(h.config.Relay.ReadLimit)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read error", "error", err)
			}
			return
		}

		var env relay.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Warn("malformed envelope, dropping", "error", err)
			continue
		}

		h.dispatch(conn, env, logger)
	}
}

// teardown removes the connection from the table and, if it had registered
// as a gateway, unregisters it and announces the disconnect exactly once.
func (h *Hub) teardown(conn *relay.Conn, logger *slog.Logger) {
	conn.Close()
	h.conns.Remove(conn.ID)

	g, removed := h.registry.Unregister(conn.ID)
	if removed {
		dc := g.DeviceCount
		h.relay.BroadcastToObservers(relay.EventGatewayDisconnected, relay.GatewayLifecyclePayload{
			SiteName:    g.SiteName,
			DeviceCount: &dc,
		})
	}

	logger.Info("client disconnected", "was_gateway", removed)
}

// dispatch routes one inbound event. Unknown event types are logged and
// dropped so protocol additions on the gateway side never kill a connection.
func (h *Hub) dispatch(conn *relay.Conn, env relay.Envelope, logger *slog.Logger) {
	switch env.Event {
	case relay.EventRegisterGateway:
		h.handleRegister(conn, env.Data, logger)

	case relay.EventHeartbeat:
		h.handleHeartbeat(conn, env.Data, logger)

	case relay.EventGatewayResponse:
		h.relay.BroadcastToObservers(relay.EventGatewayResponse, env.Data)

	case relay.EventCloudMessage, relay.EventRequestDevices,
		relay.EventDeviceControl, relay.EventStreamControl:
		delivered := h.relay.BroadcastToGateways(env.Event, env.Data)
		logger.Debug("relayed to gateways", "event", env.Event, "delivered", delivered)

	default:
		logger.Warn("unknown event, dropping", "event", env.Event)
	}
}

// handleRegister upgrades the connection to a gateway and announces it.
func (h *Hub) handleRegister(conn *relay.Conn, data json.RawMessage, logger *slog.Logger) {
	var payload relay.RegisterPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Warn("malformed register payload, registering with defaults", "error", err)
		}
	}

	deviceCount := 0
	if payload.DeviceCount != nil {
		deviceCount = *payload.DeviceCount
	}

	g := h.registry.Register(conn.ID, payload.SiteName, deviceCount)

	dc := g.DeviceCount
	h.relay.BroadcastToObservers(relay.EventGatewayConnected, relay.GatewayLifecyclePayload{
		SiteName:    g.SiteName,
		DeviceCount: &dc,
	})
}

// handleHeartbeat refreshes the gateway's liveness marker. Heartbeats from
// connections that never registered are ignored by the registry.
func (h *Hub) handleHeartbeat(conn *relay.Conn, data json.RawMessage, logger *slog.Logger) {
	var payload relay.HeartbeatPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Warn("malformed heartbeat payload, dropping", "error", err)
			return
		}
	}
	h.registry.UpdateHeartbeat(conn.ID, payload.DeviceCount)
}
