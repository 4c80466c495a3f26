// ABOUTME: HTTP reporting surface exposing gateway, stream, and event state
// ABOUTME: Provides health checks, JSON snapshots, and an SSE lifecycle feed

package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/henrya860919/construction-system/internal/gateway"
	"github.com/henrya860919/construction-system/internal/stream"
)

// GatewayResponse is one entry of GET /api/gateways. Online is advisory:
// a gateway stays registered while its connection lives even when it stops
// heartbeating.
type GatewayResponse struct {
	gateway.Gateway
	Online bool `json:"online"`
}

// GatewayListResponse is the JSON response for GET /api/gateways.
type GatewayListResponse struct {
	Gateways []GatewayResponse `json:"gateways"`
	Count    int               `json:"count"`
}

// StreamListResponse is the JSON response for GET /api/streams.
type StreamListResponse struct {
	Streams []stream.Session `json:"streams"`
	Count   int              `json:"count"`
}

// routes builds the HTTP handler: health probes, reporting API, SSE feed,
// and the WebSocket endpoint.
func (h *Hub) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Get("/health/ready", h.handleReady)

	r.Get("/api/gateways", h.handleListGateways)
	r.Get("/api/streams", h.handleListStreams)
	r.Get("/api/events", h.handleEvents)

	r.Get("/ws", h.handleSocket)

	return r
}

// handleHealth returns 200 OK if the server is alive.
func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if at least one gateway is connected.
func (h *Hub) handleReady(w http.ResponseWriter, r *http.Request) {
	count := h.registry.Count()
	if count == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no gateways connected"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d gateways)", count)
}

// handleListGateways handles GET /api/gateways. A gateway is online when
// its last heartbeat (or registration) is within the configured timeout.
func (h *Hub) handleListGateways(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-h.config.Gateways.HeartbeatTimeout)

	gateways := h.registry.List()
	response := GatewayListResponse{
		Gateways: make([]GatewayResponse, 0, len(gateways)),
		Count:    len(gateways),
	}
	for _, g := range gateways {
		response.Gateways = append(response.Gateways, GatewayResponse{
			Gateway: g,
			Online:  g.LastHeartbeat.After(cutoff),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// handleListStreams handles GET /api/streams.
func (h *Hub) handleListStreams(w http.ResponseWriter, r *http.Request) {
	sessions := h.tracker.List()
	response := StreamListResponse{
		Streams: sessions,
		Count:   len(sessions),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// handleEvents handles GET /api/events: an SSE stream of lifecycle events
// for dashboards that do not hold a WebSocket.
func (h *Hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, subID := h.broadcaster.Subscribe(r.Context())

	// Initial event so clients can confirm the subscription
	_, _ = fmt.Fprintf(w, "event: connected\ndata: {\"subscription_id\": %q}\n\n", subID)
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-heartbeat.C:
			// SSE comment keeps intermediaries from timing out the stream
			_, _ = fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()

		case event, ok := <-ch:
			if !ok {
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("marshaling lifecycle event", "error", err)
				continue
			}

			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
