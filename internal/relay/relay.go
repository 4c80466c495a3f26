// ABOUTME: Best-effort fan-out of events to gateways and observers.
// ABOUTME: Snapshots recipients at call time; one dead peer never aborts the rest.

package relay

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/henrya860919/construction-system/internal/events"
	"github.com/henrya860919/construction-system/internal/gateway"
)

// Relay fans events out to the snapshot of recipients taken at call time.
// It holds no state of its own: gateway membership comes from the registry,
// sendable handles from the connection table.
type Relay struct {
	conns       *Table
	registry    *gateway.Registry
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

// New creates a Relay. The broadcaster may be nil when no SSE feed is
// attached. Pass nil logger for the default.
func New(conns *Table, registry *gateway.Registry, broadcaster *events.Broadcaster, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		conns:       conns,
		registry:    registry,
		broadcaster: broadcaster,
		logger:      logger.With("component", "relay"),
	}
}

// BroadcastToGateways sends an event to every currently registered gateway
// and returns the number of gateways the envelope was enqueued to. A gateway
// whose connection has vanished or whose queue is full is skipped silently;
// gateways registered after the snapshot do not receive the message.
func (r *Relay) BroadcastToGateways(event string, payload any) int {
	frame, err := r.marshal(event, payload)
	if err != nil {
		r.logger.Error("marshaling broadcast envelope", "event", event, "error", err)
		return 0
	}

	delivered := 0
	for _, g := range r.registry.List() {
		c, ok := r.conns.Get(g.ConnectionID)
		if !ok {
			r.logger.Debug("gateway connection gone, skipping",
				"event", event,
				"connection_id", g.ConnectionID,
			)
			continue
		}
		if err := c.Enqueue(frame); err != nil {
			r.logger.Debug("gateway send failed, skipping",
				"event", event,
				"connection_id", g.ConnectionID,
				"error", err,
			)
			continue
		}
		delivered++
	}

	r.logger.Debug("broadcast to gateways", "event", event, "delivered", delivered)
	return delivered
}

// BroadcastToObservers sends an event to every live connection (observers
// and gateways alike) and publishes it on the lifecycle feed. Delivery is
// best-effort per recipient.
func (r *Relay) BroadcastToObservers(event string, payload any) {
	frame, err := r.marshal(event, payload)
	if err != nil {
		r.logger.Error("marshaling broadcast envelope", "event", event, "error", err)
		return
	}

	for _, c := range r.conns.All() {
		if err := c.Enqueue(frame); err != nil {
			r.logger.Debug("observer send failed, skipping",
				"event", event,
				"connection_id", c.ID,
				"error", err,
			)
		}
	}

	if r.broadcaster != nil {
		r.broadcaster.Publish(events.Event{
			Type:      event,
			Timestamp: time.Now().UTC(),
			Data:      payload,
		})
	}
}

// marshal builds the stamped outbound envelope once per broadcast, so every
// recipient sees the same server timestamp.
func (r *Relay) marshal(event string, payload any) ([]byte, error) {
	return json.Marshal(OutEnvelope{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UTC(),
		Origin:    Origin,
	})
}
