// ABOUTME: Hub orchestrator that coordinates the WebSocket, HTTP, and RTMP servers
// ABOUTME: Manages gateway registry, stream tracker, and relay lifecycle

package hub

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/henrya860919/construction-system/internal/config"
	"github.com/henrya860919/construction-system/internal/events"
	"github.com/henrya860919/construction-system/internal/gateway"
	"github.com/henrya860919/construction-system/internal/media"
	"github.com/henrya860919/construction-system/internal/relay"
	"github.com/henrya860919/construction-system/internal/stream"
)

// Hub orchestrates the relay server components: the WebSocket endpoint for
// site gateways and observers, the HTTP reporting surface, and the RTMP
// ingest server.
type Hub struct {
	config      *config.Config
	registry    *gateway.Registry
	tracker     *stream.Tracker
	conns       *relay.Table
	relay       *relay.Relay
	broadcaster *events.Broadcaster
	mediaServer *media.Server
	httpServer  *http.Server
	logger      *slog.Logger
}

// New creates a new Hub instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Hub {
	registry := gateway.NewRegistry(logger.With("component", "registry"))
	tracker := stream.NewTracker(logger.With("component", "tracker"))
	broadcaster := events.NewBroadcaster(logger.With("component", "broadcaster"))
	conns := relay.NewTable()

	h := &Hub{
		config:      cfg,
		registry:    registry,
		tracker:     tracker,
		conns:       conns,
		relay:       relay.New(conns, registry, broadcaster, logger.With("component", "relay")),
		broadcaster: broadcaster,
		logger:      logger.With("component", "hub"),
	}

	h.mediaServer = media.NewServer(cfg.Server.RTMPAddr, h, logger)
	h.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           h.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h
}

// PublishStart records a new publish session and announces it to observers.
func (h *Hub) PublishStart(sessionID, streamPath string) {
	session := h.tracker.PublishStart(sessionID, streamPath)
	h.relay.BroadcastToObservers(relay.EventStreamStarted, relay.StreamLifecyclePayload{
		StreamKey:  session.Key,
		StreamPath: session.Path,
	})
}

// PublishStop removes a publish session. A stop with no matching session
// produces no event.
func (h *Hub) PublishStop(sessionID, streamPath string) {
	session, removed := h.tracker.PublishStop(sessionID, streamPath)
	if !removed {
		return
	}
	h.relay.BroadcastToObservers(relay.EventStreamEnded, relay.StreamLifecyclePayload{
		StreamKey:  session.Key,
		StreamPath: session.Path,
	})
}

// startServers starts the HTTP and RTMP servers in goroutines, returning an
// error channel.
func (h *Hub) startServers(ctx context.Context, httpLn net.Listener) chan error {
	errCh := make(chan error, 2)

	go func() {
		h.logger.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := h.httpServer.Serve(httpLn); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	go func() {
		if err := h.mediaServer.Serve(ctx); err != nil {
			errCh <- fmt.Errorf("RTMP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or a server error.
func (h *Hub) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		h.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		h.logger.Error("server error", "error", err)
		return err
	}
}

// Run starts the hub servers and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if a server fails.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("starting hub",
		"http_addr", h.config.Server.HTTPAddr,
		"rtmp_addr", h.config.Server.RTMPAddr,
	)

	httpLn, err := net.Listen("tcp", h.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := h.startServers(ctx, httpLn)
	serverErr := h.waitForShutdownSignal(ctx, errCh)

	shutdownErr := h.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (h *Hub) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server, closes every live connection,
// and shuts down the event feed. The RTMP server stops with its context.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("shutting down hub")

	err := h.httpServer.Shutdown(ctx)

	for _, c := range h.conns.All() {
		c.Close()
	}
	h.broadcaster.Close()

	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}
