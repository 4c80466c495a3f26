// ABOUTME: RTMP ingest front door for the streaming subsystem.
// ABOUTME: Accepts publishes and reports their lifecycle; media payload is discarded.

package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"
	"github.com/yutopp/go-rtmp"
)

// maxMessageSize caps a single RTMP message.
const maxMessageSize uint32 = 2 * 1024 * 1024

// Lifecycle receives publish start/stop notifications. The hub implements
// it; the media server has no other handle into the rest of the system.
type Lifecycle interface {
	PublishStart(sessionID, streamPath string)
	PublishStop(sessionID, streamPath string)
}

// Server accepts RTMP publish connections. Each connection gets its own
// session ID, independent of the stream key derived from the publish path.
type Server struct {
	addr      string
	lifecycle Lifecycle
	logger    *slog.Logger
}

// NewServer creates a media ingest server listening on addr once served.
// Pass nil logger for the default.
func NewServer(addr string, lifecycle Lifecycle, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:      addr,
		lifecycle: lifecycle,
		logger:    logger.With("component", "media-server"),
	}
}

// Serve listens and accepts RTMP connections until ctx is cancelled.
// Returns nil on cancellation.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	srv := rtmp.NewServer(&rtmp.ServerConfig{
		OnConnect: func(conn net.Conn) (io.ReadWriteCloser, *rtmp.ConnConfig) {
			sessionID := uuid.New().String()
			return conn, &rtmp.ConnConfig{
				Handler: &publishHandler{
					sessionID: sessionID,
					lifecycle: s.lifecycle,
					logger:    s.logger.With("session_id", sessionID),
				},
				ControlState: rtmp.StreamControlStateConfig{
					MaxMessageSize: maxMessageSize,
				},
			}
		},
	})

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	s.logger.Info("media server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil {
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	}
	return nil
}
