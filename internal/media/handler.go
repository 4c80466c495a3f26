// ABOUTME: Per-connection RTMP handler tracking one publish at a time.
// ABOUTME: Reports publishStart on publish and publishStop when the connection ends.

package media

import (
	"errors"
	"log/slog"

	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

// publishHandler embeds DefaultHandler so audio, video, and data messages
// are accepted and discarded.
type publishHandler struct {
	rtmp.DefaultHandler

	sessionID string
	lifecycle Lifecycle
	logger    *slog.Logger

	app       string
	path      string
	published bool
}

func (h *publishHandler) OnConnect(timestamp uint32, cmd *rtmpmsg.NetConnectionConnect) error {
	h.app = cmd.Command.App
	h.logger.Debug("rtmp connect", "app", h.app)
	return nil
}

func (h *publishHandler) OnPublish(_ *rtmp.StreamContext, timestamp uint32, cmd *rtmpmsg.NetStreamPublish) error {
	if cmd.PublishingName == "" {
		return errors.New("publishing name is required")
	}

	h.path = joinPath(h.app, cmd.PublishingName)
	h.published = true
	h.lifecycle.PublishStart(h.sessionID, h.path)

	h.logger.Info("publish started", "stream_path", h.path)
	return nil
}

// OnClose fires when the connection ends for any reason; an unpublish
// message and a dropped TCP connection take the same path here.
func (h *publishHandler) OnClose() {
	if !h.published {
		return
	}
	h.published = false
	h.lifecycle.PublishStop(h.sessionID, h.path)
	h.logger.Info("publish ended", "stream_path", h.path)
}

// joinPath builds the stream path reported to the tracker: "app/name", or
// just the name when the client connected without an app.
func joinPath(app, name string) string {
	if app == "" {
		return name
	}
	return app + "/" + name
}
