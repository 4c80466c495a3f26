// ABOUTME: Tests for the RTMP publish handler lifecycle reporting
// ABOUTME: Drives handler callbacks directly with protocol messages

package media

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type lifecycleCall struct {
	op        string
	sessionID string
	path      string
}

type fakeLifecycle struct {
	mu    sync.Mutex
	calls []lifecycleCall
}

func (f *fakeLifecycle) PublishStart(sessionID, streamPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lifecycleCall{"start", sessionID, streamPath})
}

func (f *fakeLifecycle) PublishStop(sessionID, streamPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lifecycleCall{"stop", sessionID, streamPath})
}

func (f *fakeLifecycle) snapshot() []lifecycleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]lifecycleCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func newHandler(lc Lifecycle) *publishHandler {
	return &publishHandler{
		sessionID: "sess-1",
		lifecycle: lc,
		logger:    testLogger(),
	}
}

func connectMsg(app string) *rtmpmsg.NetConnectionConnect {
	return &rtmpmsg.NetConnectionConnect{
		Command: rtmpmsg.NetConnectionConnectCommand{App: app},
	}
}

func TestPublishHandler_ReportsStartAndStop(t *testing.T) {
	lc := &fakeLifecycle{}
	h := newHandler(lc)

	require.NoError(t, h.OnConnect(0, connectMsg("live")))
	require.NoError(t, h.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{PublishingName: "cam-07"}))
	h.OnClose()

	calls := lc.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, lifecycleCall{"start", "sess-1", "live/cam-07"}, calls[0])
	assert.Equal(t, lifecycleCall{"stop", "sess-1", "live/cam-07"}, calls[1])
}

func TestPublishHandler_NoAppUsesBareName(t *testing.T) {
	lc := &fakeLifecycle{}
	h := newHandler(lc)

	require.NoError(t, h.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{PublishingName: "cam-07"}))

	calls := lc.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "cam-07", calls[0].path)
}

func TestPublishHandler_EmptyNameRejected(t *testing.T) {
	lc := &fakeLifecycle{}
	h := newHandler(lc)

	err := h.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{})

	assert.Error(t, err)
	assert.Empty(t, lc.snapshot())
}

func TestPublishHandler_CloseWithoutPublishReportsNothing(t *testing.T) {
	lc := &fakeLifecycle{}
	h := newHandler(lc)

	require.NoError(t, h.OnConnect(0, connectMsg("live")))
	h.OnClose()

	assert.Empty(t, lc.snapshot())
}

func TestPublishHandler_DoubleCloseReportsStopOnce(t *testing.T) {
	lc := &fakeLifecycle{}
	h := newHandler(lc)

	require.NoError(t, h.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{PublishingName: "cam-1"}))
	h.OnClose()
	h.OnClose()

	require.Len(t, lc.snapshot(), 2)
}

func TestServer_ServeStopsOnContextCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", &fakeLifecycle{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	// Give the listener a moment to come up, then shut down
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop on cancellation")
	}
}
