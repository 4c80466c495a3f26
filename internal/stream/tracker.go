// ABOUTME: Tracks active media publish sessions reported by the RTMP ingest.
// ABOUTME: Sessions are keyed by the final path segment of the publish path.

package stream

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Session is a snapshot of one active publish.
type Session struct {
	Key       string    `json:"streamKey"`
	Path      string    `json:"streamPath"`
	StartTime time.Time `json:"startTime"`
}

// KeyFromPath derives the stream key from a publish path: the last
// '/'-delimited segment. It depends only on the path, so stop events carrying
// a different transport session ID still resolve to the tracked session.
func KeyFromPath(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// Tracker owns the set of active publish sessions. All methods are safe for
// concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
	now      func() time.Time
}

// NewTracker creates an empty Tracker. Pass nil logger for the default.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		sessions: make(map[string]*Session),
		logger:   logger.With("component", "stream-tracker"),
		now:      time.Now,
	}
}

// PublishStart records an active session for path and returns its snapshot.
// A second publish whose path shares the terminal segment silently replaces
// the first session's tracking.
func (t *Tracker) PublishStart(sessionID, path string) Session {
	key := KeyFromPath(path)

	t.mu.Lock()
	if prev, ok := t.sessions[key]; ok {
		t.logger.Warn("stream key collision, replacing tracked session",
			"stream_key", key,
			"previous_path", prev.Path,
			"new_path", path,
		)
	}
	s := &Session{
		Key:       key,
		Path:      path,
		StartTime: t.now(),
	}
	t.sessions[key] = s
	snapshot := *s
	t.mu.Unlock()

	t.logger.Info("stream started",
		"session_id", sessionID,
		"stream_key", key,
		"stream_path", path,
	)
	return snapshot
}

// PublishStop removes the session tracked for path's key, returning its
// snapshot and true if one existed. Stopping a key with no active session is
// a no-op and returns false.
func (t *Tracker) PublishStop(sessionID, path string) (Session, bool) {
	key := KeyFromPath(path)

	t.mu.Lock()
	s, ok := t.sessions[key]
	if !ok {
		t.mu.Unlock()
		return Session{}, false
	}
	delete(t.sessions, key)
	snapshot := *s
	t.mu.Unlock()

	t.logger.Info("stream ended",
		"session_id", sessionID,
		"stream_key", key,
		"stream_path", path,
	)
	return snapshot, true
}

// Get returns a snapshot of the session tracked under key.
func (t *Tracker) Get(key string) (Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[key]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// List returns snapshots of all active sessions in unspecified order.
func (t *Tracker) List() []Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, *s)
	}
	return out
}

// Count returns the number of active sessions.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
