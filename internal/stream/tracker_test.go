// ABOUTME: Tests for the stream session tracker
// ABOUTME: Covers key derivation, start/stop lifecycle, overwrites, and stop-without-start

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"live/cam-07", "cam-07"},
		{"live/site-3/cam-1", "cam-1"},
		{"cam-solo", "cam-solo"},
		{"live/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFromPath(tt.path))
		})
	}
}

func TestTracker_PublishStart(t *testing.T) {
	t.Run("tracks session under derived key", func(t *testing.T) {
		tr := NewTracker(nil)

		s := tr.PublishStart("sess-1", "live/cam-07")

		assert.Equal(t, "cam-07", s.Key)
		assert.Equal(t, "live/cam-07", s.Path)
		assert.False(t, s.StartTime.IsZero())
		assert.Equal(t, 1, tr.Count())
	})

	t.Run("colliding key overwrites tracking", func(t *testing.T) {
		tr := NewTracker(nil)

		tr.PublishStart("sess-1", "live/cam-1")
		tr.PublishStart("sess-2", "backup/cam-1")

		require.Equal(t, 1, tr.Count())
		s, ok := tr.Get("cam-1")
		require.True(t, ok)
		assert.Equal(t, "backup/cam-1", s.Path)
	})
}

func TestTracker_PublishStop(t *testing.T) {
	t.Run("start then stop leaves no sessions", func(t *testing.T) {
		tr := NewTracker(nil)

		tr.PublishStart("sess-1", "live/cam-07")
		s, ok := tr.PublishStop("sess-1", "live/cam-07")

		require.True(t, ok)
		assert.Equal(t, "cam-07", s.Key)
		assert.Equal(t, 0, tr.Count())
	})

	t.Run("stop resolves by path even with different session id", func(t *testing.T) {
		tr := NewTracker(nil)

		tr.PublishStart("sess-1", "live/cam-07")
		_, ok := tr.PublishStop("sess-other", "live/cam-07")

		assert.True(t, ok)
		assert.Equal(t, 0, tr.Count())
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		tr := NewTracker(nil)

		_, ok := tr.PublishStop("sess-1", "live/never-started")

		assert.False(t, ok)
		assert.Equal(t, 0, tr.Count())
	})
}

func TestTracker_List(t *testing.T) {
	tr := NewTracker(nil)
	tr.PublishStart("sess-1", "live/cam-1")
	tr.PublishStart("sess-2", "live/cam-2")

	list := tr.List()

	require.Len(t, list, 2)
	keys := map[string]bool{}
	for _, s := range list {
		keys[s.Key] = true
	}
	assert.True(t, keys["cam-1"])
	assert.True(t, keys["cam-2"])
}
