// ABOUTME: Wraps one WebSocket connection with a buffered outbound queue.
// ABOUTME: Enqueues are non-blocking so a dead or slow peer never stalls a broadcast.

package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnClosed indicates the connection has been closed.
var ErrConnClosed = errors.New("connection closed")

// ErrSendBufferFull indicates the outbound queue is saturated.
var ErrSendBufferFull = errors.New("send buffer full")

// writeWait bounds a single websocket write.
const writeWait = 10 * time.Second

// Conn is one live connection to a remote party (gateway or observer).
// Outbound traffic goes through a buffered queue drained by WritePump;
// Enqueue never blocks.
type Conn struct {
	ID string

	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger

	// mu orders Enqueue against Close so an enqueue can never land on the
	// queue after Close has returned.
	mu     sync.Mutex
	closed bool
}

// NewConn wraps ws with a send queue of the given length. The caller must
// start WritePump in its own goroutine. Pass nil logger for the default.
func NewConn(id string, ws *websocket.Conn, sendBuffer int, logger *slog.Logger) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		ID:     id,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger.With("connection_id", id),
	}
}

// Send marshals an outbound envelope for event, stamping it with the current
// server time and origin marker, and enqueues it.
func (c *Conn) Send(event string, payload any) error {
	raw, err := json.Marshal(OutEnvelope{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UTC(),
		Origin:    Origin,
	})
	if err != nil {
		return err
	}
	return c.Enqueue(raw)
}

// Enqueue places a pre-marshaled frame on the outbound queue without
// blocking. Returns ErrConnClosed after Close, or ErrSendBufferFull when the
// queue is saturated; the frame is dropped in both cases.
func (c *Conn) Enqueue(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn("send buffer full, dropping frame")
		return ErrSendBufferFull
	}
}

// WritePump drains the outbound queue onto the websocket until Close is
// called or a write fails. Run it in its own goroutine, one per connection.
func (c *Conn) WritePump() {
	defer c.Close()
	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("write failed", "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close shuts the connection down. Safe to call multiple times and from any
// goroutine; the underlying websocket is closed, which also unblocks the
// reader.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
		_ = c.ws.Close()
	})
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
