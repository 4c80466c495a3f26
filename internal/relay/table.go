// ABOUTME: Transport-owned lookup from connection identity to live connection.
// ABOUTME: Registry entries store only the identity; sends resolve through here.

package relay

import "sync"

// Table maps connection IDs to live connections. It is owned by the
// transport layer; the gateway registry never holds a *Conn.
type Table struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewTable creates an empty connection table.
func NewTable() *Table {
	return &Table{conns: make(map[string]*Conn)}
}

// Add records a connection under its ID.
func (t *Table) Add(c *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[c.ID] = c
}

// Remove drops the connection with the given ID, returning it if present.
func (t *Table) Remove(id string) (*Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.conns[id]
	if !ok {
		return nil, false
	}
	delete(t.conns, id)
	return c, true
}

// Get resolves an ID to its live connection.
func (t *Table) Get(id string) (*Conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.conns[id]
	return c, ok
}

// All returns a snapshot of every live connection.
func (t *Table) All() []*Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Conn, 0, len(t.conns))
	for _, c := range t.conns {
		out = append(out, c)
	}
	return out
}

// Count returns the number of live connections.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}
