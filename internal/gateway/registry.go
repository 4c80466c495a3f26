// ABOUTME: Registry of connected site gateways keyed by connection identity.
// ABOUTME: Owns gateway metadata exclusively; holds no transport handles.

package gateway

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultSiteName is used when a gateway registers without a site name.
const DefaultSiteName = "unknown site"

// Gateway is a snapshot of one connected site gateway.
// ConnectionID is the primary key, assigned by the transport at connect time.
type Gateway struct {
	ConnectionID  string    `json:"connectionId"`
	SiteName      string    `json:"siteName"`
	ConnectedAt   time.Time `json:"connectedAt"`
	DeviceCount   int       `json:"deviceCount"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
}

// Registry tracks all currently connected gateways. Exactly one entry exists
// per live connection; the entry is removed once, on disconnect. All methods
// are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]*Gateway
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegistry creates an empty Registry. Pass nil logger for the default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		gateways: make(map[string]*Gateway),
		logger:   logger.With("component", "gateway-registry"),
		now:      time.Now,
	}
}

// Register creates or overwrites the entry for connID and returns a snapshot
// of it. Registering an already-known connection replaces its metadata
// without double-counting. An empty siteName defaults to DefaultSiteName;
// a negative deviceCount is clamped to zero. Register always succeeds.
func (r *Registry) Register(connID, siteName string, deviceCount int) Gateway {
	if siteName == "" {
		siteName = DefaultSiteName
	}
	if deviceCount < 0 {
		deviceCount = 0
	}

	r.mu.Lock()
	now := r.now()
	g := &Gateway{
		ConnectionID:  connID,
		SiteName:      siteName,
		ConnectedAt:   now,
		DeviceCount:   deviceCount,
		LastHeartbeat: now,
	}
	r.gateways[connID] = g
	total := len(r.gateways)
	snapshot := *g
	r.mu.Unlock()

	r.logger.Info("gateway registered",
		"connection_id", connID,
		"site_name", siteName,
		"device_count", deviceCount,
		"total_gateways", total,
	)
	return snapshot
}

// UpdateHeartbeat records a liveness timestamp for connID and, when
// deviceCount is non-nil, refreshes the device count. An unknown connection
// is silently ignored.
func (r *Registry) UpdateHeartbeat(connID string, deviceCount *int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gateways[connID]
	if !ok {
		return
	}
	g.LastHeartbeat = r.now()
	if deviceCount != nil && *deviceCount >= 0 {
		g.DeviceCount = *deviceCount
	}
}

// Unregister removes the entry for connID, returning its final snapshot and
// true if it existed. Unregistering an unknown or already-removed connection
// returns false.
func (r *Registry) Unregister(connID string) (Gateway, bool) {
	r.mu.Lock()
	g, ok := r.gateways[connID]
	if !ok {
		r.mu.Unlock()
		return Gateway{}, false
	}
	delete(r.gateways, connID)
	total := len(r.gateways)
	snapshot := *g
	r.mu.Unlock()

	r.logger.Info("gateway unregistered",
		"connection_id", connID,
		"site_name", snapshot.SiteName,
		"total_gateways", total,
	)
	return snapshot, true
}

// Get returns a snapshot of the entry for connID.
func (r *Registry) Get(connID string) (Gateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gateways[connID]
	if !ok {
		return Gateway{}, false
	}
	return *g, true
}

// List returns snapshots of all registered gateways in unspecified order.
func (r *Registry) List() []Gateway {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Gateway, 0, len(r.gateways))
	for _, g := range r.gateways {
		out = append(out, *g)
	}
	return out
}

// Count returns the number of registered gateways.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.gateways)
}
