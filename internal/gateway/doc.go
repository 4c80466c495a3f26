// ABOUTME: Package documentation for the gateway registry
// ABOUTME: Describes ownership rules and the snapshot read model

// Package gateway maintains the registry of connected site gateways.
//
// The Registry is the single owner of gateway metadata: one entry per live
// connection, created by Register and removed exactly once by Unregister.
// Entries store only the connection identity, never a transport handle;
// resolving an identity to a sendable connection is the relay package's job.
//
// Reads (Get, List, Count) return copies, so callers can hold results
// without synchronizing against later mutations. Heartbeats refresh
// LastHeartbeat and optionally DeviceCount; the registry itself never
// evicts entries on heartbeat silence — liveness timestamps are advisory
// reporting data.
package gateway
