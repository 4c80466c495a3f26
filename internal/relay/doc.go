// ABOUTME: Package documentation for the broadcast relay and transport types
// ABOUTME: Describes the delivery model and the identity indirection

// Package relay implements the hub's persistent-channel transport and the
// best-effort broadcast fan-out over it.
//
// # Delivery model
//
// A broadcast snapshots its recipients at call time and enqueues one
// pre-marshaled frame per recipient. Enqueues never block: a connection
// whose outbound queue is full, or which has died between snapshot and
// send, is skipped without affecting the remaining recipients. There is no
// retry and no cancellation — delivery is best-effort by design.
//
// # Identity indirection
//
// The gateway registry stores only connection IDs. The Table, owned by this
// package, resolves an ID to a sendable *Conn at broadcast time, keeping
// registry lifecycle independent of transport object lifetime.
package relay
