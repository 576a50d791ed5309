// Package agent implements the real-time core of the gateway: the
// connection registry, presence coordination, paired communication
// sessions, and the per-connection message router.
//
// # Manager
//
// The Manager is the single source of truth for which agent identities
// are currently reachable. It maps identity to an open Connection and
// rejects a second registration for an active identity rather than
// evicting the first.
//
// Key operations:
//
//   - Register(conn): add a connection, ErrAlreadyActive on collision
//   - Unregister(id): idempotent removal
//   - Send(id, frame): single write attempt; a failed write tears the
//     connection down and returns ErrSendFailed
//   - Snapshot(): point-in-time (identity, status) listing
//
// # Presence
//
// All status mutations flow through Presence.SetStatus, which updates
// the registry and broadcasts a status_update frame to every other
// registered agent. Broadcasts are best-effort and eventually
// consistent: a recipient may observe stale status when two changes
// race.
//
// # Sessions
//
// Sessions tracks exclusive two-party communication sessions. A
// session stores the two identities, never connection handles, so it
// remains valid bookkeeping if a participant disconnects. The only
// transition is active to ended; ending an unknown session is a no-op.
//
// # Router
//
// Serve runs one read loop per connection. Frames from one connection
// are dispatched in arrival order; voice exchanges run detached so a
// pipeline call or the post-exchange speaking cooldown never blocks
// the read loop. The cooldown revert is guarded by a status generation
// and abandons itself if any newer status change landed first.
//
// # Locking
//
// Manager and Sessions guard only their maps; no lock is ever held
// across an outbound write. Each Connection serializes its own writes
// with a dedicated mutex.
package agent
