// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// The Store interface covers the two persisted concerns:
//
//   - Items: generic CRUD records exposed through the HTTP API
//   - FileUploads: metadata rows for blobs held in object storage
//
// SQLiteStore is the only implementation. Connection registry state,
// presence, and sessions are deliberately not persisted; they describe
// live sockets and are rebuilt from scratch on restart.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created automatically on store initialization.
//
// # Error Handling
//
// ErrNotFound is returned when a requested entity does not exist.
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewSQLiteStore with a file in t.TempDir() for tests; the driver is
// pure Go (modernc.org/sqlite) so no cgo toolchain is needed.
package store
