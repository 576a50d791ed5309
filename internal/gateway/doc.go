// Package gateway orchestrates the voxmesh-gateway server components.
//
// # Overview
//
// The gateway package is the central coordinator of the server. It owns
// and wires all major components: the agent registry, presence
// coordinator, session manager, message router, speech pipeline, data
// store, response cache, object store, and background job queue.
//
// # WebSocket Endpoint
//
// Agents connect at:
//
//	GET /ws/{agent_id}
//
// The handshake upgrades the connection, registers the identity, and
// announces the agent as online. A second connection for an active
// identity is rejected with 409 Conflict; the original connection is
// never evicted. On disconnect the identity is unregistered and an
// offline status is broadcast.
//
// # HTTP API
//
// The gateway exposes HTTP endpoints in api.go:
//
//   - GET /api/agents - Connected agents with current status
//   - GET /api/sessions - Active sessions
//   - GET/POST /api/items - List and create items
//   - GET/PUT/DELETE /api/items/{id} - Item by id
//   - GET/POST /api/files - List uploads, multipart upload
//   - GET/DELETE /api/files/{id} - Upload metadata by id
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (store probe)
//   - GET /metrics - Prometheus metrics (when enabled)
//
// Item reads go through a TTL cache; any item write invalidates the
// cached entry and every cached list page.
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, logger)
//	err = gw.Run(ctx)
//
// Run blocks until the context is canceled, then shuts the HTTP server
// down gracefully, stops the job queue, and closes the store.
//
// # Key Files
//
//   - gateway.go: Gateway struct, initialization, Run/Shutdown
//   - ws.go: WebSocket handshake and connection lifecycle
//   - api.go: HTTP handlers
package gateway
