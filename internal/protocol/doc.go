// Package protocol defines the JSON wire frames exchanged with agents.
//
// Every frame is a type-tagged envelope:
//
//	{"type": "status_update", "data": {...}}
//
// Decode validates the envelope only; DecodeData binds the payload to a
// per-type struct. Unknown frame types survive decoding so the router
// can drop them without closing the connection.
package protocol
