// Package cache provides an in-process TTL cache for API responses
// with prefix invalidation, so item writes can drop every cached list
// page in one call.
package cache
