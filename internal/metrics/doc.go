// Package metrics declares the gateway's Prometheus instruments via
// promauto package-level variables.
package metrics
