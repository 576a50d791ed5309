// ABOUTME: Prometheus metrics for connections, frames, and the speech pipeline.
// ABOUTME: Registered via promauto and served on the /metrics endpoint.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_connections_active",
		Help: "Currently connected agents",
	})

	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_connections_total",
		Help: "Total accepted agent connections",
	})

	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_frames_received_total",
		Help: "Inbound frames by type",
	}, []string{"type"})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_frames_dropped_total",
		Help: "Malformed or unrecognized frames dropped",
	})

	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_send_failures_total",
		Help: "Outbound frame writes that failed and tore down a connection",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_sessions_active",
		Help: "Currently active communication sessions",
	})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_process_duration_seconds",
		Help:    "End-to-end speech pipeline latency per voice exchange",
		Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34},
	})

	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Per-stage speech pipeline latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"stage"})

	PipelineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_errors_total",
		Help: "Speech pipeline failures by stage",
	}, []string{"stage"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Background jobs processed by kind and outcome",
	}, []string{"kind", "outcome"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by outcome",
	}, []string{"outcome"})
)
