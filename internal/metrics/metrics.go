package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Envelope protocol metrics
	EnvelopesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_envelopes_received_total",
			Help: "Total envelopes received on /send",
		},
		[]string{"result"}, // "accepted", "rejected" or "failed"
	)

	AnnexAppends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_annex_appends_total",
			Help: "Total conversation turns appended to the mission file",
		},
	)

	AnnexErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_annex_errors_total",
			Help: "Total failed mission file appends",
		},
	)

	// Relay metrics
	RelaySessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_relay_sessions_active",
			Help: "Currently open relay sessions",
		},
	)

	RelayBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_relay_broadcasts_total",
			Help: "Total messages fanned out to relay sessions",
		},
	)

	RelaySendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_relay_send_failures_total",
			Help: "Total per-session delivery failures",
		},
	)

	RelayFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_relay_frames_dropped_total",
			Help: "Total frames dropped from full session queues",
		},
	)

	// Storage metrics
	StoreAppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_store_append_duration_seconds",
			Help:    "Message log append latency",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
	)
)
