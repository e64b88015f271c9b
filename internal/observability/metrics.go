package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ridepool"

var (
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "dispatch_ticks_total", Help: "Dispatch ticks by outcome"},
		[]string{"outcome"},
	)
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_tick_duration_seconds",
		Help:      "Wall time of a dispatch tick",
		Buckets:   prometheus.DefBuckets,
	})
	MatrixLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matrix_request_duration_seconds",
			Help:      "Duration oracle latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "result"},
	)
	MatrixCacheHits = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "matrix_cache_hits_total", Help: "Duration matrices served from cache"})

	RoutesCommitted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "routes_committed_total", Help: "Routes created by the scheduler"})
	RoutesCompleted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "routes_completed_total", Help: "Routes whose every stop is complete"})
	RequestsAssigned  = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "requests_assigned_total", Help: "Requests moved to ASSIGNED"})
	RequestsSkipped   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "requests_skipped_total", Help: "Pending requests skipped for malformed coordinates"})
	RequestsUnplanned = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "requests_unsequenced_total", Help: "Requests left pending because the sequencer stopped early"})
	StopsCompleted    = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "stops_completed_total", Help: "Stops marked complete"})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "realtime_connections", Help: "Open realtime channels"})
	RealtimeMessages    = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "realtime_messages_total", Help: "Realtime events pushed by name and result"},
		[]string{"event", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
