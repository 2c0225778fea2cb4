package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway metrics
	GatewayQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pelagos_gateway_queue_depth",
		Help: "Number of chain read tasks waiting for dispatch",
	})

	GatewayDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pelagos_gateway_dispatched_total",
		Help: "Total number of chain read tasks dispatched",
	})

	GatewayFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pelagos_gateway_failures_total",
		Help: "Total number of failed chain read tasks",
	})

	GatewayBreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pelagos_gateway_breaker_open",
		Help: "1 while the circuit breaker is open, 0 otherwise",
	})

	// Pair cache metrics
	PairCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pelagos_pair_count",
		Help: "Number of trading pairs in the in-memory registry",
	})

	PairRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pelagos_pair_refreshes_total",
		Help: "Total number of per-pair reserve refreshes",
	})

	PairDiscoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelagos_pair_discoveries_total",
			Help: "Total number of pair discovery runs by source",
		},
		[]string{"source"},
	)

	// Route metrics
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelagos_route_requests_total",
			Help: "Total number of route computations",
		},
		[]string{"status"},
	)

	RouteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pelagos_route_duration_seconds",
		Help:    "Route search duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	RouteCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pelagos_route_cache_hits_total",
		Help: "Total number of route cache hits",
	})

	RouteCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pelagos_route_cache_misses_total",
		Help: "Total number of route cache misses",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelagos_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pelagos_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
