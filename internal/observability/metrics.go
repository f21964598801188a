package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "rides_created_total", Help: "Total rides created"})
	ConfirmConflicts    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "ride_confirm_conflicts_total", Help: "Confirm attempts that lost the assignment race"})
	OffersSentTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "offers_sent_total", Help: "Ride offers pushed to connected drivers"})
	DispatchSkipped     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "dispatch_skipped_total", Help: "Discovery runs skipped because the pickup could not be resolved"})
	LifecycleEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "lifecycle_events_total", Help: "Lifecycle events delivered over live connections"},
		[]string{"event"},
	)
	LifecycleEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "lifecycle_events_dropped_total", Help: "Lifecycle events dropped because the party had no live connection"},
		[]string{"event"},
	)
	DriversConnected = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_hail", Name: "drivers_connected", Help: "Drivers with a live connection"})

	GeocodeCacheHits   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "geocode_cache_hits_total", Help: "Geocode lookups served from the cache"})
	GeocodeCacheMisses = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "geocode_cache_misses_total", Help: "Geocode lookups that went upstream"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_hail",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
