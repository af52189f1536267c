package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	NearbyQueries    *prometheus.CounterVec
	NearbySeconds    prometheus.Histogram
	NearbyMatches    prometheus.Histogram
	PlacesRegistered *prometheus.CounterVec
	TaskProcessed    *prometheus.CounterVec
	APIErrors        prometheus.Counter
	RequestSeconds   *prometheus.HistogramVec
	ActiveWorkers    prometheus.Gauge
	GeocodeCache     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		NearbyQueries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_nearby_queries_total",
			Help: "Total number of proximity queries.",
		}, []string{"status"}),
		NearbySeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "waypoint_nearby_query_duration_seconds",
			Help:    "Duration of proximity queries, including the place store lookup.",
			Buckets: prometheus.DefBuckets,
		}),
		NearbyMatches: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "waypoint_nearby_matches",
			Help:    "Number of places returned by a proximity query.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		PlacesRegistered: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_places_registered_total",
			Help: "Total number of place registrations.",
		}, []string{"status"}),
		TaskProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_geocoding_tasks_processed_total",
			Help: "Total number of processed geocoding tasks.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "waypoint_geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waypoint_geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "waypoint_geocoding_active_workers",
			Help: "Current number of active workers processing geocoding tasks.",
		}),
		GeocodeCache: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_geocoding_cache_lookups_total",
			Help: "Total number of geocoding cache lookups.",
		}, []string{"result"}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_http_requests_total",
			Help: "Total number of HTTP API requests.",
		}, []string{"method", "route", "status"}),
	}
}
