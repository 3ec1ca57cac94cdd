package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LookupAttempts   *prometheus.CounterVec
	LookupSeconds    *prometheus.HistogramVec
	GroundingSeconds prometheus.Histogram
	Refreshes        *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	ActiveCycles     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		LookupAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_ipinfo_lookup_attempts_total",
			Help: "Total number of IP info provider attempts, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		LookupSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waypoint_ipinfo_lookup_duration_seconds",
			Help:    "Duration of requests to the IP info providers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		GroundingSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "waypoint_grounding_request_duration_seconds",
			Help:    "Duration of reverse-geocoding requests to the grounding API.",
			Buckets: prometheus.DefBuckets,
		}),
		Refreshes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_refresh_cycles_total",
			Help: "Total number of completed refresh cycles, by final status.",
		}, []string{"status"}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_http_requests_total",
			Help: "Total number of API requests, by path and status code.",
		}, []string{"path", "code"}),
		ActiveCycles: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "waypoint_active_refresh_cycles",
			Help: "Current number of refresh cycles in flight.",
		}),
	}
}
