package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for anomaly detection.
type Metrics struct {
	DetectionRuns      *prometheus.CounterVec // labels: outcome={success,error}
	AnomaliesDetected  *prometheus.CounterVec // labels: source={zscore,extreme,moving_average}
	AnomaliesPersisted prometheus.Counter
	DuplicatesDropped  prometheus.Counter
	DetectionDuration  prometheus.Histogram

	// Request consumer metrics.
	RequestsConsumed prometheus.Counter
	RequestsDropped  prometheus.Counter
	PublishErrors    prometheus.Counter
	ServiceRunning   prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DetectionRuns,
		m.AnomaliesDetected,
		m.AnomaliesPersisted,
		m.DuplicatesDropped,
		m.DetectionDuration,
		m.RequestsConsumed,
		m.RequestsDropped,
		m.PublishErrors,
		m.ServiceRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DetectionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "detection_runs_total",
			Help:      "Detection runs by outcome.",
		}, []string{"outcome"}),
		AnomaliesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "anomalies_detected_total",
			Help:      "Anomalies emitted by each detector, before deduplication.",
		}, []string{"source"}),
		AnomaliesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "anomalies_persisted_total",
			Help:      "Anomalies written to the store.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "duplicates_dropped_total",
			Help:      "Anomalies dropped by (record, kind) deduplication.",
		}),
		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_anomaly",
			Name:      "detection_duration_seconds",
			Help:      "Duration of a full detection run for one location.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "requests_consumed_total",
			Help:      "Detection requests read from the request topic.",
		}),
		RequestsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "requests_dropped_total",
			Help:      "Detection requests committed without success after exhausting retries.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "publish_errors_total",
			Help:      "Failures publishing anomaly events.",
		}),
		ServiceRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_anomaly",
			Name:      "service_running",
			Help:      "1 when the request consumer is active, 0 when shut down.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_anomaly",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}
