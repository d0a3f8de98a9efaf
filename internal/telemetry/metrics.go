package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	CarrierErrors        *prometheus.CounterVec
	TrackingUpdatesTotal *prometheus.CounterVec
}

// NewMetrics creates Prometheus metrics registered with the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates Prometheus metrics registered with the given
// registerer. Tests pass a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpbridge_requests_total",
				Help: "Total number of carrier requests by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mpbridge_request_duration_seconds",
				Help:    "Carrier request duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpbridge_carrier_errors_total",
				Help: "Total carrier errors by carrier and error kind",
			},
			[]string{"carrier", "error_kind"},
		),
		TrackingUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpbridge_tracking_updates_total",
				Help: "Total inbound tracking updates by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequest records a carrier request metric.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(carrier, errorKind string) {
	m.CarrierErrors.WithLabelValues(carrier, errorKind).Inc()
}

// RecordTrackingUpdate records an inbound tracking-update outcome.
func (m *Metrics) RecordTrackingUpdate(outcome string) {
	m.TrackingUpdatesTotal.WithLabelValues(outcome).Inc()
}
