// Package metrics defines the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics.
type Metrics struct {
	ConversionsTotal      *prometheus.CounterVec
	EmptyConversions      prometheus.Counter
	ConversionTime        prometheus.Histogram
	SegmentsPerConversion prometheus.Histogram
	HTTPRequests          *prometheus.CounterVec
}

// New registers the service metrics with reg and returns them. Tests pass a
// fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConversionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pnr",
			Name:      "conversions_total",
			Help:      "The total number of conversions by document format",
		}, []string{"format"}),
		EmptyConversions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pnr",
			Name:      "empty_conversions_total",
			Help:      "Conversions that produced no segments",
		}),
		ConversionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pnr",
			Name:      "conversion_time_seconds",
			Help:      "Time taken to convert one document",
			Buckets:   prometheus.DefBuckets,
		}),
		SegmentsPerConversion: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pnr",
			Name:      "segments_per_conversion",
			Help:      "Segments extracted per conversion",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pnr",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
}
