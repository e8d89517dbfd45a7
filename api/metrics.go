package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "shelflife"

	outcomeOK              = "ok"
	outcomeInvalid         = "invalid"
	outcomeUnknownCategory = "unknown_category"
	outcomeError           = "error"
)

// Metrics records prediction outcomes on a dedicated registry.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	duration    prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "predictions_total",
				Help:      "Total number of prediction requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "prediction_duration_seconds",
				Help:      "Time spent handling prediction requests",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}
	m.registry.MustRegister(m.predictions, m.duration)
	for _, o := range []string{outcomeOK, outcomeInvalid, outcomeUnknownCategory, outcomeError} {
		m.predictions.WithLabelValues(o)
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) observe(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}
