package rabbitmq

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	consumedTotal   *prometheus.CounterVec
	consumedLatency *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		consumedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parcel_queue",
			Name:      "consumed_total",
			Help:      "Total number of consumed messages by result (ack/requeue/dead).",
		}, []string{"result"}),
		consumedLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parcel_queue",
			Name:      "processing_latency_seconds",
			Help:      "Latency distribution for message processing.",
			Buckets: []float64{
				0.005, 0.01, 0.02, 0.05,
				0.1, 0.2, 0.5,
				1, 2, 5, 10, 30,
			},
		}, []string{"result"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

func (m *metrics) observe(result string, latency time.Duration) {
	m.consumedTotal.WithLabelValues(result).Inc()
	m.consumedLatency.WithLabelValues(result).Observe(latency.Seconds())
}
