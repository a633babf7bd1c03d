package rates

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	cacheLookups *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		cacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rates",
			Name:      "cache_lookups_total",
			Help:      "Total number of rate cache lookups by result (hit/miss).",
		}, []string{"result"}),
	}
})

func observeCacheLookup(result string) {
	metricsSingleton().cacheLookups.WithLabelValues(result).Inc()
}
