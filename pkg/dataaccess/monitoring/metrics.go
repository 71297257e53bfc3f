package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreLatency is the duration of store queries.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_store_latency",
			Help: "Duration of store queries",
		},
		[]string{"backend", "dal", "query"},
	)

	// StoreTotalRequests is the total number of store requests.
	StoreTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_total_requests",
			Help: "Total number of store requests",
		},
		[]string{"backend", "dal", "query"},
	)

	// StoreErrors is the total number of failed store requests.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_errors",
			Help: "Total number of failed store requests",
		},
		[]string{"backend", "dal", "query"},
	)
)

// Track counts a request and starts its latency timer. Call the returned function when the query finishes.
func Track(backend, dal, query string) func(err error) {
	StoreTotalRequests.WithLabelValues(backend, dal, query).Inc()
	t := prometheus.NewTimer(StoreLatency.WithLabelValues(backend, dal, query))
	return func(err error) {
		t.ObserveDuration()
		if err != nil {
			StoreErrors.WithLabelValues(backend, dal, query).Inc()
		}
	}
}
