package platform

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestLatency is the duration of platform requests.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "platform_request_latency",
			Help: "Duration of chat platform requests",
		},
		[]string{"operation"},
	)

	// RequestErrors is the total number of failed platform requests.
	RequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_request_errors",
			Help: "Total number of failed chat platform requests",
		},
		[]string{"operation"},
	)
)

func track(op string) func(err error) {
	t := prometheus.NewTimer(RequestLatency.WithLabelValues(op))
	return func(err error) {
		t.ObserveDuration()
		if err != nil {
			RequestErrors.WithLabelValues(op).Inc()
		}
	}
}
