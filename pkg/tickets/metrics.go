package tickets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts lifecycle operations by outcome.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_operations_total",
			Help: "Total number of ticket operations",
		},
		[]string{"operation", "result"},
	)

	// ticketsOpened counts tickets created.
	ticketsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_opened_total",
			Help: "Total number of tickets opened",
		},
	)

	// ticketsClosed counts tickets closed.
	ticketsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_closed_total",
			Help: "Total number of tickets closed",
		},
	)
)

// observe counts an operation once it has finished.
func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if e, ok := AsError(err); ok {
			result = e.Kind.String()
		}
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}
