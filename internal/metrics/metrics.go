// Package metrics provides Prometheus metrics for the wiki client.
// It tracks operation counts by outcome and operation latency.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace for all metrics.
const (
	Namespace = "growi_client"
)

// OutcomeSuccess labels an operation that returned no error. Failures are
// labelled with the error kind, e.g. "not_found".
const OutcomeSuccess = "success"

// Recorder holds the client metrics registered on one registerer. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
}

// NewRecorder registers the client metrics on reg. A nil reg returns a nil
// Recorder. Clients sharing a registerer share its collectors.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return nil
	}

	return &Recorder{
		requestsTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of client operations by outcome",
		}, []string{"operation", "outcome"})),
		requestDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Client operation latency distribution",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"})),
		inFlight: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "operations_in_flight",
			Help:      "Number of client operations currently running",
		}, []string{"operation"})),
	}
}

// register returns the collector already registered under the same
// descriptor, if any. Any other registration error leaves collector
// unregistered; it still counts but is not exported.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) T {
	err := reg.Register(collector)

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing
		}
	}

	return collector
}

// Start marks an operation as running and returns a func that records its
// outcome and duration.
func (r *Recorder) Start(operation string) func(outcome string) {
	if r == nil {
		return func(string) {}
	}

	start := time.Now()

	r.inFlight.WithLabelValues(operation).Inc()

	return func(outcome string) {
		r.inFlight.WithLabelValues(operation).Dec()
		r.requestsTotal.WithLabelValues(operation, outcome).Inc()
		r.requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
