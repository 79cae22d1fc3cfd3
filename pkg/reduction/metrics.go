package reduction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IterationsTotal tracks the number of completed optimisation iterations
	IterationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dimred_iterations_total",
			Help: "The total number of completed reducer iterations",
		},
		[]string{"model"},
	)

	// IterationDuration tracks the duration of a single iteration
	IterationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dimred_iteration_duration_seconds",
			Help:    "The duration of a single reducer iteration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // From 100µs to ~3s
		},
		[]string{"model"},
	)

	// FitDuration tracks the duration of a complete FitTransform call
	FitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dimred_fit_duration_seconds",
			Help:    "The duration of FitTransform calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // From 1ms to ~33s
		},
		[]string{"model"},
	)

	// DiscardedUpdates tracks coordinate updates dropped because they were not finite
	DiscardedUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dimred_discarded_updates_total",
			Help: "The total number of non-finite coordinate updates that were discarded",
		},
		[]string{"model"},
	)
)
