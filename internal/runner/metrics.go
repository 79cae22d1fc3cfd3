package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks the number of fit runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dimred_runs_total",
			Help: "The total number of fit runs",
		},
		[]string{"algorithm", "status"},
	)

	// RunDuration tracks the end-to-end duration of a run, cache lookups included
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dimred_run_duration_seconds",
			Help:    "The duration of fit runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // From 1ms to ~33s
		},
		[]string{"algorithm"},
	)

	// CacheLookups tracks embedding cache hits and misses
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dimred_cache_lookups_total",
			Help: "The total number of embedding cache lookups",
		},
		[]string{"result"},
	)
)

const (
	statusSuccess = "success"
	statusError   = "error"

	lookupHit  = "hit"
	lookupMiss = "miss"
)
