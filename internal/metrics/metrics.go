// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for status polling and for
// simulated extraction runs.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	pollsTotal          *prometheus.CounterVec
	pollDurationSeconds prometheus.Histogram
	lastProgress        prometheus.Gauge
	runsTotal           *prometheus.CounterVec
	activeRuns          prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pollsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracewatch_polls_total",
				Help: "Total number of status polls, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		pollDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tracewatch_poll_duration_seconds",
				Help:    "Histogram of status poll latencies.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		)

		lastProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracewatch_last_progress_percent",
				Help: "Progress percentage reported by the most recent successful poll.",
			},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracewatch_extraction_runs_total",
				Help: "Total number of simulated extraction runs, labeled by event.",
			},
			[]string{"event"},
		)

		activeRuns = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracewatch_extraction_runs_active",
				Help: "Number of simulated extraction runs currently in progress.",
			},
		)
	})
}

// ObservePoll records one status poll.
func ObservePoll(outcome string, d time.Duration) {
	Init()
	pollsTotal.WithLabelValues(outcome).Inc()
	pollDurationSeconds.Observe(d.Seconds())
}

// SetProgress records the latest reported progress.
func SetProgress(v float64) {
	Init()
	lastProgress.Set(v)
}

// RunStarted records the start of a simulated run.
func RunStarted() {
	Init()
	runsTotal.WithLabelValues("started").Inc()
	activeRuns.Inc()
}

// RunCompleted records the end of a simulated run.
func RunCompleted() {
	Init()
	runsTotal.WithLabelValues("completed").Inc()
	activeRuns.Dec()
}

// RunCancelled records a simulated run that was reset before completing.
func RunCancelled() {
	Init()
	runsTotal.WithLabelValues("cancelled").Inc()
	activeRuns.Dec()
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
