package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flp"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	SolverRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solver_runs_total",
			Help:      "Solver runs by mode and result",
		},
		[]string{"mode", "result"},
	)

	SolverDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solver_duration_seconds",
			Help:      "Time spent inside the solver",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"mode"},
	)

	OnlineDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "online_decisions_total",
			Help:      "Online decisions by outcome",
		},
		[]string{"decision"},
	)

	OfflineRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_rounds_total",
			Help:      "Clustering rounds executed",
		},
	)
)

// RecordRequest records one served HTTP request
func RecordRequest(method, path string, status string, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RecordSolve records a solver run. result is "success" when err is nil,
// "error" otherwise.
func RecordSolve(mode string, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SolverRunsTotal.WithLabelValues(mode, result).Inc()
	SolverDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RecordDecision counts an online decision
func RecordDecision(decision string) {
	if decision == "" {
		return
	}
	OnlineDecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordRounds counts executed clustering rounds
func RecordRounds(n int) {
	if n > 0 {
		OfflineRoundsTotal.Add(float64(n))
	}
}
