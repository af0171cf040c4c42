package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "grader"

var (
	// 1ms -> 10s
	timeBuckets = []float64{
		0.001, 0.005, 0.010, 0.025, 0.050, 0.1, 0.2, 0.4, 0.8, 1.0, 1.5, 2, 3, 5, 10,
	}
)

// Metrics collects grading counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	runTime     *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	leaderboard *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sandbox_run_seconds",
			Help:      "Wall time of one sandbox run, by exit status",
			Buckets:   timeBuckets,
		}, []string{"status"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "submissions_total",
			Help:      "Number of graded submissions, by credit tier",
		}, []string{"tier"}),
		leaderboard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "leaderboard_records_total",
			Help:      "Leaderboard record outcomes",
		}, []string{"result"}),
	}
	reg.MustRegister(m.runTime, m.submissions, m.leaderboard)
	return m
}

func (m *Metrics) ObserveRun(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runTime.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSubmission(tier string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(tier).Inc()
}

func (m *Metrics) ObserveLeaderboard(result string) {
	if m == nil {
		return
	}
	m.leaderboard.WithLabelValues(result).Inc()
}
