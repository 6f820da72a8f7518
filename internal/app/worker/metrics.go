package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_jobs_total",
			Help: "Refresh jobs processed by final status",
		},
		[]string{"status"},
	)
	pollRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_refreshes_total",
			Help: "Scheduled handle refreshes by outcome",
		},
		[]string{"outcome"},
	)
)

// RegisterMetrics registers worker and poller metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(jobsTotal, pollRefreshesTotal)
}
