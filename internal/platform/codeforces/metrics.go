package codeforces

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeforces_calls_total",
			Help: "Codeforces API attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)
	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeforces_retries_total",
			Help: "Codeforces API retries by method",
		},
		[]string{"method"},
	)
)

// RegisterMetrics registers the upstream call metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(callsTotal, retriesTotal)
}

func observeCall(method string, err error) {
	callsTotal.WithLabelValues(method, outcome(err)).Inc()
}

func outcome(err error) string {
	var (
		te *TransportError
		rl *RateLimitError
		nf *NotFoundError
		ue *UpstreamError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ue):
		return "upstream"
	default:
		return "error"
	}
}
