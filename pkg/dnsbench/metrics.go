package dnsbench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptDurationMetrics = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dnsmatrix",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of successful probe attempts in seconds",
	}, []string{"method"})

	attemptTotalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dnsmatrix",
		Name:      "attempts_total",
		Help:      "The total number of probe attempts",
	}, []string{"method", "outcome"})

	probeTotalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dnsmatrix",
		Name:      "probes_total",
		Help:      "The total number of finished probes",
	}, []string{"method", "outcome"})

	probesInFlightMetrics = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dnsmatrix",
		Name:      "probes_in_flight",
		Help:      "The number of probes currently holding a concurrency slot",
	})
)

func outcomeLabel(o Outcome) string {
	if o.Success {
		return "success"
	}
	return "failure"
}
