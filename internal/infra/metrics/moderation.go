package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(moderationResultsTotal, moderationFailuresTotal) }

var moderationResultsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "moderation_results_total",
		Help: "Completed classifications by category.",
	},
	[]string{"category"},
)

var moderationFailuresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "moderation_failures_total",
		Help: "Rejected or failed submissions by reason.",
	},
	[]string{"reason"}, // invalid_input | pending | classification
)

func IncResult(category string) {
	moderationResultsTotal.WithLabelValues(norm(category)).Inc()
}

func IncFailure(reason string) {
	moderationFailuresTotal.WithLabelValues(norm(reason)).Inc()
}
