package evaluation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	outcomeComplete = "complete"
	outcomeDegraded = "degraded"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goaleval",
		Subsystem: "evaluation",
		Name:      "total",
		Help:      "Evaluations by outcome",
	}, []string{"outcome"})

	evaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "goaleval",
		Subsystem: "evaluation",
		Name:      "duration_seconds",
		Help:      "End-to-end evaluation latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	probabilityOfSuccess = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goaleval",
		Subsystem: "evaluation",
		Name:      "probability_of_success",
		Help:      "Distribution of reported success probabilities",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
)
