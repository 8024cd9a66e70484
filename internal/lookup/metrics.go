package lookup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupItems counts resolved items by outcome (confident, unconfident,
	// unmatched, area).
	lookupItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boqlca",
		Subsystem: "lookup",
		Name:      "items_total",
		Help:      "Inventory items resolved by match outcome",
	}, []string{"outcome"})

	// lookupScore tracks the distribution of match scores.
	lookupScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "boqlca",
		Subsystem: "lookup",
		Name:      "match_score",
		Help:      "Distribution of match scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.5},
	})

	// lookupDuration measures whole lookup calls.
	// Labels: source (local, remote), status (success, error)
	lookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "boqlca",
		Subsystem: "lookup",
		Name:      "duration_seconds",
		Help:      "Lookup call latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source", "status"})
)

func recordOutcome(r Result) {
	switch {
	case r.Excluded:
		lookupItems.WithLabelValues("area").Inc()
		return
	case r.Confident():
		lookupItems.WithLabelValues("confident").Inc()
	case r.MatchScore != nil && *r.MatchScore > 0:
		lookupItems.WithLabelValues("unconfident").Inc()
	default:
		lookupItems.WithLabelValues("unmatched").Inc()
	}
	if r.MatchScore != nil {
		lookupScore.Observe(*r.MatchScore)
	}
}

func observeDuration(source string, err error, seconds float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	lookupDuration.WithLabelValues(source, status).Observe(seconds)
}
