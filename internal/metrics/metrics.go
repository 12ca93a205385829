package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for artifact loads and prediction failures.
const (
	OutcomeOK        = "ok"
	OutcomeMissing   = "missing"
	OutcomeCorrupt   = "corrupt"
	OutcomeShape     = "shape_mismatch"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
	namespace        = "churn"
)

// Metrics groups the collectors shared by the artifact store and the
// prediction facade.
type Metrics struct {
	ArtifactLoads       *prometheus.CounterVec
	ArtifactLoadSeconds prometheus.Histogram
	Predictions         prometheus.Counter
	PredictionFailures  *prometheus.CounterVec
	BatchSeconds        prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests and embedded callers usually want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ArtifactLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifact",
			Name:      "loads_total",
			Help:      "Artifact bundle load attempts by outcome.",
		}, []string{"outcome"}),
		ArtifactLoadSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "artifact",
			Name:      "load_duration_seconds",
			Help:      "Time spent deserializing and validating the artifact bundle.",
			Buckets:   prometheus.DefBuckets,
		}),
		Predictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "predictions_total",
			Help:      "Records scored.",
		}),
		PredictionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "failures_total",
			Help:      "Failed predict calls by error kind.",
		}, []string{"kind"}),
		BatchSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a predict call.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
}
