package churn

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crimson-sun/churn/internal/artifact"
	"github.com/crimson-sun/churn/internal/engine"
	"github.com/crimson-sun/churn/internal/engine/scorer"
	"github.com/crimson-sun/churn/internal/metrics"
	"github.com/crimson-sun/churn/internal/model"
)

type (
	// Record is one customer's raw input. Nil fields are missing values.
	Record = model.FeatureRecord
	// Prediction is a rounded churn probability and its label.
	Prediction = model.PredictionResult
	// Params is a loaded artifact bundle.
	Params = model.Params
	// Store lazily loads and caches one artifact bundle.
	Store = artifact.Store
)

// Pointer helpers for building records.
var (
	Int    = model.Int
	Float  = model.Float
	String = model.String
	Bool   = model.Bool
)

// Churn is the scoring facade: it owns an artifact store and runs the
// transform → assemble → score engine over batches of records.
// Safe for concurrent use.
type Churn struct {
	store    *artifact.Store
	engine   *engine.Engine
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	compiled atomic.Pointer[engine.Compiled]
}

// OpenStore returns a Store over the bundle directory dir. Nothing is read
// until the first load.
func OpenStore(dir string) *Store {
	return artifact.Open(dir)
}

// StaticStore returns a Store serving p. p is validated on first load.
func StaticStore(p *Params) *Store {
	return artifact.NewStore(artifact.StaticLoader{Params: p})
}

// New creates a Churn over store. The store is shared, not copied, so
// several facades may score from one loaded bundle.
func New(store *Store, opts ...Option) *Churn {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newChurn(store, o, metrics.New(o.registerer))
}

// Open creates a Churn over the bundle directory dir, sharing its logger and
// metrics with the store.
func Open(dir string, opts ...Option) *Churn {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m := metrics.New(o.registerer)
	store := artifact.Open(dir, artifact.WithLogger(o.logger), artifact.WithMetrics(m))
	return newChurn(store, o, m)
}

const tracerName = "github.com/crimson-sun/churn/pkg/churn"

func newChurn(store *artifact.Store, o options, m *metrics.Metrics) *Churn {
	return &Churn{
		store:   store,
		engine:  engine.New(engine.WithWorkers(o.workers), engine.WithChunkSize(o.chunkSize)),
		logger:  o.logger,
		metrics: m,
		tracer:  o.tracer.Tracer(tracerName),
	}
}

// Predict scores records and returns one prediction per record, in input
// order. Probabilities are rounded to 4 decimals and the label is derived
// from the rounded value, so Label == 1 iff Probability >= 0.5.
//
// An empty batch returns an empty result without loading artifacts.
// Artifact errors are returned unchanged; transform and scoring failures are
// returned as *PredictionError.
func (c *Churn) Predict(ctx context.Context, records []Record) ([]Prediction, error) {
	if len(records) == 0 {
		return []Prediction{}, nil
	}
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "churn.Predict",
		trace.WithAttributes(attribute.Int("churn.records", len(records))))
	defer span.End()

	params, err := c.store.Load(ctx)
	if err != nil {
		c.fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("churn.model_version", params.Version))
	comp, err := c.compile(params)
	if err != nil {
		c.fail(span, err)
		return nil, &PredictionError{Cause: err}
	}

	probs, err := c.engine.Process(ctx, comp, records)
	if err != nil {
		c.fail(span, err)
		return nil, &PredictionError{Cause: err}
	}

	out := make([]Prediction, len(probs))
	for i, p := range probs {
		r := Round(p)
		out[i] = Prediction{Probability: r, Label: scorer.Label(r)}
	}

	c.metrics.Predictions.Add(float64(len(out)))
	c.metrics.BatchSeconds.Observe(time.Since(start).Seconds())
	c.logger.Debug("scored batch", "records", len(out), "version", params.Version, "duration", time.Since(start))
	return out, nil
}

// compile returns the engine for params, reusing the cached one while the
// store keeps returning the same bundle.
func (c *Churn) compile(params *model.Params) (*engine.Compiled, error) {
	if comp := c.compiled.Load(); comp != nil && comp.Params() == params {
		return comp, nil
	}
	comp, err := engine.Compile(params)
	if err != nil {
		return nil, err
	}
	c.compiled.Store(comp)
	return comp, nil
}

func (c *Churn) fail(span trace.Span, err error) {
	kind := metrics.OutcomeError
	switch {
	case errors.Is(err, ErrArtifactMissing):
		kind = metrics.OutcomeMissing
	case errors.Is(err, ErrArtifactCorrupt):
		kind = metrics.OutcomeCorrupt
	case errors.Is(err, ErrShapeMismatch):
		kind = metrics.OutcomeShape
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = metrics.OutcomeCancelled
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	c.metrics.PredictionFailures.WithLabelValues(kind).Inc()
	c.logger.Warn("predict failed", "kind", kind, "error", err)
}

// Health forces the artifact load and reports its error, if any.
func (c *Churn) Health(ctx context.Context) error {
	_, err := c.store.Load(ctx)
	return err
}

// Info describes the loaded bundle.
type Info struct {
	Version             string                `json:"version" yaml:"version"`
	TrainedAt           time.Time             `json:"trained_at,omitzero" yaml:"trained_at,omitempty"`
	Metrics             model.TrainingMetrics `json:"metrics" yaml:"metrics"`
	NumericFeatures     []string              `json:"numeric_features" yaml:"numeric_features"`
	CategoricalFeatures []string              `json:"categorical_features" yaml:"categorical_features"`
	Width               int                   `json:"width" yaml:"width"`
}

// Info loads the bundle if needed and describes it.
func (c *Churn) Info(ctx context.Context) (Info, error) {
	p, err := c.store.Load(ctx)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Version:             p.Version,
		TrainedAt:           p.TrainedAt,
		Metrics:             p.Metrics,
		NumericFeatures:     p.Numeric.Features,
		CategoricalFeatures: p.Categorical.Features,
		Width:               p.Width(),
	}, nil
}

// Round rounds p to 4 decimal places using correctly rounded decimal
// conversion (ties to even on the exact binary value).
func Round(p float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(p, 'f', 4, 64), 64)
	if err != nil {
		return p
	}
	return r
}
