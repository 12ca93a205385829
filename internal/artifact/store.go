package artifact

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crimson-sun/churn/internal/metrics"
	"github.com/crimson-sun/churn/internal/model"
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for load events. Default: slog.Default().
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithMetrics records load outcomes and durations on m.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// Store owns one artifact bundle. The first successful Load deserializes
// and validates it; every later call returns the same immutable *Params
// without locking. A failed load is not cached, so calls keep failing until
// the files are fixed.
type Store struct {
	loader  Loader
	logger  *slog.Logger
	metrics *metrics.Metrics

	group  singleflight.Group
	params atomic.Pointer[model.Params]
}

// NewStore creates a Store over loader. Nothing is read until Load.
func NewStore(loader Loader, opts ...StoreOption) *Store {
	s := &Store{
		loader: loader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open is shorthand for a Store over a bundle directory.
func Open(dir string, opts ...StoreOption) *Store {
	return NewStore(NewDirLoader(dir), opts...)
}

// Load returns the bundle, loading it on first use. Concurrent first calls
// share a single load; each caller stops waiting when its own ctx ends,
// while the load carries on for the others.
func (s *Store) Load(ctx context.Context) (*model.Params, error) {
	if p := s.params.Load(); p != nil {
		return p, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan("load", func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*model.Params), nil
	}
}

func (s *Store) load(ctx context.Context) (*model.Params, error) {
	if p := s.params.Load(); p != nil {
		return p, nil
	}

	start := time.Now()
	p, err := s.loader.Load(ctx)
	if err == nil {
		err = Validate(p)
	}
	s.observe(time.Since(start), err)
	if err != nil {
		s.logger.Error("artifact load failed", "error", err)
		return nil, err
	}

	s.params.Store(p)
	s.logger.Info("artifacts loaded",
		"version", p.Version,
		"numeric_features", p.Numeric.Width(),
		"categorical_columns", p.Categorical.Width(),
		"width", p.Width(),
		"duration", time.Since(start))
	return p, nil
}

// Loaded reports whether a bundle has been published.
func (s *Store) Loaded() bool {
	return s.params.Load() != nil
}

func (s *Store) observe(d time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ArtifactLoadSeconds.Observe(d.Seconds())
	s.metrics.ArtifactLoads.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrMissing):
		return metrics.OutcomeMissing
	case errors.Is(err, ErrCorrupt):
		return metrics.OutcomeCorrupt
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeError
	}
}
