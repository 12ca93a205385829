package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/churn/internal/model"
	"github.com/crimson-sun/churn/internal/output"
	"github.com/crimson-sun/churn/internal/source"
	"github.com/crimson-sun/churn/pkg/churn"
)

const shutdownFlushTimeout = 5 * time.Second

// Predictor scores batches of records. *churn.Churn satisfies it.
type Predictor interface {
	Predict(ctx context.Context, records []model.FeatureRecord) ([]model.PredictionResult, error)
	Info(ctx context.Context) (churn.Info, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatching sets the stream flush window and maximum batch size. A zero
// window scores each record as it arrives.
func WithBatching(window time.Duration, maxBatch int) Option {
	return func(p *Pipeline) {
		p.window = window
		p.maxBatch = maxBatch
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the scored-at timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDs replaces the prediction id generator.
func WithIDs(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// Stats counts what a pipeline has done so far.
type Stats struct {
	Scored    int64 // records written to the output
	Skipped   int64 // invalid records dropped in stream mode
	Collapsed int64 // stream records superseded by a newer one for the same customer
	Failed    int64 // stream records lost to a failed batch
}

// Pipeline connects a record source, the churn predictor and an output.
type Pipeline struct {
	predictor Predictor
	output    output.Output
	window    time.Duration
	maxBatch  int
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	scored    atomic.Int64
	skipped   atomic.Int64
	collapsed atomic.Int64
	failed    atomic.Int64
}

// New creates a Pipeline from the given components.
func New(pred Predictor, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		predictor: pred,
		output:    out,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Query runs one batch: every record is validated up front and any invalid
// record rejects the whole batch. Predictions are written in input order.
func (p *Pipeline) Query(ctx context.Context, src source.Querier) error {
	records, err := src.Query(ctx)
	if err != nil {
		return fmt.Errorf("pipeline query: %w", err)
	}

	var errs []error
	for i, rec := range records {
		if err := model.Validate(rec); err != nil {
			errs = append(errs, fmt.Errorf("record %d%s: %w", i, idSuffix(rec), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("pipeline query: %w", errors.Join(errs...))
	}

	scored, err := p.score(ctx, records)
	if err != nil {
		return fmt.Errorf("pipeline query: %w", err)
	}
	return p.write(ctx, scored)
}

// Stream scores records as they arrive, batching them by window and size.
// Invalid records are logged and dropped. Artifact errors stop the stream;
// a failed batch is logged and skipped. Blocks until the source closes or
// ctx is cancelled, flushing whatever is buffered before returning.
//
// When src is a source.Committer, it is committed after every flush that
// did not stop the stream, so nothing is acknowledged before it is written.
func (p *Pipeline) Stream(ctx context.Context, src source.Streamer) error {
	ch, err := src.Stream(ctx)
	if err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}
	committer, _ := src.(source.Committer)

	buf := newStreamBuffer(p.window, p.maxBatch)
	for {
		select {
		case <-ctx.Done():
			return p.drain(ctx, buf, committer)

		case <-buf.flushCh():
			if err := p.flushAndCommit(ctx, buf, committer); err != nil {
				return err
			}

		case rec, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return p.drain(ctx, buf, committer)
				}
				return p.flushAndCommit(ctx, buf, committer)
			}
			if err := model.Validate(rec); err != nil {
				p.skipped.Add(1)
				p.logger.Warn("dropping invalid record", "customer_id", rec.CustomerID, "error", err)
				continue
			}
			if full := buf.add(rec); full || p.window <= 0 {
				if err := p.flushAndCommit(ctx, buf, committer); err != nil {
					return err
				}
			}
		}
	}
}

// drain flushes what is buffered after ctx ends, on a detached context so
// the final batch is not lost to the cancellation itself.
func (p *Pipeline) drain(ctx context.Context, buf *streamBuffer, c source.Committer) error {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
	defer cancel()
	if err := p.flushAndCommit(flushCtx, buf, c); err != nil {
		return err
	}
	return ctx.Err()
}

// flushAndCommit flushes buf and then acknowledges everything received so
// far. A failed commit is logged; the offsets are retried on the next one.
func (p *Pipeline) flushAndCommit(ctx context.Context, buf *streamBuffer, c source.Committer) error {
	if err := p.flush(ctx, buf); err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if err := c.Commit(ctx); err != nil {
		p.logger.Warn("commit failed", "error", err)
	}
	return nil
}

// flush scores and writes the buffered batch.
func (p *Pipeline) flush(ctx context.Context, buf *streamBuffer) error {
	if buf.size() == 0 {
		return nil
	}
	records, collapsed := buf.take()
	p.collapsed.Add(int64(collapsed))

	scored, err := p.score(ctx, records)
	if err != nil {
		if errors.Is(err, churn.ErrArtifactMissing) || errors.Is(err, churn.ErrArtifactCorrupt) {
			return fmt.Errorf("pipeline stream: %w", err)
		}
		p.failed.Add(int64(len(records)))
		p.logger.Error("batch scoring failed, dropping batch", "records", len(records), "error", err)
		return nil
	}
	if err := p.write(ctx, scored); err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}
	return nil
}

func (p *Pipeline) score(ctx context.Context, records []model.FeatureRecord) ([]model.ScoredRecord, error) {
	preds, err := p.predictor.Predict(ctx, records)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(records) {
		return nil, fmt.Errorf("%w: %d predictions for %d records", churn.ErrShapeMismatch, len(preds), len(records))
	}
	if len(records) == 0 {
		return nil, nil
	}
	info, err := p.predictor.Info(ctx)
	if err != nil {
		return nil, err
	}

	at := p.now().UTC()
	scored := make([]model.ScoredRecord, len(records))
	for i := range records {
		scored[i] = model.ScoredRecord{
			ID:           p.newID(),
			CustomerID:   records[i].CustomerID,
			Record:       &records[i],
			Prediction:   preds[i],
			RiskLevel:    model.RiskLevel(preds[i].Probability),
			ModelVersion: info.Version,
			ScoredAt:     at,
		}
	}
	return scored, nil
}

func (p *Pipeline) write(ctx context.Context, scored []model.ScoredRecord) error {
	for _, rec := range scored {
		if err := p.output.Write(ctx, rec); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
		p.scored.Add(1)
	}
	return nil
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Scored:    p.scored.Load(),
		Skipped:   p.skipped.Load(),
		Collapsed: p.collapsed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

func idSuffix(rec model.FeatureRecord) string {
	if rec.CustomerID == "" {
		return ""
	}
	return " (" + rec.CustomerID + ")"
}
