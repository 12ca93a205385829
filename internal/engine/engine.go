package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/churn/internal/engine/assembler"
	"github.com/crimson-sun/churn/internal/engine/categorical"
	"github.com/crimson-sun/churn/internal/engine/numeric"
	"github.com/crimson-sun/churn/internal/engine/scorer"
	"github.com/crimson-sun/churn/internal/model"
)

const defaultChunkSize = 256

// Compiled is a params bundle resolved into ready-to-run transformers.
// It is immutable and safe for concurrent use.
type Compiled struct {
	params  *model.Params
	numeric *numeric.Transformer
	encoder *categorical.Encoder
	scorer  *scorer.Scorer
}

// Compile resolves feature accessors, vocabulary indexes and block offsets
// for p. The assembled width must equal the weight vector length.
func Compile(p *model.Params) (*Compiled, error) {
	num, err := numeric.New(&p.Numeric)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	enc, err := categorical.NewEncoder(&p.Categorical)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	sc := scorer.New(&p.Linear)

	if width := num.Width() + enc.Width(); width != sc.Width() {
		return nil, fmt.Errorf("engine: %w: assembled width %d, %d weights",
			model.ErrShapeMismatch, width, sc.Width())
	}
	return &Compiled{params: p, numeric: num, encoder: enc, scorer: sc}, nil
}

// Params returns the bundle c was compiled from.
func (c *Compiled) Params() *model.Params {
	return c.params
}

// Features returns the assembled feature matrix for records.
func (c *Compiled) Features(records []model.FeatureRecord) ([][]float64, error) {
	num := c.numeric.Transform(records)
	cat := c.encoder.Transform(records)
	return assembler.Assemble(num, cat)
}

// score runs transform → assemble → score for one chunk and writes the
// probabilities into dst.
func (c *Compiled) score(records []model.FeatureRecord, dst []float64) error {
	matrix, err := c.Features(records)
	if err != nil {
		return err
	}
	probs, err := c.scorer.Score(matrix)
	if err != nil {
		return err
	}
	copy(dst, probs)
	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers caps the number of chunks scored concurrently. 1 scores
// sequentially. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithChunkSize sets the number of rows per unit of work. Default: 256.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// Engine splits a batch into row chunks and scores them in parallel.
// Output order always matches input order.
type Engine struct {
	workers   int
	chunkSize int
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		workers:   runtime.GOMAXPROCS(0),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process returns one churn probability per record.
func (e *Engine) Process(ctx context.Context, c *Compiled, records []model.FeatureRecord) ([]float64, error) {
	out := make([]float64, len(records))
	if len(records) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for start := 0; start < len(records); start += e.chunkSize {
		end := min(start+e.chunkSize, len(records))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := c.score(records[start:end], out[start:end]); err != nil {
				return fmt.Errorf("engine: rows %d-%d: %w", start, end-1, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
