// Package postgres writes scored records into a churn_predictions table
// over the Postgres wire protocol. XTDB accepts the same statements.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crimson-sun/churn/internal/model"
)

const (
	createSQL = `CREATE TABLE IF NOT EXISTS churn_predictions (
	prediction_id TEXT,
	customer_id TEXT NOT NULL,
	churn_score DOUBLE PRECISION NOT NULL,
	churn_label INTEGER NOT NULL,
	risk_level TEXT NOT NULL,
	model_version TEXT NOT NULL,
	scored_at TIMESTAMPTZ NOT NULL
)`

	insertSQL = `INSERT INTO churn_predictions
	(prediction_id, customer_id, churn_score, churn_label, risk_level, model_version, scored_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// Execer is the subset of *pgxpool.Pool the output uses.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Option configures a postgres Output.
type Option func(*Output)

// WithCreateTable creates churn_predictions on startup if it is missing.
// Leave it off for XTDB, which creates tables on first insert.
func WithCreateTable() Option {
	return func(o *Output) { o.createTable = true }
}

// Output inserts one row per scored record.
type Output struct {
	exec        Execer
	pool        *pgxpool.Pool
	createTable bool
}

// New connects to connString and verifies the connection.
func New(ctx context.Context, connString string, opts ...Option) (*Output, error) {
	if connString == "" {
		return nil, errors.New("postgres output: connection string required")
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres output: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres output: ping: %w", err)
	}

	o, err := NewWithExecer(ctx, pool, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	o.pool = pool
	return o, nil
}

// NewWithExecer builds an Output on an existing pool or connection.
func NewWithExecer(ctx context.Context, exec Execer, opts ...Option) (*Output, error) {
	o := &Output{exec: exec}
	for _, opt := range opts {
		opt(o)
	}
	if o.createTable {
		if _, err := exec.Exec(ctx, createSQL); err != nil {
			return nil, fmt.Errorf("postgres output: create table: %w", err)
		}
	}
	return o, nil
}

// Write inserts rec.
func (o *Output) Write(ctx context.Context, rec model.ScoredRecord) error {
	_, err := o.exec.Exec(ctx, insertSQL,
		rec.ID,
		rec.CustomerID,
		rec.Prediction.Probability,
		rec.Prediction.Label,
		rec.RiskLevel,
		rec.ModelVersion,
		rec.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres output: insert %s: %w", rec.CustomerID, err)
	}
	return nil
}

// Close closes the pool if New created it.
func (o *Output) Close() error {
	if o.pool != nil {
		o.pool.Close()
	}
	return nil
}
