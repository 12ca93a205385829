// Package sqlite persists scored records to a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crimson-sun/churn/internal/model"
)

//go:embed sql/ddl.sql
var ddl embed.FS

const insertSQL = `INSERT INTO churn_predictions
	(prediction_id, customer_id, churn_probability, churn_label, risk_level, model_version, features, scored_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// Output writes one row per scored record into churn_predictions.
type Output struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// New opens (or creates) the database at path and applies the schema.
func New(ctx context.Context, path string) (*Output, error) {
	if path == "" {
		return nil, errors.New("sqlite output: path not specified")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite output: open %s: %w", path, err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	b, err := ddl.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite output: read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(b)); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite output: create schema in %s: %w", path, err)
	}

	stmt, err := db.PrepareContext(ctx, insertSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite output: prepare insert: %w", err)
	}
	return &Output{db: db, stmt: stmt}, nil
}

// Write inserts rec. The input features are stored as JSON when present.
func (o *Output) Write(ctx context.Context, rec model.ScoredRecord) error {
	var features sql.NullString
	if rec.Record != nil {
		b, err := json.Marshal(rec.Record)
		if err != nil {
			return fmt.Errorf("sqlite output: marshal features: %w", err)
		}
		features = sql.NullString{String: string(b), Valid: true}
	}

	_, err := o.stmt.ExecContext(ctx,
		rec.ID,
		rec.CustomerID,
		rec.Prediction.Probability,
		rec.Prediction.Label,
		rec.RiskLevel,
		rec.ModelVersion,
		features,
		rec.ScoredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite output: insert %s: %w", rec.CustomerID, err)
	}
	return nil
}

// Close releases the statement and the database.
func (o *Output) Close() error {
	return errors.Join(o.stmt.Close(), o.db.Close())
}

// DB exposes the underlying handle for read-side queries.
func (o *Output) DB() *sql.DB {
	return o.db
}
