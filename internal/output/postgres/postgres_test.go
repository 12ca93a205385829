package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/churn/internal/model"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestWrite_InsertsRow(t *testing.T) {
	fe := &fakeExecer{}
	out, err := NewWithExecer(context.Background(), fe)
	require.NoError(t, err)

	at := time.Date(2026, 10, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, out.Write(context.Background(), model.ScoredRecord{
		ID:           "pred-1",
		CustomerID:   "CUST-003",
		Prediction:   model.PredictionResult{Probability: 0.92, Label: 1},
		RiskLevel:    model.RiskHigh,
		ModelVersion: "v2.1.0",
		ScoredAt:     at,
	}))

	require.Len(t, fe.calls, 1)
	assert.True(t, strings.HasPrefix(fe.calls[0].sql, "INSERT INTO churn_predictions"))
	assert.Equal(t, []any{"pred-1", "CUST-003", 0.92, 1, "high", "v2.1.0", at}, fe.calls[0].args)
	assert.NoError(t, out.Close())
}

func TestNewWithExecer_CreateTable(t *testing.T) {
	fe := &fakeExecer{}
	_, err := NewWithExecer(context.Background(), fe, WithCreateTable())
	require.NoError(t, err)

	require.Len(t, fe.calls, 1)
	assert.Contains(t, fe.calls[0].sql, "CREATE TABLE IF NOT EXISTS churn_predictions")
}

func TestNewWithExecer_CreateTableFails(t *testing.T) {
	fe := &fakeExecer{err: errors.New("permission denied")}
	_, err := NewWithExecer(context.Background(), fe, WithCreateTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table")
}

func TestWrite_Error(t *testing.T) {
	boom := errors.New("connection reset")
	out, err := NewWithExecer(context.Background(), &fakeExecer{err: boom})
	require.NoError(t, err)

	err = out.Write(context.Background(), model.ScoredRecord{CustomerID: "CUST-9"})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "CUST-9")
}

func TestNew_EmptyConnString(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}
