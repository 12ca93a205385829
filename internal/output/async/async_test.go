package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crimson-sun/churn/internal/model"
)

type mockOutput struct {
	mu      sync.Mutex
	records []model.ScoredRecord
	closed  bool
	err     error         // if set, Write returns this
	delay   time.Duration // if >0, Write sleeps first
}

func (m *mockOutput) Write(_ context.Context, rec model.ScoredRecord) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return m.err
}

func (m *mockOutput) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *mockOutput) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func testRecord(id string) model.ScoredRecord {
	return model.ScoredRecord{
		CustomerID: id,
		Prediction: model.PredictionResult{Probability: 0.31, Label: 0},
		RiskLevel:  model.RiskLow,
	}
}

func TestRecordsFlowThroughInOrder(t *testing.T) {
	inner := &mockOutput{}
	a := New(inner, WithBufferSize(16))

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		if err := a.Write(context.Background(), testRecord(id)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if inner.count() != len(ids) {
		t.Fatalf("got %d records, want %d", inner.count(), len(ids))
	}
	for i, id := range ids {
		if inner.records[i].CustomerID != id {
			t.Errorf("record %d = %q, want %q", i, inner.records[i].CustomerID, id)
		}
	}
	if !inner.closed {
		t.Error("inner output not closed")
	}
}

func TestBackpressureBlocks(t *testing.T) {
	inner := &mockOutput{delay: 50 * time.Millisecond}
	a := New(inner, WithBufferSize(1))

	a.Write(context.Background(), testRecord("first"))

	done := make(chan struct{})
	go func() {
		a.Write(context.Background(), testRecord("second"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write blocked indefinitely (expected eventual unblock via drain)")
	}

	a.Close()
}

func TestWriteRespectsContextWhenFull(t *testing.T) {
	inner := &mockOutput{delay: 200 * time.Millisecond}
	a := New(inner, WithBufferSize(1))
	defer a.Close()

	// One in flight, one buffered; the third must wait.
	a.Write(context.Background(), testRecord("1"))
	a.Write(context.Background(), testRecord("2"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := a.Write(ctx, testRecord("3")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDropOnFull(t *testing.T) {
	inner := &mockOutput{delay: 100 * time.Millisecond}
	a := New(inner, WithBufferSize(1), WithDropOnFull())

	for i := 0; i < 20; i++ {
		a.Write(context.Background(), testRecord("burst"))
	}

	a.Close()

	if inner.count() == 20 {
		t.Error("expected some records to be dropped in drop-on-full mode")
	}
	if inner.count() == 0 {
		t.Error("expected at least some records to be delivered")
	}
	if got := a.Dropped() + int64(inner.count()); got != 20 {
		t.Errorf("dropped + delivered = %d, want 20", got)
	}
}

func TestCloseDrainsRemaining(t *testing.T) {
	inner := &mockOutput{}
	a := New(inner, WithBufferSize(100))

	for i := 0; i < 50; i++ {
		a.Write(context.Background(), testRecord("drain"))
	}

	a.Close()

	if inner.count() != 50 {
		t.Errorf("after Close, got %d records, want 50 (drain incomplete)", inner.count())
	}
}

func TestErrorCallbackInvoked(t *testing.T) {
	inner := &mockOutput{err: errors.New("write failed")}
	var errorCount atomic.Int64
	a := New(inner, WithBufferSize(16), WithOnError(func(err error) {
		errorCount.Add(1)
	}))

	for i := 0; i < 5; i++ {
		a.Write(context.Background(), testRecord("failing"))
	}

	a.Close()

	if errorCount.Load() != 5 {
		t.Errorf("error callback called %d times, want 5", errorCount.Load())
	}
}

func TestDrainTimeout(t *testing.T) {
	inner := &mockOutput{delay: 300 * time.Millisecond}
	a := New(inner, WithBufferSize(4), WithDrainTimeout(20*time.Millisecond))

	for i := 0; i < 3; i++ {
		a.Write(context.Background(), testRecord("slow"))
	}

	start := time.Now()
	a.Close()
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("Close took %v, expected to give up after the drain timeout", elapsed)
	}
}

func TestCloseIdempotent(t *testing.T) {
	inner := &mockOutput{}
	a := New(inner, WithBufferSize(16))

	a.Write(context.Background(), testRecord("idempotent"))

	if err := a.Close(); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}

	select {
	case <-a.done:
	case <-time.After(time.Second):
		t.Fatal("drain goroutine did not exit after Close")
	}
}
