package pipeline

import (
	"time"

	"github.com/crimson-sun/churn/internal/model"
	"github.com/crimson-sun/churn/internal/pipeline/dedup"
)

// streamBuffer accumulates records between flushes. A flush is due when the
// window elapses after the first buffered record, or when maxSize records
// are pending. It is owned by a single goroutine.
type streamBuffer struct {
	window  time.Duration
	maxSize int // 0 means unlimited

	pending []model.FeatureRecord
	timer   *time.Timer
}

func newStreamBuffer(window time.Duration, maxSize int) *streamBuffer {
	return &streamBuffer{window: window, maxSize: maxSize}
}

// add appends a record, starting the flush timer on the first one.
// Returns true if the buffer is full and needs flushing.
func (b *streamBuffer) add(rec model.FeatureRecord) bool {
	b.pending = append(b.pending, rec)
	if len(b.pending) == 1 {
		b.timer = time.NewTimer(b.window)
	}
	return b.maxSize > 0 && len(b.pending) >= b.maxSize
}

// flushCh returns the timer's channel, or nil if no timer is active.
func (b *streamBuffer) flushCh() <-chan time.Time {
	if b.timer == nil {
		return nil
	}
	return b.timer.C
}

// take empties the buffer and returns its records with duplicate customer
// ids collapsed, plus how many were collapsed.
func (b *streamBuffer) take() ([]model.FeatureRecord, int) {
	records := b.pending
	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return dedup.Collapse(records)
}

func (b *streamBuffer) size() int {
	return len(b.pending)
}
