// Package kafka streams feature records from a Kafka topic. Each message
// value is one JSON-encoded record; the message key backfills a missing
// customer id. Offsets are committed only through Commit, after the
// consumer has handled what it received.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/crimson-sun/churn/internal/model"
)

// Config holds consumer settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// MessageReader is the subset of *kafka.Reader the source depends on.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Source consumes a topic as a record stream.
type Source struct {
	reader MessageReader
	logger *slog.Logger

	mu        sync.Mutex
	delivered []kafka.Message
}

// New creates a consumer-group reader for cfg.
func New(cfg Config, logger *slog.Logger) *Source {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return NewFromReader(r, logger)
}

// NewFromReader wraps an existing reader.
func NewFromReader(r MessageReader, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{reader: r, logger: logger.With("source", "kafka")}
}

// Stream fetches messages until ctx is cancelled or the reader fails.
// The channel is unbuffered, so a message counts as delivered only once the
// consumer has received it. Undecodable messages are skipped and committed
// with the next Commit so one bad payload cannot wedge the partition.
func (s *Source) Stream(ctx context.Context) (<-chan model.FeatureRecord, error) {
	ch := make(chan model.FeatureRecord)
	go func() {
		defer close(ch)
		for {
			msg, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("fetch failed, stopping stream", "error", err)
				}
				return
			}

			var rec model.FeatureRecord
			if err := json.Unmarshal(msg.Value, &rec); err != nil {
				s.logger.Warn("skipping undecodable message",
					"partition", msg.Partition, "offset", msg.Offset, "error", err)
				s.deliver(msg)
				continue
			}
			if rec.CustomerID == "" {
				rec.CustomerID = string(msg.Key)
			}

			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
			s.deliver(msg)
		}
	}()
	return ch, nil
}

// deliver records msg as handed off. It runs after the send completes, so
// an undelivered message is never committed.
func (s *Source) deliver(msg kafka.Message) {
	s.mu.Lock()
	s.delivered = append(s.delivered, msg)
	s.mu.Unlock()
}

// Commit commits the offsets of every delivered message. Messages whose
// commit fails stay pending and are retried on the next call.
func (s *Source) Commit(ctx context.Context) error {
	s.mu.Lock()
	msgs := s.delivered
	s.delivered = nil
	s.mu.Unlock()
	if len(msgs) == 0 {
		return nil
	}

	if err := s.reader.CommitMessages(ctx, msgs...); err != nil {
		s.mu.Lock()
		s.delivered = append(msgs, s.delivered...)
		s.mu.Unlock()
		return fmt.Errorf("kafka source: commit %d messages: %w", len(msgs), err)
	}
	return nil
}

// Close closes the underlying reader.
func (s *Source) Close() error {
	return s.reader.Close()
}
