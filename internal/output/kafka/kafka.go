// Package kafka publishes scored records to a Kafka topic, keyed by
// customer id so every prediction for a customer lands on one partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/crimson-sun/churn/internal/model"
	"github.com/crimson-sun/churn/internal/output"
)

// MessageWriter is the subset of *kafka.Writer the output uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Output sends scored records as JSON messages.
type Output struct {
	w         MessageWriter
	verbosity output.Verbosity
}

// New creates a producer for topic on brokers.
func New(brokers []string, topic string, verbosity output.Verbosity) *Output {
	return NewWithWriter(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}, verbosity)
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w MessageWriter, verbosity output.Verbosity) *Output {
	return &Output{w: w, verbosity: verbosity}
}

func (o *Output) Write(ctx context.Context, rec model.ScoredRecord) error {
	data, err := json.Marshal(output.FormatRecord(rec, o.verbosity))
	if err != nil {
		return fmt.Errorf("kafka output: marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(rec.CustomerID),
		Value: data,
	}
	if err := o.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka output: send %s: %w", rec.CustomerID, err)
	}
	return nil
}

func (o *Output) Close() error {
	return o.w.Close()
}
