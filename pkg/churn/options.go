package churn

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	workers    int
	chunkSize  int
	logger     *slog.Logger
	registerer prometheus.Registerer
	tracer     trace.TracerProvider
}

// Option configures a Churn instance.
type Option func(*options)

// WithWorkers caps how many row chunks are scored concurrently within one
// Predict call. 1 disables parallelism. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithChunkSize sets the rows per parallel unit of work. Default: 256.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegisterer registers Prometheus collectors with reg.
// Default: collectors are kept but not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTracerProvider sets where Predict spans are recorded.
// Default: the global provider from otel.GetTracerProvider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp
	}
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		tracer: otel.GetTracerProvider(),
	}
}
