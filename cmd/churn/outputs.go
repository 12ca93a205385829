package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/churn/internal/config"
	"github.com/crimson-sun/churn/internal/output"
	"github.com/crimson-sun/churn/internal/output/async"
	"github.com/crimson-sun/churn/internal/output/file"
	"github.com/crimson-sun/churn/internal/output/kafka"
	"github.com/crimson-sun/churn/internal/output/multi"
	"github.com/crimson-sun/churn/internal/output/postgres"
	"github.com/crimson-sun/churn/internal/output/redis"
	"github.com/crimson-sun/churn/internal/output/sqlite"
	"github.com/crimson-sun/churn/internal/output/stdout"
)

// buildOutput opens every configured sink. Network and disk sinks are
// wrapped in an async buffer when output.async is set; stdout never is so
// results stay ordered with the logs.
func buildOutput(ctx context.Context, cfg config.OutputConfig, logger *slog.Logger) (output.Output, error) {
	if logger == nil {
		logger = slog.Default()
	}
	verbosity := output.ParseVerbosity(cfg.Verbosity)

	var outs []output.Output
	fail := func(err error) (output.Output, error) {
		for _, o := range outs {
			o.Close()
		}
		return nil, err
	}

	for _, name := range cfg.Sinks {
		var (
			o   output.Output
			err error
		)
		switch name {
		case "stdout":
			o = stdout.New(verbosity, cfg.Pretty)
		case "file":
			o, err = file.New(cfg.File.Path, verbosity,
				file.WithMaxSize(cfg.File.MaxSize), file.WithMaxBackups(cfg.File.MaxBackups))
		case "kafka":
			o = kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, verbosity)
		case "sqlite":
			o, err = sqlite.New(ctx, cfg.SQLite.Path)
		case "postgres":
			var opts []postgres.Option
			if cfg.Postgres.CreateTable {
				opts = append(opts, postgres.WithCreateTable())
			}
			o, err = postgres.New(ctx, cfg.Postgres.DSN, opts...)
		case "redis":
			o, err = redis.New(ctx, cfg.Redis.URL, verbosity,
				redis.WithKeyPrefix(cfg.Redis.KeyPrefix), redis.WithTTL(cfg.Redis.TTL))
		default:
			err = fmt.Errorf("unknown output sink: %s", name)
		}
		if err != nil {
			return fail(err)
		}
		if cfg.Async && name != "stdout" {
			sink := name
			o = async.New(o, async.WithOnError(func(err error) {
				logger.Warn("async output write error", "sink", sink, "error", err)
			}))
		}
		outs = append(outs, o)
	}

	switch len(outs) {
	case 0:
		return nil, errors.New("no output sinks configured")
	case 1:
		return outs[0], nil
	default:
		return multi.New(outs...), nil
	}
}
