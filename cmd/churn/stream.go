package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/churn/internal/pipeline"
	"github.com/crimson-sun/churn/internal/source"
	"github.com/crimson-sun/churn/internal/source/kafka"
)

func streamCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Consume records from Kafka (or --input) and score them in windowed batches",
		Flags: []cli.Flag{inputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var src source.Streamer
			if input := cmd.String(inputFlag.Name); input != "" {
				format := st.cfg.Source.Format
				if v := cmd.String(formatFlag.Name); v != "" {
					format = v
				}
				r, err := source.Open(input, format)
				if err != nil {
					return err
				}
				defer r.Close()
				src = r
			} else {
				kc := st.cfg.Source.Kafka
				k := kafka.New(kafka.Config{Brokers: kc.Brokers, Topic: kc.Topic, GroupID: kc.GroupID}, st.logger)
				defer k.Close()
				src = k
			}

			out, err := buildOutput(ctx, st.cfg.Output, st.logger)
			if err != nil {
				return err
			}
			p := pipeline.New(st.predictor(), out,
				pipeline.WithLogger(st.logger),
				pipeline.WithBatching(st.cfg.Stream.Window, st.cfg.Stream.MaxBatch),
			)
			defer p.Close()

			st.logger.Info("streaming", "window", st.cfg.Stream.Window, "max_batch", st.cfg.Stream.MaxBatch)
			err = p.Stream(ctx, src)
			s := p.Stats()
			st.logger.Info("stream stopped",
				"scored", s.Scored, "skipped", s.Skipped, "collapsed", s.Collapsed, "failed", s.Failed)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
