package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/churn/internal/pipeline"
	"github.com/crimson-sun/churn/internal/source"
)

var (
	inputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Records file, - for stdin (overrides source.input)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("Input format %v (overrides source.format)", source.Formats()),
	}
)

func scoreCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score a batch of records and write the predictions",
		Flags: []cli.Flag{inputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input, format := st.cfg.Source.Input, st.cfg.Source.Format
			if v := cmd.String(inputFlag.Name); v != "" {
				input = v
			}
			if v := cmd.String(formatFlag.Name); v != "" {
				format = v
			}

			src, err := source.Open(input, format)
			if err != nil {
				return err
			}
			defer src.Close()

			out, err := buildOutput(ctx, st.cfg.Output, st.logger)
			if err != nil {
				return err
			}
			p := pipeline.New(st.predictor(), out, pipeline.WithLogger(st.logger))
			defer p.Close()

			if err := p.Query(ctx, src); err != nil {
				return err
			}
			st.logger.Info("batch scored", "records", p.Stats().Scored)
			return nil
		},
	}
}
