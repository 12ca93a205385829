package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/churn/pkg/churn"
)

var infoFormatFlag = &cli.StringFlag{
	Name:  "format",
	Usage: "Info output format [yaml, json]",
	Value: "yaml",
}

func checkCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Load the artifact bundle and describe it",
		Flags: []cli.Flag{infoFormatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c := st.predictor()
			if err := c.Health(ctx); err != nil {
				if errors.Is(err, churn.ErrArtifactMissing) {
					return fmt.Errorf("artifacts missing in %s, retrain required: %w", st.cfg.Artifacts.Dir, err)
				}
				return err
			}
			info, err := c.Info(ctx)
			if err != nil {
				return err
			}
			return printInfo(cmd, info, cmd.String(infoFormatFlag.Name))
		},
	}
}

func printInfo(cmd *cli.Command, info churn.Info, format string) error {
	w := cmd.Root().Writer
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(info)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
