package main

import (
	"context"
	"log/slog"
	"os"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}
