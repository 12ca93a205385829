package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/churn/internal/config"
	"github.com/crimson-sun/churn/internal/logging"
	"github.com/crimson-sun/churn/pkg/churn"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML config file (optional)",
		Sources: cli.EnvVars("CHURN_CONFIG"),
	}

	artifactsFlag = &cli.StringFlag{
		Name:  "artifacts",
		Usage: "Artifact bundle directory (overrides artifacts.dir)",
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level [debug, info, warn, error] (overrides log_level)",
	}

	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "Serve Prometheus metrics on this address while running, e.g. :9090",
	}
)

// appState is the state shared by every command once Before has run.
type appState struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	server   *http.Server
}

func newApp() *cli.Command {
	st := &appState{}
	return &cli.Command{
		Name:    "churn",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Usage:   "Score customer churn risk from a fitted artifact bundle",
		Flags: []cli.Flag{
			configFlag,
			artifactsFlag,
			logLevelFlag,
			metricsAddrFlag,
		},
		Commands: []*cli.Command{
			scoreCmd(st),
			streamCmd(st),
			checkCmd(st),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, st.setup(cmd)
		},
		After: func(ctx context.Context, _ *cli.Command) error {
			return st.shutdown(ctx)
		},
	}
}

func (st *appState) setup(cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String(configFlag.Name))
	if err != nil {
		return err
	}
	if v := cmd.String(artifactsFlag.Name); v != "" {
		cfg.Artifacts.Dir = v
	}
	if v := cmd.String(logLevelFlag.Name); v != "" {
		cfg.LogLevel = v
	}
	if v := cmd.String(metricsAddrFlag.Name); v != "" {
		cfg.MetricsAddr = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	st.cfg = cfg
	st.logger = logging.Init(cfg.HasSink("stdout"), logging.ParseLevel(cfg.LogLevel))

	st.registry = prometheus.NewRegistry()
	st.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.MetricsAddr != "" {
		st.serveMetrics(cfg.MetricsAddr)
	}
	return nil
}

func (st *appState) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(st.registry, promhttp.HandlerOpts{}))
	st.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		st.logger.Info("serving metrics", "addr", addr)
		if err := st.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			st.logger.Error("metrics server failed", "error", err)
		}
	}()
}

func (st *appState) shutdown(ctx context.Context) error {
	if st.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return st.server.Shutdown(ctx)
}

// predictor builds the scoring facade from the resolved config.
func (st *appState) predictor() *churn.Churn {
	return churn.Open(st.cfg.Artifacts.Dir,
		churn.WithWorkers(st.cfg.Engine.Workers),
		churn.WithChunkSize(st.cfg.Engine.ChunkSize),
		churn.WithLogger(st.logger),
		churn.WithRegisterer(st.registry),
	)
}
