package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jchiang87/imSim/internal/config"
	"github.com/jchiang87/imSim/internal/logging"
	"github.com/jchiang87/imSim/internal/observability"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "imsim",
		Short:         "Synthesize LSST sources and sky background for simulated visits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML or TOML config file (IMSIM_* env vars override it)")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address while running")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newBackgroundCmd(opts))
	root.AddCommand(newCatalogCmd(opts))
	root.AddCommand(newSkyTrackCmd(opts))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imsim %s\n", version)
		},
	}
}

// app is the per-invocation wiring: config, logger, metrics and tracing.
type app struct {
	cfg     config.Config
	log     logging.Logger
	metrics *observability.PipelineCollector
	closers []func(context.Context)
}

func newApp(cmd *cobra.Command, opts *rootOptions) (context.Context, *app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	base := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	ctx, log := logging.WithRunLogger(ctx, base)
	log = log.With(logging.String("command", cmd.Name()))

	reg := prometheus.NewRegistry()
	collector, err := observability.NewPipelineCollector(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise metrics collector: %w", err)
	}
	a := &app{cfg: cfg, log: log, metrics: collector}

	tracingCfg, err := observability.TracingConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	tracingCfg.Writer = cmd.ErrOrStderr()
	shutdown, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise tracing: %w", err)
	}
	a.closers = append(a.closers, func(ctx context.Context) {
		observability.ShutdownWithTimeout(ctx, shutdown, log)
	})

	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, collector, log)
		a.closers = append(a.closers, func(ctx context.Context) {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
	}
	return ctx, a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](context.WithoutCancel(ctx))
	}
}

func serveMetrics(addr string, collector *observability.PipelineCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
