package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rogpeppe/lockfree/internal/stress"
)

type runOptions struct {
	configPath  string
	metricsAddr string
	logLevel    string
	logFormat   string
	cfg         stress.Config
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "conclist-stress",
		Short:         "Exercise a lock-free list under concurrent load",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newConfigCommand())
	return root
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{
		cfg: stress.DefaultConfig(),
	}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a stress workload and print a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "f", "", "YAML configuration file")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text or json)")
	f.IntVar(&opts.cfg.Writers, "writers", opts.cfg.Writers, "number of writer goroutines")
	f.IntVar(&opts.cfg.Removers, "removers", opts.cfg.Removers, "number of remover goroutines")
	f.IntVar(&opts.cfg.Readers, "readers", opts.cfg.Readers, "number of reader goroutines")
	f.IntVar(&opts.cfg.Consumers, "consumers", opts.cfg.Consumers, "number of cursor consumer goroutines")
	f.IntVar(&opts.cfg.OpsPerWorker, "ops", opts.cfg.OpsPerWorker, "operations per goroutine")
	f.IntVar(&opts.cfg.ClearEvery, "clear-every", opts.cfg.ClearEvery, "clear the list after every N adds by the first writer (0 disables)")
	f.DurationVar(&opts.cfg.Duration, "duration", opts.cfg.Duration, "upper bound on run time (0 for none)")
	return cmd
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeYAML(cmd, stress.DefaultConfig())
		},
	}
}

func runStress(cmd *cobra.Command, opts *runOptions) error {
	logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if opts.metricsAddr != "" {
		stop, err := serveMetrics(opts.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}
	report, err := stress.Run(cmd.Context(), cfg, logger, reg)
	if report != nil {
		if werr := writeYAML(cmd, report); werr != nil {
			return werr
		}
	}
	return err
}

// resolveConfig loads the configuration file, if any, and applies
// any flags that were set explicitly on top of it.
func resolveConfig(cmd *cobra.Command, opts *runOptions) (stress.Config, error) {
	if opts.configPath == "" {
		return opts.cfg, nil
	}
	cfg, err := stress.LoadConfig(opts.configPath)
	if err != nil {
		return stress.Config{}, err
	}
	f := cmd.Flags()
	for name, dst := range map[string]*int{
		"writers":     &cfg.Writers,
		"removers":    &cfg.Removers,
		"readers":     &cfg.Readers,
		"consumers":   &cfg.Consumers,
		"ops":         &cfg.OpsPerWorker,
		"clear-every": &cfg.ClearEvery,
	} {
		if f.Changed(name) {
			v, err := f.GetInt(name)
			if err != nil {
				return stress.Config{}, err
			}
			*dst = v
		}
	}
	if f.Changed("duration") {
		cfg.Duration = opts.cfg.Duration
	}
	return cfg, nil
}

// serveMetrics serves the metrics in reg over HTTP on addr and returns
// a function that shuts the server down.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot listen for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", lis.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("cannot write YAML: %w", err)
	}
	return enc.Close()
}
