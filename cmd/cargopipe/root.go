package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cargopipe/internal/config"
	"cargopipe/internal/entropy"
	"cargopipe/internal/logging"
	"cargopipe/internal/metrics"
	"cargopipe/internal/metrics/datadog"
	"cargopipe/internal/metrics/prompush"
)

// Version is set at build time.
var Version = "0.1.0"

// app holds the persistent flag values and what PersistentPreRunE builds
// from them.
type app struct {
	logLevel       string
	logFormat      string
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string
	seed           uint64
	seedSet        bool

	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cargopipe",
		Short: "Synthetic cargo data: generate, clean and filter",
		Long: `cargopipe generates batches of synthetic cargo records with controlled
defects, cleans them against strict validity rules under a time budget, and
filters record sets with a composite predicate.

Rows are written to stdout; logs and summaries go to stderr.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.NewWriter(cmd.ErrOrStderr(), a.logLevel, a.logFormat)
			if err != nil {
				return err
			}
			a.log = log
			a.seedSet = cmd.Flags().Changed("seed")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); env LOG_LEVEL")
	pf.StringVar(&a.logFormat, "log-format", logging.FormatJSON, "log format (json, console)")
	pf.StringVar(&a.metricsBackend, "metrics-backend", "", "metrics backend (none, pushgateway, datadog); env METRICS_BACKEND")
	pf.StringVar(&a.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL; env PUSHGATEWAY_URL")
	pf.StringVar(&a.datadogAddr, "datadog-addr", "", "DogStatsD address; env DD_AGENT_ADDR")
	pf.Uint64Var(&a.seed, "seed", 0, "seed for reproducible output (default: ambient randomness)")

	root.AddCommand(
		newGenerateCmd(a),
		newCleanCmd(a),
		newFilterCmd(a),
		newRunCmd(a),
		newBenchCmd(a),
		newValidateCmd(a),
	)
	return root
}

// source returns a seeded source when --seed was given, otherwise an
// ambient one.
func (a *app) source() entropy.Source {
	if a.seedSet {
		return entropy.New(a.seed)
	}
	return entropy.NewAmbient()
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// setupMetrics installs the metrics backend. Precedence is flag, then env,
// then the pipeline file, then the default. The returned func flushes the
// backend and must be called once the work is done.
func (a *app) setupMetrics(m config.Metrics, job string) func() {
	backendName := firstNonEmpty(a.metricsBackend, os.Getenv("METRICS_BACKEND"), m.Backend, config.BackendNone)

	var b metrics.Backend
	switch backendName {
	case config.BackendPushgateway:
		gwURL := firstNonEmpty(a.pushgatewayURL, os.Getenv("PUSHGATEWAY_URL"), m.PushgatewayURL, config.DefaultPushgatewayURL)
		pb, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			a.log.Warn("metrics: failed to init prom push backend; using nop", zap.Error(err))
			return func() {}
		}
		a.log.Info("metrics enabled", zap.String("backend", backendName), zap.String("url", gwURL), zap.String("job", job))
		b = pb

	case config.BackendDatadog:
		addr := firstNonEmpty(a.datadogAddr, os.Getenv("DD_AGENT_ADDR"), m.DatadogAddr, config.DefaultDatadogAddr)
		ns := firstNonEmpty(m.Namespace, config.DefaultNamespace)
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  ns + ".",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			a.log.Warn("metrics: failed to init datadog backend; using nop", zap.Error(err))
			return func() {}
		}
		a.log.Info("metrics enabled", zap.String("backend", backendName), zap.String("addr", addr), zap.String("job", job))
		b = db

	case config.BackendNone:
		a.log.Debug("metrics disabled")
		return func() {}

	default:
		a.log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", backendName))
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			a.log.Warn("metrics: flush error", zap.Error(err))
		}
	}
}

// printer formats grouped numbers for human summaries.
func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// openOutput returns w for "" or "-", otherwise a created file.
func openOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

// openInput returns r for "" or "-", otherwise an opened file.
func openInput(path string, r io.Reader) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return r, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, f.Close, nil
}
