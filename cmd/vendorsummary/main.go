package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vendorsummary/internal/config"
	"vendorsummary/internal/failure"
	"vendorsummary/internal/logging"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/metrics/datadog"
	"vendorsummary/internal/metrics/prompush"

	// sink backends register themselves with storage.New; sink.kind picks one.
	_ "vendorsummary/internal/storage/all"
)

// Exit codes. Each failure kind gets its own so schedulers can tell a
// missing database from a bad schema or a failed write.
const (
	exitOK = iota
	exitConfig
	exitSourceUnavailable
	exitSchemaMismatch
	exitSinkWrite
	exitUnknown
)

// main is the entry point for the vendor summary job. It loads the run
// config, sets up logging and an optional metrics backend, and refreshes the
// vendor sales summary table.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		engineFlg         string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "run config path (.json, .yaml or .yml); empty uses defaults")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use: none, pushgateway or datadog (overrides config and env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides config and env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address host:port (overrides config and env DD_AGENT_ADDR)")
	flag.StringVar(&engineFlg, "engine", "", "aggregation engine: memory or sql (overrides config)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "also write logs to stderr")

	flag.Parse()

	os.Exit(realMain(cfgPath, overrides{
		metricsBackend: metricsBackendFlg,
		pushgatewayURL: pushGatewayURLFlg,
		datadogAddr:    datadogAddrFlg,
		engine:         engineFlg,
	}, validate, *verbose))
}

// overrides are flag values that win over the config file and environment.
type overrides struct {
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string
	engine         string
}

func (o overrides) apply(c *config.Config) {
	if o.metricsBackend != "" {
		c.Metrics.Backend = o.metricsBackend
	}
	if o.pushgatewayURL != "" {
		c.Metrics.PushgatewayURL = o.pushgatewayURL
	}
	if o.datadogAddr != "" {
		c.Metrics.DatadogAddr = o.datadogAddr
	}
	if o.engine != "" {
		c.Engine = o.engine
	}
}

func realMain(cfgPath string, ov overrides, validateOnly, verbose bool) int {
	cfg, err := config.Load(cfgPath, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitConfig
	}
	ov.apply(&cfg)
	cfg.ApplyDefaults()

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", displayPath(cfgPath))
		return exitConfig
	}
	if validateOnly {
		log.Printf("Configuration is valid: %v", displayPath(cfgPath))
		return exitOK
	}

	var mirror io.Writer
	if verbose {
		mirror = os.Stderr
	}
	logger, closeLog, err := logging.New(cfg.Logging, logging.Options{Mirror: mirror})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		return exitConfig
	}
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "close log: %v\n", err)
		}
	}()

	backend, err := newMetricsBackend(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("backend", cfg.Metrics.Backend).Msg("metrics: backend init failed; using nop")
		backend = metrics.Nop{}
	}
	rec := metrics.NewRecorder(cfg.Job, backend)
	defer func() {
		if err := rec.Flush(); err != nil {
			logger.Warn().Err(err).Str("backend", cfg.Metrics.Backend).Msg("metrics: flush error")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := newRunner(cfg, logger, rec).run(ctx); err != nil {
		kind := failure.Kind(err)
		logger.Error().Err(err).Str("kind", kind).Msg("run failed")
		if !verbose && !cfg.Logging.ToStderr() {
			fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
		}
		return exitCode(kind)
	}
	return exitOK
}

// newMetricsBackend builds the backend named by cfg.Metrics.Backend. Unknown
// names fall back to nop; Validate already warned about them.
func newMetricsBackend(cfg config.Config) (metrics.Backend, error) {
	switch cfg.Metrics.Backend {
	case "pushgateway":
		return prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL, cfg.Metrics.Namespace)
	case "datadog":
		return datadog.NewBackend(datadog.Config{
			Addr:      cfg.Metrics.DatadogAddr,
			Namespace: cfg.Metrics.Namespace,
		})
	default:
		return metrics.Nop{}, nil
	}
}

func exitCode(kind string) int {
	switch kind {
	case "":
		return exitOK
	case "source_unavailable":
		return exitSourceUnavailable
	case "schema_mismatch":
		return exitSchemaMismatch
	case "sink_write":
		return exitSinkWrite
	default:
		return exitUnknown
	}
}

func displayPath(p string) string {
	if p == "" {
		return "(defaults)"
	}
	return p
}
