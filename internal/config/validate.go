package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/microsoft/go-mssqldb/msdsn"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "sink.compression".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Known kinds.
var (
	StoreKinds       = []string{"sqlite", "postgres", "mssql", "mysql", "duckdb"}
	SinkKinds        = append(append([]string{}, StoreKinds...), "parquet")
	MetricsBackends  = []string{"none", "pushgateway", "datadog"}
	LogLevels        = []string{"debug", "info", "warn", "error"}
	LogFormats       = []string{"text", "json"}
	ParquetCodecs    = []string{"", "snappy", "zstd", "gzip", "none", "uncompressed"}
	Engines          = []string{EngineMemory, EngineSQL}
	noDSNStoreKinds  = map[string]bool{"duckdb": true}
	fileOnlySinkKind = "parquet"
)

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks on a configuration with defaults applied.
// It does not touch any store or file.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and log lines")
	}
	if !slices.Contains(Engines, c.Engine) {
		add(SeverityError, "engine", "unknown engine %q (want one of %s)", c.Engine, strings.Join(Engines, ", "))
	}

	// Source.
	if !slices.Contains(StoreKinds, c.Source.Kind) {
		add(SeverityError, "source.kind", "unknown store kind %q (want one of %s)", c.Source.Kind, strings.Join(StoreKinds, ", "))
	} else {
		if c.Source.DSN == "" && !noDSNStoreKinds[c.Source.Kind] {
			add(SeverityError, "source.dsn", "%s source requires a dsn (or set %s)", c.Source.Kind, EnvSourceDSN)
		}
		issues = append(issues, validateDSN("source.dsn", c.Source.Kind, c.Source.DSN)...)
	}
	for path, name := range map[string]string{
		"source.tables.purchases":       c.Source.Tables.Purchases,
		"source.tables.purchase_prices": c.Source.Tables.PurchasePrices,
		"source.tables.sales":           c.Source.Tables.Sales,
		"source.tables.vendor_invoice":  c.Source.Tables.VendorInvoice,
	} {
		if name != "" && strings.TrimSpace(name) != name {
			add(SeverityError, path, "table name %q has surrounding whitespace", name)
		}
	}

	// Sink.
	switch {
	case !slices.Contains(SinkKinds, c.Sink.Kind):
		add(SeverityError, "sink.kind", "unknown sink kind %q (want one of %s)", c.Sink.Kind, strings.Join(SinkKinds, ", "))
	case c.Sink.Kind == fileOnlySinkKind:
		if c.Sink.DSN != "" {
			add(SeverityWarning, "sink.dsn", "ignored by the parquet sink")
		}
		if !slices.Contains(ParquetCodecs, strings.ToLower(c.Sink.Compression)) {
			add(SeverityError, "sink.compression", "unknown compression %q", c.Sink.Compression)
		}
	default:
		if c.Sink.DSN == "" && c.Sink.Kind != c.Source.Kind {
			add(SeverityError, "sink.dsn", "sink kind %s differs from source kind %s, so a sink dsn is required", c.Sink.Kind, c.Source.Kind)
		}
		issues = append(issues, validateDSN("sink.dsn", c.Sink.Kind, c.Sink.DSN)...)
		if c.Sink.Path != "" || c.Sink.Compression != "" {
			add(SeverityWarning, "sink.path", "path and compression only apply to the parquet sink")
		}
	}
	if strings.TrimSpace(c.Sink.Table) == "" {
		add(SeverityError, "sink.table", "sink.table must not be empty")
	}

	// Logging.
	if !slices.Contains(LogLevels, strings.ToLower(c.Logging.Level)) {
		add(SeverityError, "logging.level", "unknown level %q (want one of %s)", c.Logging.Level, strings.Join(LogLevels, ", "))
	}
	if !slices.Contains(LogFormats, strings.ToLower(c.Logging.Format)) {
		add(SeverityError, "logging.format", "unknown format %q (want one of %s)", c.Logging.Format, strings.Join(LogFormats, ", "))
	}

	// Metrics.
	switch c.Metrics.Backend {
	case "none":
	case "pushgateway":
		if c.Metrics.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL (or set %s)", EnvPushgatewayURL)
		} else if u, err := url.Parse(c.Metrics.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			add(SeverityError, "metrics.pushgateway_url", "invalid URL %q", c.Metrics.PushgatewayURL)
		}
	case "datadog":
		if c.Metrics.DatadogAddr == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog backend requires an agent address (or set %s)", EnvDatadogAddr)
		}
	default:
		add(SeverityWarning, "metrics.backend", "unknown backend %q; metrics disabled", c.Metrics.Backend)
	}

	if c.Preview.Rows < -1 {
		add(SeverityWarning, "preview.rows", "negative values disable previews; use -1")
	}
	return issues
}

// validateDSN applies cheap, offline syntax checks for kinds whose DSN has a
// parseable shape.
func validateDSN(path, kind, dsn string) []Issue {
	if dsn == "" {
		return nil
	}
	switch kind {
	case "mssql":
		if _, err := msdsn.Parse(dsn); err != nil {
			return []Issue{{Severity: SeverityError, Path: path, Message: fmt.Sprintf("invalid mssql dsn: %v", err)}}
		}
	case "postgres":
		if strings.Contains(dsn, "://") {
			if _, err := url.Parse(dsn); err != nil {
				return []Issue{{Severity: SeverityError, Path: path, Message: fmt.Sprintf("invalid postgres url: %v", err)}}
			}
		}
	}
	return nil
}
