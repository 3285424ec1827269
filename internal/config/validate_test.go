package config

import (
	"strings"
	"testing"
)

func findIssue(issues []Issue, path string) (Issue, bool) {
	for _, iss := range issues {
		if iss.Path == path {
			return iss, true
		}
	}
	return Issue{}, false
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		path     string
		severity IssueSeverity
	}{
		{"unknown engine", func(c *Config) { c.Engine = "spark" }, "engine", SeverityError},
		{"unknown store", func(c *Config) { c.Source.Kind = "oracle" }, "source.kind", SeverityError},
		{"postgres without dsn", func(c *Config) { c.Source.Kind = "postgres"; c.Source.DSN = "" }, "source.dsn", SeverityError},
		{"bad mssql dsn", func(c *Config) { c.Source.Kind = "mssql"; c.Source.DSN = "sqlserver://%zz"; c.Sink.Kind = "mssql" }, "source.dsn", SeverityError},
		{"sink kind without dsn", func(c *Config) { c.Sink.Kind = "postgres" }, "sink.dsn", SeverityError},
		{"unknown sink", func(c *Config) { c.Sink.Kind = "csv" }, "sink.kind", SeverityError},
		{"bad compression", func(c *Config) { c.Sink.Kind = "parquet"; c.Sink.Compression = "lzo" }, "sink.compression", SeverityError},
		{"parquet dsn ignored", func(c *Config) { c.Sink.Kind = "parquet"; c.Sink.DSN = "x" }, "sink.dsn", SeverityWarning},
		{"path on db sink", func(c *Config) { c.Sink.Path = "x.parquet" }, "sink.path", SeverityWarning},
		{"empty table", func(c *Config) { c.Sink.Table = " " }, "sink.table", SeverityError},
		{"padded source table", func(c *Config) { c.Source.Tables.Sales = " sales" }, "source.tables.sales", SeverityError},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level", SeverityError},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format", SeverityError},
		{"pushgateway without url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, "metrics.pushgateway_url", SeverityError},
		{"pushgateway bad url", func(c *Config) { c.Metrics.Backend = "pushgateway"; c.Metrics.PushgatewayURL = "pgw:9091" }, "metrics.pushgateway_url", SeverityError},
		{"datadog without addr", func(c *Config) { c.Metrics.Backend = "datadog" }, "metrics.datadog_addr", SeverityError},
		{"unknown metrics backend", func(c *Config) { c.Metrics.Backend = "statsd" }, "metrics.backend", SeverityWarning},
		{"odd preview", func(c *Config) { c.Preview.Rows = -3 }, "preview.rows", SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := Default()
			tt.mutate(&c)
			issues := Validate(c)
			iss, ok := findIssue(issues, tt.path)
			if !ok {
				t.Fatalf("no issue at %s; got %v", tt.path, issues)
			}
			if iss.Severity != tt.severity {
				t.Fatalf("severity at %s = %s, want %s", tt.path, iss.Severity, tt.severity)
			}
			if HasErrors(issues) != (tt.severity == SeverityError) {
				t.Fatalf("HasErrors = %v for %v", HasErrors(issues), issues)
			}
		})
	}
}

func TestValidate_DuckDBNeedsNoDSN(t *testing.T) {
	t.Parallel()

	c := Default()
	c.Source.Kind, c.Source.DSN, c.Sink.Kind = "duckdb", "", "duckdb"
	if issues := Validate(c); len(issues) != 0 {
		t.Fatalf("Validate = %v, want none", issues)
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	err := Issue{Severity: SeverityError, Path: "sink.kind", Message: "bad"}.Error()
	if !strings.HasPrefix(err, "error at sink.kind") {
		t.Fatalf("Error() = %q", err)
	}
}
