package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	if c.Source.Kind != "sqlite" || c.Source.DSN != "inventory.db" {
		t.Fatalf("source = %+v, want sqlite inventory.db", c.Source)
	}
	if c.Sink.Kind != "sqlite" || c.Sink.Table != "vendor_sales_summary" || c.Sink.DSN != "" {
		t.Fatalf("sink = %+v, want sqlite vendor_sales_summary on the source store", c.Sink)
	}
	if c.Engine != EngineMemory {
		t.Fatalf("engine = %q, want memory", c.Engine)
	}
	if c.Logging.File != "logs/get_vendor_summary.log" || c.Logging.Level != "debug" || !c.Logging.AppendMode() {
		t.Fatalf("logging = %+v", c.Logging)
	}
	if c.Preview.Rows != 5 || c.Metrics.Backend != "none" {
		t.Fatalf("preview/metrics = %+v / %+v", c.Preview, c.Metrics)
	}
	if issues := Validate(c); len(issues) != 0 {
		t.Fatalf("Validate(Default()) = %v, want none", issues)
	}
}

func TestDecode_JSONAndYAMLAgree(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "nightly",
	  "engine": "sql",
	  "source": {
	    "kind": "postgres",
	    "dsn": "postgres://etl@db/inventory",
	    "tables": { "purchases": "raw.purchases", "vendor_invoice": "raw.vendor_invoice" }
	  },
	  "sink": { "kind": "parquet", "path": "out/summary.parquet", "compression": "zstd" },
	  "logging": { "level": "info", "format": "json", "file": "stderr", "append": false },
	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://pgw:9091", "namespace": "inventory" },
	  "preview": { "rows": 10 }
	}`
	const yml = `
job: nightly
engine: sql
source:
  kind: postgres
  dsn: postgres://etl@db/inventory
  tables:
    purchases: raw.purchases
    vendor_invoice: raw.vendor_invoice
sink:
  kind: parquet
  path: out/summary.parquet
  compression: zstd
logging:
  level: info
  format: json
  file: stderr
  append: false
metrics:
  backend: pushgateway
  pushgateway_url: http://pgw:9091
  namespace: inventory
preview:
  rows: 10
`
	fromJSON, err := Decode([]byte(js), false)
	if err != nil {
		t.Fatalf("Decode(json): %v", err)
	}
	fromYAML, err := Decode([]byte(yml), true)
	if err != nil {
		t.Fatalf("Decode(yaml): %v", err)
	}

	for name, c := range map[string]Config{"json": fromJSON, "yaml": fromYAML} {
		if c.Job != "nightly" || c.Engine != "sql" {
			t.Fatalf("%s: job/engine = %q/%q", name, c.Job, c.Engine)
		}
		if c.Source.Tables.Purchases != "raw.purchases" || c.Source.Tables.Sales != "" {
			t.Fatalf("%s: tables = %+v", name, c.Source.Tables)
		}
		if c.Sink.Path != "out/summary.parquet" || c.Sink.Compression != "zstd" {
			t.Fatalf("%s: sink = %+v", name, c.Sink)
		}
		if c.Logging.AppendMode() || !c.Logging.ToStderr() {
			t.Fatalf("%s: logging = %+v", name, c.Logging)
		}
		if c.Metrics.Namespace != "inventory" || c.Preview.Rows != 10 {
			t.Fatalf("%s: metrics/preview = %+v / %+v", name, c.Metrics, c.Preview)
		}
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"sorce": {}}`), false); err == nil {
		t.Fatalf("json with unknown field decoded without error")
	}
	if _, err := Decode([]byte("sorce: {}\n"), true); err == nil {
		t.Fatalf("yaml with unknown field decoded without error")
	}
}

func TestLoad_EnvFillsOnlyEmptyFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "run.yml")
	if err := os.WriteFile(path, []byte("source:\n  kind: mysql\nmetrics:\n  pushgateway_url: http://file:9091\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		EnvSourceDSN:      "etl:pw@tcp(db:3306)/inventory",
		EnvMetricsBackend: "pushgateway",
		EnvPushgatewayURL: "http://env:9091",
	}

	c, err := Load(path, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Source.DSN != env[EnvSourceDSN] {
		t.Fatalf("source.dsn = %q, want env value", c.Source.DSN)
	}
	if c.Metrics.Backend != "pushgateway" {
		t.Fatalf("metrics.backend = %q", c.Metrics.Backend)
	}
	if c.Metrics.PushgatewayURL != "http://file:9091" {
		t.Fatalf("file value overridden by env: %q", c.Metrics.PushgatewayURL)
	}
	if c.Sink.Kind != "mysql" {
		t.Fatalf("sink.kind = %q, want source kind", c.Sink.Kind)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("Load error = %v", err)
	}
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	t.Parallel()

	c, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Source.DSN != DefaultSourceDSN {
		t.Fatalf("source.dsn = %q", c.Source.DSN)
	}
}

func TestIsYAML(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]bool{"a.yaml": true, "b.YML": true, "c.json": false, "d": false} {
		if got := IsYAML(path); got != want {
			t.Fatalf("IsYAML(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestSampleConfigs(t *testing.T) {
	t.Parallel()

	env := map[string]string{EnvSourceDSN: "postgres://etl@localhost/inventory"}
	for _, name := range []string{"vendor_summary.json", "vendor_summary_postgres.yaml"} {
		c, err := Load(filepath.Join("..", "..", "configs", name), func(k string) string { return env[k] })
		if err != nil {
			t.Fatalf("%s: Load: %v", name, err)
		}
		if issues := Validate(c); HasErrors(issues) {
			t.Fatalf("%s: Validate = %v", name, issues)
		}
	}
}
