// Package config defines the run configuration of the vendor summary job.
//
// A configuration file is JSON, or YAML when its name ends in .yaml or .yml.
// Field names are the same in both. Every field has a default, so running
// without a file reproduces the classic setup: read and write the SQLite
// database inventory.db, replace vendor_sales_summary, and log to
// logs/get_vendor_summary.log.
//
// Example (trimmed):
//
//	{
//	  "job":    "vendor_summary",
//	  "engine": "sql",
//	  "source": { "kind": "postgres", "dsn": "postgres://etl@db/inventory" },
//	  "sink":   { "kind": "parquet", "path": "out/vendor_sales_summary.parquet" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultJob         = "vendor_summary"
	DefaultEngine      = EngineMemory
	DefaultSourceKind  = "sqlite"
	DefaultSourceDSN   = "inventory.db"
	DefaultTable       = "vendor_sales_summary"
	DefaultLogFile     = "logs/get_vendor_summary.log"
	DefaultLogLevel    = "debug"
	DefaultLogFormat   = "text"
	DefaultPreviewRows = 5
)

// Engines.
const (
	// EngineMemory loads the source tables and aggregates in process.
	EngineMemory = "memory"
	// EngineSQL pushes aggregation and merge down to the store as one query.
	EngineSQL = "sql"
)

// Environment variables consulted for fields left empty by the file.
const (
	EnvSourceDSN      = "VENDOR_SUMMARY_DSN"
	EnvMetricsBackend = "METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogAddr    = "DD_AGENT_ADDR"
)

// Config is the top-level run configuration.
type Config struct {
	// Job labels metrics and log lines.
	Job string `json:"job" yaml:"job"`

	// Engine selects how aggregation and merge run: "memory" or "sql".
	Engine string `json:"engine" yaml:"engine"`

	Source  Source  `json:"source" yaml:"source"`
	Sink    Sink    `json:"sink" yaml:"sink"`
	Logging Logging `json:"logging" yaml:"logging"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
	Preview Preview `json:"preview" yaml:"preview"`
}

// Source is the store holding the inventory tables.
type Source struct {
	// Kind is one of sqlite, postgres, mssql, mysql, duckdb.
	Kind   string `json:"kind" yaml:"kind"`
	DSN    string `json:"dsn" yaml:"dsn"`
	Tables Tables `json:"tables" yaml:"tables"`
}

// Tables overrides source table names. Empty names keep the defaults.
type Tables struct {
	Purchases      string `json:"purchases" yaml:"purchases"`
	PurchasePrices string `json:"purchase_prices" yaml:"purchase_prices"`
	Sales          string `json:"sales" yaml:"sales"`
	VendorInvoice  string `json:"vendor_invoice" yaml:"vendor_invoice"`
}

// Sink is the destination of the summary table.
type Sink struct {
	// Kind is a database kind or "parquet". Defaults to the source kind.
	Kind string `json:"kind" yaml:"kind"`
	// DSN targets a separate database. Empty writes to the source store.
	DSN   string `json:"dsn" yaml:"dsn"`
	Table string `json:"table" yaml:"table"`

	// Path and Compression apply to the parquet sink.
	Path        string `json:"path" yaml:"path"`
	Compression string `json:"compression" yaml:"compression"`
}

// Logging configures the run log.
type Logging struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
	// File is the log file path; "stderr" logs to standard error.
	File string `json:"file" yaml:"file"`
	// Append keeps earlier runs in File. Defaults to true.
	Append *bool `json:"append" yaml:"append"`
}

// AppendMode reports whether the log file is opened for append.
func (l Logging) AppendMode() bool {
	return l.Append == nil || *l.Append
}

// ToStderr reports whether logs go to standard error instead of a file.
func (l Logging) ToStderr() bool {
	return strings.EqualFold(l.File, "stderr") || l.File == "-"
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is none, pushgateway or datadog.
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string `json:"namespace" yaml:"namespace"`
}

// Preview controls the table previews written to the log.
type Preview struct {
	// Rows is the number of rows shown; 0 uses the default and a negative
	// value disables previews.
	Rows int `json:"rows" yaml:"rows"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// Load reads path, fills empty fields from getenv and then from defaults.
// An empty path yields the defaults (plus environment). getenv may be nil.
func Load(path string, getenv func(string) string) (Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if c, err = Decode(data, IsYAML(path)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	c.ApplyEnv(getenv)
	c.ApplyDefaults()
	return c, nil
}

// IsYAML reports whether path names a YAML document.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Decode parses a JSON or YAML document. Unknown fields are rejected.
func Decode(data []byte, asYAML bool) (Config, error) {
	var c Config
	if asYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
		return c, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decode json: %w", err)
	}
	return c, nil
}

// ApplyEnv fills empty fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.TrimSpace(getenv(key))
		}
	}
	fill(&c.Source.DSN, EnvSourceDSN)
	fill(&c.Metrics.Backend, EnvMetricsBackend)
	fill(&c.Metrics.PushgatewayURL, EnvPushgatewayURL)
	fill(&c.Metrics.DatadogAddr, EnvDatadogAddr)
}

// ApplyDefaults fills every empty field with its default.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Job, DefaultJob)
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	setDefault(&c.Engine, DefaultEngine)

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	setDefault(&c.Source.Kind, DefaultSourceKind)
	if c.Source.Kind == DefaultSourceKind {
		setDefault(&c.Source.DSN, DefaultSourceDSN)
	}

	c.Sink.Kind = strings.ToLower(strings.TrimSpace(c.Sink.Kind))
	setDefault(&c.Sink.Kind, c.Source.Kind)
	setDefault(&c.Sink.Table, DefaultTable)

	setDefault(&c.Logging.Level, DefaultLogLevel)
	setDefault(&c.Logging.Format, DefaultLogFormat)
	setDefault(&c.Logging.File, DefaultLogFile)

	c.Metrics.Backend = strings.ToLower(strings.TrimSpace(c.Metrics.Backend))
	setDefault(&c.Metrics.Backend, "none")

	if c.Preview.Rows == 0 {
		c.Preview.Rows = DefaultPreviewRows
	}
}

func setDefault(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
