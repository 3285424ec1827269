// Package parquet exports the summary as a Parquet file. The file is written
// next to its destination under a temporary name and renamed into place, so
// an existing export is only replaced by a complete one.
package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/table"
)

// Kind is the sink kind this package registers.
const Kind = "parquet"

// Sink is the Parquet file storage.Sink.
type Sink struct {
	path  string
	codec compress.Codec
	table string
}

var _ storage.Sink = (*Sink)(nil)

func init() {
	storage.Register(Kind, func(_ context.Context, cfg storage.Config) (storage.Sink, error) {
		return New(cfg)
	})
}

// New builds a Sink from cfg.Path and cfg.Compression. An empty path writes
// <table>.parquet in the working directory.
func New(cfg storage.Config) (*Sink, error) {
	codec, err := Codec(cfg.Compression)
	if err != nil {
		return nil, failure.SinkWrite(err, "parquet")
	}
	return &Sink{path: cfg.Path, codec: codec, table: cfg.Table}, nil
}

// Codecs lists the accepted compression names.
var Codecs = []string{"snappy", "zstd", "gzip", "none"}

// Codec maps a compression name to a codec. Empty means snappy.
func Codec(name string) (compress.Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return &parquet.Snappy, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "none", "uncompressed":
		return &parquet.Uncompressed, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q (want one of %s)", name, strings.Join(Codecs, ", "))
	}
}

// Replace writes t to the sink path.
func (s *Sink) Replace(ctx context.Context, t table.Table) (int64, error) {
	if err := storage.Check(t); err != nil {
		return 0, err
	}
	name := storage.TargetName(s.table, t)
	path := s.path
	if path == "" {
		path = name + ".parquet"
	}
	if err := ctx.Err(); err != nil {
		return 0, failure.SinkWrite(err, "parquet: %s", path)
	}
	n, err := writeFile(path, name, t, s.codec)
	if err != nil {
		return 0, failure.SinkWrite(err, "parquet: %s", path)
	}
	return n, nil
}

// Schema builds the Parquet schema for t's columns. Every column is required.
func Schema(name string, cols []table.Column) *parquet.Schema {
	g := parquet.Group{}
	for _, c := range cols {
		switch c.Kind {
		case table.KindInt:
			g[c.Name] = parquet.Int(64)
		case table.KindFloat:
			g[c.Name] = parquet.Leaf(parquet.DoubleType)
		default:
			g[c.Name] = parquet.String()
		}
	}
	return parquet.NewSchema(name, g)
}

func writeFile(path, name string, t table.Table, codec compress.Codec) (n int64, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	schema := Schema(name, t.Columns)
	// Group fields are stored sorted by name; map each table column to its
	// leaf position.
	leaf := make([]int, len(t.Columns))
	for j, c := range t.Columns {
		lc, ok := schema.Lookup(c.Name)
		if !ok {
			return 0, fmt.Errorf("column %s missing from schema", c.Name)
		}
		leaf[j] = lc.ColumnIndex
	}

	rows := make([]parquet.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(parquet.Row, len(t.Columns))
		for j, v := range r {
			row[leaf[j]] = parquet.ValueOf(v).Level(0, 0, leaf[j])
		}
		rows[i] = row
	}

	w := parquet.NewWriter(f, schema, parquet.Compression(codec))
	if _, err := w.WriteRows(rows); err != nil {
		return 0, fmt.Errorf("write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close writer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// Close is a no-op; files are closed by Replace.
func (s *Sink) Close() error { return nil }
