// Package storage defines the sink that persists the vendor sales summary and
// a registry of backends. Backends register themselves in init; import
// vendorsummary/internal/storage/all to enable every built-in one.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vendorsummary/internal/failure"
	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

// Sink replaces a destination with a table. Replace is all-or-nothing: after
// a failure the previous destination content is left untouched.
type Sink interface {
	Replace(ctx context.Context, t table.Table) (int64, error)
	Close() error
}

// Config selects and parameterizes a sink.
type Config struct {
	Kind        string
	DSN         string // empty reuses Store when it is of the same kind
	Table       string
	Path        string // file sinks only
	Compression string // file sinks only

	// Store is the already open source store, if any.
	Store *store.Store
}

// Factory constructs a sink from configuration.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// again replaces the previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// New builds the sink for cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, failure.SinkWrite(nil, "unsupported sink.kind=%s", cfg.Kind)
	}
	cfg.Kind = kind
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OpenStore returns the store a database sink writes to and a func that
// releases it. The source store is shared when it matches the sink kind and
// no separate DSN is configured; closing a shared store is left to its owner.
func OpenStore(ctx context.Context, cfg Config) (*store.Store, func() error, error) {
	if cfg.DSN == "" && cfg.Store != nil && cfg.Store.Kind == cfg.Kind {
		return cfg.Store, func() error { return nil }, nil
	}
	if cfg.DSN == "" {
		return nil, nil, failure.SinkWrite(nil, "%s sink: no dsn and no %s source store to share", cfg.Kind, cfg.Kind)
	}
	st, err := store.Open(ctx, cfg.Kind, cfg.DSN)
	if err != nil {
		return nil, nil, failure.Rekind(failure.ErrSinkWrite, err)
	}
	return st, st.Close, nil
}

// BaseName returns the last segment of a possibly schema-qualified name.
func BaseName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Staging and retired table suffixes used by swap-based backends. Appending
// to a schema-qualified name keeps the table in the same schema.
const (
	StagingSuffix = "__staging"
	RetiredSuffix = "__retired"
)

// Check validates t before a backend touches the destination.
func Check(t table.Table) error {
	if err := t.Validate(); err != nil {
		return failure.SinkWrite(err, "table %s", t.Name)
	}
	return nil
}
