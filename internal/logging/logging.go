// Package logging builds the run logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vendorsummary/internal/config"
)

// Options tweak New beyond what the configuration file says.
type Options struct {
	// Mirror additionally writes every event to this writer, e.g. stderr
	// when running with -v.
	Mirror io.Writer
}

var levels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

// New returns a logger for cfg and a close func that syncs and closes the
// log file. The close func is never nil.
func New(cfg config.Logging, opts Options) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if !cfg.ToStderr() {
		f, err := openFile(cfg.File, cfg.AppendMode())
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		w = f
		closeFn = func() error {
			serr := f.Sync()
			if cerr := f.Close(); cerr != nil {
				return cerr
			}
			return serr
		}
	}
	if opts.Mirror != nil && w != opts.Mirror {
		w = zerolog.MultiLevelWriter(w, opts.Mirror)
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	case "json":
	default:
		_ = closeFn()
		return zerolog.Nop(), nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closeFn, nil
}

// ParseLevel maps debug, info, warn and error to zerolog levels.
func ParseLevel(s string) (zerolog.Level, error) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", s)
	}
	return l, nil
}

func openFile(path string, appendMode bool) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: create %s: %w", dir, err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	return f, nil
}
