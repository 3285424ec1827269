// Package failure defines the error kinds a vendor summary run can end with.
//
// Every fatal error surfaced by the run wraps exactly one of the sentinel
// kinds below, so callers can classify with errors.Is (or Kind) while still
// reading the full cause chain in the message.
package failure

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable: the store cannot be opened or a source table is missing.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch: an expected column is absent from a source table or an
	// intermediate result, or holds a value of the wrong type.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrSinkWrite: the destination could not be replaced.
	ErrSinkWrite = errors.New("sink write failure")
)

// kindError pairs a sentinel kind with the underlying cause.
type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("%s: %v", e.kind, e.err)
	}
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Wrap annotates err with kind and a formatted message. err may be nil, in
// which case the message alone describes the failure.
func Wrap(kind error, err error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// SourceUnavailable is shorthand for Wrap(ErrSourceUnavailable, ...).
func SourceUnavailable(err error, format string, args ...any) error {
	return Wrap(ErrSourceUnavailable, err, format, args...)
}

// SchemaMismatch is shorthand for Wrap(ErrSchemaMismatch, ...).
func SchemaMismatch(err error, format string, args ...any) error {
	return Wrap(ErrSchemaMismatch, err, format, args...)
}

// SinkWrite is shorthand for Wrap(ErrSinkWrite, ...).
func SinkWrite(err error, format string, args ...any) error {
	return Wrap(ErrSinkWrite, err, format, args...)
}

// Rekind relabels err with kind. When err already carries a kind, its
// message and cause are kept and the old kind is dropped, so Kind reports
// only the new one.
func Rekind(kind error, err error) error {
	if err == nil {
		return nil
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return &kindError{kind: kind, msg: ke.msg, err: ke.err}
	}
	return &kindError{kind: kind, err: err}
}

// Kind returns a short label for the kind wrapped by err, or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrSinkWrite):
		return "sink_write"
	default:
		return "unknown"
	}
}
