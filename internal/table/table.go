// Package table describes a storage-neutral tabular result: ordered typed
// columns and positional row values. Storage backends map the column kinds to
// their own SQL types.
package table

import "fmt"

// Kind is the logical type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a named, typed destination column.
type Column struct {
	Name string
	Kind Kind
}

// Table is a fully materialized result. Row values are aligned with Columns
// and hold string, int64 or float64 according to the column kind.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Validate checks that every row matches the column count and that each value
// has the Go type its column kind requires.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table: name must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s: row %d has %d values, want %d", t.Name, i, len(row), len(t.Columns))
		}
		for j, v := range row {
			if !kindAccepts(t.Columns[j].Kind, v) {
				return fmt.Errorf("table %s: row %d column %s: %T is not %s", t.Name, i, t.Columns[j].Name, v, t.Columns[j].Kind)
			}
		}
	}
	return nil
}

func kindAccepts(k Kind, v any) bool {
	switch k {
	case KindText:
		_, ok := v.(string)
		return ok
	case KindInt:
		_, ok := v.(int64)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	}
	return false
}
