package store

import (
	"fmt"
	"strings"

	"vendorsummary/internal/table"
)

// Dialect captures the SQL differences between supported stores.
type Dialect struct {
	Kind string

	quoteOpen  string
	quoteClose string
	escape     func(string) string

	placeholder func(i int) string
	types       map[table.Kind]string
}

// Ident quotes a single identifier segment.
func (d Dialect) Ident(id string) string {
	return d.quoteOpen + d.escape(id) + d.quoteClose
}

// FQN quotes a possibly schema-qualified name like "dbo.sales".
func (d Dialect) FQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Ident(p)
	}
	return strings.Join(parts, ".")
}

// Idents quotes each name.
func (d Dialect) Idents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = d.Ident(n)
	}
	return out
}

// Placeholder returns the bind marker for the i-th (1-based) argument.
func (d Dialect) Placeholder(i int) string {
	return d.placeholder(i)
}

// Placeholders returns n comma-separated bind markers starting at start.
func (d Dialect) Placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.placeholder(start + i)
	}
	return strings.Join(ps, ", ")
}

// SQLType maps a logical column kind to the store's column type.
func (d Dialect) SQLType(k table.Kind) string {
	if t, ok := d.types[k]; ok {
		return t
	}
	return d.types[table.KindText]
}

// CreateTableSQL renders CREATE TABLE for the given columns.
func (d Dialect) CreateTableSQL(name string, cols []table.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", d.Ident(c.Name), d.SQLType(c.Kind))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.FQN(name), strings.Join(defs, ", "))
}

// ZeroRowSelect renders a query that returns a table's columns and no rows.
func (d Dialect) ZeroRowSelect(name string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", d.FQN(name))
}

func doubleQuote(s string) string { return strings.ReplaceAll(s, `"`, `""`) }
func backtick(s string) string { return strings.ReplaceAll(s, "`", "``") }
func closeBracket(s string) string { return strings.ReplaceAll(s, `]`, `]]`) }
func questionMark(int) string { return "?" }
func dollarN(i int) string { return fmt.Sprintf("$%d", i) }
func atP(i int) string { return fmt.Sprintf("@p%d", i) }

var dialects = map[string]Dialect{
	KindSQLite: {
		Kind: KindSQLite, quoteOpen: `"`, quoteClose: `"`, escape: doubleQuote, placeholder: questionMark,
		types: map[table.Kind]string{table.KindText: "TEXT", table.KindInt: "INTEGER", table.KindFloat: "REAL"},
	},
	KindPostgres: {
		Kind: KindPostgres, quoteOpen: `"`, quoteClose: `"`, escape: doubleQuote, placeholder: dollarN,
		types: map[table.Kind]string{table.KindText: "TEXT", table.KindInt: "BIGINT", table.KindFloat: "DOUBLE PRECISION"},
	},
	KindMSSQL: {
		Kind: KindMSSQL, quoteOpen: `[`, quoteClose: `]`, escape: closeBracket, placeholder: atP,
		types: map[table.Kind]string{table.KindText: "NVARCHAR(4000)", table.KindInt: "BIGINT", table.KindFloat: "FLOAT"},
	},
	KindMySQL: {
		Kind: KindMySQL, quoteOpen: "`", quoteClose: "`", escape: backtick, placeholder: questionMark,
		types: map[table.Kind]string{table.KindText: "TEXT", table.KindInt: "BIGINT", table.KindFloat: "DOUBLE"},
	},
	KindDuckDB: {
		Kind: KindDuckDB, quoteOpen: `"`, quoteClose: `"`, escape: doubleQuote, placeholder: questionMark,
		types: map[table.Kind]string{table.KindText: "VARCHAR", table.KindInt: "BIGINT", table.KindFloat: "DOUBLE"},
	},
}

// DialectFor returns the dialect for a store kind.
func DialectFor(kind string) (Dialect, error) {
	d, ok := dialects[kind]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported store kind %q", kind)
	}
	return d, nil
}
