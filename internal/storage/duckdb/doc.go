// Package duckdb persists the summary into DuckDB. Rows go through the
// DuckDB appender into a staging table, which then replaces the destination
// inside one transaction.
//
// The backend needs cgo. In builds without it the package is empty and the
// "duckdb" sink kind is not registered.
package duckdb
