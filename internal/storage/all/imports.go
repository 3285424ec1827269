// Package all wires every built-in sink backend into the storage registry.
//
// Import it for side effects from the wiring layer:
//
//	import _ "vendorsummary/internal/storage/all"
//
// after which storage.New accepts the kinds "sqlite", "postgres", "mssql",
// "mysql", "parquet" and, in cgo builds, "duckdb".
package all

import (
	_ "vendorsummary/internal/storage/duckdb"
	_ "vendorsummary/internal/storage/mssql"
	_ "vendorsummary/internal/storage/mysql"
	_ "vendorsummary/internal/storage/parquet"
	_ "vendorsummary/internal/storage/postgres"
	_ "vendorsummary/internal/storage/sqlite"
)
