// Package database provides the reference-counted SQL engine behind
// SQL-backed subjects.
//
// An Engine wraps a database/sql pool opened with retry. Subjects that share
// a table share the engine; each holder calls Retain and Release, and the pool
// closes when the last holder releases it.
//
// Supported drivers are registered by this package:
//
//   - sqlite   (modernc.org/sqlite, pure Go)
//   - postgres (github.com/lib/pq)
//   - pgx      (github.com/jackc/pgx/v5/stdlib)
//   - mysql    (github.com/go-sql-driver/mysql)
//
// # Quick Start
//
//	eng, err := database.Open(ctx, database.Config{Driver: "sqlite", DSN: "file:flow.db"})
//	if err != nil {
//	    return err
//	}
//	defer eng.Release()
package database
