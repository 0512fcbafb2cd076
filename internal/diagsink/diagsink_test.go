package diagsink

import (
	"testing"

	"a68front/internal/diag"
)

func TestOpenCreatesDiagnosticsTable(t *testing.T) {
	e, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	row := e.db.QueryRow(`SELECT count(*) FROM diagnostics`)
	var n int
	if err := row.Scan(&n); err != nil {
		t.Fatalf("diagnostics table was not created: %v", err)
	}
	if n != 0 {
		t.Errorf("fresh table has %d rows, want 0", n)
	}
}

func TestExportInsertsOneRowPerDiagnostic(t *testing.T) {
	e, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	sink := diag.NewSink()
	sink.Add(diag.Diagnostic{Severity: diag.Error, File: "t.a68", Line: 3, Column: 1, Message: "undeclared identifier %q", Args: []interface{}{"x"}})
	sink.Add(diag.Diagnostic{Severity: diag.Warning, File: "t.a68", Line: 5, Column: 1, Message: "unused tag"})

	if err := e.Export("run-1", sink); err != nil {
		t.Fatalf("Export: %v", err)
	}

	row := e.db.QueryRow(`SELECT count(*) FROM diagnostics WHERE run_id = ?`, "run-1")
	var n int
	if err := row.Scan(&n); err != nil {
		t.Fatalf("querying exported rows: %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d rows, want 2", n)
	}
}

func TestExportAccumulatesAcrossRuns(t *testing.T) {
	e, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	sink := diag.NewSink()
	sink.Add(diag.Diagnostic{Severity: diag.Error, File: "t.a68", Line: 1, Column: 1, Message: "boom"})

	if err := e.Export("run-1", sink); err != nil {
		t.Fatalf("Export run-1: %v", err)
	}
	if err := e.Export("run-2", sink); err != nil {
		t.Fatalf("Export run-2: %v", err)
	}

	row := e.db.QueryRow(`SELECT count(*) FROM diagnostics`)
	var n int
	if err := row.Scan(&n); err != nil {
		t.Fatalf("counting all rows: %v", err)
	}
	if n != 2 {
		t.Errorf("two exports of one diagnostic each left %d rows, want 2", n)
	}
}
