package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"sessions", "runs", "expansions", "diagnostics"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	_ = s.Close()
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	for _, p := range pragmas {
		t.Run(p.name, func(t *testing.T) {
			if err := s.verifyPragma(p.name, p.want); err != nil {
				t.Error(err)
			}
		})
	}
	if err := s.verifyPragma("user_version", strconv.Itoa(schemaVersion)); err != nil {
		t.Error(err)
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_RejectsCounterBehindRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()
	if err := s.CreateSession(ctx, Session{ID: "s1", ToolVersion: "0.0.0"}); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if _, err := s.RecordRun(ctx, createTestRun("s1", 1, 0, "A")); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	// A run recorded outside RecordRun leaves next_impl behind.
	if _, err := s.db.Exec(`
		INSERT INTO runs (session_id, run, start_impl, end_impl, policy)
		VALUES ('s1', 2, 1, 4, 'auto')
	`); err != nil {
		t.Fatalf("insert run: %v", err)
	}
	s.Close()

	_, err = Open(path)
	if !errors.Is(err, ErrCounterBehind) {
		t.Fatalf("Open() error = %v, want ErrCounterBehind", err)
	}
	if !strings.Contains(err.Error(), `session "s1"`) {
		t.Errorf("error does not name the session: %v", err)
	}
}

// Schema tests

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"sessions":    {"id", "start_impl", "next_impl", "tool_version"},
		"runs":        {"session_id", "run", "start_impl", "end_impl", "policy"},
		"expansions":  {"id", "session_id", "run", "seq", "construct", "kind", "namespace", "status", "output_hash", "source"},
		"diagnostics": {"id", "session_id", "run", "seq", "ordinal", "severity", "code", "message", "file", "line", "col"},
	}
	for table, expected := range tests {
		columns := getTableColumns(t, s.db, table)
		for _, col := range expected {
			if !slices.Contains(columns, col) {
				t.Errorf("%s table missing column %q", table, col)
			}
		}
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	if idx := getTableIndexes(t, s.db, "expansions"); !slices.Contains(idx, "idx_expansions_session") {
		t.Errorf("expansions table missing index idx_expansions_session, got %v", idx)
	}
	idx := getTableIndexes(t, s.db, "diagnostics")
	for _, name := range []string{"idx_diagnostics_session", "idx_diagnostics_code"} {
		if !slices.Contains(idx, name) {
			t.Errorf("diagnostics table missing index %q", name)
		}
	}
}

// Constraint tests

func TestConstraint_ExpansionStatus(t *testing.T) {
	s := createTestStore(t)
	seedRun(t, s, "s1", 1)

	_, err := s.db.Exec(`
		INSERT INTO expansions (session_id, run, seq, construct, kind, status)
		VALUES ('s1', 1, 0, 'Foo', 'struct', 'maybe')
	`)
	if err == nil {
		t.Error("expected CHECK constraint violation for unknown status")
	}
}

func TestConstraint_ExpansionRequiresRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO expansions (session_id, run, seq, construct, kind, status)
		VALUES ('missing', 1, 0, 'Foo', 'struct', 'ok')
	`)
	if err == nil {
		t.Error("expected foreign key violation for expansion without run")
	}
}

func TestConstraint_SessionCounterMonotonic(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, start_impl, next_impl, tool_version)
		VALUES ('bad', 5, 2, '0.0.0')
	`)
	if err == nil {
		t.Error("expected CHECK constraint violation for next_impl < start_impl")
	}
}

func TestConstraint_CounterNeverDecreases(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.CreateSession(ctx, Session{ID: "s1", StartImpl: 3, ToolVersion: "0.0.0"}); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	if _, err := s.db.Exec("UPDATE sessions SET next_impl = 5 WHERE id = 's1'"); err != nil {
		t.Fatalf("advancing next_impl failed: %v", err)
	}
	if _, err := s.db.Exec("UPDATE sessions SET next_impl = 4 WHERE id = 's1'"); err == nil {
		t.Error("expected trigger to reject a decreasing next_impl")
	}
}

func TestConstraint_RunRangeOrdered(t *testing.T) {
	s := createTestStore(t)
	if err := s.CreateSession(context.Background(), Session{ID: "s1", ToolVersion: "0.0.0"}); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (session_id, run, start_impl, end_impl, policy)
		VALUES ('s1', 1, 4, 2, 'auto')
	`)
	if err == nil {
		t.Error("expected trigger to reject end_impl < start_impl")
	}
}

func TestMigration_FromVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	for _, stmt := range []string{
		"DROP INDEX idx_diagnostics_code",
		"DROP TRIGGER sessions_next_impl_monotonic",
		"DROP TRIGGER runs_range_ordered",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	if _, err := s.db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("reset user_version: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("user_version", strconv.Itoa(schemaVersion)); err != nil {
		t.Error(err)
	}
	if idx := getTableIndexes(t, s.db, "diagnostics"); !slices.Contains(idx, "idx_diagnostics_code") {
		t.Error("migration did not recreate idx_diagnostics_code")
	}
	for _, trigger := range []string{"sessions_next_impl_monotonic", "runs_range_ordered"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='trigger' AND name=?", trigger).Scan(&name)
		if err != nil {
			t.Errorf("migration did not recreate trigger %q: %v", trigger, err)
		}
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
