package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedRun creates a session and an empty run so rows referencing it can be inserted.
func seedRun(t *testing.T, s *Store, sessionID string, run int64) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateSession(ctx, Session{ID: sessionID, ToolVersion: "0.0.0"}); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if _, err := s.RecordRun(ctx, RunRecord{Run: Run{SessionID: sessionID, Run: run, Policy: "auto"}}); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
}

// createTestRun builds a run record with one ok expansion per construct name
// and a warning on the first one.
func createTestRun(sessionID string, run int64, start int64, constructs ...string) RunRecord {
	rec := RunRecord{
		Run: Run{
			SessionID: sessionID,
			Run:       run,
			StartImpl: start,
			EndImpl:   start + int64(len(constructs)),
			Policy:    "auto",
		},
	}
	for i, name := range constructs {
		rec.Expansions = append(rec.Expansions, Expansion{
			Seq:        int64(i),
			Construct:  name,
			Kind:       "impl",
			Namespace:  fmt.Sprintf("__impl%d", start+int64(i)),
			Status:     StatusOK,
			OutputHash: "hash-" + name,
			Source:     "impl " + name + " {}\n",
		})
	}
	if len(constructs) > 0 {
		rec.Diagnostics = append(rec.Diagnostics, Diagnostic{
			Seq:      0,
			Ordinal:  0,
			Severity: SeverityWarning,
			Code:     "W210",
			Message:  "lint attribute dropped",
			File:     "specs.cue",
			Line:     3,
			Col:      5,
		})
	}
	return rec
}
