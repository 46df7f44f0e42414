package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSession inserts a session row.
// Uses ON CONFLICT(id) DO NOTHING so creating an existing session is a no-op
// and keeps the stored counter.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	if sess.NextImpl < sess.StartImpl {
		sess.NextImpl = sess.StartImpl
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, start_impl, next_impl, tool_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.StartImpl,
		sess.NextImpl,
		sess.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateNextImpl advances the stored counter of a session.
// The counter never moves backwards: a smaller value leaves the row as is.
func (s *Store) UpdateNextImpl(ctx context.Context, sessionID string, next int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET next_impl = MAX(next_impl, ?)
		WHERE id = ?
	`, next, sessionID)
	if err != nil {
		return fmt.Errorf("update next impl: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update next impl: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update next impl %q: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// RecordRun writes a run with its expansions and diagnostics and advances the
// session counter to the run's EndImpl, all in one transaction.
//
// Returns inserted=false if the run already existed. In that case nothing is
// written, which makes recording the same run twice safe after a crash.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback()

	run := rec.Run

	// Claim the run slot first; the primary key makes this the idempotency point.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(session_id, run, start_impl, end_impl, policy)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, run) DO NOTHING
	`,
		run.SessionID,
		run.Run,
		run.StartImpl,
		run.EndImpl,
		run.Policy,
	)
	if err != nil {
		return false, fmt.Errorf("record run: insert run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("record run: commit (existing): %w", err)
		}
		return false, nil
	}

	for _, exp := range rec.Expansions {
		if err := insertExpansion(ctx, tx, run, exp); err != nil {
			return false, fmt.Errorf("record run: %w", err)
		}
	}
	for _, d := range rec.Diagnostics {
		if err := insertDiagnostic(ctx, tx, run, d); err != nil {
			return false, fmt.Errorf("record run: %w", err)
		}
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE sessions SET next_impl = MAX(next_impl, ?)
		WHERE id = ?
	`, run.EndImpl, run.SessionID)
	if err != nil {
		return false, fmt.Errorf("record run: advance counter: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return false, fmt.Errorf("record run: rows affected: %w", err)
	} else if n == 0 {
		return false, fmt.Errorf("record run %q: %w", run.SessionID, ErrSessionNotFound)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("record run: commit: %w", err)
	}
	return true, nil
}

// NextRun returns the run number to use for the next run of a session.
func (s *Store) NextRun(ctx context.Context, sessionID string) (int64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(run) FROM runs WHERE session_id = ?
	`, sessionID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("next run: %w", err)
	}
	if !last.Valid {
		return 1, nil
	}
	return last.Int64 + 1, nil
}

func insertExpansion(ctx context.Context, tx *sql.Tx, run Run, exp Expansion) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO expansions
		(session_id, run, seq, construct, kind, namespace, status, output_hash, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, run, seq) DO NOTHING
	`,
		run.SessionID,
		run.Run,
		exp.Seq,
		exp.Construct,
		exp.Kind,
		exp.Namespace,
		exp.Status,
		exp.OutputHash,
		exp.Source,
	)
	if err != nil {
		return fmt.Errorf("insert expansion %d: %w", exp.Seq, err)
	}
	return nil
}

func insertDiagnostic(ctx context.Context, tx *sql.Tx, run Run, d Diagnostic) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO diagnostics
		(session_id, run, seq, ordinal, severity, code, message, file, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, run, seq, ordinal) DO NOTHING
	`,
		run.SessionID,
		run.Run,
		d.Seq,
		d.Ordinal,
		d.Severity,
		d.Code,
		d.Message,
		d.File,
		d.Line,
		d.Col,
	)
	if err != nil {
		return fmt.Errorf("insert diagnostic %d/%d: %w", d.Seq, d.Ordinal, err)
	}
	return nil
}
