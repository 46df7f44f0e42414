package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSession returns a session by id, or ErrSessionNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, start_impl, next_impl, tool_version
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.StartImpl, &sess.NextImpl, &sess.ToolVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %q: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %q: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by id.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_impl, next_impl, tool_version
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.StartImpl, &sess.NextImpl, &sess.ToolVersion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadRuns returns the runs of a session ordered by run number.
func (s *Store) ReadRuns(ctx context.Context, sessionID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, run, start_impl, end_impl, policy
		FROM runs
		WHERE session_id = ?
		ORDER BY run ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.SessionID, &r.Run, &r.StartImpl, &r.EndImpl, &r.Policy); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadExpansions returns the expansions of a session.
// A run of 0 selects every run. Results are ordered by run ASC, seq ASC.
func (s *Store) ReadExpansions(ctx context.Context, sessionID string, run int64) ([]Expansion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, run, seq, construct, kind, namespace, status, output_hash, source
		FROM expansions
		WHERE session_id = ? AND (? = 0 OR run = ?)
		ORDER BY run ASC, seq ASC
	`, sessionID, run, run)
	if err != nil {
		return nil, fmt.Errorf("query expansions: %w", err)
	}
	defer rows.Close()

	expansions := []Expansion{}
	for rows.Next() {
		var e Expansion
		if err := rows.Scan(
			&e.SessionID, &e.Run, &e.Seq, &e.Construct, &e.Kind,
			&e.Namespace, &e.Status, &e.OutputHash, &e.Source,
		); err != nil {
			return nil, fmt.Errorf("scan expansion: %w", err)
		}
		expansions = append(expansions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expansions: %w", err)
	}
	return expansions, nil
}

// ReadDiagnostics returns the diagnostics of a session.
// A run of 0 selects every run. Results are ordered by run, seq and ordinal.
func (s *Store) ReadDiagnostics(ctx context.Context, sessionID string, run int64) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, run, seq, ordinal, severity, code, message, file, line, col
		FROM diagnostics
		WHERE session_id = ? AND (? = 0 OR run = ?)
		ORDER BY run ASC, seq ASC, ordinal ASC
	`, sessionID, run, run)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []Diagnostic{}
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(
			&d.SessionID, &d.Run, &d.Seq, &d.Ordinal, &d.Severity,
			&d.Code, &d.Message, &d.File, &d.Line, &d.Col,
		); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}
