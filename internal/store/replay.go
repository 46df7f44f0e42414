package store

import (
	"context"
	"fmt"
)

// ReadRun returns one run of a session with its expansions and diagnostics.
// Returns ok=false if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, sessionID string, run int64) (rec RunRecord, ok bool, err error) {
	runs, err := s.ReadRuns(ctx, sessionID)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("read run: %w", err)
	}
	for _, r := range runs {
		if r.Run != run {
			continue
		}
		rec.Run = r
		ok = true
		break
	}
	if !ok {
		return RunRecord{}, false, nil
	}

	rec.Expansions, err = s.ReadExpansions(ctx, sessionID, run)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("read run: %w", err)
	}
	rec.Diagnostics, err = s.ReadDiagnostics(ctx, sessionID, run)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("read run: %w", err)
	}
	return rec, true, nil
}

// LastRun returns the most recent run of a session.
// Returns ok=false if the session has no runs.
func (s *Store) LastRun(ctx context.Context, sessionID string) (RunRecord, bool, error) {
	runs, err := s.ReadRuns(ctx, sessionID)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("last run: %w", err)
	}
	if len(runs) == 0 {
		return RunRecord{}, false, nil
	}
	return s.ReadRun(ctx, sessionID, runs[len(runs)-1].Run)
}

// CheckCounter reports whether the stored counter of a session covers every
// recorded run. A session whose next_impl is below the end of its last run
// would hand out namespaces that were already used.
func (s *Store) CheckCounter(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	runs, err := s.ReadRuns(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("check counter: %w", err)
	}
	for _, r := range runs {
		if r.EndImpl > sess.NextImpl {
			return fmt.Errorf("check counter %q: run %d ends at %d beyond next_impl %d",
				sessionID, r.Run, r.EndImpl, sess.NextImpl)
		}
	}
	return nil
}
