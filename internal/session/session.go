package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/store"
	"github.com/roach88/entangle/internal/syntax"
)

// ErrRunRecorded is returned by Record when the run number was already used.
var ErrRunRecorded = errors.New("run already recorded")

// Session is an open session: its stored identity, the counter resumed from
// the store and the number of the run about to be recorded.
type Session struct {
	ID string

	store   *store.Store
	counter *entangle.Counter
	start   int64
	run     int64
	logger  *slog.Logger
}

// Begin opens session id in st, creating it if it does not exist. An empty id
// creates a new session named by gen.
//
// The returned session's counter starts at the stored next_impl so a resumed
// session never reuses a namespace number.
func Begin(ctx context.Context, st *store.Store, id string, gen IDGenerator, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if id == "" {
		if gen == nil {
			gen = UUIDv7Generator{}
		}
		id = gen.Generate()
	}

	sess, err := st.GetSession(ctx, id)
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		sess = store.Session{ID: id, ToolVersion: syntax.ToolVersion}
		if err := st.CreateSession(ctx, sess); err != nil {
			return nil, fmt.Errorf("begin session: %w", err)
		}
		logger.Debug("session created", "session", id)
	case err != nil:
		return nil, fmt.Errorf("begin session: %w", err)
	default:
		if err := st.CheckCounter(ctx, id); err != nil {
			return nil, fmt.Errorf("begin session: %w", err)
		}
		logger.Debug("session resumed", "session", id, "next_impl", sess.NextImpl)
	}

	run, err := st.NextRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	return &Session{
		ID:      id,
		store:   st,
		counter: entangle.NewCounterAt(sess.NextImpl),
		start:   sess.NextImpl,
		run:     run,
		logger:  logger,
	}, nil
}

// Counter returns the session counter to inject into a Transformer.
func (s *Session) Counter() *entangle.Counter {
	return s.counter
}

// Run returns the number of the run Record will write.
func (s *Session) Run() int64 {
	return s.run
}

// StartImpl returns the counter value the current run started at.
func (s *Session) StartImpl() int64 {
	return s.start
}

// Record writes the outcomes of the current run and advances the stored
// counter to the session counter's current value. After Record the session
// is positioned at the next run.
func (s *Session) Record(ctx context.Context, policy entangle.Policy, outcomes []Outcome) error {
	exps, diags := records(outcomes)
	end := s.counter.Current()
	rec := store.RunRecord{
		Run: store.Run{
			SessionID: s.ID,
			Run:       s.run,
			StartImpl: s.start,
			EndImpl:   end,
			Policy:    string(policy),
		},
		Expansions:  exps,
		Diagnostics: diags,
	}

	inserted, err := s.store.RecordRun(ctx, rec)
	if err != nil {
		return fmt.Errorf("record session %s: %w", s.ID, err)
	}
	if !inserted {
		return fmt.Errorf("record session %s run %d: %w", s.ID, s.run, ErrRunRecorded)
	}

	s.logger.Info("run recorded",
		"session", s.ID,
		"run", s.run,
		"constructs", len(outcomes),
		"start_impl", s.start,
		"end_impl", end,
	)
	s.run++
	s.start = end
	return nil
}
