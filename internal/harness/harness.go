package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/entangle/internal/compiler"
	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/session"
	"github.com/roach88/entangle/internal/store"
	"github.com/roach88/entangle/internal/testutil"
)

// Harness is the test execution engine.
// It runs one scenario with a fixed session id and an isolated store.
type Harness struct {
	store   *store.Store
	session *session.Session
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Compile the scenario's declaration files
// 2. Create a fresh in-memory store and a session at start_counter
// 3. Expand and render every construct, then record the run
// 4. Evaluate expectations and assertions
//
// A returned error means the scenario could not execute (bad declarations,
// store failure); expectation mismatches are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, errs := compiler.LoadFiles(scenario.Specs, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load specs: %w", errors.Join(errs...))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: testutil.DiscardLogger(),
	}
	if err := h.begin(ctx, scenario); err != nil {
		return nil, err
	}

	policy := entangle.PolicyAuto
	if scenario.Policy != "" {
		policy = entangle.Policy(scenario.Policy)
	}
	t := entangle.New(
		entangle.WithCounter(h.session.Counter()),
		entangle.WithPolicy(policy),
		entangle.WithLogger(h.logger),
	)
	outcomes := session.Expand(t, loaded.Constructs)
	if err := h.session.Record(ctx, policy, outcomes); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	result := NewResult()
	result.Trace = traceOf(outcomes)
	result.Source = session.Combined(outcomes)

	sess, err := st.GetSession(ctx, h.session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	result.NextImpl = sess.NextImpl

	for _, msg := range checkExpectations(result.Trace, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"constructs", len(outcomes),
		"pass", result.Pass,
	)
	return result, nil
}

// begin creates the scenario's session positioned at start_counter.
func (h *Harness) begin(ctx context.Context, scenario *Scenario) error {
	gen := testutil.NewFixedSessionGenerator(scenario.Session)
	id := gen.Generate()
	if err := h.store.CreateSession(ctx, store.Session{
		ID:          id,
		StartImpl:   scenario.StartCounter,
		NextImpl:    scenario.StartCounter,
		ToolVersion: "test",
	}); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	sess, err := session.Begin(ctx, h.store, id, gen, h.logger)
	if err != nil {
		return fmt.Errorf("failed to begin session: %w", err)
	}
	h.session = sess
	return nil
}

// traceOf converts outcomes to trace events.
func traceOf(outcomes []session.Outcome) []ExpansionEvent {
	trace := make([]ExpansionEvent, len(outcomes))
	for i, o := range outcomes {
		e := ExpansionEvent{
			Seq:       o.Seq,
			Construct: o.Construct,
			Kind:      string(o.Kind),
			Status:    store.StatusOK,
			Hash:      o.Hash,
			Source:    o.Source,
		}
		if o.OK() {
			e.Namespace = o.Expansion.Namespace
			for _, d := range o.Expansion.Diagnostics {
				e.Warnings = append(e.Warnings, d.Code)
			}
		} else {
			e.Status = store.StatusError
			e.ErrorCode = session.ErrorCode(o.Err)
		}
		trace[i] = e
	}
	return trace
}

// checkExpectations compares trace events with expectations by position.
func checkExpectations(trace []ExpansionEvent, expect []Expectation) []string {
	var errs []string
	if len(trace) != len(expect) {
		errs = append(errs, fmt.Sprintf("expected %d constructs, got %d", len(expect), len(trace)))
	}

	n := min(len(trace), len(expect))
	for i := 0; i < n; i++ {
		got, want := trace[i], expect[i]
		fail := func(format string, args ...any) {
			errs = append(errs, fmt.Sprintf("construct #%d (%s): ", i, got.Construct)+fmt.Sprintf(format, args...))
		}
		if got.Construct != want.Construct {
			fail("expected construct %q", want.Construct)
		}
		if want.Kind != "" && got.Kind != want.Kind {
			fail("expected kind %s, got %s", want.Kind, got.Kind)
		}
		if want.ErrorCode != "" {
			if got.Status != store.StatusError {
				fail("expected error %s, construct expanded to %s", want.ErrorCode, got.Namespace)
			} else if got.ErrorCode != want.ErrorCode {
				fail("expected error %s, got %s", want.ErrorCode, got.ErrorCode)
			}
			continue
		}
		if got.Status == store.StatusError {
			fail("unexpected error %s", got.ErrorCode)
			continue
		}
		if want.Namespace != "" && got.Namespace != want.Namespace {
			fail("expected namespace %s, got %s", want.Namespace, got.Namespace)
		}
		if !slices.Equal(got.Warnings, want.Warnings) {
			fail("expected warnings %v, got %v", want.Warnings, got.Warnings)
		}
	}
	return errs
}
