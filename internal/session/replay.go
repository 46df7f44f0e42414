package session

import (
	"context"
	"fmt"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/store"
	"github.com/roach88/entangle/internal/syntax"
)

// Mismatch is one difference between a recorded and a replayed run.
type Mismatch struct {
	Seq       int64
	Construct string
	Field     string
	Recorded  string
	Replayed  string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("#%d %s: %s recorded %q, replayed %q",
		m.Seq, m.Construct, m.Field, m.Recorded, m.Replayed)
}

// ReplayReport is the outcome of replaying one recorded run.
type ReplayReport struct {
	SessionID  string
	Run        int64
	Outcomes   []Outcome
	Mismatches []Mismatch
}

// OK reports whether the replay reproduced the recorded run exactly.
func (r *ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-expands cs from the start counter and policy of a recorded run
// and compares every construct's status, namespace and output hash with the
// record. A run of 0 selects the session's last run.
//
// opts configure the transformer (runtime, logger); the counter and policy
// always come from the record. Nothing is written to the store.
func Replay(ctx context.Context, st *store.Store, sessionID string, run int64, cs []syntax.SourceConstruct, opts ...entangle.Option) (*ReplayReport, error) {
	var (
		rec store.RunRecord
		ok  bool
		err error
	)
	if run == 0 {
		rec, ok, err = st.LastRun(ctx, sessionID)
	} else {
		rec, ok, err = st.ReadRun(ctx, sessionID, run)
	}
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if !ok {
		if _, err := st.GetSession(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		return nil, fmt.Errorf("replay: session %s has no run %d", sessionID, run)
	}

	opts = append(opts,
		entangle.WithCounter(entangle.NewCounterAt(rec.Run.StartImpl)),
		entangle.WithPolicy(entangle.Policy(rec.Run.Policy)),
	)
	t := entangle.New(opts...)
	outcomes := Expand(t, cs)

	report := &ReplayReport{
		SessionID: sessionID,
		Run:       rec.Run.Run,
		Outcomes:  outcomes,
	}
	report.Mismatches = Compare(rec, outcomes)
	if end := t.Counter().Current(); end != rec.Run.EndImpl {
		report.Mismatches = append(report.Mismatches, Mismatch{
			Seq:      -1,
			Field:    "end_impl",
			Recorded: fmt.Sprint(rec.Run.EndImpl),
			Replayed: fmt.Sprint(end),
		})
	}
	return report, nil
}

// Compare lists the differences between a recorded run and fresh outcomes,
// matched by seq.
func Compare(rec store.RunRecord, outcomes []Outcome) []Mismatch {
	var mismatches []Mismatch

	if len(rec.Expansions) != len(outcomes) {
		mismatches = append(mismatches, Mismatch{
			Seq:      -1,
			Field:    "constructs",
			Recorded: fmt.Sprint(len(rec.Expansions)),
			Replayed: fmt.Sprint(len(outcomes)),
		})
	}

	replayed, _ := records(outcomes)
	n := min(len(rec.Expansions), len(replayed))
	for i := 0; i < n; i++ {
		want, got := rec.Expansions[i], replayed[i]
		check := func(field, w, g string) {
			if w != g {
				mismatches = append(mismatches, Mismatch{
					Seq:       want.Seq,
					Construct: want.Construct,
					Field:     field,
					Recorded:  w,
					Replayed:  g,
				})
			}
		}
		check("construct", want.Construct, got.Construct)
		check("status", want.Status, got.Status)
		check("namespace", want.Namespace, got.Namespace)
		check("output_hash", want.OutputHash, got.OutputHash)
	}
	return mismatches
}
