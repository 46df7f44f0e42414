package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/store"
	"github.com/roach88/entangle/internal/syntax"
	"github.com/roach88/entangle/internal/testutil"
)

func recordRuns(t *testing.T, st *store.Store, runs ...[]syntax.SourceConstruct) {
	t.Helper()
	ctx := context.Background()
	s, err := Begin(ctx, st, "s-1", nil, testutil.DiscardLogger())
	require.NoError(t, err)
	tr := transformerFor(s)
	for _, cs := range runs {
		require.NoError(t, s.Record(ctx, entangle.PolicyAuto, Expand(tr, cs)))
	}
}

func TestReplay_Deterministic(t *testing.T) {
	st := openStore(t)
	recordRuns(t, st, testutil.CounterConstructs(), testutil.CounterConstructs())

	for _, run := range []int64{1, 2, 0} {
		report, err := Replay(context.Background(), st, "s-1", run, testutil.CounterConstructs(),
			entangle.WithLogger(testutil.DiscardLogger()))
		require.NoError(t, err)
		assert.True(t, report.OK(), "run %d: %v", run, report.Mismatches)
	}
}

func TestReplay_LastRunNamespaces(t *testing.T) {
	st := openStore(t)
	recordRuns(t, st, testutil.CounterConstructs(), testutil.CounterConstructs())

	report, err := Replay(context.Background(), st, "s-1", 0, testutil.CounterConstructs(),
		entangle.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Run)
	assert.Equal(t, "__impl2", report.Outcomes[1].Expansion.Namespace)
	assert.Equal(t, "__impl3", report.Outcomes[2].Expansion.Namespace)
}

func TestReplay_DetectsChangedInput(t *testing.T) {
	st := openStore(t)
	recordRuns(t, st, testutil.CounterConstructs())

	changed := testutil.CounterConstructs()
	changed[0].(*syntax.DataType).Fields[0].Name = "total"

	report, err := Replay(context.Background(), st, "s-1", 1, changed,
		entangle.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "output_hash", report.Mismatches[0].Field)
	assert.Equal(t, int64(0), report.Mismatches[0].Seq)
	assert.Equal(t, "Counter", report.Mismatches[0].Construct)
}

func TestReplay_DetectsMissingConstruct(t *testing.T) {
	st := openStore(t)
	recordRuns(t, st, testutil.CounterConstructs())

	fewer := testutil.CounterConstructs()[:2]
	report, err := Replay(context.Background(), st, "s-1", 1, fewer,
		entangle.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	var fields []string
	for _, m := range report.Mismatches {
		fields = append(fields, m.Field)
	}
	assert.Equal(t, []string{"constructs", "end_impl"}, fields)
}

func TestReplay_UnknownSession(t *testing.T) {
	st := openStore(t)

	_, err := Replay(context.Background(), st, "missing", 0, nil)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestReplay_UnknownRun(t *testing.T) {
	st := openStore(t)
	recordRuns(t, st, testutil.CounterConstructs())

	_, err := Replay(context.Background(), st, "s-1", 7, testutil.CounterConstructs())
	assert.ErrorContains(t, err, "has no run 7")
}

func TestMismatch_String(t *testing.T) {
	m := Mismatch{Seq: 2, Construct: "Counter", Field: "namespace", Recorded: "__impl1", Replayed: "__impl4"}
	assert.Equal(t, `#2 Counter: namespace recorded "__impl1", replayed "__impl4"`, m.String())
}
