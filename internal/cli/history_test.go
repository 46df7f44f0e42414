package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyResponse struct {
	Status string        `json:"status"`
	Data   HistoryResult `json:"data"`
}

func TestHistoryEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "entangle.db")

	stdout, _, err := execute(NewHistoryCommand(testOptions("text")), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No sessions found in database.")
}

func TestHistoryListsSessions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "entangle.db")
	specs := copySpecs(t, "valid")
	expandInto(t, specs, db, "build-b")
	expandInto(t, specs, db, "build-a")
	expandInto(t, specs, db, "build-a")

	stdout, _, err := execute(NewHistoryCommand(testOptions("json")), "--db", db)
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Sessions, 2)
	assert.Equal(t, "build-a", resp.Data.Sessions[0].ID)
	assert.Equal(t, 2, resp.Data.Sessions[0].Runs)
	assert.Equal(t, int64(2), resp.Data.Sessions[0].NextImpl)
	assert.Equal(t, "build-b", resp.Data.Sessions[1].ID)
	assert.Equal(t, 1, resp.Data.Sessions[1].Runs)
}

func TestHistorySessionText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "entangle.db")
	expandInto(t, copySpecs(t, "warning"), db, "build-1")

	stdout, _, err := execute(NewHistoryCommand(testOptions("text")), "--db", db, "--session", "build-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Session: build-1")
	assert.Contains(t, stdout, "=== Run 1 (impl 0..1, auto) ===")
	assert.Contains(t, stdout, "[0] struct Counter -> __CounterActor")
	assert.Contains(t, stdout, "[1] impl Counter -> __impl0")
	assert.Contains(t, stdout, "warning[W210]")
}

func TestHistorySessionRunJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "entangle.db")
	specs := copySpecs(t, "valid")
	expandInto(t, specs, db, "build-1")
	expandInto(t, specs, db, "build-1")

	stdout, _, err := execute(NewHistoryCommand(testOptions("json")), "--db", db, "--session", "build-1", "--run", "2")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Data.Session)
	assert.Equal(t, 2, resp.Data.Session.Runs)
	require.Len(t, resp.Data.Runs, 1)

	run := resp.Data.Runs[0]
	assert.Equal(t, int64(2), run.Run)
	assert.Equal(t, int64(1), run.StartImpl)
	assert.Equal(t, int64(2), run.EndImpl)
	require.Len(t, run.Expansions, 2)
	assert.Equal(t, "__impl1", run.Expansions[1].Namespace)
	assert.NotEmpty(t, run.Expansions[1].OutputHash)
}

func TestHistoryFailedExpansionDiagnostics(t *testing.T) {
	db := filepath.Join(t.TempDir(), "entangle.db")
	_, _, err := execute(NewExpandCommand(testOptions("text")), copySpecs(t, "failing"), "--db", db, "--session", "broken")
	require.Error(t, err)

	stdout, _, err := execute(NewHistoryCommand(testOptions("json")), "--db", db, "--session", "broken")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Runs, 1)
	exps := resp.Data.Runs[0].Expansions
	require.Len(t, exps, 4)
	assert.Equal(t, "error", exps[1].Status)
	require.Len(t, exps[1].Diagnostics, 1)
	assert.Equal(t, "E202", exps[1].Diagnostics[0].Code)
	assert.Equal(t, "error", exps[2].Status)
	assert.Equal(t, "E202", exps[2].Diagnostics[0].Code)
	assert.Equal(t, "W210", exps[3].Diagnostics[0].Code)
}

func TestHistoryUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "entangle.db")

	_, _, err := execute(NewHistoryCommand(testOptions("text")), "--db", db, "--session", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryRunRequiresSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "entangle.db")

	_, _, err := execute(NewHistoryCommand(testOptions("text")), "--db", db, "--run", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
