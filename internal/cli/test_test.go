package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")
	harnessGolden    = filepath.Join("..", "harness", "testdata", "golden")
)

type testResponse struct {
	Status string     `json:"status"`
	Data   TestResult `json:"data"`
	Error  *CLIError  `json:"error"`
}

func TestTestCommandPasses(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios, "--golden-dir", harnessGolden)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ counter_basic")
	assert.Contains(t, stdout, "✓ counter_errors")
	assert.Contains(t, stdout, "✓ counter_resume")
	assert.Contains(t, stdout, "Test Summary: 3 passed, 0 failed, 3 total")
}

func TestTestCommandJSON(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(testOptions("json")), harnessScenarios, "--golden-dir", harnessGolden)
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
}

func TestTestCommandFilter(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios, "--golden-dir", harnessGolden, "--filter", "counter_err*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "counter_errors")
	assert.NotContains(t, stdout, "counter_basic")
	assert.Contains(t, stdout, "1 total")
}

func TestTestCommandMissingGolden(t *testing.T) {
	_, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios, "--golden-dir", t.TempDir(), "--filter", "counter_basic")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	goldenDir := filepath.Join(t.TempDir(), "golden")

	_, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios, "--golden-dir", goldenDir, "--update")
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(goldenDir, "counter_basic.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(harnessGolden, "counter_basic.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	// non-golden scenarios get no file
	_, err = os.Stat(filepath.Join(goldenDir, "counter_resume.golden"))
	assert.True(t, os.IsNotExist(err))

	// a second run compares against what was written
	_, _, err = execute(NewTestCommand(testOptions("text")), harnessScenarios, "--golden-dir", goldenDir)
	require.NoError(t, err)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	specs, err := filepath.Abs(filepath.Join("testdata", "specs", "valid", "counter.cue"))
	require.NoError(t, err)
	scenario := `name: wrong_namespace
description: expects a namespace the counter never hands out
specs:
  - ` + specs + `
expect:
  - construct: Counter
    namespace: __CounterActor
  - construct: Counter
    namespace: __impl9
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_namespace.yaml"), []byte(scenario), 0644))

	stdout, _, err := execute(NewTestCommand(testOptions("json")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nunknown_key: 1\n"), 0644))

	stdout, _, err := execute(NewTestCommand(testOptions("text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommandNoScenarios(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(testOptions("text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTestCommandMissingDirectory(t *testing.T) {
	_, _, err := execute(NewTestCommand(testOptions("text")), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
