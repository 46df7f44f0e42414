package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/entangle/internal/config"
)

type checkResponse struct {
	Status string      `json:"status"`
	Data   CheckResult `json:"data"`
	Error  *CLIError   `json:"error"`
}

func TestCheckValidSpecs(t *testing.T) {
	stdout, _, err := execute(NewCheckCommand(testOptions("text")), copySpecs(t, "valid"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ 2 construct(s) valid")
	assert.NotContains(t, stdout, "pub struct", "check writes no source")
}

func TestCheckValidSpecsJSON(t *testing.T) {
	stdout, _, err := execute(NewCheckCommand(testOptions("json")), copySpecs(t, "valid"))
	require.NoError(t, err)

	var resp checkResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Files)
	assert.Len(t, resp.Data.Constructs, 2)
	assert.Empty(t, resp.Data.Issues)
}

func TestCheckWarningsPass(t *testing.T) {
	stdout, _, err := execute(NewCheckCommand(testOptions("text")), copySpecs(t, "warning"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "warning[W210]")
	assert.Contains(t, stdout, "1 warning(s)")
}

func TestCheckWarningsAsErrors(t *testing.T) {
	opts := testOptions("json")
	opts.Config = config.Default()
	opts.Config.Diagnostics.WarningsAsErrors = true

	stdout, _, err := execute(NewCheckCommand(opts), copySpecs(t, "warning"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp checkResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Warnings)
	assert.Zero(t, resp.Data.Errors)
}

func TestCheckFailingConstructs(t *testing.T) {
	stdout, _, err := execute(NewCheckCommand(testOptions("text")), copySpecs(t, "failing"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, stdout, "✗ Check failed")
	assert.Equal(t, 2, strings.Count(stdout, "error[E202]"))
	assert.Contains(t, stdout, "warning[W210]")
}

func TestCheckInvalidDeclarations(t *testing.T) {
	stdout, _, err := execute(NewCheckCommand(testOptions("json")), copySpecs(t, "invalid"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp checkResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotEmpty(t, resp.Data.Issues)
	assert.Equal(t, "E104", resp.Data.Issues[0].Code)
	assert.Equal(t, 5, resp.Data.Issues[0].Line)
}

func TestCheckNonexistentDirectory(t *testing.T) {
	_, _, err := execute(NewCheckCommand(testOptions("text")), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheckEmptyDirectory(t *testing.T) {
	stdout, _, err := execute(NewCheckCommand(testOptions("text")), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "E003")
}
