package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_Fail(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

		require.NoError(t, formatter.Fail("E007", "failed to write output: permission denied"))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Nil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E007", resp.Error.Code)
		assert.Equal(t, "failed to write output: permission denied", resp.Error.Message)
		assert.Empty(t, errOut.String())
	})

	t.Run("text", func(t *testing.T) {
		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut}

		require.NoError(t, formatter.Fail("E007", "failed to write output"))
		assert.Empty(t, out.String())
		assert.Equal(t, "error[E007]: failed to write output\n", errOut.String())
	})

	t.Run("text without ErrWriter", func(t *testing.T) {
		out := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: out}

		require.NoError(t, formatter.Fail("E007", "failed to write output"))
		assert.Equal(t, "error[E007]: failed to write output\n", out.String())
	})
}

func TestOutputFormatter_Result(t *testing.T) {
	tests := []struct {
		name       string
		failure    error
		wantStatus string
	}{
		{"success", nil, "ok"},
		{"failure", NewExitError(ExitFailure, "2 construct(s) failed to expand"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			require.NoError(t, formatter.Result(map[string]int{"errors": 2}, "E_EXPAND_FAILED", tt.failure))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.NotNil(t, resp.Data)
			if tt.failure == nil {
				assert.Nil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, "E_EXPAND_FAILED", resp.Error.Code)
			assert.Equal(t, tt.failure.Error(), resp.Error.Message)
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Found %d CUE file(s)", 3)

			assert.Empty(t, out.String(), "verbose output never corrupts stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Found 3 CUE file(s)")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flags"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("running: %w", NewExitError(ExitFailure, "replay differed")), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	cause := errors.New("no such table")
	err := WrapExitError(ExitCommandError, "failed to open database", cause)

	assert.Equal(t, "failed to open database: no such table", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad flags", NewExitError(ExitCommandError, "bad flags").Error())
}

func TestIssueString(t *testing.T) {
	withPos := Issue{Severity: "error", Code: "E202", Message: "return type is not a plain type path", File: "counter.cue", Line: 9, Col: 3}
	assert.Equal(t, "counter.cue:9:3: error[E202]: return type is not a plain type path", withPos.String())

	noPos := Issue{Severity: "warning", Code: "W210", Message: "visibility widened"}
	assert.Equal(t, "warning[W210]: visibility widened", noPos.String())
}
