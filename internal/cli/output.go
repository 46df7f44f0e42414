package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Process exit statuses.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a construct failed, a replay differed or a scenario failed
	ExitCommandError = 2 // bad flags, unreadable declarations, unknown session
)

// ExitError carries the exit status a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to the process exit status. Errors that
// carry no status are failures.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// OutputFormatter writes command results. Results go to Writer; issues and
// verbose notes go to ErrWriter so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // falls back to Writer when nil
	Verbose   bool
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the envelope of every JSON result.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError names why a JSON result failed: a load code such as E005, a
// construct code, or a command code such as E_NONDETERMINISTIC.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Respond writes resp as indented JSON.
func (f *OutputFormatter) Respond(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Result writes data under status "ok", or under status "error" with code
// when failure is set. The payload is written either way so callers see
// which constructs failed.
func (f *OutputFormatter) Result(data any, code string, failure error) error {
	resp := CLIResponse{Status: "ok", Data: data}
	if failure != nil {
		resp.Status = "error"
		resp.Error = &CLIError{Code: code, Message: failure.Error()}
	}
	return f.Respond(resp)
}

// Fail reports a command error: a JSON result with status "error", or a
// text line on ErrOut.
func (f *OutputFormatter) Fail(code, message string) error {
	if f.Format == "json" {
		return f.Respond(CLIResponse{Status: "error", Error: &CLIError{Code: code, Message: message}})
	}
	_, err := fmt.Fprintf(f.ErrOut(), "error[%s]: %s\n", code, message)
	return err
}

// VerboseLog writes a progress note to ErrOut under --verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.ErrOut(), format+"\n", args...)
	}
}

// ErrOut is the stream for issues and progress notes.
func (f *OutputFormatter) ErrOut() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
