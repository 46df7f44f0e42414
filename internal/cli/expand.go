package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/entangle/internal/compiler"
	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/session"
	"github.com/roach88/entangle/internal/store"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Output   string // write the rendered source here instead of stdout
	Database string // session store; empty expands with a fresh counter
	Session  string // session to resume; empty starts a new one
}

// ExpandResult is the structured result of one expand run.
type ExpandResult struct {
	Session    string            `json:"session,omitempty"`
	Run        int64             `json:"run,omitempty"`
	Constructs []ConstructReport `json:"constructs"`
	Source     string            `json:"source"`
	NextImpl   int64             `json:"next_impl"`
	Errors     int               `json:"errors"`
	Warnings   int               `json:"warnings"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <specs-dir>",
		Short: "Expand declarations into handle and actor source",
		Long: `Compile the CUE declarations in a directory and expand every construct.

Text output is the rendered source; diagnostics go to stderr. JSON output
reports each construct with its namespace, output hash and diagnostics.

With --db, the impl namespace counter resumes from the stored session and the
run is recorded so it can be replayed later.

Exit codes:
  0 - All constructs expanded
  1 - One or more constructs failed (or warnings with warnings_as_errors)
  2 - Command error (invalid declarations, database error, etc.)

Examples:
  entangle expand ./specs
  entangle expand ./specs -o actors.rs
  entangle expand ./specs --db ./entangle.db --session build-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file for the rendered source")
	cmd.Flags().StringVar(&opts.Database, "db", "", "session store (SQLite)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to resume (requires --db)")

	return cmd
}

func runExpand(opts *ExpandOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Session != "" && opts.Database == "" {
		return NewExitError(ExitCommandError, "--session requires --db")
	}

	loaded, issues := loadConstructs(specsDir)
	if len(issues) > 0 {
		return outputLoadErrors(formatter, issues)
	}
	formatter.VerboseLog("Found %d CUE file(s), %d construct(s) in %s", loaded.FileCount, len(loaded.Constructs), specsDir)

	ctx := commandContext(cmd)
	logger := opts.logger()

	counter := entangle.NewCounter()
	var sess *session.Session
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		sess, err = session.Begin(ctx, st, opts.Session, session.UUIDv7Generator{}, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open session", err)
		}
		counter = sess.Counter()
	}

	t, policy, err := newTransformer(opts.RootOptions, counter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	outcomes := session.Expand(t, loaded.Constructs)

	result := ExpandResult{
		Constructs: reports(outcomes),
		Source:     session.Combined(outcomes),
	}
	if sess != nil {
		result.Session = sess.ID
		result.Run = sess.Run()
		if err := sess.Record(ctx, policy, outcomes); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}
	result.NextImpl = counter.Current()
	result.Errors, result.Warnings = tally(result.Constructs)

	if opts.Output != "" && result.Errors == 0 {
		if err := os.WriteFile(opts.Output, []byte(result.Source), 0644); err != nil {
			_ = formatter.Fail(compiler.ErrCodeWriteFailed, fmt.Sprintf("failed to write output: %v", err))
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}

	failure := expandFailure(opts.RootOptions, result.Errors, result.Warnings)
	if opts.Format == "json" {
		if err := formatter.Result(result, "E_EXPAND_FAILED", failure); err != nil {
			return err
		}
		return failure
	}

	printIssues(formatter.ErrOut(), constructIssues(result.Constructs))
	switch {
	case opts.Output == "":
		fmt.Fprint(formatter.Writer, result.Source)
	case result.Errors == 0:
		fmt.Fprintf(formatter.Writer, "✓ Expanded %d construct(s) to %s\n", len(result.Constructs), opts.Output)
	default:
		fmt.Fprintf(formatter.Writer, "✗ %d construct(s) failed, %s not written\n", result.Errors, opts.Output)
	}
	if sess != nil {
		formatter.VerboseLog("Recorded session %s run %d (next impl %d)", result.Session, result.Run, result.NextImpl)
	}
	return failure
}

// outputLoadErrors reports declarations that failed to compile. These are
// command errors: nothing is expanded.
func outputLoadErrors(formatter *OutputFormatter, issues []Issue) error {
	exitErr := NewExitError(ExitCommandError, fmt.Sprintf("loading declarations failed with %d error(s)", len(issues)))
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
			Data:   issues,
		}
		if err := formatter.Respond(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Loading declarations failed")
	fmt.Fprintln(formatter.Writer)
	printIssues(formatter.Writer, issues)
	return exitErr
}

// commandContext returns the command's context, or a background one when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
