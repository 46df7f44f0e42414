package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/session"
	"github.com/roach88/entangle/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
	Run      int64 // 0 selects the last run
}

// ReplayResult holds the replay result for one recorded run.
type ReplayResult struct {
	Session       string   `json:"session"`
	Run           int64    `json:"run"`
	Constructs    int      `json:"constructs"`
	Deterministic bool     `json:"deterministic"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <specs-dir>",
		Short: "Re-expand a recorded run and verify determinism",
		Long: `Re-expand the declarations from the start counter and dispatch policy of a
recorded run, then compare every construct's status, namespace and output
hash with the record. Nothing is written to the database.

Exit codes:
  0 - The run was reproduced exactly
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown session, etc.)

Examples:
  entangle replay ./specs --db ./entangle.db --session build-1
  entangle replay ./specs --db ./entangle.db --session build-1 --run 2
  entangle replay ./specs --db ./entangle.db --session build-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().Int64Var(&opts.Run, "run", 0, "run number (default: last run)")

	return cmd
}

func runReplay(opts *ReplayOptions, specsDir string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Run < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid run number %d", opts.Run))
	}

	loaded, issues := loadConstructs(specsDir)
	if len(issues) > 0 {
		return outputLoadErrors(formatter, issues)
	}

	rt, err := opts.config().EntangleRuntime()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	// Open database
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	report, err := session.Replay(ctx, st, opts.Session, opts.Run, loaded.Constructs,
		entangle.WithRuntime(rt),
		entangle.WithLogger(opts.logger()),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", opts.Session), err)
	}

	result := ReplayResult{
		Session:       report.SessionID,
		Run:           report.Run,
		Constructs:    len(report.Outcomes),
		Deterministic: report.OK(),
	}
	for _, m := range report.Mismatches {
		result.Mismatches = append(result.Mismatches, m.String())
	}

	// Output results
	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter.Writer, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_NONDETERMINISTIC",
			Message: fmt.Sprintf("%d difference(s) detected", len(result.Mismatches)),
		}
	}

	if err := formatter.Respond(response); err != nil {
		return err
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult) error {
	if result.Deterministic {
		fmt.Fprintf(w, "✓ Session %s run %d: %d construct(s) reproduced\n",
			result.Session, result.Run, result.Constructs)
		return nil
	}

	fmt.Fprintf(w, "✗ Session %s run %d: %d difference(s)\n",
		result.Session, result.Run, len(result.Mismatches))
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "  %s\n", m)
	}
	return NewExitError(ExitFailure, "determinism verification failed")
}
