package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/session"
)

// CheckResult holds check results.
type CheckResult struct {
	Valid      bool              `json:"valid"`
	Files      int               `json:"files"`
	Constructs []ConstructReport `json:"constructs"`
	Issues     []Issue           `json:"issues,omitempty"`
	Errors     int               `json:"errors"`
	Warnings   int               `json:"warnings"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <specs-dir>",
		Short: "Check declarations without writing output",
		Long: `Compile, validate and expand every declaration without writing source.

Reports every invalid declaration and every construct that fails to expand,
plus warnings. Faster feedback than expand during development.

Exit codes:
  0 - All declarations valid and expandable
  1 - Invalid declarations, expansion errors, or warnings with warnings_as_errors
  2 - Command error (directory not found, no CUE files, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, issues := loadConstructs(specsDir)
	if loaded == nil {
		// Directory not found, no files, or the CUE itself did not build.
		return outputLoadErrors(formatter, issues)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, specsDir)

	t, _, err := newTransformer(opts, entangle.NewCounter())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	outcomes := session.Expand(t, loaded.Constructs)

	result := CheckResult{
		Files:      loaded.FileCount,
		Constructs: reports(outcomes),
		Issues:     issues,
	}
	result.Errors, result.Warnings = tally(result.Constructs)
	result.Errors += len(issues)

	var failure error
	if result.Errors > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("check failed with %d error(s)", result.Errors))
	} else {
		failure = expandFailure(opts, 0, result.Warnings)
	}
	result.Valid = failure == nil

	if opts.Format == "json" {
		if err := formatter.Result(result, "E_CHECK_FAILED", failure); err != nil {
			return err
		}
		return failure
	}

	all := append(append([]Issue{}, issues...), constructIssues(result.Constructs)...)
	if failure != nil {
		fmt.Fprintln(formatter.Writer, "✗ Check failed")
		fmt.Fprintln(formatter.Writer)
		printIssues(formatter.Writer, all)
		return failure
	}

	printIssues(formatter.Writer, all)
	fmt.Fprintf(formatter.Writer, "✓ %d construct(s) valid", len(result.Constructs))
	if result.Warnings > 0 {
		fmt.Fprintf(formatter.Writer, ", %d warning(s)", result.Warnings)
	}
	fmt.Fprintln(formatter.Writer)
	return nil
}
