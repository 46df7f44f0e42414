package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/entangle/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Session  string // optional - list sessions when empty
	Run      int64  // optional - all runs when 0
}

// HistoryExpansion is one recorded construct.
type HistoryExpansion struct {
	Seq         int64   `json:"seq"`
	Construct   string  `json:"construct"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	Namespace   string  `json:"namespace,omitempty"`
	OutputHash  string  `json:"output_hash,omitempty"`
	Diagnostics []Issue `json:"diagnostics,omitempty"`
}

// HistoryRun is one recorded run with its expansions.
type HistoryRun struct {
	Run        int64              `json:"run"`
	StartImpl  int64              `json:"start_impl"`
	EndImpl    int64              `json:"end_impl"`
	Policy     string             `json:"policy"`
	Expansions []HistoryExpansion `json:"expansions"`
}

// SessionSummary is one line of the session listing.
type SessionSummary struct {
	ID          string `json:"id"`
	StartImpl   int64  `json:"start_impl"`
	NextImpl    int64  `json:"next_impl"`
	ToolVersion string `json:"tool_version"`
	Runs        int    `json:"runs"`
}

// HistoryResult holds the history output: either the session listing or
// the runs of one session.
type HistoryResult struct {
	Sessions []SessionSummary `json:"sessions,omitempty"`
	Session  *SessionSummary  `json:"session,omitempty"`
	Runs     []HistoryRun     `json:"runs,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions and expansions",
		Long: `Show what the session store recorded.

Without --session, lists every session with its counter range and number of
runs. With --session, lists each run's expansions in order with namespace,
output hash and diagnostics.

Examples:
  entangle history --db ./entangle.db
  entangle history --db ./entangle.db --session build-1
  entangle history --db ./entangle.db --session build-1 --run 2 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to show")
	cmd.Flags().Int64Var(&opts.Run, "run", 0, "run to show (requires --session)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	if opts.Run != 0 && opts.Session == "" {
		return NewExitError(ExitCommandError, "--run requires --session")
	}

	// Open database
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var result HistoryResult
	if opts.Session == "" {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		result.Sessions = make([]SessionSummary, 0, len(sessions))
		for _, s := range sessions {
			runs, err := st.ReadRuns(ctx, s.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read runs", err)
			}
			result.Sessions = append(result.Sessions, summarize(s, len(runs)))
		}
	} else {
		result, err = sessionHistory(cmd, st, opts)
		if err != nil {
			return err
		}
	}

	// Output results
	if opts.Format == "json" {
		return newFormatter(opts.RootOptions, cmd).Result(result, "", nil)
	}
	outputHistoryText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

// sessionHistory reads the runs of one session, joining each expansion
// with its diagnostics.
func sessionHistory(cmd *cobra.Command, st *store.Store, opts *HistoryOptions) (HistoryResult, error) {
	ctx := commandContext(cmd)

	sess, err := st.GetSession(ctx, opts.Session)
	if err != nil {
		return HistoryResult{}, WrapExitError(ExitCommandError, "failed to get session", err)
	}
	runs, err := st.ReadRuns(ctx, opts.Session)
	if err != nil {
		return HistoryResult{}, WrapExitError(ExitCommandError, "failed to read runs", err)
	}
	exps, err := st.ReadExpansions(ctx, opts.Session, opts.Run)
	if err != nil {
		return HistoryResult{}, WrapExitError(ExitCommandError, "failed to read expansions", err)
	}
	diags, err := st.ReadDiagnostics(ctx, opts.Session, opts.Run)
	if err != nil {
		return HistoryResult{}, WrapExitError(ExitCommandError, "failed to read diagnostics", err)
	}

	type key struct{ run, seq int64 }
	byExp := make(map[key][]Issue)
	for _, d := range diags {
		k := key{d.Run, d.Seq}
		byExp[k] = append(byExp[k], Issue{
			Severity: d.Severity,
			Code:     d.Code,
			Message:  d.Message,
			File:     d.File,
			Line:     d.Line,
			Col:      d.Col,
		})
	}
	byRun := make(map[int64][]HistoryExpansion)
	for _, e := range exps {
		byRun[e.Run] = append(byRun[e.Run], HistoryExpansion{
			Seq:         e.Seq,
			Construct:   e.Construct,
			Kind:        e.Kind,
			Status:      e.Status,
			Namespace:   e.Namespace,
			OutputHash:  e.OutputHash,
			Diagnostics: byExp[key{e.Run, e.Seq}],
		})
	}

	summary := summarize(sess, len(runs))
	result := HistoryResult{Session: &summary, Runs: []HistoryRun{}}
	for _, r := range runs {
		if opts.Run != 0 && r.Run != opts.Run {
			continue
		}
		hr := HistoryRun{
			Run:        r.Run,
			StartImpl:  r.StartImpl,
			EndImpl:    r.EndImpl,
			Policy:     r.Policy,
			Expansions: byRun[r.Run],
		}
		if hr.Expansions == nil {
			hr.Expansions = []HistoryExpansion{}
		}
		result.Runs = append(result.Runs, hr)
	}
	if opts.Run != 0 && len(result.Runs) == 0 {
		return HistoryResult{}, NewExitError(ExitCommandError, fmt.Sprintf("session %s has no run %d", opts.Session, opts.Run))
	}
	return result, nil
}

func summarize(s store.Session, runs int) SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		StartImpl:   s.StartImpl,
		NextImpl:    s.NextImpl,
		ToolVersion: s.ToolVersion,
		Runs:        runs,
	}
}

// outputHistoryText outputs the history result as text.
func outputHistoryText(w io.Writer, result HistoryResult, verbose bool) {
	if result.Session == nil {
		if len(result.Sessions) == 0 {
			fmt.Fprintln(w, "No sessions found in database.")
			return
		}
		fmt.Fprintln(w, "=== Sessions ===")
		for _, s := range result.Sessions {
			fmt.Fprintf(w, "  %s  impl %d..%d  %d run(s)  entangle %s\n",
				s.ID, s.StartImpl, s.NextImpl, s.Runs, s.ToolVersion)
		}
		return
	}

	s := result.Session
	fmt.Fprintf(w, "Session: %s\n", s.ID)
	fmt.Fprintf(w, "Counter: %d..%d (entangle %s)\n", s.StartImpl, s.NextImpl, s.ToolVersion)
	fmt.Fprintln(w)

	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "  (no runs)")
		return
	}
	for _, r := range result.Runs {
		fmt.Fprintf(w, "=== Run %d (impl %d..%d, %s) ===\n", r.Run, r.StartImpl, r.EndImpl, r.Policy)
		for _, e := range r.Expansions {
			switch {
			case e.Status != store.StatusOK:
				fmt.Fprintf(w, "  [%d] %s %s  error\n", e.Seq, e.Kind, e.Construct)
			case e.Namespace != "":
				fmt.Fprintf(w, "  [%d] %s %s -> %s\n", e.Seq, e.Kind, e.Construct, e.Namespace)
			default:
				fmt.Fprintf(w, "  [%d] %s %s\n", e.Seq, e.Kind, e.Construct)
			}
			if verbose && e.OutputHash != "" {
				fmt.Fprintf(w, "       Hash: %s\n", e.OutputHash)
			}
			for _, d := range e.Diagnostics {
				fmt.Fprintf(w, "       %s\n", d)
			}
		}
		fmt.Fprintln(w)
	}
}
