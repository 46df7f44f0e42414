package cli

import (
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue/token"

	"github.com/roach88/entangle/internal/compiler"
	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/session"
)

// Issue is one error or warning in command output.
type Issue struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
}

func (i Issue) String() string {
	loc := ""
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d: ", i.File, i.Line, i.Col)
	}
	return fmt.Sprintf("%s%s[%s]: %s", loc, i.Severity, i.Code, i.Message)
}

// ConstructReport is the outcome of one construct.
type ConstructReport struct {
	Seq         int64   `json:"seq"`
	Construct   string  `json:"construct"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	Namespace   string  `json:"namespace,omitempty"`
	OutputHash  string  `json:"output_hash,omitempty"`
	Diagnostics []Issue `json:"diagnostics,omitempty"`
}

// loadConstructs compiles every declaration file under dir. A nil result
// means nothing could be compiled; otherwise errs lists the declarations
// that were skipped.
func loadConstructs(dir string) (*compiler.LoadResult, []Issue) {
	result, errs := compiler.LoadSpecs(dir, compiler.LoadModeCollectAll)
	issues := make([]Issue, 0, len(errs))
	for _, err := range errs {
		issues = append(issues, loadIssue(err))
	}
	return result, issues
}

// loadIssue converts a loader error into an Issue with its CUE position.
func loadIssue(err error) Issue {
	issue := Issue{Severity: string(entangle.SeverityError), Code: compiler.ErrCodeGeneric, Message: err.Error()}
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		issue.Code = loadErr.Code
		issue.Message = loadErr.Message
		setPos(&issue, loadErr.Pos)
	}
	return issue
}

func setPos(issue *Issue, pos token.Pos) {
	if !pos.IsValid() {
		return
	}
	issue.File = pos.Filename()
	issue.Line = pos.Line()
	issue.Col = pos.Column()
}

// newTransformer builds a transformer from the loaded configuration,
// drawing namespaces from counter.
func newTransformer(opts *RootOptions, counter *entangle.Counter) (*entangle.Transformer, entangle.Policy, error) {
	cfg := opts.config()
	tOpts, err := cfg.TransformerOptions()
	if err != nil {
		return nil, "", err
	}
	tOpts = append(tOpts, entangle.WithCounter(counter), entangle.WithLogger(opts.logger()))
	return entangle.New(tOpts...), entangle.Policy(cfg.Dispatch.Policy), nil
}

// reports summarizes outcomes for output.
func reports(outcomes []session.Outcome) []ConstructReport {
	out := make([]ConstructReport, 0, len(outcomes))
	for _, o := range outcomes {
		r := ConstructReport{
			Seq:        o.Seq,
			Construct:  o.Construct,
			Kind:       string(o.Kind),
			Status:     "ok",
			OutputHash: o.Hash,
		}
		if o.OK() {
			r.Namespace = o.Expansion.Namespace
			for _, d := range o.Expansion.Diagnostics {
				r.Diagnostics = append(r.Diagnostics, diagnosticIssue(d))
			}
		} else {
			r.Status = "error"
			r.Diagnostics = append(r.Diagnostics, errorIssue(o.Err))
		}
		out = append(out, r)
	}
	return out
}

func diagnosticIssue(d entangle.Diagnostic) Issue {
	return Issue{
		Severity: string(d.Severity),
		Code:     d.Code,
		Message:  d.Message,
		File:     d.Span.File,
		Line:     d.Span.Line,
		Col:      d.Span.Column,
	}
}

func errorIssue(err error) Issue {
	issue := Issue{Severity: string(entangle.SeverityError), Message: err.Error()}
	var te *entangle.Error
	if errors.As(err, &te) {
		issue.Code = te.Code
		issue.Message = te.Message
		issue.File = te.Span.File
		issue.Line = te.Span.Line
		issue.Col = te.Span.Column
	}
	return issue
}

// tally counts error and warning diagnostics across reports.
func tally(rs []ConstructReport) (errs, warnings int) {
	for _, r := range rs {
		for _, d := range r.Diagnostics {
			if d.Severity == string(entangle.SeverityWarning) {
				warnings++
			} else {
				errs++
			}
		}
	}
	return errs, warnings
}

// printIssues writes one line per issue.
func printIssues(w io.Writer, issues []Issue) {
	for _, i := range issues {
		fmt.Fprintln(w, i)
	}
}

// constructIssues flattens the diagnostics of every report.
func constructIssues(rs []ConstructReport) []Issue {
	var issues []Issue
	for _, r := range rs {
		issues = append(issues, r.Diagnostics...)
	}
	return issues
}

// expandFailure maps errors and warnings to the command's exit status.
func expandFailure(opts *RootOptions, errs, warnings int) error {
	if errs > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d construct(s) failed to expand", errs))
	}
	if warnings > 0 && opts.config().Diagnostics.WarningsAsErrors {
		return NewExitError(ExitFailure, fmt.Sprintf("%d warning(s) treated as errors", warnings))
	}
	return nil
}
