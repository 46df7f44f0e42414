package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/entangle/internal/store"
)

// ExpansionEvent is the observable outcome of one construct.
type ExpansionEvent struct {
	Seq       int64    `json:"seq"`
	Construct string   `json:"construct"`
	Kind      string   `json:"kind"`
	Namespace string   `json:"namespace,omitempty"`
	Status    string   `json:"status"`
	ErrorCode string   `json:"error_code,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Hash      string   `json:"output_hash,omitempty"`
	Source    string   `json:"-"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion matched.
	Pass bool `json:"pass"`

	// Trace lists construct outcomes in load order.
	Trace []ExpansionEvent `json:"trace"`

	// Source is the combined rendered source of all successful constructs.
	Source string `json:"-"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// NextImpl is the session counter stored after the run.
	NextImpl int64 `json:"next_impl"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ExpansionEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot renders the result for golden comparison: one comment line per
// construct followed by the combined source.
func (r *Result) Snapshot(name string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "// scenario: %s\n", name)
	for _, e := range r.Trace {
		fmt.Fprintf(&b, "// #%d %s %s", e.Seq, e.Kind, e.Construct)
		if e.Status == store.StatusError {
			fmt.Fprintf(&b, " error %s", e.ErrorCode)
		} else {
			fmt.Fprintf(&b, " -> %s", e.Namespace)
		}
		if len(e.Warnings) > 0 {
			fmt.Fprintf(&b, " warnings %s", strings.Join(e.Warnings, ","))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "// next_impl: %d\n", r.NextImpl)
	if r.Source != "" {
		b.WriteString("\n")
		b.WriteString(r.Source)
	}
	return []byte(b.String())
}
