package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Trace    []ExpansionEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if event.Status == store.StatusError {
			fmt.Fprintf(&buf, "  [%d] %s %s error %s\n", event.Seq, event.Kind, event.Construct, event.ErrorCode)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Kind, event.Construct, event.Namespace)
	}

	return buf.String()
}

// sourceFor returns the text an output assertion searches: the source of the
// named constructs, or the combined source when construct is empty.
func sourceFor(result *Result, construct string) (string, bool) {
	if construct == "" {
		return result.Source, true
	}
	var parts []string
	found := false
	for _, e := range result.Trace {
		if e.Construct == construct {
			found = true
			parts = append(parts, e.Source)
		}
	}
	return strings.Join(parts, "\n"), found
}

// assertOutputContains checks that the rendered source contains the text.
func assertOutputContains(result *Result, assertion Assertion) error {
	src, found := sourceFor(result, assertion.Construct)
	if !found {
		return &AssertionError{
			Type:     AssertOutputContains,
			Expected: fmt.Sprintf("construct %s", assertion.Construct),
			Actual:   "not found in trace",
			Trace:    result.Trace,
		}
	}
	if !strings.Contains(src, assertion.Text) {
		return &AssertionError{
			Type:     AssertOutputContains,
			Expected: fmt.Sprintf("output containing %q", assertion.Text),
			Actual:   "text not found",
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertOutputExcludes checks that the rendered source does not contain the text.
func assertOutputExcludes(result *Result, assertion Assertion) error {
	src, _ := sourceFor(result, assertion.Construct)
	if strings.Contains(src, assertion.Text) {
		return &AssertionError{
			Type:     AssertOutputExcludes,
			Expected: fmt.Sprintf("output without %q", assertion.Text),
			Actual:   fmt.Sprintf("found %d occurrence(s)", strings.Count(src, assertion.Text)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertOutputCount checks the number of occurrences in the combined source.
func assertOutputCount(result *Result, assertion Assertion) error {
	count := int64(strings.Count(result.Source, assertion.Text))
	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertOutputCount,
			Expected: fmt.Sprintf("%q exactly %d time(s)", assertion.Text, *assertion.Count),
			Actual:   fmt.Sprintf("found %d time(s)", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertNamespaceOrder checks the impl namespaces of successful handler blocks.
func assertNamespaceOrder(result *Result, assertion Assertion) error {
	var got []string
	for _, e := range result.Trace {
		if e.Kind == string(entangle.KindHandlerImpl) && e.Status == store.StatusOK {
			got = append(got, e.Namespace)
		}
	}
	if !slices.Equal(got, assertion.Namespaces) {
		return &AssertionError{
			Type:     AssertNamespaceOrder,
			Expected: fmt.Sprintf("namespaces %v", assertion.Namespaces),
			Actual:   fmt.Sprintf("namespaces %v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalCounter checks the stored session counter after the run.
func assertFinalCounter(result *Result, assertion Assertion) error {
	if result.NextImpl != *assertion.Count {
		return &AssertionError{
			Type:     AssertFinalCounter,
			Expected: fmt.Sprintf("next_impl %d", *assertion.Count),
			Actual:   fmt.Sprintf("next_impl %d", result.NextImpl),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for _, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputContains:
			err = assertOutputContains(result, assertion)
		case AssertOutputExcludes:
			err = assertOutputExcludes(result, assertion)
		case AssertOutputCount:
			err = assertOutputCount(result, assertion)
		case AssertNamespaceOrder:
			err = assertNamespaceOrder(result, assertion)
		case AssertFinalCounter:
			err = assertFinalCounter(result, assertion)
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
