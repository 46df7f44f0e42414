package entangle

import (
	"fmt"

	"github.com/roach88/entangle/internal/syntax"
)

// Severity of a diagnostic record.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a non-fatal finding reported alongside an expansion.
type Diagnostic struct {
	Severity Severity    `json:"severity"`
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Span     syntax.Span `json:"span"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s[%s]: %s", d.Span, d.Severity, d.Code, d.Message)
}

// collector accumulates diagnostics for one construct.
type collector struct {
	diags []Diagnostic
}

func (c *collector) warn(code string, span syntax.Span, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}
