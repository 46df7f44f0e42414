package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/entangle/internal/emit"
	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/store"
	"github.com/roach88/entangle/internal/syntax"
)

// Outcome is the result of expanding and rendering one construct.
// Err is nil exactly when Expansion is set.
type Outcome struct {
	Seq       int64
	Construct string
	Kind      entangle.ConstructKind
	Span      syntax.Span
	Expansion *entangle.Expansion
	Err       error
	Source    string
	Hash      string
}

// OK reports whether the construct expanded without error.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Warnings returns the number of warning diagnostics.
func (o Outcome) Warnings() int {
	if o.Expansion == nil {
		return 0
	}
	return len(o.Expansion.Diagnostics)
}

// Expand runs t over cs in order and renders every successful expansion.
// A construct that fails to expand or render never affects its siblings.
func Expand(t *entangle.Transformer, cs []syntax.SourceConstruct) []Outcome {
	out := make([]Outcome, len(cs))
	for i, c := range cs {
		o := Outcome{
			Seq:       int64(i),
			Construct: ConstructName(c),
			Kind:      KindOf(c),
			Span:      c.Position(),
		}
		exp, err := t.Expand(nil, c)
		if err != nil {
			o.Err = err
			out[i] = o
			continue
		}
		src, err := emit.Render(exp.Items)
		if err != nil {
			o.Err = &entangle.Error{
				Class:   entangle.ClassInternal,
				Code:    entangle.ErrCodeRenderFailed,
				Message: err.Error(),
				Span:    c.Position(),
			}
			out[i] = o
			continue
		}
		o.Expansion = exp
		o.Source = src
		o.Hash = syntax.OutputHash(src)
		out[i] = o
	}
	return out
}

// ConstructName is the display name of a construct: the type name for data
// types, the target type for handler blocks and `Trait for Target` for
// interface blocks.
func ConstructName(c syntax.SourceConstruct) string {
	switch c := c.(type) {
	case *syntax.DataType:
		return c.Name
	case *syntax.HandlerImplBlock:
		return c.SelfType.String()
	case *syntax.InterfaceImplBlock:
		return fmt.Sprintf("%s for %s", c.Trait, c.SelfType)
	default:
		return fmt.Sprintf("%T", c)
	}
}

// KindOf classifies a construct without expanding it.
func KindOf(c syntax.SourceConstruct) entangle.ConstructKind {
	switch c.(type) {
	case *syntax.DataType:
		return entangle.KindDataType
	case *syntax.HandlerImplBlock:
		return entangle.KindHandlerImpl
	case *syntax.InterfaceImplBlock:
		return entangle.KindInterfaceImpl
	default:
		return ""
	}
}

// Combined concatenates the rendered source of all successful outcomes,
// separated by blank lines.
func Combined(outcomes []Outcome) string {
	var parts []string
	for _, o := range outcomes {
		if o.OK() {
			parts = append(parts, o.Source)
		}
	}
	return strings.Join(parts, "\n")
}

// Failed returns the outcomes that did not expand.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// ErrorCode returns the diagnostic code of a failed outcome, or "" if the
// error carries none.
func ErrorCode(err error) string {
	var te *entangle.Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// records converts outcomes to store rows.
func records(outcomes []Outcome) ([]store.Expansion, []store.Diagnostic) {
	exps := make([]store.Expansion, 0, len(outcomes))
	var diags []store.Diagnostic
	for _, o := range outcomes {
		exp := store.Expansion{
			Seq:        o.Seq,
			Construct:  o.Construct,
			Kind:       string(o.Kind),
			Status:     store.StatusOK,
			OutputHash: o.Hash,
			Source:     o.Source,
		}
		if o.OK() {
			exp.Namespace = o.Expansion.Namespace
			for i, d := range o.Expansion.Diagnostics {
				diags = append(diags, store.Diagnostic{
					Seq:      o.Seq,
					Ordinal:  i,
					Severity: string(d.Severity),
					Code:     d.Code,
					Message:  d.Message,
					File:     d.Span.File,
					Line:     d.Span.Line,
					Col:      d.Span.Column,
				})
			}
		} else {
			exp.Status = store.StatusError
			d := store.Diagnostic{
				Seq:      o.Seq,
				Severity: store.SeverityError,
				Code:     ErrorCode(o.Err),
				Message:  o.Err.Error(),
			}
			var te *entangle.Error
			if errors.As(o.Err, &te) {
				d.Message = te.Message
				d.File = te.Span.File
				d.Line = te.Span.Line
				d.Col = te.Span.Column
			}
			diags = append(diags, d)
		}
		exps = append(exps, exp)
	}
	return exps, diags
}
