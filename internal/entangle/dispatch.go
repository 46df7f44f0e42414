package entangle

import (
	"log/slog"

	"github.com/roach88/entangle/internal/syntax"
)

// ConstructKind labels the shape of an expanded construct.
type ConstructKind string

const (
	KindDataType      ConstructKind = "struct"
	KindHandlerImpl   ConstructKind = "impl"
	KindInterfaceImpl ConstructKind = "trait_impl"
)

// Expansion is the output of one construct.
type Expansion struct {
	Kind        ConstructKind
	Name        string // base type name
	Namespace   string // actor namespace, or impl namespace for handler blocks
	Items       []syntax.Item
	Diagnostics []Diagnostic
}

// Result pairs a construct's expansion with its error. Exactly one is set.
type Result struct {
	Expansion *Expansion
	Err       error
}

// Transformer expands constructs for one compilation session.
type Transformer struct {
	runtime Runtime
	policy  Policy
	counter *Counter
	logger  *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithCounter injects the session's impl-namespace counter.
func WithCounter(c *Counter) Option {
	return func(t *Transformer) {
		t.counter = c
	}
}

// WithRuntime sets the capability binding the emitted code calls into.
func WithRuntime(r Runtime) Option {
	return func(t *Transformer) {
		t.runtime = r
	}
}

// WithPolicy sets the await/notify policy for forwarded calls.
func WithPolicy(p Policy) Option {
	return func(t *Transformer) {
		t.policy = p
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		t.logger = l
	}
}

// New creates a Transformer. Without WithCounter it starts a fresh session
// counter at 0.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		runtime: DefaultRuntime(),
		policy:  PolicyAuto,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.counter == nil {
		t.counter = NewCounter()
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Counter returns the session counter.
func (t *Transformer) Counter() *Counter {
	return t.counter
}

// Expand transforms one construct. Leading attributes are attached to the
// construct before classification. On error the construct produces no
// output and the returned Expansion is nil.
func (t *Transformer) Expand(attrs []syntax.Attribute, c syntax.SourceConstruct) (*Expansion, error) {
	var (
		exp *Expansion
		err error
	)
	switch c := c.(type) {
	case *syntax.DataType:
		dt := *c
		dt.Attrs = joinAttrs(attrs, c.Attrs)
		exp = t.splitDataType(&dt)
	case *syntax.HandlerImplBlock:
		b := *c
		b.Attrs = joinAttrs(attrs, c.Attrs)
		exp, err = t.transformHandlers(&b)
	case *syntax.InterfaceImplBlock:
		b := *c
		b.Attrs = joinAttrs(attrs, c.Attrs)
		exp, err = t.rewriteInterfaceImpl(&b)
	default:
		err = internalError(ErrCodeUnknownConstruct, syntax.Span{}, "unknown construct %T", c)
	}
	if err != nil {
		t.logger.Debug("construct rejected", "error", err)
		return nil, err
	}

	t.logger.Debug("construct expanded",
		"kind", exp.Kind,
		"name", exp.Name,
		"namespace", exp.Namespace,
		"warnings", len(exp.Diagnostics),
	)
	return exp, nil
}

// ExpandAll transforms constructs in order. A failing construct never
// affects its siblings.
func (t *Transformer) ExpandAll(cs []syntax.SourceConstruct) []Result {
	results := make([]Result, len(cs))
	for i, c := range cs {
		exp, err := t.Expand(nil, c)
		results[i] = Result{Expansion: exp, Err: err}
	}
	return results
}

func joinAttrs(leading, own []syntax.Attribute) []syntax.Attribute {
	if len(leading) == 0 {
		return own
	}
	out := make([]syntax.Attribute, 0, len(leading)+len(own))
	out = append(out, leading...)
	return append(out, own...)
}

// implTarget resolves the self type of an implementation block to a plain
// type path.
func implTarget(self syntax.Type, span syntax.Span) (*syntax.PathType, error) {
	p, ok := self.(*syntax.PathType)
	if !ok || len(p.Segments) == 0 {
		return nil, userError(ErrCodeTargetNotPath, span,
			"the implementation target must be a plain type path, found `%v`", self)
	}
	return p, nil
}

// actorPath inserts the actor namespace segment before the final segment:
// `a::Counter<T>` becomes `a::__CounterActor::Counter<T>`.
func actorPath(p *syntax.PathType) *syntax.PathType {
	out := p.Clone()
	last := out.Segments[len(out.Segments)-1]
	out.Segments[len(out.Segments)-1] = syntax.PathSegment{Ident: ActorNamespace(last.Ident)}
	out.Segments = append(out.Segments, last)
	return out
}
