package entangle

import (
	"fmt"

	"github.com/roach88/entangle/internal/syntax"
)

// Runtime is the narrow capability surface the emitted code calls into:
// an address type parameterized by the Actor, an explicit disconnection
// outcome, and the two dispatch operations. Any mailbox runtime exposing
// these names can host the generated code.
type Runtime struct {
	Address      *syntax.PathType // generic over the Actor type
	Disconnected *syntax.PathType
	AwaitMethod  string // dispatch-and-await
	NotifyMethod string // dispatch without awaiting the handler
}

// DefaultRuntime returns the built-in capability binding.
func DefaultRuntime() Runtime {
	return Runtime{
		Address:      &syntax.PathType{Global: true, Segments: []syntax.PathSegment{{Ident: "entangle"}, {Ident: "runtime"}, {Ident: "Address"}}},
		Disconnected: &syntax.PathType{Global: true, Segments: []syntax.PathSegment{{Ident: "entangle"}, {Ident: "runtime"}, {Ident: "Disconnected"}}},
		AwaitMethod:  "send",
		NotifyMethod: "notify",
	}
}

// Validate reports an incomplete binding.
func (r Runtime) Validate() error {
	if r.Address == nil || len(r.Address.Segments) == 0 {
		return fmt.Errorf("runtime address path is required")
	}
	if r.Disconnected == nil || len(r.Disconnected.Segments) == 0 {
		return fmt.Errorf("runtime disconnected path is required")
	}
	if !syntax.IsIdent(r.AwaitMethod) {
		return fmt.Errorf("invalid await method %q", r.AwaitMethod)
	}
	if !syntax.IsIdent(r.NotifyMethod) {
		return fmt.Errorf("invalid notify method %q", r.NotifyMethod)
	}
	return nil
}

// addressOf returns `Address<actor>`.
func (r Runtime) addressOf(actor syntax.Type) *syntax.PathType {
	p := r.Address.Clone()
	p.Last().Args = []syntax.Type{actor}
	return p
}

// resultPath is the outcome type every forwarded call returns.
var resultPath = []string{"core", "result", "Result"}

// outcomeOf returns `Result<ret, Disconnected>`, the Handle-side return type
// of a forwarded method declared to return ret. A nil or unit ret yields
// `Result<(), Disconnected>`, so fire-and-forget calls still report a lost
// actor.
func (r Runtime) outcomeOf(ret syntax.Type) *syntax.PathType {
	if syntax.IsUnitType(ret) {
		ret = &syntax.TupleType{}
	}
	p := &syntax.PathType{Global: true}
	for _, seg := range resultPath {
		p.Segments = append(p.Segments, syntax.PathSegment{Ident: seg})
	}
	p.Last().Args = []syntax.Type{ret, r.Disconnected.Clone()}
	return p
}

// Policy decides between awaited and fire-and-forget dispatch.
type Policy string

const (
	// PolicyAuto awaits value-returning methods and notifies unit-returning ones.
	PolicyAuto Policy = "auto"
	// PolicyAwait awaits every forwarded call.
	PolicyAwait Policy = "await"
)

// IsValid reports whether p is a known policy.
func (p Policy) IsValid() bool {
	return p == PolicyAuto || p == PolicyAwait
}

// Per-method policy overrides. They are consumed by the transformer and
// never emitted.
const (
	AttrAwait  syntax.Attribute = "entangle(await)"
	AttrNotify syntax.Attribute = "entangle(notify)"
)

func (p Policy) dispatchFor(m *syntax.MethodItem) syntax.DispatchPolicy {
	switch {
	case syntax.HasAttr(m.Attrs, AttrAwait):
		return syntax.DispatchAwait
	case syntax.HasAttr(m.Attrs, AttrNotify):
		return syntax.DispatchNotify
	case p == PolicyAwait:
		return syntax.DispatchAwait
	case syntax.IsUnitType(m.Return):
		return syntax.DispatchNotify
	default:
		return syntax.DispatchAwait
	}
}

// stripDirectives drops policy override attributes.
func stripDirectives(attrs []syntax.Attribute) []syntax.Attribute {
	if !syntax.HasAttr(attrs, AttrAwait) && !syntax.HasAttr(attrs, AttrNotify) {
		return attrs
	}
	out := make([]syntax.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a == AttrAwait || a == AttrNotify {
			continue
		}
		out = append(out, a)
	}
	return out
}
