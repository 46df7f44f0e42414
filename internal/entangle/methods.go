package entangle

import (
	"github.com/roach88/entangle/internal/syntax"
)

// transformHandlers splits a handler block into an Actor-side mirror that
// keeps the real bodies and a Handle-side mirror whose methods forward to
// the actor through the mailbox address. Both are wrapped in a freshly
// numbered namespace.
func (t *Transformer) transformHandlers(b *syntax.HandlerImplBlock) (*Expansion, error) {
	target, err := implTarget(b.SelfType, b.Span)
	if err != nil {
		return nil, err
	}

	var c collector
	actorItems := make([]syntax.ImplItem, 0, len(b.Items))
	handleItems := make([]syntax.ImplItem, 0, len(b.Items))
	for _, item := range b.Items {
		a, h, err := t.mirrorItem(item, b.Span, &c)
		if err != nil {
			return nil, err
		}
		actorItems = append(actorItems, a)
		if h != nil {
			handleItems = append(handleItems, h)
		}
	}

	// Allocated only once every item transformed, so rejected blocks
	// leave no gap in the sequence.
	ns := t.counter.NextImplNamespace()

	actorSelf := actorPath(target)
	actorImpl := &syntax.HandlerImplBlock{
		Attrs:    b.Attrs,
		Generics: b.Generics,
		SelfType: actorSelf,
		Items:    actorItems,
		Span:     b.Span,
	}
	handleImpl := &syntax.HandlerImplBlock{
		Attrs:    b.Attrs,
		Generics: b.Generics,
		SelfType: handleSelf(target),
		Items:    handleItems,
		Span:     b.Span,
	}

	imported := actorSelf.Clone()
	for i := range imported.Segments {
		imported.Segments[i].Args = nil
	}

	mod := &syntax.Module{
		Name: ns,
		Items: []syntax.Item{
			&syntax.UseDecl{Path: "super::*"},
			&syntax.UseDecl{Path: imported.String()},
			actorImpl,
			handleImpl,
		},
	}

	return &Expansion{
		Kind:        KindHandlerImpl,
		Name:        target.Name(),
		Namespace:   ns,
		Items:       []syntax.Item{mod},
		Diagnostics: c.diags,
	}, nil
}

// handleSelf addresses the Handle from inside the generated namespace.
func handleSelf(target *syntax.PathType) *syntax.PathType {
	if target.IsRooted() {
		return target.Clone()
	}
	p := target.Clone()
	p.Segments = append([]syntax.PathSegment{{Ident: "super"}}, p.Segments...)
	return p
}

// mirrorItem returns the Actor-side and Handle-side copies of one item.
// handle is nil for items that exist on the actor only.
func (t *Transformer) mirrorItem(item syntax.ImplItem, blockSpan syntax.Span, c *collector) (actor, handle syntax.ImplItem, err error) {
	switch it := item.(type) {
	case *syntax.MethodItem:
		a := *it
		a.Attrs = stripDirectives(it.Attrs)
		a.Vis = normalizeVisibility(it.Vis, it.Span, c)
		if it.Receiver == syntax.ReceiverNone {
			// No address to dispatch through: the function lives on the
			// actor only.
			c.warn(WarnCodeActorOnly, it.Span,
				"associated function `%s` has no self receiver and is kept on the actor only", it.Name)
			return &a, nil, nil
		}
		h, err := t.forward(it)
		if err != nil {
			return nil, nil, err
		}
		return &a, h, nil
	case *syntax.ConstItem:
		a := *it
		a.Vis = normalizeVisibility(it.Vis, it.Span, c)
		return &a, it, nil
	case *syntax.TypeItem:
		a := *it
		a.Vis = normalizeVisibility(it.Vis, it.Span, c)
		return &a, it, nil
	case *syntax.MacroItem, *syntax.VerbatimItem:
		return it, it, nil
	default:
		return nil, nil, internalError(ErrCodeUnknownItem, blockSpan,
			"unknown implementation item kind %q", item.Kind())
	}
}

// forward builds the Handle-side method: same name, receiver, parameters
// and scope, made async, returning the declared value or the disconnection
// outcome, with the body replaced by one dispatch through the address.
func (t *Transformer) forward(m *syntax.MethodItem) (*syntax.MethodItem, error) {
	if !syntax.IsUnitType(m.Return) {
		if _, ok := m.Return.(*syntax.PathType); !ok {
			return nil, userError(ErrCodeReturnNotPath, m.Span,
				"the return type of `%s` must be a plain type path, found `%v`", m.Name, m.Return)
		}
	}

	policy := t.policy.dispatchFor(m)
	method := t.runtime.AwaitMethod
	if policy == syntax.DispatchNotify {
		method = t.runtime.NotifyMethod
	}

	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = p.Name
	}

	h := *m
	h.Attrs = stripDirectives(m.Attrs)
	h.Async = true
	h.Return = t.runtime.outcomeOf(m.Return)
	h.Body = &syntax.ForwardBody{
		Field:   handleField,
		Method:  method,
		Message: m.Name,
		Args:    args,
		Policy:  policy,
	}
	return &h, nil
}
