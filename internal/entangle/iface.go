package entangle

import "github.com/roach88/entangle/internal/syntax"

// rewriteInterfaceImpl moves an interface implementation onto the Actor.
// Only the self type changes; the items are runtime machinery and are
// never mirrored on the Handle.
func (t *Transformer) rewriteInterfaceImpl(b *syntax.InterfaceImplBlock) (*Expansion, error) {
	target, err := implTarget(b.SelfType, b.Span)
	if err != nil {
		return nil, err
	}

	out := *b
	out.SelfType = actorPath(target)
	return &Expansion{
		Kind:      KindInterfaceImpl,
		Name:      target.Name(),
		Namespace: ActorNamespace(target.Name()),
		Items:     []syntax.Item{&out},
	}, nil
}
