package entangle

import "github.com/roach88/entangle/internal/syntax"

// normalizeVisibility returns the scope an item needs once it is relocated
// one namespace deeper, so that it stays reachable from where it was declared.
//
//   - pub, pub(crate): already reach the enclosing scope; unchanged
//   - private, pub(self): become pub(super), the minimal reaching scope
//   - pub(super), pub(in path): cannot be re-anchored precisely; widened to
//     pub(crate) with a W210 warning
func normalizeVisibility(v syntax.Visibility, span syntax.Span, c *collector) syntax.Visibility {
	switch v.Kind {
	case syntax.VisPublic:
		return v
	case syntax.VisInherited:
		return syntax.Restricted("super")
	}

	if v.IsRestrictedTo("crate") {
		return v
	}
	if v.IsRestrictedTo("self") {
		return syntax.Restricted("super")
	}

	c.warn(WarnCodeVisibilityWidened, span,
		"visibility `%s` is not supported under this transformation and has been widened to `pub(crate)`", v)
	return syntax.Restricted("crate")
}

// NormalizeVisibility is the exported form of the normalizer. It returns
// the widened scope and, when the scope could not be mapped precisely,
// the warning that explains it.
func NormalizeVisibility(v syntax.Visibility, span syntax.Span) (syntax.Visibility, *Diagnostic) {
	var c collector
	out := normalizeVisibility(v, span, &c)
	if len(c.diags) > 0 {
		return out, &c.diags[0]
	}
	return out, nil
}
