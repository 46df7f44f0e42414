package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/entangle/internal/syntax"
)

// NormalizeIdent returns the NFC form of an identifier, so visually equal
// names compare and hash equally.
func NormalizeIdent(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParseVisibility parses an access scope: "", "pub", "pub(crate)",
// "pub(self)", "pub(super)" or "pub(in a::b)".
func ParseVisibility(s string) (syntax.Visibility, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return syntax.Inherited(), nil
	case "pub":
		return syntax.Public(), nil
	}
	if !strings.HasPrefix(s, "pub(") || !strings.HasSuffix(s, ")") {
		return syntax.Visibility{}, fmt.Errorf("invalid visibility %q", s)
	}
	inner := strings.TrimSpace(s[len("pub(") : len(s)-1])
	if rest, ok := strings.CutPrefix(inner, "in "); ok {
		path, err := syntax.ParseSimplePath(rest)
		if err != nil || path.Global {
			return syntax.Visibility{}, fmt.Errorf("invalid visibility %q", s)
		}
		segs := make([]string, len(path.Segments))
		for i, seg := range path.Segments {
			segs[i] = seg.Ident
		}
		return syntax.RestrictedIn(segs...), nil
	}
	switch inner {
	case "crate", "self", "super":
		return syntax.Restricted(inner), nil
	}
	return syntax.Visibility{}, fmt.Errorf("invalid visibility %q", s)
}

// ParseReceiver parses a method's self parameter; "" means none.
func ParseReceiver(s string) (syntax.Receiver, error) {
	switch strings.Join(strings.Fields(s), " ") {
	case "":
		return syntax.ReceiverNone, nil
	case "self":
		return syntax.ReceiverValue, nil
	case "mut self":
		return syntax.ReceiverMutValue, nil
	case "&self":
		return syntax.ReceiverRef, nil
	case "&mut self", "& mut self":
		return syntax.ReceiverMutRef, nil
	default:
		return syntax.ReceiverNone, fmt.Errorf("invalid receiver %q", s)
	}
}

// ParseGenericParam parses the string form of a generic parameter:
// "T", "T: Send + Sync", "T = i32", "'a", "'a: 'b" or "const N: usize".
func ParseGenericParam(s string) (syntax.GenericParam, error) {
	s = strings.TrimSpace(s)
	var gp syntax.GenericParam

	if rest, ok := strings.CutPrefix(s, "const "); ok {
		name, typ, found := strings.Cut(rest, ":")
		if !found {
			return gp, fmt.Errorf("const parameter %q needs a type", s)
		}
		typ, def, _ := strings.Cut(typ, "=")
		gp.Kind = syntax.ParamConst
		gp.Name = NormalizeIdent(name)
		gp.ConstType = strings.TrimSpace(typ)
		gp.Default = strings.TrimSpace(def)
		if !syntax.IsIdent(gp.Name) || gp.ConstType == "" {
			return gp, fmt.Errorf("invalid const parameter %q", s)
		}
		return gp, nil
	}

	head, def, _ := cutTopLevel(s, '=')
	name, bounds, hasBounds := strings.Cut(head, ":")
	gp.Name = NormalizeIdent(name)
	gp.Default = strings.TrimSpace(def)
	if hasBounds {
		for _, b := range splitTopLevel(bounds, '+') {
			b = strings.TrimSpace(b)
			if b == "" {
				return gp, fmt.Errorf("empty bound in generic parameter %q", s)
			}
			gp.Bounds = append(gp.Bounds, b)
		}
	}

	if lt, ok := strings.CutPrefix(gp.Name, "'"); ok {
		if !syntax.IsIdent(lt) {
			return gp, fmt.Errorf("invalid lifetime parameter %q", s)
		}
		gp.Kind = syntax.ParamLifetime
		return gp, nil
	}
	if !syntax.IsIdent(gp.Name) {
		return gp, fmt.Errorf("invalid generic parameter %q", s)
	}
	gp.Kind = syntax.ParamType
	return gp, nil
}

// ParseAttribute accepts "#[inner]" or the bare inner text.
func ParseAttribute(s string) (syntax.Attribute, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#[") {
		if !strings.HasSuffix(s, "]") {
			return "", fmt.Errorf("unterminated attribute %q", s)
		}
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	if s == "" {
		return "", fmt.Errorf("empty attribute")
	}
	return syntax.Attribute(s), nil
}

// splitTopLevel splits s on sep outside angle brackets and parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func cutTopLevel(s string, sep byte) (before, after string, found bool) {
	parts := splitTopLevel(s, sep)
	if len(parts) == 1 {
		return s, "", false
	}
	return parts[0], strings.Join(parts[1:], string(sep)), true
}
