package syntax

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseSimplePath parses a path without generic arguments, such as
// `::entangle::runtime::Address`. It is used for configured runtime paths;
// full type expressions are parsed by the compiler.
func ParseSimplePath(s string) (*PathType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}
	p := &PathType{}
	if strings.HasPrefix(s, "::") {
		p.Global = true
		s = s[2:]
	}
	for _, seg := range strings.Split(s, "::") {
		seg = strings.TrimSpace(seg)
		if !IsIdent(seg) {
			return nil, fmt.Errorf("invalid path segment %q", seg)
		}
		p.Segments = append(p.Segments, PathSegment{Ident: seg})
	}
	return p, nil
}

// IsIdent reports whether s is a valid identifier.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
