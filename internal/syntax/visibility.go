package syntax

import "strings"

// VisKind is the shape of an access-scope annotation.
type VisKind int

const (
	// VisInherited is the default (private) scope: no annotation.
	VisInherited VisKind = iota
	// VisPublic is an unrestricted `pub`.
	VisPublic
	// VisRestricted is `pub(crate)`, `pub(self)`, `pub(super)` or `pub(in path)`.
	VisRestricted
)

// Visibility is an access-scope annotation.
type Visibility struct {
	Kind VisKind  `json:"kind"`
	Path []string `json:"path,omitempty"` // restriction path segments
	In   bool     `json:"in,omitempty"`   // written with the `in` keyword
}

// Inherited returns the private (unannotated) visibility.
func Inherited() Visibility {
	return Visibility{Kind: VisInherited}
}

// Public returns `pub`.
func Public() Visibility {
	return Visibility{Kind: VisPublic}
}

// Restricted returns `pub(<segment>)`, e.g. Restricted("crate").
func Restricted(segment string) Visibility {
	return Visibility{Kind: VisRestricted, Path: []string{segment}}
}

// RestrictedIn returns `pub(in a::b)`.
func RestrictedIn(path ...string) Visibility {
	return Visibility{Kind: VisRestricted, Path: append([]string(nil), path...), In: true}
}

// IsRestrictedTo reports whether v is exactly `pub(<segment>)` without `in`.
func (v Visibility) IsRestrictedTo(segment string) bool {
	return v.Kind == VisRestricted && !v.In && len(v.Path) == 1 && v.Path[0] == segment
}

// Equal reports structural equality.
func (v Visibility) Equal(o Visibility) bool {
	if v.Kind != o.Kind || v.In != o.In || len(v.Path) != len(o.Path) {
		return false
	}
	for i := range v.Path {
		if v.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

func (v Visibility) String() string {
	switch v.Kind {
	case VisPublic:
		return "pub"
	case VisRestricted:
		path := strings.Join(v.Path, "::")
		if v.In {
			return "pub(in " + path + ")"
		}
		return "pub(" + path + ")"
	default:
		return ""
	}
}
