package syntax

import (
	"fmt"
	"strings"
)

// Type is a type expression.
type Type interface {
	fmt.Stringer
	typeNode()
}

// PathSegment is one `::`-separated segment of a type path.
type PathSegment struct {
	Ident string `json:"ident"`
	Args  []Type `json:"args,omitempty"` // generic arguments, in order
}

// PathType is a (possibly generic) named type such as `a::b::Counter<T>`.
// It is the only shape accepted as an implementation target.
type PathType struct {
	Global   bool          `json:"global,omitempty"` // leading `::`
	Segments []PathSegment `json:"segments"`
}

// TupleType is `(A, B)`. The empty tuple is the unit type.
type TupleType struct {
	Elems []Type `json:"elems"`
}

// RefType is `&'a mut T`.
type RefType struct {
	Lifetime string `json:"lifetime,omitempty"`
	Mut      bool   `json:"mut,omitempty"`
	Elem     Type   `json:"elem"`
}

// SliceType is `[T]`, or `[T; Len]` when Len is set.
type SliceType struct {
	Elem Type   `json:"elem"`
	Len  string `json:"len,omitempty"`
}

// ImplTraitType is `impl A + B` or, with Dyn, `dyn A + B`.
type ImplTraitType struct {
	Dyn    bool     `json:"dyn,omitempty"`
	Bounds []string `json:"bounds"`
}

// Lifetime is a lifetime used as a generic argument, e.g. `'a`.
type Lifetime struct {
	Name string `json:"name"` // includes the leading quote
}

func (*PathType) typeNode()      {}
func (*TupleType) typeNode()     {}
func (*RefType) typeNode()       {}
func (*SliceType) typeNode()     {}
func (*ImplTraitType) typeNode() {}
func (*Lifetime) typeNode()      {}

// NewPath builds a PathType from plain identifiers.
func NewPath(idents ...string) *PathType {
	p := &PathType{Segments: make([]PathSegment, len(idents))}
	for i, id := range idents {
		p.Segments[i] = PathSegment{Ident: id}
	}
	return p
}

// Name returns the identifier of the final segment.
func (p *PathType) Name() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1].Ident
}

// Last returns the final segment. Callers must ensure the path is non-empty.
func (p *PathType) Last() *PathSegment {
	return &p.Segments[len(p.Segments)-1]
}

// Clone returns a copy whose segments may be modified freely.
// Generic argument types are shared.
func (p *PathType) Clone() *PathType {
	c := &PathType{Global: p.Global, Segments: make([]PathSegment, len(p.Segments))}
	for i, s := range p.Segments {
		c.Segments[i] = PathSegment{Ident: s.Ident, Args: append([]Type(nil), s.Args...)}
	}
	return c
}

// IsRooted reports whether the path starts at the crate root (`::` or `crate::`).
func (p *PathType) IsRooted() bool {
	return p.Global || (len(p.Segments) > 0 && p.Segments[0].Ident == "crate")
}

func (p *PathType) String() string {
	var sb strings.Builder
	if p.Global {
		sb.WriteString("::")
	}
	for i, s := range p.Segments {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(s.Ident)
		if len(s.Args) > 0 {
			sb.WriteString("<")
			sb.WriteString(joinTypes(s.Args))
			sb.WriteString(">")
		}
	}
	return sb.String()
}

// IsUnit reports whether the tuple is `()`.
func (t *TupleType) IsUnit() bool {
	return len(t.Elems) == 0
}

func (t *TupleType) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + joinTypes(t.Elems) + ")"
}

func (r *RefType) String() string {
	var sb strings.Builder
	sb.WriteString("&")
	if r.Lifetime != "" {
		sb.WriteString(r.Lifetime)
		sb.WriteString(" ")
	}
	if r.Mut {
		sb.WriteString("mut ")
	}
	sb.WriteString(r.Elem.String())
	return sb.String()
}

func (s *SliceType) String() string {
	if s.Len != "" {
		return "[" + s.Elem.String() + "; " + s.Len + "]"
	}
	return "[" + s.Elem.String() + "]"
}

func (t *ImplTraitType) String() string {
	kw := "impl "
	if t.Dyn {
		kw = "dyn "
	}
	return kw + strings.Join(t.Bounds, " + ")
}

func (l *Lifetime) String() string {
	return l.Name
}

// IsUnitType reports whether t is absent or the unit tuple.
func IsUnitType(t Type) bool {
	if t == nil {
		return true
	}
	tup, ok := t.(*TupleType)
	return ok && tup.IsUnit()
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
