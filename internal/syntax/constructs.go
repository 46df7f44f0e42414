package syntax

// SourceConstruct is one input declaration: exactly one of *DataType,
// *HandlerImplBlock or *InterfaceImplBlock.
type SourceConstruct interface {
	Position() Span
	construct()
}

// FieldStyle is the declaration form of a data type's fields.
type FieldStyle int

const (
	StyleNamed FieldStyle = iota // struct S { a: T }
	StyleTuple                   // struct S(T);
	StyleUnit                    // struct S;
)

// Field is one field of a data type. Tuple fields have no name.
type Field struct {
	Attrs []Attribute `json:"attrs,omitempty"`
	Vis   Visibility  `json:"vis"`
	Name  string      `json:"name,omitempty"`
	Type  Type        `json:"type"`
	Span  Span        `json:"span"`
}

// DataType is a plain data-type declaration.
type DataType struct {
	Attrs    []Attribute `json:"attrs,omitempty"`
	Vis      Visibility  `json:"vis"`
	Name     string      `json:"name"`
	Generics Generics    `json:"generics"`
	Style    FieldStyle  `json:"style"`
	Fields   []Field     `json:"fields,omitempty"`
	Span     Span        `json:"span"`
}

// HandlerImplBlock is an inherent implementation block: business methods
// that the Handle forwards to the Actor.
type HandlerImplBlock struct {
	Attrs    []Attribute `json:"attrs,omitempty"`
	Generics Generics    `json:"generics"`
	SelfType Type        `json:"self_type"`
	Items    []ImplItem  `json:"items"`
	Span     Span        `json:"span"`
}

// InterfaceImplBlock implements an external interface (trait) for the type.
type InterfaceImplBlock struct {
	Attrs    []Attribute `json:"attrs,omitempty"`
	Generics Generics    `json:"generics"`
	Trait    *PathType   `json:"trait"`
	SelfType Type        `json:"self_type"`
	Items    []ImplItem  `json:"items"`
	Span     Span        `json:"span"`
}

func (d *DataType) Position() Span           { return d.Span }
func (b *HandlerImplBlock) Position() Span   { return b.Span }
func (b *InterfaceImplBlock) Position() Span { return b.Span }

func (*DataType) construct()           {}
func (*HandlerImplBlock) construct()   {}
func (*InterfaceImplBlock) construct() {}

// SelfName returns the final identifier of an implementation target, or ""
// when the target is not a type path.
func SelfName(t Type) string {
	if p, ok := t.(*PathType); ok {
		return p.Name()
	}
	return ""
}
