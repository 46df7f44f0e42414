package syntax

// Item is one emitted declaration.
type Item interface {
	item()
}

// Module is a generated namespace.
type Module struct {
	Attrs []Attribute `json:"attrs,omitempty"`
	Vis   Visibility  `json:"vis"`
	Name  string      `json:"name"`
	Items []Item      `json:"items"`
}

// UseDecl imports a path into the enclosing namespace.
type UseDecl struct {
	Path string `json:"path"`
}

// StructDecl is an emitted data-type declaration (Handle or Actor).
type StructDecl struct {
	Attrs    []Attribute `json:"attrs,omitempty"`
	Vis      Visibility  `json:"vis"`
	Name     string      `json:"name"`
	Generics Generics    `json:"generics"`
	Style    FieldStyle  `json:"style"`
	Fields   []Field     `json:"fields,omitempty"`
}

func (*Module) item()             {}
func (*UseDecl) item()            {}
func (*StructDecl) item()         {}
func (*HandlerImplBlock) item()   {}
func (*InterfaceImplBlock) item() {}
