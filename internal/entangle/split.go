package entangle

import "github.com/roach88/entangle/internal/syntax"

// handleField is the Handle's single field.
const handleField = "addr"

// splitDataType emits the Handle declaration, its two address accessors,
// and the actor namespace holding the original fields.
func (t *Transformer) splitDataType(dt *syntax.DataType) *Expansion {
	var c collector
	ns := ActorNamespace(dt.Name)

	fields := make([]syntax.Field, len(dt.Fields))
	for i, f := range dt.Fields {
		f.Vis = normalizeVisibility(f.Vis, f.Span, &c)
		fields[i] = f
	}

	actorType := &syntax.PathType{Segments: []syntax.PathSegment{
		{Ident: ns},
		{Ident: dt.Name, Args: dt.Generics.TypeArgs()},
	}}
	addrType := t.runtime.addressOf(actorType)

	handle := &syntax.StructDecl{
		Attrs:    []syntax.Attribute{"derive(Clone)"},
		Vis:      dt.Vis,
		Name:     dt.Name,
		Generics: dt.Generics,
		Style:    syntax.StyleNamed,
		Fields: []syntax.Field{{
			Vis:  syntax.Inherited(),
			Name: handleField,
			Type: addrType,
		}},
	}

	accessors := &syntax.HandlerImplBlock{
		Generics: dt.Generics,
		SelfType: &syntax.PathType{Segments: []syntax.PathSegment{
			{Ident: dt.Name, Args: dt.Generics.TypeArgs()},
		}},
		Items: []syntax.ImplItem{
			&syntax.MethodItem{
				Vis:      dt.Vis,
				Name:     "into_address",
				Receiver: syntax.ReceiverValue,
				Return:   addrType,
				Body:     &syntax.RawBody{Text: "self." + handleField},
			},
			&syntax.MethodItem{
				Vis:      dt.Vis,
				Name:     "address",
				Receiver: syntax.ReceiverRef,
				Return:   &syntax.RefType{Elem: addrType},
				Body:     &syntax.RawBody{Text: "&self." + handleField},
			},
		},
	}

	actor := &syntax.StructDecl{
		Attrs:    dt.Attrs,
		Vis:      syntax.Public(),
		Name:     dt.Name,
		Generics: dt.Generics,
		Style:    dt.Style,
		Fields:   fields,
	}

	mod := &syntax.Module{
		Attrs: []syntax.Attribute{"doc(hidden)", "allow(non_snake_case)"},
		Vis:   dt.Vis,
		Name:  ns,
		Items: []syntax.Item{actor},
	}

	return &Expansion{
		Kind:        KindDataType,
		Name:        dt.Name,
		Namespace:   ns,
		Items:       []syntax.Item{handle, accessors, mod},
		Diagnostics: c.diags,
	}
}
