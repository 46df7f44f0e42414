package compiler

import (
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/entangle/internal/syntax"
)

// CompileDataType parses a CUE value into a DataType.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the struct entry itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`struct: Counter: { fields: [...] }`)
//	dt, err := CompileDataType(v.LookupPath(cue.ParsePath("struct.Counter")))
func CompileDataType(v cue.Value) (*syntax.DataType, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	dt := &syntax.DataType{Span: spanOf(v.Pos())}

	// Name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		dt.Name = NormalizeIdent(labels[len(labels)-1].Unquoted())
	}
	if !syntax.IsIdent(dt.Name) {
		return nil, &CompileError{Field: "name", Message: fmt.Sprintf("invalid type name %q", dt.Name), Pos: v.Pos()}
	}

	var err error
	if dt.Vis, err = parseVis(v); err != nil {
		return nil, err
	}
	if dt.Attrs, err = parseAttrs(v); err != nil {
		return nil, err
	}
	if dt.Generics, err = parseGenerics(v); err != nil {
		return nil, err
	}

	style, err := optionalString(v, "style")
	if err != nil {
		return nil, err
	}
	switch style {
	case "", "named":
		dt.Style = syntax.StyleNamed
	case "tuple":
		dt.Style = syntax.StyleTuple
	case "unit":
		dt.Style = syntax.StyleUnit
	default:
		return nil, &CompileError{Field: "style", Message: fmt.Sprintf("unknown style %q (named, tuple, unit)", style), Pos: v.Pos()}
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return dt, nil
	}
	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		f, err := parseField(iter.Value(), dt.Style)
		if err != nil {
			return nil, err
		}
		dt.Fields = append(dt.Fields, f)
	}
	if dt.Style == syntax.StyleUnit && len(dt.Fields) > 0 {
		return nil, &CompileError{Field: "fields", Message: "unit structs cannot have fields", Pos: fieldsVal.Pos()}
	}
	return dt, nil
}

func parseField(v cue.Value, style syntax.FieldStyle) (syntax.Field, error) {
	f := syntax.Field{Span: spanOf(v.Pos())}

	name, err := optionalString(v, "name")
	if err != nil {
		return f, err
	}
	f.Name = NormalizeIdent(name)
	switch {
	case style == syntax.StyleNamed && !syntax.IsIdent(f.Name):
		return f, &CompileError{Field: "name", Message: fmt.Sprintf("named fields need a valid name, got %q", name), Pos: v.Pos()}
	case style == syntax.StyleTuple && f.Name != "":
		return f, &CompileError{Field: "name", Message: fmt.Sprintf("tuple fields are unnamed, got %q", name), Pos: v.Pos()}
	}

	if f.Vis, err = parseVis(v); err != nil {
		return f, err
	}
	if f.Attrs, err = parseAttrs(v); err != nil {
		return f, err
	}
	if f.Type, err = requiredType(v, "type"); err != nil {
		return f, err
	}
	return f, nil
}

// CompileImpl parses an `impl` entry. Entries with a trait become
// InterfaceImplBlocks, the rest HandlerImplBlocks.
func CompileImpl(v cue.Value) (syntax.SourceConstruct, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	span := spanOf(v.Pos())

	selfVal := v.LookupPath(cue.ParsePath("self"))
	if !selfVal.Exists() {
		return nil, &CompileError{Field: "self", Message: "self type is required", Pos: v.Pos()}
	}
	selfType, err := requiredType(v, "self")
	if err != nil {
		return nil, err
	}

	attrs, err := parseAttrs(v)
	if err != nil {
		return nil, err
	}
	generics, err := parseGenerics(v)
	if err != nil {
		return nil, err
	}
	items, err := parseItems(v)
	if err != nil {
		return nil, err
	}

	traitStr, err := optionalString(v, "trait")
	if err != nil {
		return nil, err
	}
	if traitStr == "" {
		return &syntax.HandlerImplBlock{
			Attrs:    attrs,
			Generics: generics,
			SelfType: selfType,
			Items:    items,
			Span:     span,
		}, nil
	}

	trait, err := ParseTypePath(traitStr)
	if err != nil {
		return nil, &CompileError{Field: "trait", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("trait")).Pos()}
	}
	return &syntax.InterfaceImplBlock{
		Attrs:    attrs,
		Generics: generics,
		Trait:    trait,
		SelfType: selfType,
		Items:    items,
		Span:     span,
	}, nil
}

func parseItems(v cue.Value) ([]syntax.ImplItem, error) {
	itemsVal := v.LookupPath(cue.ParsePath("items"))
	if !itemsVal.Exists() {
		return nil, nil
	}
	iter, err := itemsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var items []syntax.ImplItem
	for iter.Next() {
		item, err := parseItem(iter.Value())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// parseItem decodes one `{<kind>: ...}` entry.
func parseItem(v cue.Value) (syntax.ImplItem, error) {
	fields, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if !fields.Next() {
		return nil, &CompileError{Field: "item", Message: "empty item", Pos: v.Pos()}
	}
	kind, body := fields.Selector().Unquoted(), fields.Value()
	if fields.Next() {
		return nil, &CompileError{Field: "item", Message: "an item must have exactly one kind", Pos: v.Pos()}
	}

	switch syntax.ItemKind(kind) {
	case syntax.KindMethod:
		return parseMethod(body)
	case syntax.KindConst:
		return parseConst(body)
	case syntax.KindType:
		return parseTypeItem(body)
	case syntax.KindMacro:
		text, err := body.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &syntax.MacroItem{Text: text, Span: spanOf(body.Pos())}, nil
	case syntax.KindVerbatim:
		text, err := body.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &syntax.VerbatimItem{Text: text, Span: spanOf(body.Pos())}, nil
	default:
		return nil, &CompileError{
			Field:   "item",
			Message: fmt.Sprintf("unknown item kind %q (method, const, type, macro, verbatim)", kind),
			Pos:     v.Pos(),
		}
	}
}

func parseMethod(v cue.Value) (*syntax.MethodItem, error) {
	m := &syntax.MethodItem{Span: spanOf(v.Pos())}

	var err error
	if m.Name, err = requiredIdent(v, "name"); err != nil {
		return nil, err
	}
	if m.Vis, err = parseVis(v); err != nil {
		return nil, err
	}
	if m.Attrs, err = parseAttrs(v); err != nil {
		return nil, err
	}
	if m.Generics, err = parseGenerics(v); err != nil {
		return nil, err
	}

	asyncVal := v.LookupPath(cue.ParsePath("async"))
	if asyncVal.Exists() {
		if m.Async, err = asyncVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	recv, err := optionalString(v, "receiver")
	if err != nil {
		return nil, err
	}
	if m.Receiver, err = ParseReceiver(recv); err != nil {
		return nil, &CompileError{Field: "receiver", Message: err.Error(), Pos: v.Pos()}
	}

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		iter, err := paramsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			pv := iter.Value()
			name, err := requiredIdent(pv, "name")
			if err != nil {
				return nil, err
			}
			typ, err := requiredType(pv, "type")
			if err != nil {
				return nil, err
			}
			m.Params = append(m.Params, syntax.Param{Name: name, Type: typ})
		}
	}

	returns, err := optionalString(v, "returns")
	if err != nil {
		return nil, err
	}
	if returns != "" {
		if m.Return, err = ParseType(returns); err != nil {
			return nil, &CompileError{Field: "type", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("returns")).Pos()}
		}
	}

	body, err := optionalString(v, "body")
	if err != nil {
		return nil, err
	}
	m.Body = &syntax.RawBody{Text: body}
	return m, nil
}

func parseConst(v cue.Value) (*syntax.ConstItem, error) {
	c := &syntax.ConstItem{Span: spanOf(v.Pos())}

	var err error
	if c.Name, err = requiredIdent(v, "name"); err != nil {
		return nil, err
	}
	if c.Vis, err = parseVis(v); err != nil {
		return nil, err
	}
	if c.Attrs, err = parseAttrs(v); err != nil {
		return nil, err
	}
	if c.Type, err = requiredType(v, "type"); err != nil {
		return nil, err
	}
	if c.Value, err = optionalString(v, "value"); err != nil {
		return nil, err
	}
	if c.Value == "" {
		return nil, &CompileError{Field: "value", Message: "const value is required", Pos: v.Pos()}
	}
	return c, nil
}

func parseTypeItem(v cue.Value) (*syntax.TypeItem, error) {
	t := &syntax.TypeItem{Span: spanOf(v.Pos())}

	var err error
	if t.Name, err = requiredIdent(v, "name"); err != nil {
		return nil, err
	}
	if t.Vis, err = parseVis(v); err != nil {
		return nil, err
	}
	if t.Attrs, err = parseAttrs(v); err != nil {
		return nil, err
	}
	if t.Type, err = requiredType(v, "type"); err != nil {
		return nil, err
	}
	return t, nil
}

// parseGenerics reads `generics` (strings or {name, bounds, default, const}
// objects) and `where` (strings).
func parseGenerics(v cue.Value) (syntax.Generics, error) {
	var g syntax.Generics

	genVal := v.LookupPath(cue.ParsePath("generics"))
	if genVal.Exists() {
		iter, err := genVal.List()
		if err != nil {
			return g, formatCUEError(err)
		}
		for iter.Next() {
			gp, err := parseGenericValue(iter.Value())
			if err != nil {
				return g, err
			}
			g.Params = append(g.Params, gp)
		}
	}

	where, err := stringList(v, "where")
	if err != nil {
		return g, err
	}
	g.Where = where
	return g, nil
}

func parseGenericValue(v cue.Value) (syntax.GenericParam, error) {
	if s, err := v.String(); err == nil {
		gp, err := ParseGenericParam(s)
		if err != nil {
			return gp, &CompileError{Field: "generics", Message: err.Error(), Pos: v.Pos()}
		}
		return gp, nil
	}

	name, err := optionalString(v, "name")
	if err != nil {
		return syntax.GenericParam{}, err
	}
	text := name
	if constType, err := optionalString(v, "const"); err != nil {
		return syntax.GenericParam{}, err
	} else if constType != "" {
		text = "const " + name + ": " + constType
	}
	bounds, err := stringList(v, "bounds")
	if err != nil {
		return syntax.GenericParam{}, err
	}
	if len(bounds) > 0 {
		text += ": " + joinBounds(bounds)
	}
	def, err := optionalString(v, "default")
	if err != nil {
		return syntax.GenericParam{}, err
	}
	if def != "" {
		text += " = " + def
	}

	gp, err := ParseGenericParam(text)
	if err != nil {
		return gp, &CompileError{Field: "generics", Message: err.Error(), Pos: v.Pos()}
	}
	return gp, nil
}

func joinBounds(bounds []string) string {
	out := bounds[0]
	for _, b := range bounds[1:] {
		out += " + " + b
	}
	return out
}

func parseVis(v cue.Value) (syntax.Visibility, error) {
	s, err := optionalString(v, "vis")
	if err != nil {
		return syntax.Visibility{}, err
	}
	vis, err := ParseVisibility(s)
	if err != nil {
		return vis, &CompileError{Field: "vis", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("vis")).Pos()}
	}
	return vis, nil
}

func parseAttrs(v cue.Value) ([]syntax.Attribute, error) {
	raw, err := stringList(v, "attrs")
	if err != nil {
		return nil, err
	}
	var attrs []syntax.Attribute
	for _, s := range raw {
		a, err := ParseAttribute(s)
		if err != nil {
			return nil, &CompileError{Field: "attrs", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("attrs")).Pos()}
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func requiredType(v cue.Value, field string) (syntax.Type, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	t, err := ParseType(s)
	if err != nil {
		return nil, &CompileError{Field: "type", Message: err.Error(), Pos: fv.Pos()}
	}
	return t, nil
}

func requiredIdent(v cue.Value, field string) (string, error) {
	s, err := optionalString(v, field)
	if err != nil {
		return "", err
	}
	s = NormalizeIdent(s)
	if s == "" {
		return "", &CompileError{Field: "name", Message: field + " is required", Pos: v.Pos()}
	}
	if !syntax.IsIdent(s) {
		return "", &CompileError{Field: "name", Message: fmt.Sprintf("invalid identifier %q", s), Pos: v.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func spanOf(pos token.Pos) syntax.Span {
	if !pos.IsValid() {
		return syntax.Span{}
	}
	return syntax.Span{File: filepath.Base(pos.Filename()), Line: pos.Line(), Column: pos.Column()}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
