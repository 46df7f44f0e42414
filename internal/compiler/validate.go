package compiler

import (
	"fmt"

	"github.com/roach88/entangle/internal/syntax"
)

// Validation error codes (E100-E199)
const (
	ErrUnsupportedConstruct = "E100" // unsupported construct type for validation

	ErrMissingName         = "E101" // type, field, item or parameter name missing
	ErrMissingSelf         = "E102" // impl entry without a self type
	ErrUnknownItemKind     = "E103" // impl item of an unknown kind
	ErrInvalidType         = "E104" // type expression does not parse
	ErrInvalidVisibility   = "E105" // visibility does not parse
	ErrDuplicateField      = "E106" // duplicate field name
	ErrDuplicateItem       = "E107" // duplicate item name, or collision with a generated accessor
	ErrRequiresUnsatisfied = "E108" // requires constraint not met by this tool
	ErrInvalidDeclaration  = "E109" // malformed receiver, generic parameter, attribute or style
)

// accessorNames are emitted on every Handle and may not be redeclared.
var accessorNames = map[string]bool{"into_address": true, "address": true}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled construct against the rules the CUE schema
// cannot express. Returns all errors found (does not fail-fast).
//
// Validation never rejects what the transformer itself reports (non-path
// impl targets, non-path return types, methods without receivers); those
// surface as transformation errors with their own codes.
func Validate(c syntax.SourceConstruct) []ValidationError {
	switch c := c.(type) {
	case *syntax.DataType:
		return validateDataType(c)
	case *syntax.HandlerImplBlock:
		errs := validateGenerics(c.Generics, c.Span)
		errs = append(errs, validateSelf(c.SelfType, c.Span)...)
		return append(errs, validateItems(c.Items, true)...)
	case *syntax.InterfaceImplBlock:
		errs := validateGenerics(c.Generics, c.Span)
		errs = append(errs, validateSelf(c.SelfType, c.Span)...)
		return append(errs, validateItems(c.Items, false)...)
	default:
		return []ValidationError{{
			Field:   "construct",
			Message: fmt.Sprintf("unsupported construct type: %T", c),
			Code:    ErrUnsupportedConstruct,
		}}
	}
}

func validateDataType(dt *syntax.DataType) []ValidationError {
	var errs []ValidationError

	if dt.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "type name is required",
			Code:    ErrMissingName,
			Line:    dt.Span.Line,
		})
	}
	errs = append(errs, validateGenerics(dt.Generics, dt.Span)...)

	if dt.Style == syntax.StyleUnit && len(dt.Fields) > 0 {
		errs = append(errs, ValidationError{
			Field:   "fields",
			Message: "unit structs cannot have fields",
			Code:    ErrInvalidDeclaration,
			Line:    dt.Span.Line,
		})
	}

	seen := make(map[string]bool)
	for i, f := range dt.Fields {
		if f.Type == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fields[%d].type", i),
				Message: "field type is required",
				Code:    ErrInvalidType,
				Line:    f.Span.Line,
			})
		}
		if dt.Style != syntax.StyleNamed {
			continue
		}
		if f.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fields[%d].name", i),
				Message: "named struct fields need a name",
				Code:    ErrMissingName,
				Line:    f.Span.Line,
			})
			continue
		}
		if seen[f.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fields[%d].name", i),
				Message: fmt.Sprintf("duplicate field name: %q", f.Name),
				Code:    ErrDuplicateField,
				Line:    f.Span.Line,
			})
		}
		seen[f.Name] = true
	}
	return errs
}

func validateSelf(self syntax.Type, span syntax.Span) []ValidationError {
	if self != nil {
		return nil
	}
	return []ValidationError{{
		Field:   "self",
		Message: "self type is required",
		Code:    ErrMissingSelf,
		Line:    span.Line,
	}}
}

func validateGenerics(g syntax.Generics, span syntax.Span) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, p := range g.Params {
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("generics[%d]", i),
				Message: fmt.Sprintf("duplicate generic parameter: %q", p.Name),
				Code:    ErrInvalidDeclaration,
				Line:    span.Line,
			})
		}
		seen[p.Name] = true
	}
	return errs
}

// validateItems checks item names. Methods and consts share the value
// namespace; associated types have their own. Inherent blocks also reserve
// the Handle accessor names.
func validateItems(items []syntax.ImplItem, inherent bool) []ValidationError {
	var errs []ValidationError
	values := make(map[string]bool)
	types := make(map[string]bool)

	check := func(i int, name string, isValue bool, span syntax.Span) {
		set := types
		if isValue {
			set = values
		}
		field := fmt.Sprintf("items[%d].name", i)
		switch {
		case name == "":
			errs = append(errs, ValidationError{Field: field, Message: "item name is required", Code: ErrMissingName, Line: span.Line})
		case set[name]:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate item name: %q", name), Code: ErrDuplicateItem, Line: span.Line})
		case inherent && isValue && accessorNames[name]:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("%q collides with a generated handle accessor", name), Code: ErrDuplicateItem, Line: span.Line})
		}
		set[name] = true
	}

	for i, item := range items {
		switch it := item.(type) {
		case *syntax.MethodItem:
			check(i, it.Name, true, it.Span)
			for j, p := range it.Params {
				if p.Name == "" {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("items[%d].params[%d].name", i, j),
						Message: "parameter name is required",
						Code:    ErrMissingName,
						Line:    it.Span.Line,
					})
				}
			}
		case *syntax.ConstItem:
			check(i, it.Name, true, it.Span)
		case *syntax.TypeItem:
			check(i, it.Name, false, it.Span)
		}
	}
	return errs
}
