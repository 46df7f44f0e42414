package syntax

import "strings"

// ParamKind distinguishes generic parameter flavours.
type ParamKind int

const (
	ParamType ParamKind = iota
	ParamLifetime
	ParamConst
)

// GenericParam is one entry of a generic parameter list.
type GenericParam struct {
	Kind      ParamKind `json:"kind"`
	Name      string    `json:"name"`                 // `T`, `'a`, `N`
	Bounds    []string  `json:"bounds,omitempty"`     // trait or lifetime bounds
	ConstType string    `json:"const_type,omitempty"` // type of a const parameter
	Default   string    `json:"default,omitempty"`    // only rendered on declarations
}

// Generics is a generic parameter list plus its where clause.
type Generics struct {
	Params []GenericParam `json:"params,omitempty"`
	Where  []string       `json:"where,omitempty"`
}

// IsEmpty reports whether there are no parameters and no predicates.
func (g Generics) IsEmpty() bool {
	return len(g.Params) == 0 && len(g.Where) == 0
}

// TypeArgs returns the parameters as generic arguments (`<'a, T, N>`),
// i.e. the form used when naming the declared type.
func (g Generics) TypeArgs() []Type {
	if len(g.Params) == 0 {
		return nil
	}
	args := make([]Type, len(g.Params))
	for i, p := range g.Params {
		if p.Kind == ParamLifetime {
			args[i] = &Lifetime{Name: p.Name}
		} else {
			args[i] = NewPath(p.Name)
		}
	}
	return args
}

// DeclString renders the parameter list of a type declaration, defaults included.
func (g Generics) DeclString() string {
	return g.render(true)
}

// ImplString renders the parameter list of an impl header: bounds but no defaults.
func (g Generics) ImplString() string {
	return g.render(false)
}

// WhereString renders ` where A: B, C: D`, or "" for an empty clause.
func (g Generics) WhereString() string {
	if len(g.Where) == 0 {
		return ""
	}
	return " where " + strings.Join(g.Where, ", ")
}

func (g Generics) render(defaults bool) string {
	if len(g.Params) == 0 {
		return ""
	}
	parts := make([]string, len(g.Params))
	for i, p := range g.Params {
		var sb strings.Builder
		switch p.Kind {
		case ParamConst:
			sb.WriteString("const ")
			sb.WriteString(p.Name)
			sb.WriteString(": ")
			sb.WriteString(p.ConstType)
		default:
			sb.WriteString(p.Name)
			if len(p.Bounds) > 0 {
				sb.WriteString(": ")
				sb.WriteString(strings.Join(p.Bounds, " + "))
			}
		}
		if defaults && p.Default != "" {
			sb.WriteString(" = ")
			sb.WriteString(p.Default)
		}
		parts[i] = sb.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
