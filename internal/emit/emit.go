package emit

import (
	"fmt"
	"strings"

	"github.com/roach88/entangle/internal/syntax"
)

// Render returns the source text for items, ending in a newline.
func Render(items []syntax.Item) (string, error) {
	p := &printer{}
	if err := p.items(items); err != nil {
		return "", err
	}
	return p.sb.String(), nil
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(s string) {
	if s == "" {
		p.sb.WriteString("\n")
		return
	}
	p.sb.WriteString(strings.Repeat("    ", p.indent))
	p.sb.WriteString(s)
	p.sb.WriteString("\n")
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// text writes a multi-line fragment at the current indentation, keeping
// its relative indentation.
func (p *printer) text(s string) {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if len(l) >= common && common > 0 {
			l = l[common:]
		}
		p.line(l)
	}
}

func (p *printer) attrs(attrs []syntax.Attribute) {
	for _, a := range attrs {
		p.line(a.String())
	}
}

func (p *printer) items(items []syntax.Item) error {
	for i, item := range items {
		if i > 0 {
			_, prevUse := items[i-1].(*syntax.UseDecl)
			_, curUse := item.(*syntax.UseDecl)
			if !prevUse || !curUse {
				p.line("")
			}
		}
		if err := p.item(item); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) item(item syntax.Item) error {
	switch it := item.(type) {
	case *syntax.Module:
		return p.module(it)
	case *syntax.UseDecl:
		p.linef("use %s;", it.Path)
		return nil
	case *syntax.StructDecl:
		p.structDecl(it)
		return nil
	case *syntax.HandlerImplBlock:
		return p.implBlock(it.Attrs, "impl"+it.Generics.ImplString()+" "+it.SelfType.String()+it.Generics.WhereString(), it.Items)
	case *syntax.InterfaceImplBlock:
		header := fmt.Sprintf("impl%s %s for %s%s", it.Generics.ImplString(), it.Trait, it.SelfType, it.Generics.WhereString())
		return p.implBlock(it.Attrs, header, it.Items)
	default:
		return fmt.Errorf("emit: unsupported item %T", item)
	}
}

func (p *printer) module(m *syntax.Module) error {
	p.attrs(m.Attrs)
	if len(m.Items) == 0 {
		p.linef("%smod %s {}", vis(m.Vis), m.Name)
		return nil
	}
	p.linef("%smod %s {", vis(m.Vis), m.Name)
	p.indent++
	if err := p.items(m.Items); err != nil {
		return err
	}
	p.indent--
	p.line("}")
	return nil
}

func (p *printer) structDecl(s *syntax.StructDecl) {
	p.attrs(s.Attrs)
	head := fmt.Sprintf("%sstruct %s%s", vis(s.Vis), s.Name, s.Generics.DeclString())
	where := s.Generics.WhereString()

	switch s.Style {
	case syntax.StyleUnit:
		p.line(head + where + ";")
	case syntax.StyleTuple:
		elems := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			elems[i] = attrPrefix(f.Attrs) + vis(f.Vis) + f.Type.String()
		}
		p.line(head + "(" + strings.Join(elems, ", ") + ")" + where + ";")
	default:
		if len(s.Fields) == 0 {
			p.line(head + where + " {}")
			return
		}
		p.line(head + where + " {")
		p.indent++
		for _, f := range s.Fields {
			p.attrs(f.Attrs)
			p.linef("%s%s: %s,", vis(f.Vis), f.Name, f.Type)
		}
		p.indent--
		p.line("}")
	}
}

func (p *printer) implBlock(attrs []syntax.Attribute, header string, items []syntax.ImplItem) error {
	p.attrs(attrs)
	if len(items) == 0 {
		p.line(header + " {}")
		return nil
	}
	p.line(header + " {")
	p.indent++
	for i, item := range items {
		if i > 0 {
			p.line("")
		}
		if err := p.implItem(item); err != nil {
			return err
		}
	}
	p.indent--
	p.line("}")
	return nil
}

func (p *printer) implItem(item syntax.ImplItem) error {
	switch it := item.(type) {
	case *syntax.MethodItem:
		return p.method(it)
	case *syntax.ConstItem:
		p.attrs(it.Attrs)
		p.linef("%sconst %s: %s = %s;", vis(it.Vis), it.Name, it.Type, it.Value)
	case *syntax.TypeItem:
		p.attrs(it.Attrs)
		p.linef("%stype %s = %s;", vis(it.Vis), it.Name, it.Type)
	case *syntax.MacroItem:
		p.text(it.Text)
	case *syntax.VerbatimItem:
		p.text(it.Text)
	default:
		return fmt.Errorf("emit: unsupported impl item kind %q", item.Kind())
	}
	return nil
}

func (p *printer) method(m *syntax.MethodItem) error {
	p.attrs(m.Attrs)

	var params []string
	if m.Receiver != syntax.ReceiverNone {
		params = append(params, m.Receiver.String())
	}
	for _, prm := range m.Params {
		params = append(params, prm.Name+": "+prm.Type.String())
	}

	var sig strings.Builder
	sig.WriteString(vis(m.Vis))
	if m.Async {
		sig.WriteString("async ")
	}
	sig.WriteString("fn ")
	sig.WriteString(m.Name)
	sig.WriteString(m.Generics.ImplString())
	sig.WriteString("(")
	sig.WriteString(strings.Join(params, ", "))
	sig.WriteString(")")
	if m.Return != nil {
		sig.WriteString(" -> ")
		sig.WriteString(m.Return.String())
	}
	sig.WriteString(m.Generics.WhereString())

	switch b := m.Body.(type) {
	case nil:
		p.line(sig.String() + " {}")
	case *syntax.RawBody:
		if strings.TrimSpace(b.Text) == "" {
			p.line(sig.String() + " {}")
			return nil
		}
		p.line(sig.String() + " {")
		p.indent++
		p.text(b.Text)
		p.indent--
		p.line("}")
	case *syntax.ForwardBody:
		p.line(sig.String() + " {")
		p.indent++
		p.line(ForwardCall(b))
		p.indent--
		p.line("}")
	default:
		return fmt.Errorf("emit: unsupported body %T in method %s", m.Body, m.Name)
	}
	return nil
}

// ForwardCall renders the dispatch expression of a forwarded method:
// the message name and argument tuple, sent through the handle's address.
// Awaited dispatches suspend until the actor has handled the message. Both
// dispatch operations resolve to the method's Result, carrying the runtime's
// disconnection outcome when the actor is gone.
func ForwardCall(b *syntax.ForwardBody) string {
	call := fmt.Sprintf("self.%s.%s(%q, %s)", b.Field, b.Method, b.Message, argTuple(b.Args))
	if b.Policy == syntax.DispatchAwait {
		call += ".await"
	}
	return call
}

func argTuple(args []string) string {
	switch len(args) {
	case 0:
		return "()"
	case 1:
		return "(" + args[0] + ",)"
	default:
		return "(" + strings.Join(args, ", ") + ")"
	}
}

func vis(v syntax.Visibility) string {
	s := v.String()
	if s == "" {
		return ""
	}
	return s + " "
}

func attrPrefix(attrs []syntax.Attribute) string {
	var sb strings.Builder
	for _, a := range attrs {
		sb.WriteString(a.String())
		sb.WriteString(" ")
	}
	return sb.String()
}
