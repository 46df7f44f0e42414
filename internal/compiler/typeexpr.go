package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/entangle/internal/syntax"
)

// ParseType parses a type expression such as `Vec<Option<T>>`,
// `&'a mut [u8]`, `(i32, i32)` or `impl Iterator + Send`.
//
// Supported grammar:
//
//	type   = "(" [type {"," type} [","]] ")"
//	       | "&" [lifetime] ["mut"] type
//	       | "[" type [";" len] "]"
//	       | ("impl" | "dyn") bound {"+" bound}
//	       | lifetime
//	       | path
//	path   = ["::"] seg {"::" seg}
//	seg    = ident ["<" type {"," type} ">"]
//
// Identifiers are NFC-normalized.
func ParseType(s string) (syntax.Type, error) {
	p, err := newTypeParser(s)
	if err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return t, nil
}

// ParseTypePath parses a type expression that must be a plain path.
func ParseTypePath(s string) (*syntax.PathType, error) {
	t, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	p, ok := t.(*syntax.PathType)
	if !ok {
		return nil, fmt.Errorf("%q is not a type path", s)
	}
	return p, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokLifetime
	tokNumber
	tokPunct
)

type typeToken struct {
	kind tokKind
	text string
}

type typeParser struct {
	src  string
	toks []typeToken
	pos  int
}

func newTypeParser(s string) (*typeParser, error) {
	p := &typeParser{src: s}
	rs := []rune(norm.NFC.String(s))
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '_' || unicode.IsLetter(r):
			j := i + 1
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			p.toks = append(p.toks, typeToken{tokIdent, string(rs[i:j])})
			i = j
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			p.toks = append(p.toks, typeToken{tokNumber, string(rs[i:j])})
			i = j
		case r == '\'':
			j := i + 1
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("type %q: empty lifetime", s)
			}
			p.toks = append(p.toks, typeToken{tokLifetime, string(rs[i:j])})
			i = j
		case r == ':':
			if i+1 < len(rs) && rs[i+1] == ':' {
				p.toks = append(p.toks, typeToken{tokPunct, "::"})
				i += 2
				continue
			}
			return nil, fmt.Errorf("type %q: unexpected ':'", s)
		case strings.ContainsRune("<>(),&[];+", r):
			p.toks = append(p.toks, typeToken{tokPunct, string(r)})
			i++
		default:
			return nil, fmt.Errorf("type %q: unexpected character %q", s, r)
		}
	}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("empty type")
	}
	return p, nil
}

func (p *typeParser) done() bool {
	return p.pos >= len(p.toks)
}

func (p *typeParser) peek() typeToken {
	if p.done() {
		return typeToken{kind: tokPunct, text: ""}
	}
	return p.toks[p.pos]
}

func (p *typeParser) next() typeToken {
	t := p.peek()
	p.pos++
	return t
}

func (p *typeParser) accept(text string) bool {
	if !p.done() && p.toks[p.pos].kind == tokPunct && p.toks[p.pos].text == text {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(text string) error {
	if !p.accept(text) {
		if p.done() {
			return p.errorf("expected %q, found end of input", text)
		}
		return p.errorf("expected %q, found %q", text, p.peek().text)
	}
	return nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) parseType() (syntax.Type, error) {
	if p.done() {
		return nil, p.errorf("unexpected end of input")
	}
	tok := p.peek()
	switch {
	case tok.kind == tokLifetime:
		p.pos++
		return &syntax.Lifetime{Name: tok.text}, nil
	case tok.kind == tokPunct && tok.text == "(":
		return p.parseTuple()
	case tok.kind == tokPunct && tok.text == "&":
		return p.parseRef()
	case tok.kind == tokPunct && tok.text == "[":
		return p.parseSlice()
	case tok.kind == tokIdent && (tok.text == "impl" || tok.text == "dyn"):
		return p.parseImplTrait()
	case tok.kind == tokIdent, tok.kind == tokPunct && tok.text == "::":
		return p.parsePath()
	default:
		return nil, p.errorf("unexpected %q", tok.text)
	}
}

func (p *typeParser) parseTuple() (syntax.Type, error) {
	p.next() // (
	tup := &syntax.TupleType{}
	for !p.accept(")") {
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		tup.Elems = append(tup.Elems, elem)
		if p.accept(")") {
			// `(T)` is a parenthesized type, not a tuple.
			if len(tup.Elems) == 1 {
				return elem, nil
			}
			return tup, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	return tup, nil
}

func (p *typeParser) parseRef() (syntax.Type, error) {
	p.next() // &
	ref := &syntax.RefType{}
	if p.peek().kind == tokLifetime {
		ref.Lifetime = p.next().text
	}
	if tok := p.peek(); tok.kind == tokIdent && tok.text == "mut" {
		p.pos++
		ref.Mut = true
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	ref.Elem = elem
	return ref, nil
}

func (p *typeParser) parseSlice() (syntax.Type, error) {
	p.next() // [
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	s := &syntax.SliceType{Elem: elem}
	if p.accept(";") {
		var parts []string
		for !p.done() && p.peek().text != "]" {
			parts = append(parts, p.next().text)
		}
		if len(parts) == 0 {
			return nil, p.errorf("missing array length")
		}
		s.Len = strings.Join(parts, "")
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *typeParser) parseImplTrait() (syntax.Type, error) {
	kw := p.next()
	it := &syntax.ImplTraitType{Dyn: kw.text == "dyn"}
	for {
		var bound string
		if p.peek().kind == tokLifetime {
			bound = p.next().text
		} else {
			path, err := p.parsePath()
			if err != nil {
				return nil, err
			}
			bound = path.String()
		}
		it.Bounds = append(it.Bounds, bound)
		if !p.accept("+") {
			return it, nil
		}
	}
}

func (p *typeParser) parsePath() (*syntax.PathType, error) {
	path := &syntax.PathType{Global: p.accept("::")}
	for {
		tok := p.next()
		if tok.kind != tokIdent {
			if tok.text == "" {
				return nil, p.errorf("expected identifier, found end of input")
			}
			return nil, p.errorf("expected identifier, found %q", tok.text)
		}
		seg := syntax.PathSegment{Ident: tok.text}
		if p.accept("<") {
			for {
				arg, err := p.parseType()
				if err != nil {
					return nil, err
				}
				seg.Args = append(seg.Args, arg)
				if p.accept(">") {
					break
				}
				if err := p.expect(","); err != nil {
					return nil, err
				}
			}
		}
		path.Segments = append(path.Segments, seg)
		if !p.accept("::") {
			return path, nil
		}
	}
}
