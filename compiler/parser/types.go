package parser

import (
	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/lexer"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

// The functions in this file build ast.TypeExpr syntax only. They are safe
// to call inside trial parses; mapping happens in mapType once a parse has
// committed.

func (p *Parser) mapType(t ast.TypeExpr, hint string) ir.TypeDescriptor {
	if t == nil {
		return nil
	}
	return p.mapper.Map(t, hint)
}

// parseTypeAnnotation parses an optional `: T`.
func (p *Parser) parseTypeAnnotation() ast.TypeExpr {
	if p.accept(":") {
		return p.parseType()
	}
	return nil
}

func (p *Parser) parseType() ast.TypeExpr {
	start := p.tok()
	switch {
	case p.is("<") || (p.is("(") && p.parenFollowedBy(0, "=>")):
		return p.parseFunctionType()
	case p.is("new") || (p.isIdent("abstract") && p.peekAt(1).Is("new")):
		if p.isIdent("abstract") {
			p.next()
		}
		p.next()
		p.parseFunctionType()
		return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "constructor type"}
	}
	t := p.parseUnionType()
	if p.is("extends") && !p.tok().NewlineBefore {
		p.next()
		p.parseUnionType()
		p.expect("?")
		p.parseType()
		p.expect(":")
		p.parseType()
		return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "conditional type"}
	}
	return t
}

// parenFollowedBy reports whether the parenthesis at offset n is closed by
// a token followed by lexeme.
func (p *Parser) parenFollowedBy(n int, lexeme string) bool {
	depth := 0
	for i := n; ; i++ {
		t := p.peekAt(i)
		switch {
		case t.Kind == lexer.EndOfFile:
			return false
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
			if depth == 0 {
				return p.peekAt(i + 1).Is(lexeme)
			}
		}
	}
}

func (p *Parser) parseFunctionType() ast.TypeExpr {
	start := p.tok()
	if p.is("<") {
		p.parseTypeParams()
	}
	params := p.parseParams(false)
	p.expect("=>")
	ret := p.parseReturnType()
	ft := &ast.FunctionType{Return: ret}
	for _, ps := range params {
		ft.Params = append(ft.Params, ps.typ)
	}
	ft.Span = p.spanFrom(start)
	return ft
}

func (p *Parser) parseUnionType() ast.TypeExpr {
	start := p.tok()
	p.accept("|")
	t := p.parseIntersectionType()
	if !p.is("|") {
		return t
	}
	types := []ast.TypeExpr{t}
	for p.accept("|") {
		types = append(types, p.parseIntersectionType())
	}
	return &ast.UnionType{Span: p.spanFrom(start), Types: types}
}

func (p *Parser) parseIntersectionType() ast.TypeExpr {
	start := p.tok()
	p.accept("&")
	t := p.parseTypeOperator()
	if !p.is("&") {
		return t
	}
	types := []ast.TypeExpr{t}
	for p.accept("&") {
		types = append(types, p.parseTypeOperator())
	}
	return &ast.IntersectionType{Span: p.spanFrom(start), Types: types}
}

// isTypeEnd reports whether t cannot start a type.
func isTypeEnd(t lexer.Token) bool {
	if t.Kind == lexer.EndOfFile {
		return true
	}
	for _, s := range []string{",", ")", "]", "}", ">", ";", "=", "|", "&", "?", ":", "=>"} {
		if t.Is(s) {
			return true
		}
	}
	return false
}

func (p *Parser) parseTypeOperator() ast.TypeExpr {
	start := p.tok()
	switch {
	case p.isIdent("keyof") && !isTypeEnd(p.peekAt(1)):
		p.next()
		p.parseTypeOperator()
		return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "keyof type"}
	case p.isIdent("readonly") && !isTypeEnd(p.peekAt(1)):
		p.next()
		return p.parseTypeOperator()
	case p.isIdent("unique") && p.peekAt(1).IsIdent("symbol"):
		p.next()
		p.next()
		return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "unique symbol type"}
	case p.isIdent("infer") && p.peekAt(1).Kind == lexer.Identifier:
		p.next()
		p.next()
		return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "infer type"}
	}
	return p.parsePostfixType()
}

func (p *Parser) parsePostfixType() ast.TypeExpr {
	start := p.tok()
	t := p.parsePrimaryType()
	for p.is("[") && !p.tok().NewlineBefore {
		p.next()
		if p.accept("]") {
			t = &ast.ArrayType{Span: p.spanFrom(start), Elem: t}
			continue
		}
		p.parseType()
		p.expect("]")
		t = &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "indexed access type"}
	}
	return t
}

func (p *Parser) parsePrimaryType() ast.TypeExpr {
	start := p.tok()
	switch {
	case p.is("("):
		p.next()
		inner := p.parseType()
		p.expect(")")
		return &ast.ParenType{Span: p.spanFrom(start), Type: inner}
	case p.is("["):
		return p.parseTupleType()
	case p.is("{"):
		if p.isMappedTypeStart() {
			p.skipBalanced()
			return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "mapped type"}
		}
		return p.parseObjectType()
	case start.Kind == lexer.StringLiteral:
		p.next()
		return &ast.LiteralType{Span: start.Span, Kind: ir.PrimitiveString, Value: start.Value}
	case start.Kind == lexer.NumericLiteral:
		p.next()
		return &ast.LiteralType{Span: start.Span, Kind: ir.PrimitiveNumber, Value: start.Value}
	case p.is("-") && p.peekAt(1).Kind == lexer.NumericLiteral:
		p.next()
		v := p.next().Value
		return &ast.LiteralType{Span: p.spanFrom(start), Kind: ir.PrimitiveNumber, Value: "-" + v}
	case p.is("true") || p.is("false"):
		p.next()
		return &ast.LiteralType{Span: start.Span, Kind: ir.PrimitiveBoolean, Value: start.Value}
	case p.is("null"):
		p.next()
		return &ast.LiteralType{Span: start.Span, Kind: ir.PrimitiveNull, Value: "null"}
	case p.is("void") || p.is("this"):
		p.next()
		return &ast.TypeRef{Span: start.Span, Name: start.Value}
	case start.Kind == lexer.TemplateLiteral:
		p.next()
		if len(start.Template.Exprs) == 0 {
			return &ast.LiteralType{Span: start.Span, Kind: ir.PrimitiveString, Value: start.Template.Segments[0]}
		}
		return &ast.UnsupportedType{Span: start.Span, Construct: "template literal type"}
	case p.is("typeof"):
		p.next()
		if p.is("import") {
			p.next()
			p.skipBalanced()
		} else {
			p.qualifiedName(true)
		}
		if p.is("<") && !p.tok().NewlineBefore {
			p.parseTypeArgs()
		}
		return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "typeof type"}
	case p.is("import"):
		p.next()
		p.skipBalanced()
		for p.accept(".") {
			p.propertyName()
		}
		if p.is("<") {
			p.parseTypeArgs()
		}
		return &ast.UnsupportedType{Span: p.spanFrom(start), Construct: "import type"}
	case start.Kind == lexer.Identifier:
		name := p.qualifiedName(false)
		ref := &ast.TypeRef{Name: name}
		if p.is("<") && !p.tok().NewlineBefore {
			ref.Args = p.parseTypeArgs()
		}
		ref.Span = p.spanFrom(start)
		return ref
	}
	p.fail("type")
	return nil
}

// qualifiedName parses a dotted name such as ns.Type.
func (p *Parser) qualifiedName(allowKeywords bool) string {
	var name string
	if allowKeywords && p.tok().Kind == lexer.Keyword {
		name = p.next().Value
	} else {
		name = p.expectName()
	}
	for p.is(".") && p.peekAt(1).Kind != lexer.EndOfFile {
		p.next()
		n, _ := p.propertyName()
		name += "." + n
	}
	return name
}

func (p *Parser) parseTypeArgs() []ast.TypeExpr {
	p.expect("<")
	var args []ast.TypeExpr
	for !p.is(">") {
		args = append(args, p.parseType())
		if !p.accept(",") {
			break
		}
	}
	p.expect(">")
	return args
}

func (p *Parser) isMappedTypeStart() bool {
	i := 1
	if t := p.peekAt(i); t.IsIdent("readonly") || t.Is("+") || t.Is("-") {
		i++
		if p.peekAt(i).IsIdent("readonly") {
			i++
		}
	}
	return p.peekAt(i).Is("[") && p.peekAt(i+1).Kind == lexer.Identifier && p.peekAt(i+2).Is("in")
}

func (p *Parser) parseTupleType() ast.TypeExpr {
	start := p.expect("[")
	tt := &ast.TupleType{}
	for !p.is("]") {
		p.accept("...")
		// Named members: [x: number, y?: number]
		if p.tok().Kind == lexer.Identifier && (p.peekAt(1).Is(":") || (p.peekAt(1).Is("?") && p.peekAt(2).Is(":"))) {
			p.next()
			p.accept("?")
			p.expect(":")
		}
		tt.Elems = append(tt.Elems, p.parseType())
		p.accept("?")
		if !p.accept(",") {
			break
		}
	}
	p.expect("]")
	tt.Span = p.spanFrom(start)
	return tt
}

func (p *Parser) parseObjectType() ast.TypeExpr {
	start := p.tok()
	members := p.parseTypeMembers()
	ot := &ast.ObjectType{Span: p.spanFrom(start)}
	for _, m := range members {
		tm := &ast.TypeMember{Span: m.span, Name: m.name, Optional: m.optional, Readonly: m.readonly}
		switch m.kind {
		case memberProperty:
			tm.Type = m.typ
			if tm.Type == nil {
				tm.Type = &ast.TypeRef{Span: m.span, Name: "any"}
			}
		case memberMethod:
			ft := &ast.FunctionType{Span: m.span, Return: m.ret}
			for _, ps := range m.params {
				ft.Params = append(ft.Params, ps.typ)
			}
			tm.Type = ft
		case memberIndex:
			tm.Index = true
			tm.Key = m.key
			tm.Type = m.typ
		default:
			tm.Unsupported = m.kind.String()
		}
		ot.Members = append(ot.Members, tm)
	}
	return ot
}

type memberKind int

const (
	memberProperty memberKind = iota
	memberMethod
	memberCall
	memberConstruct
	memberIndex
	memberComputed
)

func (k memberKind) String() string {
	switch k {
	case memberCall:
		return "call signature"
	case memberConstruct:
		return "construct signature"
	case memberIndex:
		return "index signature"
	case memberComputed:
		return "computed property name"
	case memberMethod:
		return "method"
	default:
		return "property"
	}
}

// memberSyntax is an unmapped interface or type literal member.
type memberSyntax struct {
	span       ir.Span
	kind       memberKind
	name       string
	optional   bool
	readonly   bool
	typ        ast.TypeExpr
	key        ast.TypeExpr
	typeParams []typeParamSyntax
	params     []*paramSyntax
	ret        ast.TypeExpr
}

// parseTypeMembers parses the braced member list of an interface or object
// literal type.
func (p *Parser) parseTypeMembers() []*memberSyntax {
	p.expect("{")
	var out []*memberSyntax
	for !p.is("}") {
		if p.tok().Kind == lexer.EndOfFile {
			p.fail("'}'")
		}
		out = append(out, p.parseTypeMember())
	}
	p.expect("}")
	return out
}

func (p *Parser) parseTypeMember() *memberSyntax {
	start := p.tok()
	m := &memberSyntax{}
	if p.isIdent("readonly") && (p.peekAt(1).Is("[") || isNameToken(p.peekAt(1))) {
		p.next()
		m.readonly = true
	}
	switch {
	case p.is("(") || p.is("<"):
		m.kind = memberCall
		p.parseSignatureRest(m)
	case p.is("new") && (p.peekAt(1).Is("(") || p.peekAt(1).Is("<")):
		p.next()
		m.kind = memberConstruct
		p.parseSignatureRest(m)
	case p.is("[") && p.peekAt(1).Kind == lexer.Identifier && p.peekAt(2).Is(":"):
		p.next()
		p.next()
		p.next()
		m.kind = memberIndex
		m.key = p.parseType()
		p.expect("]")
		m.typ = p.parseTypeAnnotation()
	case p.is("["):
		p.skipBalanced()
		m.kind = memberComputed
		p.accept("?")
		if p.is("(") || p.is("<") {
			p.parseSignatureRest(m)
		} else {
			m.typ = p.parseTypeAnnotation()
		}
	case (p.isIdent("get") || p.isIdent("set")) && isNameToken(p.peekAt(1)):
		getter := p.next().Value == "get"
		m.name, _ = p.propertyName()
		p.parseSignatureRest(m)
		m.kind = memberProperty
		if getter {
			m.typ = m.ret
		} else if len(m.params) > 0 {
			m.typ = m.params[0].typ
		}
		m.params, m.ret = nil, nil
	default:
		m.name, _ = p.propertyName()
		m.optional = p.accept("?")
		if p.is("(") || p.is("<") {
			m.kind = memberMethod
			p.parseSignatureRest(m)
		} else {
			m.kind = memberProperty
			m.typ = p.parseTypeAnnotation()
		}
	}
	m.span = p.spanFrom(start)
	if !p.accept(";") && !p.accept(",") && !p.is("}") && !p.tok().NewlineBefore {
		p.fail("';'")
	}
	return m
}

func (p *Parser) parseSignatureRest(m *memberSyntax) {
	if p.is("<") {
		m.typeParams = p.parseTypeParams()
	}
	m.params = p.parseParams(false)
	if p.accept(":") {
		m.ret = p.parseReturnType()
	}
}

func isNameToken(t lexer.Token) bool {
	switch t.Kind {
	case lexer.Identifier, lexer.Keyword, lexer.StringLiteral, lexer.NumericLiteral, lexer.PrivateName:
		return true
	}
	return false
}

// parseReturnType parses a return annotation, reducing type predicates to
// boolean and assertion signatures to void.
func (p *Parser) parseReturnType() ast.TypeExpr {
	start := p.tok()
	next := p.peekAt(1)
	switch {
	case p.isIdent("asserts") && (next.Kind == lexer.Identifier || next.Is("this")) && !next.NewlineBefore:
		p.next()
		p.next()
		if p.isIdent("is") {
			p.next()
			p.parseType()
		}
		return &ast.TypeRef{Span: p.spanFrom(start), Name: "void"}
	case (start.Kind == lexer.Identifier || p.is("this")) && next.IsIdent("is") && !next.NewlineBefore:
		p.next()
		p.next()
		p.parseType()
		return &ast.TypeRef{Span: p.spanFrom(start), Name: "boolean"}
	}
	return p.parseType()
}

type typeParamSyntax struct {
	name       string
	constraint ast.TypeExpr
}

func (p *Parser) parseTypeParams() []typeParamSyntax {
	p.expect("<")
	var out []typeParamSyntax
	for !p.is(">") {
		for p.is("const") || p.is("in") || p.isIdent("out") {
			if p.peekAt(1).Kind != lexer.Identifier {
				break
			}
			p.next()
		}
		tp := typeParamSyntax{name: p.expectName()}
		if p.accept("extends") {
			tp.constraint = p.parseType()
		}
		if p.accept("=") {
			p.parseType()
		}
		out = append(out, tp)
		if !p.accept(",") {
			break
		}
	}
	p.expect(">")
	return out
}

// enterTypeParams opens a type parameter scope in the mapper and maps the
// constraints. Every call must be paired with p.mapper.PopScope.
func (p *Parser) enterTypeParams(tps []typeParamSyntax) []*ir.TypeParamDescriptor {
	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.name
	}
	p.mapper.PushScope(names...)
	var out []*ir.TypeParamDescriptor
	for _, tp := range tps {
		out = append(out, ir.TypeParam(tp.name, p.mapType(tp.constraint, "")))
	}
	return out
}

// paramSyntax is an unmapped parameter.
type paramSyntax struct {
	span        ir.Span
	name        string
	typ         ast.TypeExpr
	optional    bool
	rest        bool
	def         ast.Expr
	visibility  ast.Visibility
	hasModifier bool
	readonly    bool
	pattern     bool
}

// parseParams parses a parenthesized parameter list. Default values are
// only parsed when allowDefaults is set, which keeps type-only contexts free
// of expressions.
func (p *Parser) parseParams(allowDefaults bool) []*paramSyntax {
	p.expect("(")
	var out []*paramSyntax
	for !p.is(")") {
		if ps := p.parseParam(allowDefaults); ps != nil {
			out = append(out, ps)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return out
}

func (p *Parser) parseParam(allowDefaults bool) *paramSyntax {
	start := p.tok()
	ps := &paramSyntax{}
	for p.is("@") {
		decStart := p.tok()
		p.parseDecorator()
		p.warn(ir.CodeUnsupportedConstruct, p.spanFrom(decStart), "parameter decorators are not supported")
	}
	for {
		t, nt := p.tok(), p.peekAt(1)
		modifier := t.Is("public") || t.Is("private") || t.Is("protected") || t.IsIdent("readonly") || t.IsIdent("override")
		if !modifier || !(isNameToken(nt) || nt.Is("{") || nt.Is("[")) || nt.Kind == lexer.StringLiteral {
			break
		}
		switch t.Value {
		case "private":
			ps.visibility = ast.Private
		case "protected":
			ps.visibility = ast.Protected
		case "readonly":
			ps.readonly = true
		}
		ps.hasModifier = true
		p.next()
	}
	ps.rest = p.accept("...")
	switch {
	case p.is("{") || p.is("["):
		p.skipBalanced()
		ps.name = "_"
		ps.pattern = true
	case p.is("this"):
		p.next()
		p.parseTypeAnnotation()
		return nil
	default:
		ps.name = p.expectName()
	}
	ps.optional = p.accept("?")
	ps.typ = p.parseTypeAnnotation()
	if allowDefaults && p.accept("=") {
		ps.def = p.parseAssign()
	}
	ps.span = p.spanFrom(start)
	return ps
}

// mapParams maps parameter syntax to AST parameters.
func (p *Parser) mapParams(params []*paramSyntax) []*ast.Param {
	out := make([]*ast.Param, 0, len(params))
	for _, ps := range params {
		if ps.pattern {
			p.warn(ir.CodeUnsupportedConstruct, ps.span, "destructuring parameters are not supported")
		}
		out = append(out, &ast.Param{
			Span:     ps.span,
			Name:     ps.name,
			Type:     p.mapType(ps.typ, typemap.Hint(ps.name)),
			Optional: ps.optional,
			Rest:     ps.rest,
			Default:  ps.def,
		})
	}
	return out
}
