package parser

import (
	"math"
	"strconv"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/lexer"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

// parseTopLevel parses one top-level item. Decorators produce an
// Unsupported entry ahead of the declaration they decorate.
func (p *Parser) parseTopLevel() []ast.Decl {
	switch {
	case p.is("import") && !p.peekAt(1).Is("(") && !p.peekAt(1).Is("."):
		return []ast.Decl{p.parseImport()}
	case p.is("export"):
		return []ast.Decl{p.parseExport()}
	case p.is("@"):
		var out []ast.Decl
		for p.is("@") {
			start := p.tok()
			p.parseDecorator()
			out = append(out, p.unsupported("decorator", start))
		}
		return append(out, p.parseTopLevel()...)
	}
	return []ast.Decl{asDecl(p.parseStatement())}
}

func asDecl(s ast.Stmt) ast.Decl {
	if d, ok := s.(ast.Decl); ok {
		return d
	}
	return &ast.StmtDecl{Stmt: s}
}

func (p *Parser) parseDecorator() {
	p.expect("@")
	p.parseCallMember(true)
}

func (p *Parser) expectIdent(name string) {
	if !p.isIdent(name) {
		p.fail(strconv.Quote(name))
	}
	p.next()
}

func (p *Parser) expectString() string {
	if p.tok().Kind != lexer.StringLiteral {
		p.fail("string literal")
	}
	return p.next().Value
}

// skipImportAttributes skips `with { type: "json" }`.
func (p *Parser) skipImportAttributes() {
	if (p.is("with") || p.isIdent("assert")) && p.peekAt(1).Is("{") && p.sameLine(0) {
		p.next()
		p.skipBalanced()
	}
}

func (p *Parser) parseImport() ast.Decl {
	start := p.expect("import")
	d := &ast.ImportDecl{}
	if p.isIdent("type") {
		next := p.peekAt(1)
		if next.Is("{") || next.Is("*") || (next.Kind == lexer.Identifier && !next.IsIdent("from")) {
			p.next()
			d.TypeOnly = true
		}
	}
	if p.tok().Kind == lexer.StringLiteral {
		d.Module = p.next().Value
		p.skipImportAttributes()
		p.semicolon()
		d.Span = p.spanFrom(start)
		return d
	}
	if p.tok().Kind == lexer.Identifier {
		name := p.next().Value
		if p.accept("=") {
			p.parseExpr()
			p.semicolon()
			return p.unsupported("import assignment", start)
		}
		d.Default = name
		if !p.accept(",") {
			p.expectIdent("from")
			d.Module = p.expectString()
			p.skipImportAttributes()
			p.semicolon()
			d.Span = p.spanFrom(start)
			return d
		}
	}
	if p.accept("*") {
		p.expectIdent("as")
		d.Namespace = p.expectName()
	} else {
		d.Names = p.parseNameList()
	}
	p.expectIdent("from")
	d.Module = p.expectString()
	p.skipImportAttributes()
	p.semicolon()
	d.Span = p.spanFrom(start)
	return d
}

// parseNameList parses `{ a, b as c, type D }`.
func (p *Parser) parseNameList() []ast.ImportName {
	p.expect("{")
	var names []ast.ImportName
	for !p.is("}") {
		if p.isIdent("type") && isNameToken(p.peekAt(1)) && !p.peekAt(1).IsIdent("as") {
			p.next()
		}
		n := ast.ImportName{}
		n.Name, _ = p.propertyName()
		if p.isIdent("as") {
			p.next()
			n.Alias, _ = p.propertyName()
		}
		names = append(names, n)
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	return names
}

func (p *Parser) parseExport() ast.Decl {
	start := p.expect("export")
	e := &ast.ExportDecl{}
	switch {
	case p.is("default"):
		p.next()
		e.Default = true
		next := p.peekAt(1)
		switch {
		case p.is("function") || p.is("class") || p.is("interface") || p.is("enum") ||
			(p.isIdent("async") && next.Is("function")) || (p.isIdent("abstract") && next.Is("class")):
			d := asDecl(p.parseStatement())
			if u, ok := d.(*ast.Unsupported); ok {
				return u
			}
			e.Decl = d
		default:
			e.Value = p.parseAssign()
			p.semicolon()
		}
	case p.is("="):
		p.next()
		p.parseExpr()
		p.semicolon()
		return p.unsupported("export assignment", start)
	case p.isIdent("as") && p.peekAt(1).IsIdent("namespace"):
		p.next()
		p.next()
		p.expectName()
		p.semicolon()
		return p.unsupported("namespace export", start)
	case p.is("import"):
		p.next()
		p.expectName()
		p.expect("=")
		p.parseExpr()
		p.semicolon()
		return p.unsupported("import assignment", start)
	case p.is("*"):
		p.next()
		name := ast.ImportName{Name: "*"}
		if p.isIdent("as") {
			p.next()
			name.Alias, _ = p.propertyName()
		}
		e.Names = []ast.ImportName{name}
		p.expectIdent("from")
		e.From = p.expectString()
		p.skipImportAttributes()
		p.semicolon()
	case p.is("{") || (p.isIdent("type") && p.peekAt(1).Is("{")):
		if p.isIdent("type") {
			p.next()
		}
		e.Names = p.parseNameList()
		if p.isIdent("from") {
			p.next()
			e.From = p.expectString()
			p.skipImportAttributes()
		}
		p.semicolon()
	default:
		declStart := p.tok()
		s := p.parseStatement()
		switch d := s.(type) {
		case *ast.Unsupported:
			return d
		case *ast.StmtDecl, *ast.ImportDecl, *ast.ExportDecl:
			panic(bailout{&ParseError{Expected: "declaration", Found: declStart.Describe(), Span: declStart.Span}})
		case ast.Decl:
			e.Decl = d
		default:
			panic(bailout{&ParseError{Expected: "declaration", Found: declStart.Describe(), Span: declStart.Span}})
		}
	}
	e.Span = p.spanFrom(start)
	return e
}

func (p *Parser) parseFunctionDecl() ast.Stmt {
	start := p.tok()
	async := false
	if p.isIdent("async") {
		p.next()
		async = true
	}
	p.expect("function")
	generator := p.accept("*")
	name := p.expectName()
	fp := p.parseFuncParts(name, true)
	return &ast.FuncDecl{
		Span:       p.spanFrom(start),
		Name:       name,
		TypeParams: fp.typeParams,
		Params:     fp.params,
		Return:     fp.ret,
		Body:       fp.body,
		Async:      async,
		Generator:  generator,
	}
}

func (p *Parser) parseTypeAlias() ast.Stmt {
	start := p.next()
	name := p.expectName()
	var tps []typeParamSyntax
	if p.is("<") {
		tps = p.parseTypeParams()
	}
	p.expect("=")
	t := p.parseType()
	p.semicolon()

	typeParams := p.enterTypeParams(tps)
	defer p.mapper.PopScope()
	return &ast.TypeAliasDecl{
		Span:       p.spanFrom(start),
		Name:       name,
		TypeParams: typeParams,
		Type:       p.mapper.MapAlias(name, t),
	}
}

// parseAmbient parses and discards a `declare` declaration.
func (p *Parser) parseAmbient() ast.Stmt {
	start := p.next()
	switch {
	case p.isIdent("global"):
		p.next()
		p.skipBalanced()
	case p.isIdent("module") && p.peekAt(1).Kind == lexer.StringLiteral:
		p.next()
		p.next()
		if p.is("{") {
			p.skipBalanced()
		} else {
			p.semicolon()
		}
	default:
		p.parseStatement()
	}
	return p.unsupported("ambient declaration", start)
}

// parseNamespace parses and discards a namespace or module block.
func (p *Parser) parseNamespace() ast.Stmt {
	start := p.next()
	if p.tok().Kind == lexer.StringLiteral {
		p.next()
	} else {
		p.qualifiedName(false)
	}
	if !p.is("{") {
		p.semicolon()
		return p.unsupported("namespace", start)
	}
	p.next()
	for !p.is("}") {
		if p.tok().Kind == lexer.EndOfFile {
			p.fail("'}'")
		}
		p.parseTopLevel()
	}
	p.expect("}")
	return p.unsupported("namespace", start)
}

// parseHeritage parses one entry of an extends or implements clause.
// Expressions other than a (qualified) name with type arguments yield nil.
func (p *Parser) parseHeritage() ast.TypeExpr {
	start := p.tok()
	if start.Kind != lexer.Identifier {
		p.parseCallMember(true)
		p.warn(ir.CodeInheritance, p.spanFrom(start), "heritage expression is not supported")
		return nil
	}
	ref := &ast.TypeRef{Name: p.qualifiedName(false)}
	if p.is("<") {
		ref.Args = p.parseTypeArgs()
	}
	if p.is("(") {
		p.skipBalanced()
		p.warn(ir.CodeInheritance, p.spanFrom(start), "heritage expression is not supported")
		return nil
	}
	ref.Span = p.spanFrom(start)
	return ref
}

// mapHeritage maps a heritage type; only named types can be inherited.
func (p *Parser) mapHeritage(t ast.TypeExpr) *ir.NamedDescriptor {
	if t == nil {
		return nil
	}
	td := p.mapType(t, "")
	if n, ok := td.(*ir.NamedDescriptor); ok {
		return n
	}
	p.warn(ir.CodeInheritance, t.Pos(), "cannot inherit from %s", ir.Key(td))
	return nil
}

func (p *Parser) parseInterface() ast.Stmt {
	start := p.expect("interface")
	name := p.expectName()
	var tps []typeParamSyntax
	if p.is("<") {
		tps = p.parseTypeParams()
	}
	var extends []ast.TypeExpr
	if p.accept("extends") {
		for {
			if t := p.parseHeritage(); t != nil {
				extends = append(extends, t)
			}
			if !p.accept(",") {
				break
			}
		}
	}
	members := p.parseTypeMembers()

	d := &ast.InterfaceDecl{Name: name}
	d.TypeParams = p.enterTypeParams(tps)
	defer p.mapper.PopScope()
	for _, t := range extends {
		if n := p.mapHeritage(t); n != nil {
			d.Extends = append(d.Extends, n)
		}
	}
	for _, m := range members {
		d.Members = append(d.Members, p.mapSignature(m))
	}
	d.Span = p.spanFrom(start)
	return d
}

func (p *Parser) mapSignature(m *memberSyntax) ast.Signature {
	switch m.kind {
	case memberProperty:
		td := p.mapType(m.typ, typemap.Hint(m.name))
		if td == nil {
			td = ir.Any()
		}
		inner, nullable := ir.Unwrap(td)
		return &ast.PropertySig{
			Span:     m.span,
			Name:     m.name,
			Type:     inner,
			Optional: m.optional || nullable,
			Readonly: m.readonly,
		}
	case memberMethod:
		sig := &ast.MethodSig{Span: m.span, Name: m.name, Optional: m.optional}
		sig.TypeParams = p.enterTypeParams(m.typeParams)
		sig.Params = p.mapParams(m.params)
		sig.Return = p.mapType(m.ret, resultHint(m.name))
		p.mapper.PopScope()
		return sig
	case memberCall, memberConstruct:
		kind := ast.CallSignature
		if m.kind == memberConstruct {
			kind = ast.ConstructSignature
		}
		p.enterTypeParams(m.typeParams)
		sig := &ast.SpecialSig{Span: m.span, Kind: kind, Params: p.mapParams(m.params), Return: p.mapType(m.ret, "")}
		p.mapper.PopScope()
		return sig
	case memberIndex:
		return &ast.SpecialSig{Span: m.span, Kind: ast.IndexSignature, Return: p.mapType(m.typ, "")}
	}
	return &ast.Unsupported{Span: m.span, Kind: m.kind.String()}
}

func (p *Parser) parseEnum() ast.Stmt {
	start := p.tok()
	d := &ast.EnumDecl{Const: p.accept("const")}
	p.expect("enum")
	d.Name = p.expectName()
	p.expect("{")

	values := make(map[string]constant)
	next, auto := 0.0, true
	for !p.is("}") {
		ms := p.tok()
		if p.is("[") {
			p.fail("enum member name")
		}
		m := &ast.EnumMember{}
		m.Name, _ = p.propertyName()
		switch {
		case p.accept("="):
			m.Init = p.parseAssign()
			c, ok := foldConstant(m.Init, func(x ast.Expr) (constant, bool) {
				switch x := x.(type) {
				case *ast.Ident:
					c, ok := values[x.Name]
					return c, ok
				case *ast.MemberExpr:
					if id, isIdent := ast.Unparen(x.X).(*ast.Ident); isIdent && id.Name == d.Name {
						c, ok := values[x.Name]
						return c, ok
					}
				}
				return constant{}, false
			})
			if ok {
				m.Kind, m.Number, m.Text = c.kind, c.num, c.text
			}
		case auto:
			m.Kind, m.Number = ast.EnumNumber, next
		default:
			p.warn(ir.CodeUnsupportedConstruct, ms.Span,
				"enum member %q follows a non-numeric member and has no initializer", m.Name)
		}
		next, auto = m.Number+1, m.Kind == ast.EnumNumber
		if m.Kind != ast.EnumComputed {
			values[m.Name] = constant{kind: m.Kind, num: m.Number, text: m.Text}
		}
		m.Span = p.spanFrom(ms)
		d.Members = append(d.Members, m)
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")

	for _, m := range d.Members {
		if m.Kind == ast.EnumString || (m.Kind == ast.EnumNumber && m.Number != math.Trunc(m.Number)) {
			d.Class = ast.ValuedEnum
			break
		}
	}
	d.Span = p.spanFrom(start)
	return d
}
