package parser

import (
	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/lexer"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

func (p *Parser) parseClass() ast.Stmt {
	start := p.tok()
	c := &ast.ClassDecl{}
	if p.isIdent("abstract") {
		p.next()
		c.Abstract = true
	}
	p.expect("class")
	if p.tok().Kind == lexer.Identifier {
		c.Name = p.next().Value
	}
	var tps []typeParamSyntax
	if p.is("<") {
		tps = p.parseTypeParams()
	}
	var extends ast.TypeExpr
	var implements []ast.TypeExpr
	if p.accept("extends") {
		extends = p.parseHeritage()
	}
	if p.accept("implements") {
		for {
			if t := p.parseHeritage(); t != nil {
				implements = append(implements, t)
			}
			if !p.accept(",") {
				break
			}
		}
	}

	c.TypeParams = p.enterTypeParams(tps)
	defer p.mapper.PopScope()
	c.Extends = p.mapHeritage(extends)
	for _, t := range implements {
		if n := p.mapHeritage(t); n != nil {
			c.Implements = append(c.Implements, n)
		}
	}

	p.expect("{")
	for !p.is("}") {
		if p.tok().Kind == lexer.EndOfFile {
			p.fail("'}'")
		}
		if p.accept(";") {
			continue
		}
		c.Members = append(c.Members, p.parseClassMember()...)
	}
	p.expect("}")
	c.Span = p.spanFrom(start)
	if c.Name == "" {
		return p.unsupported("anonymous class", start)
	}
	return c
}

var memberModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "static": true,
	"readonly": true, "abstract": true, "override": true, "declare": true,
	"accessor": true,
}

// isModifier reports whether the current word is a member modifier rather
// than a member named like one.
func (p *Parser) isModifier() bool {
	t := p.tok()
	if (t.Kind != lexer.Identifier && t.Kind != lexer.Keyword) || !memberModifiers[t.Value] {
		return false
	}
	next := p.peekAt(1)
	if next.NewlineBefore {
		return false
	}
	for _, s := range []string{"(", ":", "=", ";", "?", "!", "<", "}", ","} {
		if next.Is(s) {
			return false
		}
	}
	return next.Kind != lexer.EndOfFile
}

// parseClassMember returns the member at the cursor. Parameter properties
// of a constructor come back as Property members ahead of it.
func (p *Parser) parseClassMember() []ast.Member {
	start := p.tok()
	if p.is("@") {
		for p.is("@") {
			p.parseDecorator()
		}
		dec := p.unsupported("decorator", start)
		return append([]ast.Member{dec}, p.parseClassMember()...)
	}
	if p.is("static") && p.peekAt(1).Is("{") {
		p.next()
		p.skipBalanced()
		return []ast.Member{p.unsupported("static block", start)}
	}

	var mods ast.Modifiers
	for p.isModifier() {
		switch p.next().Value {
		case "private":
			mods.Visibility = ast.Private
		case "protected":
			mods.Visibility = ast.Protected
		case "static":
			mods.Static = true
		case "readonly":
			mods.Readonly = true
		case "abstract":
			mods.Abstract = true
		case "override":
			mods.Override = true
		}
	}

	next := p.peekAt(1)
	switch {
	case p.is("[") && next.Kind == lexer.Identifier && p.peekAt(2).Is(":"):
		p.skipBalanced()
		p.parseTypeAnnotation()
		p.semicolon()
		return []ast.Member{p.unsupported("index signature", start)}
	case p.isIdent("constructor") && next.Is("("):
		return p.parseConstructor(start, mods)
	case (p.isIdent("get") || p.isIdent("set")) && (isNameToken(next) || next.Is("[")) && !next.NewlineBefore:
		return []ast.Member{p.parseAccessor(start, mods)}
	case p.is("*") || (p.isIdent("async") && p.peekAt(1).Is("*")):
		if p.isIdent("async") {
			p.next()
		}
		p.next()
		if p.is("[") {
			p.skipBalanced()
		} else {
			p.propertyName()
		}
		p.parseFuncParts("", true)
		return []ast.Member{p.unsupported("generator method", start)}
	}

	async := false
	if p.isIdent("async") && (isNameToken(next) || next.Is("[")) && !next.NewlineBefore {
		p.next()
		async = true
	}
	computed := false
	var name string
	var hash bool
	if p.is("[") {
		p.skipBalanced()
		computed = true
	} else {
		name, hash = p.propertyName()
	}
	optional := p.accept("?")
	p.accept("!")

	if p.is("(") || p.is("<") {
		fp := p.parseFuncParts(name, true)
		if computed {
			return []ast.Member{p.unsupported("computed method name", start)}
		}
		return []ast.Member{&ast.Method{
			Span:       p.spanFrom(start),
			Modifiers:  mods,
			Name:       name,
			TypeParams: fp.typeParams,
			Params:     fp.params,
			Return:     fp.ret,
			Body:       fp.body,
			Async:      async,
		}}
	}

	prop := &ast.Property{Modifiers: mods, Name: name, Optional: optional, Hash: hash}
	prop.Type = p.mapType(p.parseTypeAnnotation(), typemap.Hint(name))
	if p.accept("=") {
		prop.Init = p.parseAssign()
	}
	p.semicolon()
	if computed {
		return []ast.Member{p.unsupported("computed property name", start)}
	}
	prop.Span = p.spanFrom(start)
	return []ast.Member{prop}
}

func (p *Parser) parseAccessor(start lexer.Token, mods ast.Modifiers) ast.Member {
	kind := ast.Getter
	if p.next().Value == "set" {
		kind = ast.Setter
	}
	if p.is("[") {
		p.skipBalanced()
		p.parseFuncParts("", true)
		return p.unsupported("computed accessor name", start)
	}
	name, _ := p.propertyName()
	fp := p.parseFuncParts(name, true)
	acc := &ast.Accessor{
		Span:      p.spanFrom(start),
		Modifiers: mods,
		Kind:      kind,
		Name:      name,
		Return:    fp.ret,
		Body:      fp.body,
	}
	if kind == ast.Setter && len(fp.params) > 0 {
		acc.Param = fp.params[0]
	}
	return acc
}

// parseConstructor parses a constructor and desugars its parameter
// properties: each becomes a Property and an assignment at the top of the
// body, after a leading super call.
func (p *Parser) parseConstructor(start lexer.Token, mods ast.Modifiers) []ast.Member {
	p.next()
	fp := p.parseFuncParts("", true)
	ctor := &ast.Constructor{
		Span:       p.spanFrom(start),
		Visibility: mods.Visibility,
		Params:     fp.params,
		Body:       fp.body,
	}

	var out []ast.Member
	var assigns []ast.Stmt
	for i, ps := range fp.syntax {
		if !ps.hasModifier || ctor.Body == nil {
			continue
		}
		param := fp.params[i]
		out = append(out, &ast.Property{
			Span:      ps.span,
			Modifiers: ast.Modifiers{Visibility: ps.visibility, Readonly: ps.readonly},
			Name:      param.Name,
			Type:      param.Type,
			Optional:  param.Optional,
		})
		target := &ast.MemberExpr{Span: ps.span, X: &ast.ThisExpr{Span: ps.span}, Name: param.Name}
		assigns = append(assigns, &ast.ExprStmt{
			Span: ps.span,
			X:    &ast.AssignExpr{Span: ps.span, Op: "=", Target: target, Value: &ast.Ident{Span: ps.span, Name: param.Name}},
		})
	}
	if len(assigns) > 0 {
		stmts := ctor.Body.Stmts
		at := 0
		if len(stmts) > 0 && isSuperCall(stmts[0]) {
			at = 1
		}
		body := make([]ast.Stmt, 0, len(stmts)+len(assigns))
		body = append(body, stmts[:at]...)
		body = append(body, assigns...)
		body = append(body, stmts[at:]...)
		ctor.Body.Stmts = body
	}
	return append(out, ctor)
}

func isSuperCall(s ast.Stmt) bool {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}
	call, ok := es.X.(*ast.CallExpr)
	if !ok {
		return false
	}
	_, ok = call.Fn.(*ast.SuperExpr)
	return ok
}
