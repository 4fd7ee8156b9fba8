package parser

import (
	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/lexer"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

// sameLine reports whether the token at offset n is on the line of the
// token before it.
func (p *Parser) sameLine(n int) bool {
	return !p.peekAt(n).NewlineBefore
}

func (p *Parser) parseStatement() ast.Stmt {
	start := p.tok()
	next := p.peekAt(1)
	switch {
	case p.is("{"):
		return p.parseBlock()
	case p.is(";"):
		p.next()
		return &ast.EmptyStmt{Span: start.Span}
	case p.is("const") && next.Is("enum"):
		return p.parseEnum()
	case p.is("var") || p.is("let") || p.is("const"):
		d := p.parseVarDecl()
		p.semicolon()
		return d
	case p.is("function") || (p.isIdent("async") && next.Is("function") && p.sameLine(1)):
		return p.parseFunctionDecl()
	case p.is("class") || (p.isIdent("abstract") && next.Is("class") && p.sameLine(1)):
		return p.parseClass()
	case p.is("interface") && next.Kind == lexer.Identifier:
		return p.parseInterface()
	case p.is("enum"):
		return p.parseEnum()
	case p.isIdent("type") && next.Kind == lexer.Identifier && p.sameLine(1):
		return p.parseTypeAlias()
	case p.isIdent("declare") && isNameToken(next) && p.sameLine(1):
		return p.parseAmbient()
	case (p.isIdent("namespace") || p.isIdent("module")) && (next.Kind == lexer.Identifier || next.Kind == lexer.StringLiteral) && p.sameLine(1):
		return p.parseNamespace()
	case p.is("if"):
		return p.parseIf()
	case p.is("while"):
		p.next()
		cond := p.parseParenExpr()
		body := p.parseStatement()
		return &ast.WhileStmt{Span: p.spanFrom(start), Cond: cond, Body: body}
	case p.is("do"):
		p.next()
		body := p.parseStatement()
		p.expect("while")
		cond := p.parseParenExpr()
		p.accept(";")
		return &ast.DoWhileStmt{Span: p.spanFrom(start), Body: body, Cond: cond}
	case p.is("for"):
		return p.parseFor()
	case p.is("return"):
		p.next()
		r := &ast.ReturnStmt{}
		if !p.atStatementEnd() {
			r.Result = p.parseExpr()
		}
		p.semicolon()
		r.Span = p.spanFrom(start)
		return r
	case p.is("break") || p.is("continue"):
		p.next()
		label := ""
		if p.tok().Kind == lexer.Identifier && !p.tok().NewlineBefore {
			label = p.next().Value
		}
		p.semicolon()
		if start.Is("break") {
			return &ast.BreakStmt{Span: p.spanFrom(start), Label: label}
		}
		return &ast.ContinueStmt{Span: p.spanFrom(start), Label: label}
	case p.is("throw"):
		p.next()
		x := p.parseExpr()
		p.semicolon()
		return &ast.ThrowStmt{Span: p.spanFrom(start), X: x}
	case p.is("switch"):
		return p.parseSwitch()
	case p.is("try"):
		return p.parseTry()
	case p.is("debugger"):
		p.next()
		p.semicolon()
		return &ast.EmptyStmt{Span: start.Span}
	case p.is("with"):
		p.next()
		p.parseParenExpr()
		p.parseStatement()
		return p.unsupported("with statement", start)
	case start.Kind == lexer.Identifier && next.Is(":"):
		// Labels are dropped; break and continue keep the label name.
		p.next()
		p.next()
		return p.parseStatement()
	case p.is("@"):
		for p.is("@") {
			p.parseDecorator()
		}
		p.parseStatement()
		return p.unsupported("decorator", start)
	}
	x := p.parseExpr()
	p.semicolon()
	return &ast.ExprStmt{Span: p.spanFrom(start), X: x}
}

func (p *Parser) atStatementEnd() bool {
	t := p.tok()
	return t.Is(";") || t.Is("}") || t.Kind == lexer.EndOfFile || t.NewlineBefore
}

func (p *Parser) parseParenExpr() ast.Expr {
	p.expect("(")
	x := p.parseExpr()
	p.expect(")")
	return x
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.expect("{")
	noIn := p.noIn
	p.noIn = false
	b := &ast.Block{}
	for !p.is("}") {
		if p.tok().Kind == lexer.EndOfFile {
			p.fail("'}'")
		}
		b.Stmts = append(b.Stmts, p.parseStatement())
	}
	p.noIn = noIn
	p.expect("}")
	b.Span = p.spanFrom(start)
	return b
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.expect("if")
	s := &ast.IfStmt{Cond: p.parseParenExpr()}
	s.Then = p.parseStatement()
	if p.accept("else") {
		s.Else = p.parseStatement()
	}
	s.Span = p.spanFrom(start)
	return s
}

func varKind(t lexer.Token) ast.VarKind {
	switch t.Lexeme {
	case "const":
		return ast.Const
	case "var":
		return ast.Var
	default:
		return ast.Let
	}
}

// parseVarDecl parses a variable declaration without the terminating
// semicolon.
func (p *Parser) parseVarDecl() ast.Stmt {
	start := p.next()
	d := &ast.VarDecl{Kind: varKind(start)}
	destructured := false
	for {
		bs := p.tok()
		if p.is("{") || p.is("[") {
			p.skipBalanced()
			p.parseTypeAnnotation()
			if p.accept("=") {
				p.parseAssign()
			}
			destructured = true
		} else {
			b := &ast.Binding{Name: p.expectName()}
			p.accept("!")
			b.Type = p.mapType(p.parseTypeAnnotation(), typemap.Hint(b.Name))
			if p.accept("=") {
				b.Init = p.parseAssign()
			}
			b.Span = p.spanFrom(bs)
			d.Bindings = append(d.Bindings, b)
		}
		if !p.accept(",") {
			break
		}
	}
	if destructured {
		return p.unsupported("destructuring pattern", start)
	}
	d.Span = p.spanFrom(start)
	return d
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.expect("for")
	if p.isIdent("await") {
		p.next()
		p.parseParenExpr()
		p.parseStatement()
		return p.unsupported("for-await loop", start)
	}
	p.expect("(")

	var init ast.Stmt
	switch {
	case p.is(";"):
	case p.is("var") || p.is("let") || p.is("const"):
		if p.peekAt(1).Kind == lexer.Identifier && (p.peekAt(2).IsIdent("of") || p.peekAt(2).Is("in")) {
			kind := varKind(p.next())
			name := p.next().Value
			if p.next().Lexeme == "in" {
				return p.skipLoopRest("for-in loop", start)
			}
			iter := p.parseAssign()
			p.expect(")")
			body := p.parseStatement()
			return &ast.ForOfStmt{Span: p.spanFrom(start), Kind: kind, Name: name, Iter: iter, Body: body}
		}
		p.noIn = true
		init = p.parseVarDecl()
		p.noIn = false
		if p.isIdent("of") || p.is("in") {
			p.next()
			return p.skipLoopRest("destructuring pattern", start)
		}
	default:
		p.noIn = true
		x := p.parseExpr()
		p.noIn = false
		if p.isIdent("of") || p.is("in") {
			p.next()
			return p.skipLoopRest("for loop over an existing binding", start)
		}
		init = &ast.ExprStmt{Span: x.Pos(), X: x}
	}
	p.expect(";")

	s := &ast.ForStmt{Init: init}
	if !p.is(";") {
		s.Cond = p.parseExpr()
	}
	p.expect(";")
	if !p.is(")") {
		s.Post = p.parseExpr()
	}
	p.expect(")")
	s.Body = p.parseStatement()
	s.Span = p.spanFrom(start)
	return s
}

// skipLoopRest consumes the iterated expression and body of a loop that has
// no translation.
func (p *Parser) skipLoopRest(kind string, start lexer.Token) ast.Stmt {
	p.parseExpr()
	p.expect(")")
	p.parseStatement()
	return p.unsupported(kind, start)
}

func (p *Parser) parseSwitch() ast.Stmt {
	start := p.expect("switch")
	s := &ast.SwitchStmt{Tag: p.parseParenExpr()}
	p.expect("{")
	for !p.is("}") {
		cs := p.tok()
		c := &ast.CaseClause{}
		if !p.accept("default") {
			p.expect("case")
			c.Test = p.parseExpr()
		}
		p.expect(":")
		for !p.is("case") && !p.is("default") && !p.is("}") {
			if p.tok().Kind == lexer.EndOfFile {
				p.fail("'}'")
			}
			c.Body = append(c.Body, p.parseStatement())
		}
		c.Span = p.spanFrom(cs)
		s.Cases = append(s.Cases, c)
	}
	p.expect("}")
	s.Span = p.spanFrom(start)
	return s
}

func (p *Parser) parseTry() ast.Stmt {
	start := p.expect("try")
	p.parseBlock()
	if p.accept("catch") {
		if p.accept("(") {
			if p.is("{") || p.is("[") {
				p.skipBalanced()
			} else {
				p.expectName()
			}
			p.parseTypeAnnotation()
			p.expect(")")
		}
		p.parseBlock()
	}
	if p.accept("finally") {
		p.parseBlock()
	}
	return p.unsupported("try statement", start)
}
