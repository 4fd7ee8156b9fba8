// Package parser builds an ast.Program from TypeScript source.
//
// The parser is recursive descent over a lazily filled token buffer. The few
// ambiguous productions (generic call arguments, arrow functions, function
// types) are decided by trial parses that restore the buffer cursor on
// failure; trial parses build only syntax, never mapped types, so a reverted
// attempt leaves no trace.
//
// Type annotations are handed to the file's typemap.Mapper once the
// enclosing construct has committed, and only the resulting descriptor is
// stored in the tree.
package parser

import (
	"fmt"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/lexer"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

// ParseError is a fatal syntax error.
type ParseError struct {
	Expected string
	Found    string
	Span     ir.Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: expected %s, found %s", e.Span, e.Expected, e.Found)
}

// Pos returns the location of the offending token.
func (e *ParseError) Pos() ir.Span { return e.Span }

// Code returns ir.CodeParseError.
func (e *ParseError) Code() string { return ir.CodeParseError }

// bailout carries a fatal error up the recursive descent.
type bailout struct {
	err error
}

// fileState is shared by a parser and the sub-parsers of its template
// literal expressions.
type fileState struct {
	mapper *typemap.Mapper
	diags  ir.Diagnostics
}

// Parser holds the state of one parse.
type Parser struct {
	file string
	src  string
	lex  *lexer.Lexer
	toks []lexer.Token
	pos  int

	// noIn disables the `in` operator while parsing a for-statement header.
	noIn bool

	*fileState
}

// Parse parses one source file. On failure it returns a *lexer.LexError or
// a *ParseError and no Program.
func Parse(file, src string) (*ast.Program, error) {
	p := &Parser{
		file:      file,
		src:       src,
		lex:       lexer.New(file, src),
		fileState: &fileState{mapper: typemap.New(file)},
	}
	return p.parseProgram()
}

func (p *Parser) parseProgram() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	prog = &ast.Program{File: p.file}
	for p.tok().Kind != lexer.EndOfFile {
		prog.Decls = append(prog.Decls, p.parseTopLevel()...)
	}

	p.mapper.Finish(declaredNames(prog.Decls))
	prog.Synthesized = p.mapper.Synthesized()
	prog.Diagnostics = append(append(ir.Diagnostics{}, p.mapper.Diagnostics()...), p.diags...)
	return prog, nil
}

func declaredNames(decls []ast.Decl) map[string]bool {
	names := make(map[string]bool)
	for _, d := range decls {
		d, _ = ast.Unwrap(d)
		switch d := d.(type) {
		case *ast.ClassDecl:
			names[d.Name] = true
		case *ast.InterfaceDecl:
			names[d.Name] = true
		case *ast.EnumDecl:
			names[d.Name] = true
		case *ast.TypeAliasDecl:
			names[d.Name] = true
		case *ast.FuncDecl:
			names[d.Name] = true
		}
	}
	return names
}

// subParser returns a parser over the source range of a template
// substitution. It shares the mapper and diagnostics of p.
func (p *Parser) subParser(span ir.Span) *Parser {
	return &Parser{
		file:      p.file,
		src:       p.src,
		lex:       lexer.NewRange(p.file, p.src, span.Start, span.End, span.Line, span.Column),
		fileState: p.fileState,
	}
}

// Token access

func (p *Parser) peekAt(n int) lexer.Token {
	for len(p.toks) <= p.pos+n {
		if k := len(p.toks); k > 0 && p.toks[k-1].Kind == lexer.EndOfFile {
			return p.toks[k-1]
		}
		tok, err := p.lex.Next()
		if err != nil {
			panic(bailout{err})
		}
		p.toks = append(p.toks, tok)
	}
	return p.toks[p.pos+n]
}

func (p *Parser) tok() lexer.Token { return p.peekAt(0) }

func (p *Parser) next() lexer.Token {
	t := p.tok()
	if t.Kind != lexer.EndOfFile {
		p.pos++
	}
	return t
}

// prev returns the last consumed token.
func (p *Parser) prev() lexer.Token {
	if p.pos == 0 {
		return p.tok()
	}
	return p.toks[p.pos-1]
}

func (p *Parser) is(lexeme string) bool { return p.tok().Is(lexeme) }

func (p *Parser) isIdent(name string) bool { return p.tok().IsIdent(name) }

func (p *Parser) accept(lexeme string) bool {
	if p.is(lexeme) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(lexeme string) lexer.Token {
	if !p.is(lexeme) {
		p.fail(fmt.Sprintf("%q", lexeme))
	}
	return p.next()
}

func (p *Parser) fail(expected string) {
	t := p.tok()
	panic(bailout{&ParseError{Expected: expected, Found: t.Describe(), Span: t.Span}})
}

// expectName consumes an identifier.
func (p *Parser) expectName() string {
	if p.tok().Kind != lexer.Identifier {
		p.fail("identifier")
	}
	return p.next().Value
}

// isPropertyName reports whether the current token can name a member.
func (p *Parser) isPropertyName() bool {
	switch p.tok().Kind {
	case lexer.Identifier, lexer.Keyword, lexer.StringLiteral, lexer.NumericLiteral, lexer.PrivateName:
		return true
	}
	return false
}

// propertyName consumes a member name.
func (p *Parser) propertyName() (name string, hash bool) {
	if !p.isPropertyName() {
		p.fail("property name")
	}
	t := p.next()
	return t.Value, t.Kind == lexer.PrivateName
}

// semicolon implements automatic semicolon insertion.
func (p *Parser) semicolon() {
	if p.accept(";") {
		return
	}
	t := p.tok()
	if t.Kind == lexer.EndOfFile || t.Is("}") || t.NewlineBefore {
		return
	}
	p.fail("';'")
}

// spanFrom returns the span from start to the last consumed token.
func (p *Parser) spanFrom(start lexer.Token) ir.Span {
	s := start.Span
	if end := p.prev().Span.End; end > s.End {
		s.End = end
	}
	return s
}

// try runs fn as a trial parse. On failure the cursor is restored and try
// returns false.
func (p *Parser) try(fn func() bool) (ok bool) {
	saved, noIn := p.pos, p.noIn
	defer func() {
		if r := recover(); r != nil {
			b, isBailout := r.(bailout)
			if !isBailout {
				panic(r)
			}
			if _, lexFailed := b.err.(*lexer.LexError); lexFailed {
				panic(r)
			}
			ok = false
		}
		if !ok {
			p.pos, p.noIn = saved, noIn
		}
	}()
	return fn()
}

// lookahead runs fn as a trial parse and always restores the cursor.
func (p *Parser) lookahead(fn func() bool) bool {
	saved := p.pos
	defer func() { p.pos = saved }()
	return p.try(fn)
}

// skipBalanced consumes tokens from an opening bracket to its match.
func (p *Parser) skipBalanced() {
	open := p.tok()
	depth := 0
	for {
		t := p.next()
		switch {
		case t.Kind == lexer.EndOfFile:
			panic(bailout{&ParseError{Expected: "closing bracket", Found: t.Describe(), Span: open.Span}})
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}

func (p *Parser) warn(code string, span ir.Span, format string, args ...any) {
	p.diags = append(p.diags, ir.Warningf(code, span, format, args...))
}

func (p *Parser) unsupported(kind string, start lexer.Token) *ast.Unsupported {
	return &ast.Unsupported{Kind: kind, Span: p.spanFrom(start)}
}
