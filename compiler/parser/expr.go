package parser

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/lexer"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

// Binary operator precedence, loosest first. Exponentiation is the only
// right-associative level.
var binaryPrec = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7, "===": 7, "!==": 7,
	"<": 8, ">": 8, "<=": 8, ">=": 8, "instanceof": 8, "in": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
	"**": 12,
}

const relationalPrec = 8

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true,
	"|=": true, "^=": true, "&&=": true, "||=": true, "??=": true,
}

// parseExpr parses a comma-separated expression sequence.
func (p *Parser) parseExpr() ast.Expr {
	start := p.tok()
	x := p.parseAssign()
	for p.accept(",") {
		y := p.parseAssign()
		x = &ast.BinaryExpr{Span: p.spanFrom(start), Op: ",", X: x, Y: y}
	}
	return x
}

// adjacent reports whether the token at offset n directly follows the one
// before it.
func (p *Parser) adjacent(n int) bool {
	return p.peekAt(n).Span.Start == p.peekAt(n-1).Span.End
}

// gtOperator reassembles an operator beginning with `>`. The lexer emits
// every `>` alone so that nested type argument lists close correctly.
func (p *Parser) gtOperator() (op string, n int) {
	op, n = ">", 1
	for n < 3 && p.adjacent(n) && p.peekAt(n).Is(">") {
		op += ">"
		n++
	}
	if p.adjacent(n) && p.peekAt(n).Is("=") {
		op += "="
		n++
	}
	return op, n
}

// operator returns the operator at the cursor and its token count.
func (p *Parser) operator() (string, int) {
	t := p.tok()
	switch {
	case t.Is(">"):
		return p.gtOperator()
	case t.Kind == lexer.Operator:
		return t.Lexeme, 1
	case t.Is("instanceof"):
		return "instanceof", 1
	case t.Is("in") && !p.noIn:
		return "in", 1
	}
	return "", 0
}

func (p *Parser) parseAssign() ast.Expr {
	start := p.tok()
	if p.isArrowAhead() {
		return p.parseArrow()
	}
	if p.is("yield") {
		p.next()
		if !p.tok().NewlineBefore && startsExpr(p.tok()) {
			p.accept("*")
			p.parseAssign()
		}
		return p.unsupported("yield expression", start)
	}

	lhs := p.parseConditional()
	op, n := p.operator()
	if !assignOps[op] {
		return lhs
	}
	opTok := p.tok()
	for i := 0; i < n; i++ {
		p.next()
	}
	switch ast.Unparen(lhs).(type) {
	case *ast.Ident, *ast.MemberExpr, *ast.IndexExpr:
	case *ast.ArrayLit, *ast.ObjectLit:
		p.parseAssign()
		return p.unsupported("destructuring assignment", start)
	default:
		panic(bailout{&ParseError{Expected: "assignable expression", Found: opTok.Describe(), Span: opTok.Span}})
	}
	value := p.parseAssign()
	return &ast.AssignExpr{Span: p.spanFrom(start), Op: op, Target: lhs, Value: value}
}

func (p *Parser) parseConditional() ast.Expr {
	start := p.tok()
	cond := p.parseBinary(1)
	if !p.accept("?") {
		return cond
	}
	noIn := p.noIn
	p.noIn = false
	then := p.parseAssign()
	p.noIn = noIn
	p.expect(":")
	els := p.parseAssign()
	return &ast.CondExpr{Span: p.spanFrom(start), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	start := p.tok()
	x := p.parseUnary()
	for {
		if (p.isIdent("as") || p.isIdent("satisfies")) && !p.tok().NewlineBefore && minPrec <= relationalPrec {
			satisfies := p.next().Value == "satisfies"
			if p.accept("const") {
				continue
			}
			t := p.parseType()
			x = &ast.AsExpr{Span: p.spanFrom(start), X: x, Type: p.mapType(t, ""), Satisfies: satisfies}
			continue
		}
		op, n := p.operator()
		prec := binaryPrec[op]
		if prec == 0 || prec < minPrec {
			return x
		}
		for i := 0; i < n; i++ {
			p.next()
		}
		next := prec + 1
		if op == "**" {
			next = prec
		}
		y := p.parseBinary(next)
		x = &ast.BinaryExpr{Span: p.spanFrom(start), Op: op, X: x, Y: y}
	}
}

// startsExpr reports whether t can begin an expression.
func startsExpr(t lexer.Token) bool {
	switch t.Kind {
	case lexer.Identifier, lexer.NumericLiteral, lexer.StringLiteral, lexer.TemplateLiteral,
		lexer.RegexLiteral, lexer.PrivateName:
		return true
	case lexer.Keyword:
		switch t.Lexeme {
		case "this", "super", "null", "true", "false", "new", "function", "class",
			"typeof", "void", "delete", "import", "yield":
			return true
		}
		return false
	}
	for _, s := range []string{"(", "[", "{", "!", "-", "+", "~", "++", "--", "<"} {
		if t.Is(s) {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.tok()
	switch {
	case p.is("!") || p.is("-") || p.is("+") || p.is("~") || p.is("typeof") || p.is("void") || p.is("delete"):
		p.next()
		x := p.parseUnary()
		return &ast.UnaryExpr{Span: p.spanFrom(start), Op: start.Lexeme, X: x}
	case p.isIdent("await") && startsExpr(p.peekAt(1)) && !p.peekAt(1).NewlineBefore:
		p.next()
		x := p.parseUnary()
		return &ast.UnaryExpr{Span: p.spanFrom(start), Op: "await", X: x}
	case p.is("++") || p.is("--"):
		p.next()
		x := p.parseUnary()
		return &ast.UpdateExpr{Span: p.spanFrom(start), Op: start.Lexeme, Prefix: true, X: x}
	case p.is("<"):
		// Angle-bracket assertion <T>x.
		p.next()
		t := p.parseType()
		p.expect(">")
		x := p.parseUnary()
		return &ast.AsExpr{Span: p.spanFrom(start), X: x, Type: p.mapType(t, "")}
	}
	x := p.parseCallMember(true)
	if (p.is("++") || p.is("--")) && !p.tok().NewlineBefore {
		op := p.next().Lexeme
		return &ast.UpdateExpr{Span: p.spanFrom(start), Op: op, X: x}
	}
	return x
}

// parseCallMember parses a primary expression followed by member accesses
// and, when allowCall is set, calls.
func (p *Parser) parseCallMember(allowCall bool) ast.Expr {
	start := p.tok()
	var x ast.Expr
	if p.is("new") {
		x = p.parseNew()
	} else {
		x = p.parsePrimary()
	}
	for {
		switch {
		case p.is("."):
			p.next()
			name, hash := p.propertyName()
			x = &ast.MemberExpr{Span: p.spanFrom(start), X: x, Name: name, Hash: hash}
		case p.is("?."):
			p.next()
			switch {
			case p.is("("), p.is("<"):
				targs := p.parseCallTypeArgs()
				args := p.parseArgs()
				x = &ast.CallExpr{Span: p.spanFrom(start), Fn: x, TypeArgs: targs, Args: args, Optional: true}
			case p.is("["):
				p.next()
				idx := p.parseIndexExpr()
				x = &ast.IndexExpr{Span: p.spanFrom(start), X: x, Index: idx, Optional: true}
			default:
				name, hash := p.propertyName()
				x = &ast.MemberExpr{Span: p.spanFrom(start), X: x, Name: name, Optional: true, Hash: hash}
			}
		case p.is("["):
			p.next()
			idx := p.parseIndexExpr()
			x = &ast.IndexExpr{Span: p.spanFrom(start), X: x, Index: idx}
		case p.is("(") && allowCall:
			args := p.parseArgs()
			x = &ast.CallExpr{Span: p.spanFrom(start), Fn: x, Args: args}
		case p.is("<") && allowCall && !p.tok().NewlineBefore:
			var targs []ast.TypeExpr
			if !p.try(func() bool {
				targs = p.parseTypeArgs()
				return p.is("(") && !p.tok().NewlineBefore
			}) {
				return x
			}
			args := p.parseArgs()
			x = &ast.CallExpr{Span: p.spanFrom(start), Fn: x, TypeArgs: p.mapTypeArgs(targs), Args: args}
		case p.is("!") && !p.tok().NewlineBefore:
			p.next()
			x = &ast.NonNullExpr{Span: p.spanFrom(start), X: x}
		case p.tok().Kind == lexer.TemplateLiteral:
			p.next()
			x = p.unsupported("tagged template", start)
		default:
			return x
		}
	}
}

func (p *Parser) parseIndexExpr() ast.Expr {
	noIn := p.noIn
	p.noIn = false
	idx := p.parseExpr()
	p.noIn = noIn
	p.expect("]")
	return idx
}

// parseCallTypeArgs parses explicit type arguments in front of a call
// argument list, if present.
func (p *Parser) parseCallTypeArgs() []ir.TypeDescriptor {
	if !p.is("<") {
		return nil
	}
	return p.mapTypeArgs(p.parseTypeArgs())
}

func (p *Parser) mapTypeArgs(args []ast.TypeExpr) []ir.TypeDescriptor {
	if len(args) == 0 {
		return nil
	}
	out := make([]ir.TypeDescriptor, len(args))
	for i, a := range args {
		out[i] = p.mapType(a, "")
	}
	return out
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect("(")
	noIn := p.noIn
	p.noIn = false
	var args []ast.Expr
	for !p.is(")") {
		args = append(args, p.parseElement())
		if !p.accept(",") {
			break
		}
	}
	p.noIn = noIn
	p.expect(")")
	return args
}

// parseElement parses an argument or array element, which may be spread.
func (p *Parser) parseElement() ast.Expr {
	start := p.tok()
	if p.accept("...") {
		x := p.parseAssign()
		return &ast.SpreadExpr{Span: p.spanFrom(start), X: x}
	}
	return p.parseAssign()
}

func (p *Parser) parseNew() ast.Expr {
	start := p.expect("new")
	if p.is(".") {
		p.next()
		p.expectName()
		return p.unsupported("new.target", start)
	}
	ctor := p.parseCallMember(false)
	n := &ast.NewExpr{Ctor: ctor}
	if p.is("<") {
		var targs []ast.TypeExpr
		if p.try(func() bool {
			targs = p.parseTypeArgs()
			return true
		}) {
			n.TypeArgs = p.mapTypeArgs(targs)
		}
	}
	if p.is("(") {
		n.Args = p.parseArgs()
	}
	n.Span = p.spanFrom(start)
	return n
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.tok()
	switch t.Kind {
	case lexer.Identifier:
		if t.Value == "async" && p.peekAt(1).Is("function") && !p.peekAt(1).NewlineBefore {
			return p.parseFunctionExpr()
		}
		p.next()
		return &ast.Ident{Span: t.Span, Name: t.Value}
	case lexer.NumericLiteral:
		p.next()
		return &ast.NumberLit{Span: t.Span, Value: numberValue(t.Value), Raw: t.Value}
	case lexer.StringLiteral:
		p.next()
		return &ast.StringLit{Span: t.Span, Value: t.Value}
	case lexer.TemplateLiteral:
		p.next()
		return p.templateLit(t)
	case lexer.RegexLiteral:
		p.next()
		return &ast.RegexLit{Span: t.Span, Pattern: t.Value, Flags: t.Flags}
	case lexer.PrivateName:
		p.next()
		return p.unsupported("private name expression", t)
	case lexer.Keyword:
		switch t.Lexeme {
		case "this":
			p.next()
			return &ast.ThisExpr{Span: t.Span}
		case "super":
			p.next()
			return &ast.SuperExpr{Span: t.Span}
		case "null":
			p.next()
			return &ast.NullLit{Span: t.Span}
		case "true", "false":
			p.next()
			return &ast.BoolLit{Span: t.Span, Value: t.Lexeme == "true"}
		case "function":
			return p.parseFunctionExpr()
		case "class":
			p.parseClass()
			return p.unsupported("class expression", t)
		case "import":
			p.next()
			if p.accept(".") {
				p.expectName()
			} else {
				p.parseArgs()
			}
			return p.unsupported("dynamic import", t)
		}
	case lexer.Punctuator:
		switch t.Lexeme {
		case "(":
			p.next()
			noIn := p.noIn
			p.noIn = false
			x := p.parseExpr()
			p.noIn = noIn
			p.expect(")")
			return &ast.ParenExpr{Span: p.spanFrom(t), X: x}
		case "[":
			return p.parseArrayLit()
		case "{":
			return p.parseObjectLit()
		}
	}
	p.fail("expression")
	return nil
}

// numberValue converts a normalized numeric literal.
func numberValue(raw string) float64 {
	if len(raw) > 2 && raw[0] == '0' && strings.ContainsRune("xXoObB", rune(raw[1])) {
		n, ok := new(big.Int).SetString(raw, 0)
		if !ok {
			return 0
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f
	}
	f, _ := strconv.ParseFloat(raw, 64)
	return f
}

// templateLit parses the substitutions of a template token with sub-parsers
// over their source ranges.
func (p *Parser) templateLit(t lexer.Token) ast.Expr {
	tl := &ast.TemplateLit{Span: t.Span, Segments: t.Template.Segments}
	for _, span := range t.Template.Exprs {
		sub := p.subParser(span)
		x := sub.parseExpr()
		if sub.tok().Kind != lexer.EndOfFile {
			sub.fail("'}'")
		}
		tl.Exprs = append(tl.Exprs, x)
	}
	return tl
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.expect("[")
	noIn := p.noIn
	p.noIn = false
	a := &ast.ArrayLit{}
	for !p.is("]") {
		if p.is(",") {
			hole := p.next()
			a.Elems = append(a.Elems, p.unsupported("array hole", hole))
			continue
		}
		a.Elems = append(a.Elems, p.parseElement())
		if !p.accept(",") {
			break
		}
	}
	p.noIn = noIn
	p.expect("]")
	a.Span = p.spanFrom(start)
	return a
}

func (p *Parser) parseObjectLit() ast.Expr {
	start := p.expect("{")
	noIn := p.noIn
	p.noIn = false
	obj := &ast.ObjectLit{}
	for !p.is("}") {
		obj.Props = append(obj.Props, p.parseObjectProp())
		if !p.accept(",") {
			break
		}
	}
	p.noIn = noIn
	p.expect("}")
	obj.Span = p.spanFrom(start)
	return obj
}

func (p *Parser) parseObjectProp() *ast.ObjectProp {
	start := p.tok()
	next := p.peekAt(1)
	prop := &ast.ObjectProp{}
	methodLike := func(t lexer.Token) bool { return isNameToken(t) || t.Is("[") || t.Is("*") }
	switch {
	case p.accept("..."):
		prop.Spread = true
		prop.Value = p.parseAssign()
	case p.is("["):
		p.skipBalanced()
		if p.accept(":") {
			p.parseAssign()
		} else {
			p.parseFuncParts("", false)
		}
		prop.Value = p.unsupported("computed property name", start)
	case (p.isIdent("get") || p.isIdent("set")) && methodLike(next) && !next.Is("*"):
		p.next()
		if p.is("[") {
			p.skipBalanced()
		} else {
			prop.Key, _ = p.propertyName()
		}
		p.parseFuncParts(prop.Key, false)
		prop.Value = p.unsupported("object accessor", start)
	case p.isIdent("async") && methodLike(next) && !next.NewlineBefore:
		p.next()
		fn := p.parseMethodLit(start)
		fn.Async = true
		prop.Key, prop.Value = fn.Name, fn
	case p.is("*"):
		p.next()
		p.propertyName()
		p.parseFuncParts("", false)
		prop.Value = p.unsupported("generator method", start)
	case isNameToken(start) && (next.Is("(") || next.Is("<")):
		fn := p.parseMethodLit(start)
		prop.Key, prop.Value = fn.Name, fn
	default:
		key, _ := p.propertyName()
		prop.Key = key
		switch {
		case p.accept(":"):
			prop.Value = p.parseAssign()
		default:
			if start.Kind != lexer.Identifier {
				p.fail("':'")
			}
			prop.Shorthand = true
			prop.Value = &ast.Ident{Span: start.Span, Name: key}
		}
	}
	prop.Span = p.spanFrom(start)
	return prop
}

// parseMethodLit parses `name(params) { body }` in an object literal.
func (p *Parser) parseMethodLit(start lexer.Token) *ast.FuncLit {
	if p.is("*") || p.is("[") {
		p.fail("method name")
	}
	name, _ := p.propertyName()
	fp := p.parseFuncParts(name, false)
	return &ast.FuncLit{
		Span:   p.spanFrom(start),
		Name:   name,
		Params: fp.params,
		Return: fp.ret,
		Body:   fp.body,
	}
}

func (p *Parser) parseFunctionExpr() ast.Expr {
	start := p.tok()
	async := false
	if p.isIdent("async") {
		p.next()
		async = true
	}
	p.expect("function")
	generator := p.accept("*")
	name := ""
	if p.tok().Kind == lexer.Identifier {
		name = p.next().Value
	}
	fp := p.parseFuncParts(name, false)
	if generator {
		return p.unsupported("generator function", start)
	}
	return &ast.FuncLit{
		Span:   p.spanFrom(start),
		Name:   name,
		Params: fp.params,
		Return: fp.ret,
		Body:   fp.body,
		Async:  async,
	}
}

// isArrowAhead reports whether an arrow function starts at the cursor. It
// only looks at tokens and type syntax.
func (p *Parser) isArrowAhead() bool {
	i := 0
	if p.isIdent("async") && !p.peekAt(1).NewlineBefore {
		next := p.peekAt(1)
		if next.Kind == lexer.Identifier || next.Is("(") || next.Is("<") {
			i = 1
		}
	}
	t := p.peekAt(i)
	switch {
	case t.Kind == lexer.Identifier:
		arrow := p.peekAt(i + 1)
		return arrow.Is("=>") && !arrow.NewlineBefore
	case t.Is("("):
		return p.arrowAfterParen(i)
	case t.Is("<"):
		return p.lookahead(func() bool {
			p.pos += i
			p.parseTypeParams()
			return p.is("(") && p.arrowAfterParen(0)
		})
	}
	return false
}

// arrowAfterParen reports whether the parameter list opening at offset i is
// followed by `=>`, possibly after a return type annotation.
func (p *Parser) arrowAfterParen(i int) bool {
	depth := 0
	for j := i; ; j++ {
		t := p.peekAt(j)
		switch {
		case t.Kind == lexer.EndOfFile:
			return false
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
			if depth > 0 {
				continue
			}
			after := p.peekAt(j + 1)
			switch {
			case after.Is("=>"):
				return !after.NewlineBefore
			case after.Is(":"):
				return p.lookahead(func() bool {
					p.pos += j + 2
					p.parseReturnType()
					return p.is("=>")
				})
			}
			return false
		}
	}
}

func (p *Parser) parseArrow() ast.Expr {
	start := p.tok()
	fl := &ast.FuncLit{Arrow: true}
	if p.isIdent("async") && !p.peekAt(1).Is("=>") {
		p.next()
		fl.Async = true
	}
	var tps []typeParamSyntax
	if p.is("<") {
		tps = p.parseTypeParams()
	}
	p.enterTypeParams(tps)
	defer p.mapper.PopScope()

	var params []*paramSyntax
	if p.is("(") {
		params = p.parseParams(true)
	} else {
		t := p.next()
		params = []*paramSyntax{{span: t.Span, name: t.Value}}
	}
	var ret ast.TypeExpr
	if p.accept(":") {
		ret = p.parseReturnType()
	}
	p.expect("=>")
	fl.Params = p.mapParams(params)
	fl.Return = p.mapType(ret, "")
	if p.is("{") {
		fl.Body = p.parseBlock()
	} else {
		fl.ExprBody = p.parseAssign()
	}
	fl.Span = p.spanFrom(start)
	return fl
}

// funcParts is the signature and body shared by functions, methods,
// accessors and constructors.
type funcParts struct {
	typeParams []*ir.TypeParamDescriptor
	syntax     []*paramSyntax
	params     []*ast.Param
	ret        ir.TypeDescriptor
	body       *ast.Block
}

// parseFuncParts parses from the type parameters through the body. A
// missing body (overload signature, abstract or ambient member) is allowed
// when bodyOptional is set. Return types of object literal shape are named
// after the function.
func (p *Parser) parseFuncParts(name string, bodyOptional bool) funcParts {
	var fp funcParts
	var tps []typeParamSyntax
	if p.is("<") {
		tps = p.parseTypeParams()
	}
	fp.typeParams = p.enterTypeParams(tps)
	defer p.mapper.PopScope()

	fp.syntax = p.parseParams(true)
	var ret ast.TypeExpr
	if p.accept(":") {
		ret = p.parseReturnType()
	}
	fp.params = p.mapParams(fp.syntax)
	fp.ret = p.mapType(ret, resultHint(name))
	switch {
	case p.is("{"):
		fp.body = p.parseBlock()
	case bodyOptional:
		p.semicolon()
	default:
		p.fail("'{'")
	}
	return fp
}

func resultHint(name string) string {
	if name == "" {
		return ""
	}
	return typemap.Hint(name) + "Result"
}
