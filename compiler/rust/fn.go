package rust

import (
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// fnContext is the state of the function body being emitted.
type fnContext struct {
	parent *fnContext

	// class is the enclosing class of a method or constructor.
	class *classInfo
	kind  MethodKind

	// ctor is set in constructors, where this is the local being built.
	ctor  bool
	async bool

	// ret is the declared or inferred return type; nil when unknown.
	ret ir.TypeDescriptor

	scopes  []map[string]ir.TypeDescriptor
	mutable map[string]bool

	// breaks holds one entry per enclosing loop or switch: the label a
	// plain break must use, or empty for a loop.
	breaks []string
}

func (g *Generator) enter(ctx *fnContext) func() {
	saved := g.fn
	ctx.parent = saved
	if ctx.mutable == nil {
		ctx.mutable = make(map[string]bool)
	}
	ctx.scopes = []map[string]ir.TypeDescriptor{{}}
	g.fn = ctx
	return func() { g.fn = saved }
}

func (g *Generator) pushScope() {
	if g.fn == nil {
		return
	}
	g.fn.scopes = append(g.fn.scopes, map[string]ir.TypeDescriptor{})
}

func (g *Generator) popScope() {
	if g.fn == nil {
		return
	}
	g.fn.scopes = g.fn.scopes[:len(g.fn.scopes)-1]
}

// declare binds a local in the innermost scope. A nil type is stored as the
// dynamic type so the name still shadows outer declarations.
func (g *Generator) declare(name string, td ir.TypeDescriptor) {
	if g.fn == nil {
		return
	}
	if td == nil {
		td = ir.Any()
	}
	g.fn.scopes[len(g.fn.scopes)-1][name] = td
}

// lookup finds a local or parameter, searching enclosing closures too.
func (g *Generator) lookup(name string) (ir.TypeDescriptor, bool) {
	for ctx := g.fn; ctx != nil; ctx = ctx.parent {
		for i := len(ctx.scopes) - 1; i >= 0; i-- {
			if td, ok := ctx.scopes[i][name]; ok {
				return td, true
			}
		}
	}
	return nil, false
}

// thisName is the Rust spelling of this in the current body.
func (g *Generator) thisName() string {
	if g.fn != nil && g.fn.ctor {
		return "this"
	}
	return "self"
}

// mutations returns the locals that body assigns, updates or calls methods
// on after declaring them. Such locals are declared mut.
func mutations(body ast.Node) map[string]bool {
	out := make(map[string]bool)
	mark := func(x ast.Expr) {
		if name, ok := rootIdent(x); ok {
			out[name] = true
		}
	}
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignExpr:
			mark(n.Target)
		case *ast.UpdateExpr:
			mark(n.X)
		case *ast.CallExpr:
			if m, ok := ast.Unparen(n.Fn).(*ast.MemberExpr); ok {
				mark(m.X)
			}
		}
		return true
	})
	return out
}

// rootIdent returns the identifier at the root of a member or index chain.
func rootIdent(x ast.Expr) (string, bool) {
	for {
		switch e := ast.Unparen(x).(type) {
		case *ast.Ident:
			return e.Name, true
		case *ast.MemberExpr:
			x = e.X
		case *ast.IndexExpr:
			x = e.X
		default:
			return "", false
		}
	}
}

// paramType returns the declared type of p, the type of its default value,
// or the dynamic type.
func (g *Generator) paramType(p *ast.Param) ir.TypeDescriptor {
	td := p.Type
	if td == nil && p.Default != nil {
		td = g.typeOf(p.Default)
	}
	if td == nil && p.Rest {
		return ir.ArrayOf(ir.Any())
	}
	if td == nil {
		return ir.Any()
	}
	return td
}

// isOptionalParam reports whether callers may omit p; such parameters are
// passed as Option.
func isOptionalParam(p *ast.Param) bool {
	if p.Rest {
		return false
	}
	if p.Optional || p.Default != nil {
		return true
	}
	_, nullable := p.Type.(*ir.NullableDescriptor)
	return nullable
}

// params renders a parameter list and binds the parameters in the current
// scope. Defaults become Option parameters unwrapped by the returned
// prologue.
func (g *Generator) params(ps []*ast.Param) (list []string, prologue []string) {
	for _, p := range ps {
		name := snakeCase(p.Name)
		td, _ := ir.Unwrap(g.paramType(p))
		mut := ""
		if g.fn.mutable[p.Name] {
			mut = "mut "
		}
		switch {
		case p.Default != nil:
			list = append(list, name+": Option<"+g.rustType(td)+">")
			def := g.exprAs(p.Default, td)
			if isLiteral(p.Default) {
				prologue = append(prologue, "let "+mut+name+" = "+name+".unwrap_or("+def+");")
			} else {
				prologue = append(prologue, "let "+mut+name+" = "+name+".unwrap_or_else(|| "+def+");")
			}
			g.declare(p.Name, td)
		case isOptionalParam(p):
			list = append(list, mut+name+": Option<"+g.rustType(td)+">")
			g.declare(p.Name, ir.Nullable(td))
		default:
			list = append(list, mut+name+": "+g.rustType(td))
			g.declare(p.Name, td)
		}
	}
	return list, prologue
}

func isLiteral(x ast.Expr) bool {
	switch x.(type) {
	case *ast.NumberLit, *ast.StringLit, *ast.BoolLit, *ast.NullLit:
		return true
	}
	return false
}

// returnType resolves the return type of a function: the declared type,
// or the type of the first value it returns, or void.
func (g *Generator) returnType(declared ir.TypeDescriptor, body *ast.Block) ir.TypeDescriptor {
	if declared != nil {
		return declared
	}
	var results []ast.Expr
	walkReturns(body, func(r *ast.ReturnStmt) {
		if r.Result != nil {
			results = append(results, r.Result)
		}
	})
	if len(results) == 0 {
		return ir.Void()
	}
	for _, x := range results {
		if td := g.typeOf(x); td != nil {
			return td
		}
	}
	return ir.Any()
}

// walkReturns visits the return statements of body that belong to it and
// not to nested functions.
func walkReturns(body *ast.Block, fn func(*ast.ReturnStmt)) {
	if body == nil {
		return
	}
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit, *ast.FuncDecl:
			return false
		case *ast.ReturnStmt:
			fn(n)
		}
		return true
	})
}

// retSuffix renders " -> T", or nothing for void.
func (g *Generator) retSuffix(td ir.TypeDescriptor) string {
	if ir.IsPrimitive(td, ir.PrimitiveVoid) {
		return ""
	}
	if n, ok := td.(*ir.NamedDescriptor); ok && n.Name == "Promise" && len(n.Args) == 1 && g.fn.async && ir.IsPrimitive(n.Args[0], ir.PrimitiveVoid) {
		return ""
	}
	return " -> " + g.rustTypeAt(td, posReturn)
}

// funcSig describes one function-like item to emit.
type funcSig struct {
	vis        string
	name       string
	typeParams []*ir.TypeParamDescriptor
	receiver   string
	params     []*ast.Param
	ret        ir.TypeDescriptor
	body       *ast.Block
	async      bool
	where      string
}

// emitFunc writes a function item with body in the current fnContext.
// The caller has entered the context.
func (g *Generator) emitFunc(s funcSig) {
	g.fn.async = s.async
	if s.body != nil {
		for k := range mutations(s.body) {
			g.fn.mutable[k] = true
		}
	}
	list, prologue := g.params(s.params)
	if s.receiver != "" {
		list = append([]string{s.receiver}, list...)
	}
	ret := g.returnType(s.ret, s.body)
	if g.fn.kind == Chainable {
		ret = ir.Named("this")
	}
	g.fn.ret = ret
	async := ""
	if s.async {
		async = "async "
	}
	head := s.vis + async + "fn " + s.name + g.typeParams(s.typeParams, true) + "(" + strings.Join(list, ", ") + ")" + g.retSuffix(ret) + s.where
	if s.body == nil {
		g.w.line(head + ";")
		return
	}
	g.w.open(head + " {")
	for _, l := range prologue {
		g.w.line(l)
	}
	g.emitBody(s.body.Stmts, !ir.IsPrimitive(ret, ir.PrimitiveVoid))
	g.w.close("}")
}

func (g *Generator) emitFuncDecl(d *ast.FuncDecl) {
	if d.Body == nil {
		if impl := g.syms.funcs[d.Name]; impl != nil && impl.Body != nil {
			return
		}
		g.warn(ir.CodeUnsupportedConstruct, d.Span, "function %s has no body; omitted from output", d.Name)
		g.w.linef("// unsupported: function signature %s (line %d)", d.Name, d.Span.Line)
		return
	}
	if d.Generator {
		g.warn(ir.CodeUnsupportedConstruct, d.Span, "generator function %s is not supported; omitted from output", d.Name)
		g.w.linef("// unsupported: generator function %s (line %d)", d.Name, d.Span.Line)
		return
	}
	vis := g.vis(d)
	if g.fn != nil {
		vis = ""
	}
	defer g.enter(&fnContext{})()
	g.emitFunc(funcSig{
		vis:        vis,
		name:       snakeCase(d.Name),
		typeParams: d.TypeParams,
		params:     d.Params,
		ret:        d.Return,
		body:       d.Body,
		async:      d.Async,
	})
}

// emitMain collects the top-level statements into the program entry point.
func (g *Generator) emitMain(stmts []ast.Stmt) {
	name := "main"
	if g.syms.funcs["main"] != nil {
		name = "main_top_level"
	}
	defer g.enter(&fnContext{ret: ir.Void()})()
	block := &ast.Block{Stmts: stmts}
	for k := range mutations(block) {
		g.fn.mutable[k] = true
	}
	g.w.open("fn " + name + "() {")
	g.emitBody(stmts, false)
	g.w.close("}")
}
