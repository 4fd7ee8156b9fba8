package rust

import (
	"sort"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// emitClass writes a class as a struct holding its flattened fields, an
// inherent impl with the constructor, methods and accessors, and one impl
// per implemented interface trait.
func (g *Generator) emitClass(ci *classInfo, d *ast.ClassDecl) {
	name := typeName(d.Name)
	vis := g.vis(d)
	self := name + typeArgs(d.TypeParams)

	var fields []structField
	var irFields []ir.Field
	for _, p := range ci.fields {
		td := g.propertyType(p)
		_, nullable := ir.Unwrap(p.Type)
		fields = append(fields, structField{
			name:     snakeCase(p.Name),
			orig:     p.Name,
			vis:      g.fieldVis(p),
			typ:      g.fieldTypeString(td, p.Optional || nullable, name),
			optional: p.Optional || nullable,
		})
		irFields = append(irFields, ir.Field{Name: p.Name, Type: td, Optional: p.Optional})
	}
	if d.Abstract {
		g.w.linef("// %s is abstract.", d.Name)
	}
	t := g.traitsOfFields(name, irFields, make(map[string]bool))
	g.writeStruct(vis+"struct "+name+g.typeParams(d.TypeParams, false), g.derives(t), fields)

	traitMethods := make(map[string]bool)
	impls := g.implemented(ci)
	for _, ii := range impls {
		if ii.traitName == "" {
			continue
		}
		for _, m := range ii.methods {
			traitMethods[m.Name] = true
		}
	}

	g.w.blank()
	g.w.open("impl" + g.typeParams(d.TypeParams, true) + " " + self + " {")
	first := true
	sep := func() {
		if !first {
			g.w.line("")
		}
		first = false
	}
	for _, p := range ci.statics {
		sep()
		g.emitStatic(ci, p)
	}
	sep()
	g.emitConstructor(ci)
	for _, m := range ci.methods {
		if traitMethods[m.Name] && !m.Static {
			continue
		}
		sep()
		g.emitMethod(ci, m, g.memberVis(m.Visibility), ci.kinds[m.Name])
	}
	for _, name := range sortedAccessors(ci.getters) {
		sep()
		g.emitAccessor(ci, ci.getters[name])
	}
	for _, name := range sortedAccessors(ci.setters) {
		sep()
		g.emitAccessor(ci, ci.setters[name])
	}
	for _, m := range ci.abstract {
		sep()
		g.w.linef("// abstract method %s has no body", m.Name)
	}
	for _, m := range d.Members {
		if u, ok := m.(*ast.Unsupported); ok {
			sep()
			g.unsupported(u)
		}
	}
	g.w.close("}")

	for _, ii := range impls {
		if ii.traitName == "" {
			continue
		}
		g.w.blank()
		g.emitTraitImpl(ci, ii)
	}
}

// fieldVis is the visibility of a class field; #private names are always
// private.
func (g *Generator) fieldVis(p *ast.Property) string {
	if p.Hash {
		return ""
	}
	return g.memberVis(p.Visibility)
}

// sortedAccessors returns the accessor names in source order.
func sortedAccessors(m map[string]*ast.Accessor) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		return m[names[i]].Span.Start < m[names[j]].Span.Start
	})
	return names
}

// implemented returns the interfaces ci implements, including the ones they
// extend, each once in declaration order. Interfaces not declared in the
// file are reported.
func (g *Generator) implemented(ci *classInfo) []*ifaceInfo {
	var out []*ifaceInfo
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		ii := g.syms.interfaces[name]
		if ii == nil {
			return
		}
		out = append(out, ii)
		for _, ext := range ii.decl.Extends {
			visit(ext.Name)
		}
	}
	for c := ci; c != nil; c = c.base {
		for _, impl := range c.decl.Implements {
			if g.syms.interfaces[impl.Name] == nil && g.syms.classes[impl.Name] == nil {
				if c == ci {
					g.warn(ir.CodeInheritance, c.decl.Span, "class %s implements %s, which is not declared in this file", c.decl.Name, impl.Name)
				}
				continue
			}
			visit(impl.Name)
		}
	}
	return out
}

// emitStatic writes a static property: an associated const for readonly
// literals and otherwise an associated function returning the initial
// value.
func (g *Generator) emitStatic(ci *classInfo, p *ast.Property) {
	vis := g.fieldVis(p)
	if isStaticConst(p) {
		typ := g.rustType(literalType(p.Init))
		if ir.IsPrimitive(literalType(p.Init), ir.PrimitiveString) {
			typ = "&'static str"
		}
		g.w.linef("%sconst %s: %s = %s;", vis, screamingCase(p.Name), typ, g.constValue(p.Init))
		return
	}
	if !p.Readonly {
		g.warn(ir.CodeUnsupportedConstruct, p.Span, "mutable static property %s.%s is emitted as a function returning its initial value", ci.decl.Name, p.Name)
	}
	defer g.enter(&fnContext{class: ci, kind: Static})()
	td := g.propertyType(p)
	val := "Default::default()"
	if p.Init != nil {
		val = g.exprAs(p.Init, td)
	}
	g.w.open(vis + "fn " + snakeCase(p.Name) + "() -> " + g.rustType(td) + " {")
	g.w.line(val)
	g.w.close("}")
}

func (g *Generator) emitMethod(ci *classInfo, m *ast.Method, vis string, kind MethodKind) {
	defer g.enter(&fnContext{class: ci, kind: kind})()
	g.emitFunc(funcSig{
		vis:        vis,
		name:       snakeCase(m.Name),
		typeParams: m.TypeParams,
		receiver:   receiverOf(kind),
		params:     m.Params,
		ret:        m.Return,
		body:       m.Body,
		async:      m.Async,
	})
}

func receiverOf(kind MethodKind) string {
	switch kind {
	case Reader:
		return "&self"
	case Mutator:
		return "&mut self"
	case Chainable:
		return "mut self"
	}
	return ""
}

func (g *Generator) emitAccessor(ci *classInfo, a *ast.Accessor) {
	vis := g.memberVis(a.Visibility)
	if a.Kind == ast.Getter {
		defer g.enter(&fnContext{class: ci, kind: Reader})()
		g.emitFunc(funcSig{vis: vis, name: snakeCase(a.Name), receiver: "&self", ret: a.Return, body: a.Body})
		return
	}
	defer g.enter(&fnContext{class: ci, kind: Mutator})()
	var params []*ast.Param
	if a.Param != nil {
		params = []*ast.Param{a.Param}
	}
	g.emitFunc(funcSig{vis: vis, name: "set_" + snakeCase(a.Name), receiver: "&mut self", params: params, ret: ir.Void(), body: a.Body})
}

// emitTraitImpl implements the trait of ii for ci. Methods the class lacks
// are left as todo!().
func (g *Generator) emitTraitImpl(ci *classInfo, ii *ifaceInfo) {
	d := ci.decl
	g.w.open("impl" + g.typeParams(d.TypeParams, true) + " " + ii.traitName + " for " + typeName(d.Name) + typeArgs(d.TypeParams) + " {")
	for i, sig := range ii.methods {
		if i > 0 {
			g.w.line("")
		}
		m := ci.method(sig.Name)
		if m == nil || m.Static {
			if sig.Optional {
				continue
			}
			g.w.open(g.traitMethodHead(ii, sig) + " {")
			g.w.line("todo!()")
			g.w.close("}")
			continue
		}
		kind := Reader
		if ii.mutating[sig.Name] {
			kind = Mutator
		}
		where := ""
		if returnsSelf(sig.Return) {
			where = " where Self: Sized"
		}
		func() {
			defer g.enter(&fnContext{class: ci, kind: kind})()
			recv := "&self"
			if kind == Mutator {
				recv = "&mut self"
			}
			ret := m.Return
			if ret == nil {
				ret = sig.Return
			}
			g.emitFunc(funcSig{
				name:       snakeCase(m.Name),
				typeParams: m.TypeParams,
				receiver:   recv,
				params:     m.Params,
				ret:        ret,
				body:       m.Body,
				async:      m.Async,
				where:      where,
			})
		}()
	}
	g.w.close("}")
}

// emitConstructor writes fn new. A body that only assigns fields becomes a
// struct expression; any other body builds a mutable this first and runs
// the statements against it.
func (g *Generator) emitConstructor(ci *classInfo) {
	d := ci.decl
	ctor := d.Constructor()
	vis := "pub "
	if ctor != nil {
		vis = g.memberVis(ctor.Visibility)
	}
	defer g.enter(&fnContext{class: ci, kind: Mutator, ctor: true})()

	if ctor == nil || ctor.Body == nil {
		var params []*ast.Param
		var baseArgs []string
		if ci.base != nil {
			params = ctorParams(ci.base)
			for _, p := range params {
				baseArgs = append(baseArgs, snakeCase(p.Name))
			}
		}
		list, _ := g.params(params)
		g.w.open(vis + "fn new(" + strings.Join(list, ", ") + ") -> Self {")
		useBase := readsBase(ci, nil)
		if useBase {
			g.w.line("let base = " + typeName(ci.base.decl.Name) + "::new(" + strings.Join(baseArgs, ", ") + ");")
		}
		g.w.line(g.structExpr(ci, nil, useBase))
		g.w.close("}")
		return
	}

	body := ctor.Body
	for k := range mutations(body) {
		g.fn.mutable[k] = true
	}
	list, prologue := g.params(ctor.Params)
	g.w.open(vis + "fn new(" + strings.Join(list, ", ") + ") -> Self {")
	for _, l := range prologue {
		g.w.line(l)
	}
	stmts := body.Stmts
	var superArgs []ast.Expr
	hasSuper := false
	if len(stmts) > 0 {
		if args, ok := superCall(stmts[0]); ok {
			stmts = stmts[1:]
			superArgs, hasSuper = args, true
		}
	}
	assigned, simple := g.simpleCtor(ci, stmts)
	hasBase := hasSuper && readsBase(ci, assigned)
	if hasBase {
		g.w.line("let base = " + typeName(ci.base.decl.Name) + "::new(" + g.callArgs(ctorParams(ci.base), superArgs) + ");")
	}
	if simple {
		g.w.line(g.structExpr(ci, assigned, hasBase))
		g.w.close("}")
		return
	}
	g.w.line("let mut this = " + g.structExpr(ci, nil, hasBase) + ";")
	g.emitBody(stmts, false)
	g.w.line("this")
	g.w.close("}")
}

// readsBase reports whether some field of ci takes its value from the base
// constructor: it is inherited and neither assigned nor initialized.
func readsBase(ci *classInfo, assigned map[string]ast.Expr) bool {
	if ci.base == nil {
		return false
	}
	for _, p := range ci.fields {
		if assigned[p.Name] == nil && p.Init == nil && ci.base.field(p.Name) != nil {
			return true
		}
	}
	return false
}

// superCall matches a super(...) call statement.
func superCall(s ast.Stmt) ([]ast.Expr, bool) {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	c, ok := es.X.(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	if _, ok := c.Fn.(*ast.SuperExpr); !ok {
		return nil, false
	}
	return c.Args, true
}

// simpleCtor reports whether stmts only assign fields of ci from values
// that do not read this, and returns the assigned values by field.
func (g *Generator) simpleCtor(ci *classInfo, stmts []ast.Stmt) (map[string]ast.Expr, bool) {
	assigned := make(map[string]ast.Expr)
	for _, s := range stmts {
		es, ok := s.(*ast.ExprStmt)
		if !ok {
			return nil, false
		}
		a, ok := es.X.(*ast.AssignExpr)
		if !ok || a.Op != "=" {
			return nil, false
		}
		name, ok := ast.IsThisMember(a.Target)
		if !ok || ci.field(name) == nil || assigned[name] != nil {
			return nil, false
		}
		readsThis := false
		ast.Inspect(a.Value, func(n ast.Node) bool {
			if _, ok := n.(*ast.ThisExpr); ok {
				readsThis = true
			}
			return !readsThis
		})
		if readsThis {
			return nil, false
		}
		assigned[name] = a.Value
	}
	return assigned, true
}

// structExpr renders Self { ... } for ci. Each field takes its assigned
// value, then its initializer, then the value built by the base
// constructor, then None or its default.
func (g *Generator) structExpr(ci *classInfo, assigned map[string]ast.Expr, hasBase bool) string {
	if len(ci.fields) == 0 {
		return "Self {}"
	}
	var lines []string
	for _, p := range ci.fields {
		name := snakeCase(p.Name)
		td := g.propertyType(p)
		_, nullable := ir.Unwrap(p.Type)
		want := optional(td, p.Optional || nullable)
		var v string
		switch {
		case assigned[p.Name] != nil:
			v = g.exprAs(assigned[p.Name], want)
		case p.Init != nil:
			v = g.exprAs(p.Init, want)
		case hasBase && ci.base.field(p.Name) != nil:
			v = "base." + name
		case p.Optional || nullable:
			v = "None"
		default:
			v = "Default::default()"
		}
		if td, ok := want.(*ir.NamedDescriptor); ok && typeName(td.Name) == typeName(ci.decl.Name) && v != "None" {
			v = "Box::new(" + v + ")"
		}
		if v == name {
			lines = append(lines, name+",")
		} else {
			lines = append(lines, name+": "+indentTail(v)+",")
		}
	}
	return "Self {\n" + indentUnit + strings.Join(lines, "\n"+indentUnit) + "\n}"
}
