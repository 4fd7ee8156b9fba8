package rust

import (
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// closureOpts controls how a function literal is rendered as a closure.
type closureOpts struct {
	// want is the target function type; parameters and result are typed
	// from it.
	want *ir.FunctionDescriptor

	// params types unannotated parameters by position without writing the
	// types out, for iterator callbacks.
	params []ir.TypeDescriptor

	// byRef takes the first parameter by reference, as filter and find do.
	byRef bool

	// indexed takes an (index, value) pair from enumerate.
	indexed bool

	move bool
}

// closure renders a function literal as a Rust closure.
func (g *Generator) closure(fl *ast.FuncLit, o closureOpts) string {
	ctx := &fnContext{async: fl.Async}
	if g.fn != nil && fl.Arrow {
		ctx.class, ctx.kind, ctx.ctor = g.fn.class, g.fn.kind, g.fn.ctor
	}
	defer g.enter(ctx)()
	body := ast.Node(fl.ExprBody)
	if fl.Body != nil {
		body = fl.Body
	}
	for k := range mutations(body) {
		ctx.mutable[k] = true
	}

	var pats, prologue []string
	annotate := o.want != nil && !o.byRef && !o.indexed
	for i, p := range fl.Params {
		name := snakeCase(p.Name)
		td := p.Type
		if td == nil && o.want != nil && i < len(o.want.Params) {
			td = o.want.Params[i]
		}
		if td == nil && i < len(o.params) {
			td = o.params[i]
		}
		g.declare(p.Name, td)
		switch {
		case o.indexed && i == 1:
			prologue = append(prologue, "let "+name+" = "+name+" as f64;")
			if o.byRef {
				prologue[len(prologue)-1] = "let " + name + " = *" + name + " as f64;"
			}
			continue
		case o.byRef && i == 0:
			if td != nil && g.isCopy(td) && !o.indexed {
				pats = append(pats, "&"+name)
			} else {
				pats = append(pats, name)
				prologue = append(prologue, "let "+name+" = "+name+".clone();")
			}
			continue
		}
		if (annotate || p.Type != nil) && td != nil && !o.byRef && !o.indexed {
			pats = append(pats, name+": "+g.rustType(td))
		} else {
			pats = append(pats, name)
		}
	}
	head := "|" + strings.Join(pats, ", ") + "|"
	if o.indexed && len(fl.Params) > 1 {
		head = "|(" + snakeCase(fl.Params[1].Name) + ", " + strings.Join(pats, ", ") + ")|"
	}
	if o.move || fl.Async {
		head = "move " + head
	}

	ret := fl.Return
	if ret == nil && o.want != nil {
		ret = o.want.Return
	}
	if fl.ExprBody != nil {
		if ret == nil {
			ret = g.typeOf(fl.ExprBody)
		}
		ctx.ret = ret
		var v string
		if ret == nil || ir.IsPrimitive(ret, ir.PrimitiveVoid) {
			v = g.expr(fl.ExprBody)
		} else {
			v = g.exprAs(fl.ExprBody, ret)
		}
		if fl.Async {
			return head + " async move { " + strings.Join(append(prologue, v), " ") + " }"
		}
		if len(prologue) > 0 {
			return head + " { " + strings.Join(prologue, " ") + " " + v + " }"
		}
		return head + " " + v
	}
	ctx.ret = g.returnType(ret, fl.Body)
	tail := !ir.IsPrimitive(ctx.ret, ir.PrimitiveVoid)
	inner := g.capture(func() {
		for _, l := range prologue {
			g.w.line(l)
		}
		g.emitBody(fl.Body.Stmts, tail)
	})
	if fl.Async {
		head += " async move"
	}
	return head + " {\n" + inner + "}"
}

// capture renders the statements emitted by fn one level deep and returns
// the text.
func (g *Generator) capture(fn func()) string {
	saved := g.w
	g.w = &writer{indent: 1}
	defer func() { g.w = saved }()
	fn()
	return g.w.String()
}

func (g *Generator) call(x *ast.CallExpr) string {
	switch fn := ast.Unparen(x.Fn).(type) {
	case *ast.SuperExpr:
		return g.unsupportedExpr(x.Span, "super call outside the start of a constructor")
	case *ast.Ident:
		return g.identCall(x, fn)
	case *ast.MemberExpr:
		if x.Optional || fn.Optional {
			plain := *fn
			plain.Optional = false
			plain.X = &ast.Ident{Span: fn.Span, Name: "v"}
			inner := *x
			inner.Optional = false
			inner.Fn = &plain
			recvType, _ := ir.Unwrap(g.typeOf(fn.X))
			g.pushScope()
			g.declare("v", recvType)
			body := g.memberCall(&inner, &plain)
			g.popScope()
			return g.receiver(fn.X) + ".as_ref().map(|v| " + body + ")"
		}
		return g.memberCall(x, fn)
	}
	return "(" + g.expr(x.Fn) + ")(" + g.values(x.Args) + ")"
}

// values renders arguments of unknown parameter types.
func (g *Generator) values(args []ast.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.argAs(a, nil)
	}
	return strings.Join(parts, ", ")
}

// argAs renders an argument passed by value. Locals of non-Copy types are
// cloned since the caller may still use them.
func (g *Generator) argAs(x ast.Expr, want ir.TypeDescriptor) string {
	s := g.exprAs(x, want)
	id, ok := x.(*ast.Ident)
	if !ok {
		return s
	}
	td, local := g.lookup(id.Name)
	if !local || g.isCopy(td) || (ir.IsDynamic(td) && !g.dynamicTraits().clone) {
		return s
	}
	name := snakeCase(id.Name)
	switch s {
	case name:
		return name + ".clone()"
	case "Some(" + name + ")":
		return "Some(" + name + ".clone())"
	}
	return s
}

// callArgs renders args against the parameters of a same-file function.
// Missing optional arguments are None and rest parameters collect the
// remaining arguments into a Vec.
func (g *Generator) callArgs(params []*ast.Param, args []ast.Expr) string {
	var parts []string
	for i, p := range params {
		td, _ := ir.Unwrap(g.paramType(p))
		if p.Rest {
			if i < len(args) {
				if s, ok := args[i].(*ast.SpreadExpr); ok && i == len(args)-1 {
					parts = append(parts, g.valueExpr(s.X)+".clone()")
					break
				}
			}
			var elem ir.TypeDescriptor
			if arr, ok := g.resolve(td).(*ir.ArrayDescriptor); ok {
				elem = arr.Element
			}
			var rest []string
			for _, a := range args[min(i, len(args)):] {
				rest = append(rest, g.argAs(a, elem))
			}
			parts = append(parts, "vec!["+strings.Join(rest, ", ")+"]")
			break
		}
		switch {
		case i >= len(args):
			if isOptionalParam(p) {
				parts = append(parts, "None")
			} else {
				parts = append(parts, "Default::default()")
			}
		case isOptionalParam(p):
			parts = append(parts, g.argAs(args[i], ir.Nullable(td)))
		default:
			parts = append(parts, g.argAs(args[i], td))
		}
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) turbofish(args []ir.TypeDescriptor) string {
	if len(args) == 0 {
		return ""
	}
	return "::<" + strings.Join(g.rustTypes(args), ", ") + ">"
}

func (g *Generator) identCall(x *ast.CallExpr, fn *ast.Ident) string {
	if td, ok := g.lookup(fn.Name); ok {
		name := snakeCase(fn.Name)
		f, _ := g.resolve(td).(*ir.FunctionDescriptor)
		if f == nil {
			if n, ok := td.(*ir.NullableDescriptor); ok {
				if inner, ok := g.resolve(n.Element).(*ir.FunctionDescriptor); ok {
					return name + ".as_ref().map(|f| f(" + g.typedArgs(inner.Params, x.Args) + "))"
				}
			}
			return name + "(" + g.values(x.Args) + ")"
		}
		return name + "(" + g.typedArgs(f.Params, x.Args) + ")"
	}
	if f := g.syms.funcs[fn.Name]; f != nil {
		return snakeCase(fn.Name) + g.turbofish(x.TypeArgs) + "(" + g.callArgs(f.Params, x.Args) + ")"
	}
	arg := func(i int) ast.Expr {
		if i < len(x.Args) {
			return x.Args[i]
		}
		return &ast.Ident{Span: x.Span, Name: "undefined"}
	}
	switch fn.Name {
	case "parseFloat":
		return g.receiver(arg(0)) + ".trim().parse::<f64>().unwrap_or(f64::NAN)"
	case "parseInt":
		return g.receiver(arg(0)) + ".trim().parse::<i64>().map(|n| n as f64).unwrap_or(f64::NAN)"
	case "String":
		return g.toString(arg(0))
	case "Number":
		return g.toNumber(arg(0))
	case "Boolean":
		return g.cond(arg(0))
	case "isNaN":
		return g.receiver(arg(0)) + ".is_nan()"
	case "isFinite":
		return g.receiver(arg(0)) + ".is_finite()"
	}
	if g.syms.classes[fn.Name] != nil {
		return g.unsupportedExpr(x.Span, "calling class "+fn.Name+" without new")
	}
	return snakeCase(fn.Name) + g.turbofish(x.TypeArgs) + "(" + g.values(x.Args) + ")"
}

func (g *Generator) typedArgs(params []ir.TypeDescriptor, args []ast.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		var td ir.TypeDescriptor
		if i < len(params) {
			td = params[i]
		}
		parts[i] = g.argAs(a, td)
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) toString(x ast.Expr) string {
	if g.isString(x) {
		return g.valueExpr(x)
	}
	if td := g.typeOf(x); td != nil && !g.isDisplay(td) {
		return `format!("{:?}", ` + g.expr(x) + ")"
	}
	return g.receiver(x) + ".to_string()"
}

func (g *Generator) toNumber(x ast.Expr) string {
	switch td := g.resolve(g.typeOf(x)); {
	case ir.IsPrimitive(td, ir.PrimitiveString):
		return g.receiver(x) + ".trim().parse::<f64>().unwrap_or(f64::NAN)"
	case ir.IsPrimitive(td, ir.PrimitiveBoolean):
		return "(" + g.operand(x) + " as i32 as f64)"
	}
	return g.expr(x)
}

var mathFuncs = map[string]string{
	"floor": "floor", "ceil": "ceil", "abs": "abs", "sqrt": "sqrt", "cbrt": "cbrt",
	"trunc": "trunc", "sign": "signum", "log": "ln", "log2": "log2", "log10": "log10",
	"exp": "exp", "sin": "sin", "cos": "cos", "tan": "tan", "asin": "asin",
	"acos": "acos", "atan": "atan", "sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"log1p": "ln_1p", "expm1": "exp_m1",
}

func (g *Generator) mathCall(x *ast.CallExpr, name string) string {
	args := x.Args
	if f, ok := mathFuncs[name]; ok && len(args) == 1 {
		return g.receiver(args[0]) + "." + f + "()"
	}
	switch name {
	case "round":
		if len(args) == 1 {
			return "(" + g.operand(args[0]) + " + 0.5).floor()"
		}
	case "pow", "atan2", "hypot":
		if len(args) == 2 {
			m := map[string]string{"pow": "powf", "atan2": "atan2", "hypot": "hypot"}[name]
			return g.receiver(args[0]) + "." + m + "(" + g.expr(args[1]) + ")"
		}
	case "max", "min":
		if len(args) == 0 {
			if name == "max" {
				return "f64::NEG_INFINITY"
			}
			return "f64::INFINITY"
		}
		s := g.receiver(args[0])
		for _, a := range args[1:] {
			s += "." + name + "(" + g.expr(a) + ")"
		}
		return s
	case "random":
		if g.opts.Runtime {
			return "ts2rs_runtime::random()"
		}
	}
	return g.unsupportedExpr(x.Span, "Math."+name)
}

// fmtArgs renders console arguments as format! arguments. A leading string
// or template is inlined into the format string; the rest are separated by
// spaces.
func (g *Generator) fmtArgs(args []ast.Expr) string {
	if len(args) == 0 {
		return ""
	}
	var f []string
	var vals []string
	rest := args
	switch a := args[0].(type) {
	case *ast.StringLit:
		f = append(f, escapeFormat(a.Value))
		rest = args[1:]
	case *ast.TemplateLit:
		var b strings.Builder
		for i, seg := range a.Segments {
			b.WriteString(escapeFormat(seg))
			if i < len(a.Exprs) {
				b.WriteString(g.placeholder(a.Exprs[i]))
				vals = append(vals, g.expr(a.Exprs[i]))
			}
		}
		f = append(f, b.String())
		rest = args[1:]
	}
	for _, a := range rest {
		f = append(f, g.placeholder(a))
		vals = append(vals, g.expr(a))
	}
	out := `"` + strings.Join(f, " ") + `"`
	if len(vals) > 0 {
		out += ", " + strings.Join(vals, ", ")
	}
	return out
}

// globalCall handles calls on well-known global objects. ok is false when
// name is not one of them.
func (g *Generator) globalCall(x *ast.CallExpr, obj, name string) (string, bool) {
	arg := func(i int) ast.Expr {
		if i < len(x.Args) {
			return x.Args[i]
		}
		return &ast.Ident{Span: x.Span, Name: "undefined"}
	}
	switch obj {
	case "console":
		switch name {
		case "log", "info", "debug", "trace":
			return "println!(" + g.fmtArgs(x.Args) + ")", true
		case "error", "warn":
			return "eprintln!(" + g.fmtArgs(x.Args) + ")", true
		}
		return g.unsupportedExpr(x.Span, "console."+name), true
	case "Math":
		return g.mathCall(x, name), true
	case "JSON":
		switch {
		case name == "stringify" && g.opts.Serde:
			return "serde_json::to_string(&" + g.operand(arg(0)) + ").unwrap()", true
		case name == "stringify":
			return `format!("{:?}", ` + g.expr(arg(0)) + ")", true
		case name == "parse" && g.opts.Serde:
			target := "serde_json::Value"
			if len(x.TypeArgs) == 1 {
				target = g.rustType(x.TypeArgs[0])
			}
			return "serde_json::from_str::<" + target + ">(" + g.strArg(arg(0)) + ").unwrap()", true
		}
		return g.unsupportedExpr(x.Span, "JSON."+name+" without serde"), true
	case "Object":
		switch name {
		case "keys":
			return g.receiver(arg(0)) + ".keys().cloned().collect::<Vec<_>>()", true
		case "values":
			return g.receiver(arg(0)) + ".values().cloned().collect::<Vec<_>>()", true
		case "entries":
			return g.receiver(arg(0)) + ".iter().map(|(k, v)| (k.clone(), v.clone())).collect::<Vec<_>>()", true
		case "freeze":
			return g.valueExpr(arg(0)), true
		}
	case "Array":
		switch name {
		case "isArray":
			if g.isArray(arg(0)) {
				return "true", true
			}
			return "false", true
		case "from":
			if g.isString(arg(0)) {
				return g.receiver(arg(0)) + ".chars().map(|c| c.to_string()).collect::<Vec<_>>()", true
			}
			return g.receiver(arg(0)) + ".iter().cloned().collect::<Vec<_>>()", true
		}
	case "Number":
		switch name {
		case "isInteger":
			return "(" + g.receiver(arg(0)) + ".fract() == 0.0)", true
		case "isNaN":
			return g.receiver(arg(0)) + ".is_nan()", true
		case "isFinite":
			return g.receiver(arg(0)) + ".is_finite()", true
		case "parseFloat":
			return g.receiver(arg(0)) + ".trim().parse::<f64>().unwrap_or(f64::NAN)", true
		case "parseInt":
			return g.receiver(arg(0)) + ".trim().parse::<i64>().map(|n| n as f64).unwrap_or(f64::NAN)", true
		}
	default:
		return "", false
	}
	return g.unsupportedExpr(x.Span, obj+"."+name), true
}

func (g *Generator) memberCall(x *ast.CallExpr, m *ast.MemberExpr) string {
	if id, ok := m.X.(*ast.Ident); ok && !g.isLocal(id.Name) {
		if ci := g.syms.classes[id.Name]; ci != nil {
			if meth := ci.method(m.Name); meth != nil {
				prefix := typeName(ci.decl.Name)
				if g.fn != nil && g.fn.class == ci {
					prefix = "Self"
				}
				return prefix + "::" + snakeCase(m.Name) + g.turbofish(x.TypeArgs) + "(" + g.callArgs(meth.Params, x.Args) + ")"
			}
			return g.staticAccess(ci, m.Name) + "(" + g.values(x.Args) + ")"
		}
		if s, ok := g.globalCall(x, id.Name, m.Name); ok {
			return s
		}
	}
	if _, ok := ast.Unparen(m.X).(*ast.SuperExpr); ok {
		return g.unsupportedExpr(x.Span, "super method call")
	}

	if ci := g.classOf(m.X); ci != nil {
		if meth := ci.method(m.Name); meth != nil {
			if ci.kinds[m.Name] == Static {
				prefix := typeName(ci.decl.Name)
				if g.fn != nil && g.fn.class == ci {
					prefix = "Self"
				}
				return prefix + "::" + snakeCase(m.Name) + "(" + g.callArgs(meth.Params, x.Args) + ")"
			}
			recv := g.receiver(m.X)
			if ci.kinds[m.Name] == Chainable && isPlace(m.X) {
				recv += ".clone()"
			}
			return recv + "." + snakeCase(m.Name) + g.turbofish(x.TypeArgs) + "(" + g.callArgs(meth.Params, x.Args) + ")"
		}
		if p := ci.field(m.Name); p != nil {
			if f, ok := g.resolve(g.propertyType(p)).(*ir.FunctionDescriptor); ok {
				return "(" + g.receiver(m.X) + "." + snakeCase(m.Name) + ")(" + g.typedArgs(f.Params, x.Args) + ")"
			}
		}
	}
	recvType, _ := ir.Unwrap(g.typeOf(m.X))
	if n, ok := g.resolve(recvType).(*ir.NamedDescriptor); ok {
		if ii := g.syms.interfaces[n.Name]; ii != nil {
			for _, sig := range ii.methods {
				if sig.Name == m.Name {
					return g.receiver(m.X) + "." + snakeCase(m.Name) + "(" + g.callArgs(sig.Params, x.Args) + ")"
				}
			}
			for _, f := range ii.fields {
				if f.Name != m.Name {
					continue
				}
				if fn, ok := g.resolve(f.Type).(*ir.FunctionDescriptor); ok {
					return "(" + g.receiver(m.X) + "." + snakeCase(m.Name) + ")(" + g.typedArgs(fn.Params, x.Args) + ")"
				}
			}
		}
	}
	if _, fields, ok := g.structFields(recvType); ok {
		for _, f := range fields {
			if fn, isFn := g.resolve(f.Type).(*ir.FunctionDescriptor); isFn && f.Name == m.Name {
				return "(" + g.receiver(m.X) + "." + snakeCase(m.Name) + ")(" + g.typedArgs(fn.Params, x.Args) + ")"
			}
		}
	}
	if s, ok := g.builtinCall(x, m, recvType); ok {
		return s
	}
	return g.receiver(m.X) + "." + snakeCase(m.Name) + g.turbofish(x.TypeArgs) + "(" + g.values(x.Args) + ")"
}

// builtinCall rewrites the methods of arrays, strings, maps, sets, regular
// expressions and numbers.
func (g *Generator) builtinCall(x *ast.CallExpr, m *ast.MemberExpr, recvType ir.TypeDescriptor) (string, bool) {
	switch d := g.resolve(recvType).(type) {
	case *ir.ArrayDescriptor:
		return g.arrayCall(x, m, d.Element)
	case *ir.PrimitiveDescriptor:
		switch d.PrimitiveKind {
		case ir.PrimitiveString:
			return g.stringCall(x, m)
		case ir.PrimitiveNumber:
			return g.numberCall(x, m)
		}
	case *ir.NamedDescriptor:
		switch builtinTypes[d.Name].name {
		case "HashMap":
			return g.mapCall(x, m, d)
		case "HashSet":
			return g.setCall(x, m)
		case "Regex":
			recv := g.receiver(m.X)
			switch m.Name {
			case "test":
				if len(x.Args) == 1 {
					return recv + ".is_match(" + g.strArg(x.Args[0]) + ")", true
				}
			case "exec":
				return g.unsupportedExpr(x.Span, "RegExp.exec"), true
			}
		}
	}
	if _, ok := ast.Unparen(m.X).(*ast.RegexLit); ok && m.Name == "test" && len(x.Args) == 1 {
		return g.receiver(m.X) + ".is_match(" + g.strArg(x.Args[0]) + ")", true
	}
	if m.Name == "toString" && len(x.Args) == 0 {
		return g.toString(m.X), true
	}
	return "", false
}

// callback renders the function argument of an iterator adaptor.
func (g *Generator) callback(x ast.Expr, o closureOpts) string {
	switch f := ast.Unparen(x).(type) {
	case *ast.FuncLit:
		return g.closure(f, o)
	case *ast.Ident:
		name := g.ident(f)
		if o.byRef {
			return "|v| " + name + "(v.clone())"
		}
		return name
	}
	return g.expr(x)
}

func arity(x ast.Expr) int {
	if f, ok := ast.Unparen(x).(*ast.FuncLit); ok {
		return len(f.Params)
	}
	return 1
}

func (g *Generator) arrayCall(x *ast.CallExpr, m *ast.MemberExpr, elem ir.TypeDescriptor) (string, bool) {
	recv := g.receiver(m.X)
	args := x.Args
	iter := recv + ".iter().cloned()"
	if g.isCopy(elem) {
		iter = recv + ".iter().copied()"
	}
	eq := func(a ast.Expr) string {
		return "|v| *v == " + g.side(a, 5, true, g.expr)
	}
	switch m.Name {
	case "push":
		if len(args) == 1 {
			return recv + ".push(" + g.argAs(args[0], elem) + ")", true
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = g.argAs(a, elem)
		}
		return recv + ".extend(vec![" + strings.Join(parts, ", ") + "])", true
	case "pop":
		return recv + ".pop()", true
	case "shift":
		return "(if " + recv + ".is_empty() { None } else { Some(" + recv + ".remove(0)) })", true
	case "unshift":
		if len(args) == 1 {
			return recv + ".insert(0, " + g.argAs(args[0], elem) + ")", true
		}
	case "includes":
		if len(args) == 1 {
			return recv + ".iter().any(" + eq(args[0]) + ")", true
		}
	case "indexOf":
		if len(args) == 1 {
			return recv + ".iter().position(" + eq(args[0]) + ").map(|i| i as f64).unwrap_or(-1.0)", true
		}
	case "join":
		sep := `","`
		if len(args) == 1 {
			sep = g.strArg(args[0])
		}
		if ir.IsPrimitive(g.resolve(elem), ir.PrimitiveString) {
			return recv + ".join(" + sep + ")", true
		}
		return recv + ".iter().map(|v| v.to_string()).collect::<Vec<_>>().join(" + sep + ")", true
	case "slice":
		switch len(args) {
		case 0:
			return recv + ".clone()", true
		case 1:
			return recv + "[" + g.usize(args[0]) + "..].to_vec()", true
		case 2:
			return recv + "[" + g.usize(args[0]) + ".." + g.usize(args[1]) + "].to_vec()", true
		}
	case "concat":
		parts := []string{recv + ".clone()"}
		for _, a := range args {
			parts = append(parts, g.valueExpr(a)+".clone()")
		}
		return "[" + strings.Join(parts, ", ") + "].concat()", true
	case "reverse":
		return recv + ".reverse()", true
	case "sort":
		if len(args) == 0 {
			if ir.IsPrimitive(g.resolve(elem), ir.PrimitiveNumber) {
				return recv + ".sort_by(|a, b| a.partial_cmp(b).unwrap())", true
			}
			return recv + ".sort()", true
		}
		cmp := g.callback(args[0], closureOpts{params: []ir.TypeDescriptor{elem, elem}})
		return recv + ".sort_by(|__a, __b| (" + cmp + ")(__a.clone(), __b.clone()).partial_cmp(&0.0).unwrap())", true
	case "map", "forEach", "some", "every", "findIndex":
		if len(args) != 1 {
			break
		}
		indexed := arity(args[0]) > 1
		cb := g.callback(args[0], closureOpts{params: []ir.TypeDescriptor{elem, ir.Number()}, indexed: indexed})
		it := iter
		if indexed {
			it += ".enumerate()"
		}
		switch m.Name {
		case "map":
			return it + ".map(" + cb + ").collect::<Vec<_>>()", true
		case "forEach":
			return it + ".for_each(" + cb + ")", true
		case "some":
			return it + ".any(" + cb + ")", true
		case "every":
			return it + ".all(" + cb + ")", true
		case "findIndex":
			return it + ".position(" + cb + ").map(|i| i as f64).unwrap_or(-1.0)", true
		}
	case "filter", "find":
		if len(args) != 1 {
			break
		}
		indexed := arity(args[0]) > 1
		cb := g.callback(args[0], closureOpts{params: []ir.TypeDescriptor{elem, ir.Number()}, byRef: true, indexed: indexed})
		if indexed {
			if m.Name == "filter" {
				return iter + ".enumerate().filter(" + cb + ").map(|(_, v)| v).collect::<Vec<_>>()", true
			}
			return iter + ".enumerate().find(" + cb + ").map(|(_, v)| v)", true
		}
		if m.Name == "filter" {
			return iter + ".filter(" + cb + ").collect::<Vec<_>>()", true
		}
		return iter + ".find(" + cb + ")", true
	case "reduce":
		if len(args) == 0 || len(args) > 2 {
			break
		}
		acc := elem
		if len(args) == 2 {
			if td := g.typeOf(args[1]); td != nil {
				acc = td
			}
		}
		cb := g.callback(args[0], closureOpts{params: []ir.TypeDescriptor{acc, elem}})
		if len(args) == 2 {
			return iter + ".fold(" + g.exprAs(args[1], acc) + ", " + cb + ")", true
		}
		return iter + ".reduce(" + cb + ").unwrap()", true
	}
	return "", false
}

func (g *Generator) stringCall(x *ast.CallExpr, m *ast.MemberExpr) (string, bool) {
	recv := g.receiver(m.X)
	args := x.Args
	one := len(args) == 1
	switch m.Name {
	case "toUpperCase", "toLocaleUpperCase":
		return recv + ".to_uppercase()", true
	case "toLowerCase", "toLocaleLowerCase":
		return recv + ".to_lowercase()", true
	case "trim":
		return recv + ".trim().to_string()", true
	case "trimStart":
		return recv + ".trim_start().to_string()", true
	case "trimEnd":
		return recv + ".trim_end().to_string()", true
	case "startsWith":
		if one {
			return recv + ".starts_with(" + g.strArg(args[0]) + ")", true
		}
	case "endsWith":
		if one {
			return recv + ".ends_with(" + g.strArg(args[0]) + ")", true
		}
	case "includes":
		if one {
			return recv + ".contains(" + g.strArg(args[0]) + ")", true
		}
	case "indexOf":
		if one {
			return recv + ".find(" + g.strArg(args[0]) + ").map(|i| i as f64).unwrap_or(-1.0)", true
		}
	case "split":
		if !one {
			break
		}
		if re, ok := args[0].(*ast.RegexLit); ok {
			return g.regex(re) + ".split(&" + recv + ").map(|s| s.to_string()).collect::<Vec<_>>()", true
		}
		if s, ok := args[0].(*ast.StringLit); ok && s.Value == "" {
			return recv + ".chars().map(|c| c.to_string()).collect::<Vec<_>>()", true
		}
		return recv + ".split(" + g.strArg(args[0]) + ").map(|s| s.to_string()).collect::<Vec<_>>()", true
	case "replace", "replaceAll":
		if len(args) != 2 {
			break
		}
		if re, ok := args[0].(*ast.RegexLit); ok {
			method := "replace"
			if strings.ContainsRune(re.Flags, 'g') {
				method = "replace_all"
			}
			return g.regex(re) + "." + method + "(&" + recv + ", " + g.strArg(args[1]) + ").to_string()", true
		}
		if m.Name == "replaceAll" {
			return recv + ".replace(" + g.strArg(args[0]) + ", " + g.strArg(args[1]) + ")", true
		}
		return recv + ".replacen(" + g.strArg(args[0]) + ", " + g.strArg(args[1]) + ", 1)", true
	case "charAt":
		if one {
			return recv + ".chars().nth(" + g.usize(args[0]) + ").map(|c| c.to_string()).unwrap_or_default()", true
		}
	case "charCodeAt":
		if one {
			return recv + ".chars().nth(" + g.usize(args[0]) + ").map(|c| c as u32 as f64).unwrap_or(f64::NAN)", true
		}
	case "repeat":
		if one {
			return recv + ".repeat(" + g.usize(args[0]) + ")", true
		}
	case "substring", "slice":
		switch len(args) {
		case 1:
			return recv + ".chars().skip(" + g.usize(args[0]) + ").collect::<String>()", true
		case 2:
			return recv + ".chars().skip(" + g.usize(args[0]) + ").take(" + g.usize(args[1]) + " - " + g.usize(args[0]) + ").collect::<String>()", true
		}
	case "padStart", "padEnd":
		if len(args) == 0 {
			break
		}
		fill := `" "`
		if len(args) == 2 {
			fill = g.strArg(args[1])
		}
		pad := fill + ".repeat((" + g.usize(args[0]) + ").saturating_sub(" + recv + ".chars().count()))"
		if m.Name == "padStart" {
			return `format!("{}{}", ` + pad + ", " + recv + ")", true
		}
		return `format!("{}{}", ` + recv + ", " + pad + ")", true
	case "toString":
		return recv + ".clone()", true
	case "match", "search", "matchAll":
		return g.unsupportedExpr(x.Span, "String."+m.Name), true
	}
	return "", false
}

func (g *Generator) numberCall(x *ast.CallExpr, m *ast.MemberExpr) (string, bool) {
	switch m.Name {
	case "toFixed":
		digits := "0"
		if len(x.Args) == 1 {
			digits = g.usize(x.Args[0])
		}
		return `format!("{:.*}", ` + digits + ", " + g.expr(m.X) + ")", true
	case "toString":
		return g.receiver(m.X) + ".to_string()", true
	}
	return "", false
}

func (g *Generator) mapCall(x *ast.CallExpr, m *ast.MemberExpr, d *ir.NamedDescriptor) (string, bool) {
	recv := g.receiver(m.X)
	args := x.Args
	var key, val ir.TypeDescriptor
	if len(d.Args) == 2 {
		key, val = d.Args[0], d.Args[1]
	}
	switch m.Name {
	case "get":
		if len(args) == 1 {
			return recv + ".get(" + g.refArg(args[0]) + ").cloned()", true
		}
	case "set":
		if len(args) == 2 {
			return recv + ".insert(" + g.argAs(args[0], key) + ", " + g.argAs(args[1], val) + ")", true
		}
	case "has":
		if len(args) == 1 {
			return recv + ".contains_key(" + g.refArg(args[0]) + ")", true
		}
	case "delete":
		if len(args) == 1 {
			return recv + ".remove(" + g.refArg(args[0]) + ").is_some()", true
		}
	case "clear":
		return recv + ".clear()", true
	case "keys":
		return recv + ".keys().cloned().collect::<Vec<_>>()", true
	case "values":
		return recv + ".values().cloned().collect::<Vec<_>>()", true
	case "entries":
		return recv + ".iter().map(|(k, v)| (k.clone(), v.clone())).collect::<Vec<_>>()", true
	}
	return "", false
}

func (g *Generator) setCall(x *ast.CallExpr, m *ast.MemberExpr) (string, bool) {
	recv := g.receiver(m.X)
	args := x.Args
	switch m.Name {
	case "add":
		if len(args) == 1 {
			return recv + ".insert(" + g.argAs(args[0], nil) + ")", true
		}
	case "has":
		if len(args) == 1 {
			return recv + ".contains(" + g.refArg(args[0]) + ")", true
		}
	case "delete":
		if len(args) == 1 {
			return recv + ".remove(" + g.refArg(args[0]) + ")", true
		}
	case "clear":
		return recv + ".clear()", true
	case "values", "keys":
		return recv + ".iter().cloned().collect::<Vec<_>>()", true
	}
	return "", false
}

// ctorParams returns the parameters of the constructor that builds ci,
// which may be inherited.
func ctorParams(ci *classInfo) []*ast.Param {
	for c := ci; c != nil; c = c.base {
		if ctor := c.decl.Constructor(); ctor != nil {
			return ctor.Params
		}
	}
	return nil
}

var errorTypes = map[string]bool{
	"Error": true, "TypeError": true, "RangeError": true, "SyntaxError": true, "ReferenceError": true,
}

func (g *Generator) newExpr(x *ast.NewExpr) string {
	id, ok := x.Ctor.(*ast.Ident)
	if !ok {
		return g.unsupportedExpr(x.Span, "new on a computed constructor")
	}
	if ci := g.syms.classes[id.Name]; ci != nil && !g.isLocal(id.Name) {
		if ci.decl.Abstract {
			g.warn(ir.CodeUnsupportedConstruct, x.Span, "abstract class %s is instantiated", id.Name)
		}
		return typeName(id.Name) + g.turbofish(x.TypeArgs) + "::new(" + g.callArgs(ctorParams(ci), x.Args) + ")"
	}
	switch {
	case id.Name == "Map" || id.Name == "WeakMap":
		g.use("std::collections::HashMap")
		return g.collectionNew(x, "HashMap")
	case id.Name == "Set" || id.Name == "WeakSet":
		g.use("std::collections::HashSet")
		return g.collectionNew(x, "HashSet")
	case id.Name == "Array":
		if len(x.Args) == 1 {
			return "Vec::with_capacity(" + g.usize(x.Args[0]) + ")"
		}
		return "Vec::new()"
	case errorTypes[id.Name]:
		if len(x.Args) == 0 {
			return "String::new()"
		}
		return g.toString(x.Args[0])
	case id.Name == "Date":
		if len(x.Args) > 0 {
			return g.unsupportedExpr(x.Span, "Date constructor with arguments")
		}
		return "std::time::SystemTime::now()"
	case id.Name == "RegExp":
		if len(x.Args) == 0 {
			break
		}
		if s, ok := x.Args[0].(*ast.StringLit); ok {
			flags := ""
			if len(x.Args) > 1 {
				if f, ok := x.Args[1].(*ast.StringLit); ok {
					flags = f.Value
				}
			}
			return g.regex(&ast.RegexLit{Span: x.Span, Pattern: s.Value, Flags: flags})
		}
		g.usesRegex = true
		g.use("regex::Regex")
		return "Regex::new(" + g.strArg(x.Args[0]) + ").unwrap()"
	case id.Name == "Promise":
		return g.unsupportedExpr(x.Span, "new Promise")
	}
	return typeName(id.Name) + "::new(" + g.values(x.Args) + ")"
}

// collectionNew builds a HashMap or HashSet from the optional iterable
// argument of new Map or new Set.
func (g *Generator) collectionNew(x *ast.NewExpr, kind string) string {
	if len(x.Args) == 0 {
		return kind + "::new()"
	}
	if arr, ok := x.Args[0].(*ast.ArrayLit); ok {
		var elem ir.TypeDescriptor
		if len(x.TypeArgs) == 1 {
			elem = x.TypeArgs[0]
		} else if len(x.TypeArgs) == 2 {
			elem = ir.TupleOf(x.TypeArgs[0], x.TypeArgs[1])
		}
		parts := make([]string, 0, len(arr.Elems))
		for _, e := range arr.Elems {
			if _, spread := e.(*ast.SpreadExpr); spread {
				return g.receiver(x.Args[0]) + ".into_iter().collect::<" + kind + "<_>>()"
			}
			if pair, ok := e.(*ast.ArrayLit); ok && kind == "HashMap" && len(pair.Elems) == 2 {
				var k, v ir.TypeDescriptor
				if t, ok := elem.(*ir.TupleDescriptor); ok {
					k, v = t.Elements[0], t.Elements[1]
				}
				parts = append(parts, "("+g.exprAs(pair.Elems[0], k)+", "+g.exprAs(pair.Elems[1], v)+")")
				continue
			}
			parts = append(parts, g.exprAs(e, elem))
		}
		return kind + "::from([" + strings.Join(parts, ", ") + "])"
	}
	if kind == "HashMap" {
		return g.receiver(x.Args[0]) + ".iter().cloned().collect::<HashMap<_, _>>()"
	}
	return g.receiver(x.Args[0]) + ".iter().cloned().collect::<HashSet<_>>()"
}
