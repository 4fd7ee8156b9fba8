package rust

import (
	"strconv"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

// expr renders x in place position: member reads are not cloned and string
// literals stay &str.
func (g *Generator) expr(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Ident:
		return g.ident(x)
	case *ast.NumberLit:
		return floatLit(x.Value)
	case *ast.StringLit:
		return quote(x.Value)
	case *ast.BoolLit:
		return strconv.FormatBool(x.Value)
	case *ast.NullLit:
		return "None"
	case *ast.TemplateLit:
		return g.template(x)
	case *ast.RegexLit:
		return g.regex(x)
	case *ast.ThisExpr:
		return g.thisName()
	case *ast.SuperExpr:
		return g.unsupportedExpr(x.Span, "super outside a constructor")
	case *ast.ArrayLit:
		return g.array(x, nil)
	case *ast.ObjectLit:
		return g.object(x)
	case *ast.UnaryExpr:
		return g.unary(x)
	case *ast.UpdateExpr:
		return g.update(x)
	case *ast.BinaryExpr:
		return g.binary(x)
	case *ast.AssignExpr:
		return g.assign(x)
	case *ast.CondExpr:
		return "if " + g.cond(x.Cond) + " { " + g.valueExpr(x.Then) + " } else { " + g.valueExpr(x.Else) + " }"
	case *ast.MemberExpr:
		return g.member(x)
	case *ast.IndexExpr:
		return g.index(x)
	case *ast.CallExpr:
		return g.call(x)
	case *ast.NewExpr:
		return g.newExpr(x)
	case *ast.FuncLit:
		return g.closure(x, closureOpts{})
	case *ast.AsExpr:
		return g.expr(x.X)
	case *ast.NonNullExpr:
		if !g.isNullable(x.X) {
			return g.expr(x.X)
		}
		if isPlace(x.X) && !g.isCopy(g.typeOf(x)) {
			return g.operand(x.X) + ".as_ref().unwrap()"
		}
		return g.operand(x.X) + ".unwrap()"
	case *ast.SpreadExpr:
		return g.valueExpr(x.X)
	case *ast.ParenExpr:
		return "(" + g.expr(x.X) + ")"
	case *ast.Unsupported:
		return g.unsupportedExpr(x.Span, x.Kind)
	}
	return "todo!()"
}

func isPlace(x ast.Expr) bool {
	switch ast.Unparen(x).(type) {
	case *ast.MemberExpr, *ast.IndexExpr:
		return true
	}
	return false
}

func (g *Generator) unsupportedExpr(span ir.Span, kind string) string {
	g.warn(ir.CodeUnsupportedConstruct, span, "%s is not supported; replaced by todo!()", kind)
	return "/* unsupported: " + kind + " */ todo!()"
}

func (g *Generator) isLocal(name string) bool {
	_, ok := g.lookup(name)
	return ok
}

func (g *Generator) ident(x *ast.Ident) string {
	if g.isLocal(x.Name) {
		return snakeCase(x.Name)
	}
	switch x.Name {
	case "undefined":
		return "None"
	case "NaN":
		return "f64::NAN"
	case "Infinity":
		return "f64::INFINITY"
	}
	switch {
	case g.syms.consts[x.Name] != nil:
		return screamingCase(x.Name)
	case g.syms.classes[x.Name] != nil, g.syms.enums[x.Name] != nil:
		return typeName(x.Name)
	}
	return snakeCase(x.Name)
}

// isNone reports whether x is the null or undefined literal.
func (g *Generator) isNone(x ast.Expr) bool {
	switch x := ast.Unparen(x).(type) {
	case *ast.NullLit:
		return true
	case *ast.Ident:
		return x.Name == "undefined" && !g.isLocal(x.Name)
	}
	return false
}

// operand renders x so that a postfix method call or cast binds to all of
// it.
func (g *Generator) operand(x ast.Expr) string {
	s := g.expr(x)
	switch x.(type) {
	case *ast.BinaryExpr, *ast.CondExpr, *ast.AssignExpr, *ast.UnaryExpr, *ast.UpdateExpr, *ast.FuncLit:
		return "(" + s + ")"
	case *ast.NumberLit:
		if !strings.HasPrefix(s, "f64::") {
			return s + "_f64"
		}
	}
	if strings.HasSuffix(s, " as f64)") || strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

// receiver renders the receiver of a method call or field access.
func (g *Generator) receiver(x ast.Expr) string {
	return g.operand(x)
}

// valueExpr renders x where an owned value is needed: string literals
// become String and non-Copy reads through a place are cloned.
func (g *Generator) valueExpr(x ast.Expr) string {
	switch e := x.(type) {
	case *ast.StringLit:
		return quote(e.Value) + ".to_string()"
	case *ast.TemplateLit:
		if len(e.Exprs) == 0 {
			return quote(e.Segments[0]) + ".to_string()"
		}
	case *ast.Ident:
		if c := g.syms.consts[e.Name]; c != nil && !g.isLocal(e.Name) && ir.IsPrimitive(c.typ, ir.PrimitiveString) {
			return screamingCase(e.Name) + ".to_string()"
		}
	case *ast.ParenExpr:
		return g.valueExpr(e.X)
	case *ast.NonNullExpr:
		if g.isNullable(e.X) {
			return g.valueExpr(e.X) + ".unwrap()"
		}
		return g.valueExpr(e.X)
	case *ast.MemberExpr:
		if id, ok := e.X.(*ast.Ident); ok && !g.isLocal(id.Name) {
			if ci := g.syms.classes[id.Name]; ci != nil {
				if p := ci.static(e.Name); p != nil && isStaticConst(p) && ir.IsPrimitive(literalType(p.Init), ir.PrimitiveString) {
					return g.expr(e) + ".to_string()"
				}
			}
		}
		s := g.expr(e)
		if g.needsClone(e) {
			s += ".clone()"
		}
		return s
	case *ast.IndexExpr:
		s := g.expr(e)
		if g.needsClone(e) {
			s += ".clone()"
		}
		return s
	}
	return g.expr(x)
}

// needsClone reports whether reading x by value would move out of a
// borrowed place.
func (g *Generator) needsClone(x ast.Expr) bool {
	if m, ok := x.(*ast.MemberExpr); ok {
		if m.Optional {
			return false
		}
		if ci := g.classOf(m.X); ci != nil && ci.field(m.Name) == nil {
			return false
		}
	}
	if ix, ok := x.(*ast.IndexExpr); ok && (ix.Optional || g.isString(ix.X)) {
		return false
	}
	td := g.typeOf(x)
	if td == nil || g.isCopy(td) {
		return false
	}
	if ir.IsDynamic(td) && !g.dynamicTraits().clone {
		return false
	}
	return true
}

// template renders a template literal with format!.
func (g *Generator) template(x *ast.TemplateLit) string {
	if len(x.Exprs) == 0 {
		return quote(x.Segments[0])
	}
	var f strings.Builder
	var args []string
	for i, seg := range x.Segments {
		f.WriteString(escapeFormat(seg))
		if i < len(x.Exprs) {
			f.WriteString(g.placeholder(x.Exprs[i]))
			args = append(args, g.expr(x.Exprs[i]))
		}
	}
	return `format!("` + f.String() + `", ` + strings.Join(args, ", ") + ")"
}

// placeholder picks {} for values with Display and {:?} otherwise.
func (g *Generator) placeholder(x ast.Expr) string {
	td := g.typeOf(x)
	if td == nil || g.isDisplay(td) {
		return "{}"
	}
	return "{:?}"
}

func (g *Generator) array(x *ast.ArrayLit, elem ir.TypeDescriptor) string {
	if len(x.Elems) == 0 {
		return "Vec::new()"
	}
	var segments, cur []string
	spread := false
	flush := func() {
		if len(cur) > 0 {
			segments = append(segments, "vec!["+strings.Join(cur, ", ")+"]")
			cur = nil
		}
	}
	for _, e := range x.Elems {
		if s, ok := e.(*ast.SpreadExpr); ok {
			flush()
			v := g.valueExpr(s.X)
			if _, ident := s.X.(*ast.Ident); ident {
				v += ".clone()"
			}
			segments = append(segments, v)
			spread = true
			continue
		}
		cur = append(cur, g.exprAs(e, elem))
	}
	flush()
	if !spread {
		return segments[0]
	}
	return "[" + strings.Join(segments, ", ") + "].concat()"
}

// object renders an object literal without a known target type. A
// same-file struct with exactly the literal's keys is used when one
// exists.
func (g *Generator) object(x *ast.ObjectLit) string {
	if name, fields, ok := g.matchShape(x); ok {
		return g.structLit(x, name, fields)
	}
	switch {
	case g.opts.Serde && !g.opts.Runtime:
		var parts []string
		for _, p := range x.Props {
			if p.Spread {
				return g.unsupportedExpr(p.Span, "object spread without a known type")
			}
			parts = append(parts, quote(p.Key)+": "+g.valueExpr(p.Value))
		}
		return "serde_json::json!({" + strings.Join(parts, ", ") + "})"
	case g.opts.Runtime:
		var parts []string
		for _, p := range x.Props {
			if p.Spread {
				return g.unsupportedExpr(p.Span, "object spread without a known type")
			}
			parts = append(parts, "("+quote(p.Key)+", Dynamic::from("+g.valueExpr(p.Value)+"))")
		}
		return "Dynamic::object(vec![" + strings.Join(parts, ", ") + "])"
	}
	return g.unsupportedExpr(x.Span, "object literal without a known type")
}

// matchShape finds the first synthesized shape or interface struct whose
// field names are exactly the keys of x.
func (g *Generator) matchShape(x *ast.ObjectLit) (string, []ir.Field, bool) {
	keys := make(map[string]bool, len(x.Props))
	for _, p := range x.Props {
		if p.Spread {
			return "", nil, false
		}
		keys[p.Key] = true
	}
	same := func(fields []ir.Field) bool {
		if len(fields) != len(keys) {
			return false
		}
		for _, f := range fields {
			if !keys[f.Name] {
				return false
			}
		}
		return true
	}
	for _, syn := range g.prog.Synthesized {
		if s, ok := syn.(*ir.ShapeDescriptor); ok && same(s.Fields) {
			g.reference(s)
			return typeName(s.Name), s.Fields, true
		}
	}
	for _, ii := range g.syms.ifaceOrder {
		if ii.structName == "" || len(ii.decl.TypeParams) > 0 {
			continue
		}
		if name, fields, ok := g.structFields(ir.Named(ii.decl.Name)); ok && same(fields) {
			return name, fields, true
		}
	}
	return "", nil, false
}

// structLit renders an object literal as a struct expression. Omitted
// optional fields are None and other omitted fields take their default.
func (g *Generator) structLit(x *ast.ObjectLit, name string, fields []ir.Field) string {
	byName := make(map[string]ir.Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	var lines []string
	seen := make(map[string]bool)
	var spread ast.Expr
	for _, p := range x.Props {
		if p.Spread {
			spread = p.Value
			continue
		}
		f, ok := byName[p.Key]
		if !ok {
			g.warn(ir.CodeUnsupportedConstruct, p.Span, "property %q is not a field of %s; dropped", p.Key, name)
			continue
		}
		seen[p.Key] = true
		v := g.exprAs(p.Value, optional(f.Type, f.Optional))
		fname := snakeCase(f.Name)
		if v == fname {
			lines = append(lines, fname+",")
		} else {
			lines = append(lines, fname+": "+indentTail(v)+",")
		}
	}
	if spread != nil {
		lines = append(lines, ".."+g.valueExpr(spread))
	} else {
		for _, f := range fields {
			if seen[f.Name] {
				continue
			}
			if f.Optional {
				lines = append(lines, snakeCase(f.Name)+": None,")
			} else {
				lines = append(lines, snakeCase(f.Name)+": Default::default(),")
			}
		}
	}
	if len(lines) == 0 {
		return name + " {}"
	}
	return name + " {\n" + indentUnit + strings.Join(lines, "\n"+indentUnit) + "\n}"
}

func (g *Generator) unary(x *ast.UnaryExpr) string {
	switch x.Op {
	case "!":
		return g.negate(x.X)
	case "-":
		return "-" + g.operand(x.X)
	case "+":
		if g.isString(x.X) {
			return g.receiver(x.X) + ".trim().parse::<f64>().unwrap_or(f64::NAN)"
		}
		return g.expr(x.X)
	case "~":
		return "(!(" + g.operand(x.X) + " as i32) as f64)"
	case "await":
		return g.receiver(x.X) + ".await"
	case "void":
		return "{ " + g.expr(x.X) + "; }"
	case "typeof":
		if name := g.typeofName(g.typeOf(x.X)); name != "" {
			return quote(name)
		}
		return g.unsupportedExpr(x.Span, "typeof on a value of unknown type")
	}
	return g.unsupportedExpr(x.Span, x.Op+" operator")
}

// typeofName folds typeof for statically known types.
func (g *Generator) typeofName(td ir.TypeDescriptor) string {
	switch d := g.resolve(td).(type) {
	case *ir.PrimitiveDescriptor:
		switch d.PrimitiveKind {
		case ir.PrimitiveString:
			return "string"
		case ir.PrimitiveNumber:
			return "number"
		case ir.PrimitiveBoolean:
			return "boolean"
		case ir.PrimitiveUndefined, ir.PrimitiveVoid:
			return "undefined"
		}
	case *ir.FunctionDescriptor:
		return "function"
	case *ir.ArrayDescriptor, *ir.TupleDescriptor, *ir.ShapeDescriptor:
		return "object"
	case *ir.NamedDescriptor:
		if g.syms.classes[d.Name] != nil || g.syms.interfaces[d.Name] != nil {
			return "object"
		}
	}
	return ""
}

// update renders ++ and -- in expression position.
func (g *Generator) update(x *ast.UpdateExpr) string {
	target := g.expr(x.X)
	op := "+="
	if x.Op == "--" {
		op = "-="
	}
	if x.Prefix {
		return "{ " + target + " " + op + " 1.0; " + target + " }"
	}
	return "{ let prev = " + target + "; " + target + " " + op + " 1.0; prev }"
}

// Rust precedence of the operators rendered infix. Operators rendered as
// method calls, casts or macros bind like primaries.
var rustPrec = map[string]int{
	"*": 10, "/": 10, "%": 10,
	"+": 9, "-": 9,
	"<": 5, ">": 5, "<=": 5, ">=": 5, "==": 5, "!=": 5, "===": 5, "!==": 5,
	"&&": 4,
	"||": 3,
}

const atomic = 100

func (g *Generator) precOf(x ast.Expr) int {
	switch x := x.(type) {
	case *ast.BinaryExpr:
		switch {
		case x.Op == "+" && (g.isString(x.X) || g.isString(x.Y)):
			return atomic
		case (x.Op == "==" || x.Op == "===" || x.Op == "!=" || x.Op == "!==") && (g.isNone(x.X) || g.isNone(x.Y)):
			return atomic
		case x.Op == "||" && g.isNullable(x.X):
			return atomic
		}
		if p, ok := rustPrec[x.Op]; ok {
			return p
		}
		return atomic
	case *ast.CondExpr, *ast.AssignExpr:
		return 0
	}
	return atomic
}

// side renders one operand of a binary operator with precedence prec,
// adding parentheses where Rust would parse it differently.
func (g *Generator) side(x ast.Expr, prec int, right bool, render func(ast.Expr) string) string {
	s := render(x)
	p := g.precOf(x)
	if p == atomic || p > prec || (p == prec && !right && prec != 5) {
		return s
	}
	return "(" + s + ")"
}

func (g *Generator) binary(x *ast.BinaryExpr) string {
	switch x.Op {
	case "==", "===", "!=", "!==":
		return g.equality(x)
	case "||":
		if g.isNullable(x.X) {
			return g.coalesce(x)
		}
		fallthrough
	case "&&":
		p := rustPrec[x.Op]
		return g.side(x.X, p, false, g.cond) + " " + x.Op + " " + g.side(x.Y, p, true, g.cond)
	case "??":
		return g.coalesce(x)
	case "**":
		return g.receiver(x.X) + ".powf(" + g.expr(x.Y) + ")"
	case "&", "|", "^", "<<", ">>":
		return g.bitwise(x.Op, x.X, x.Y)
	case ">>>":
		return "((" + g.operand(x.X) + " as u32) >> (" + g.operand(x.Y) + " as u32)) as f64"
	case "+":
		if g.isString(x.X) || g.isString(x.Y) {
			return g.concat(x)
		}
	case "instanceof", "in":
		return g.unsupportedExpr(x.Span, x.Op+" operator")
	case ",":
		return "{ " + g.expr(x.X) + "; " + g.expr(x.Y) + " }"
	}
	p, ok := rustPrec[x.Op]
	if !ok {
		return g.unsupportedExpr(x.Span, x.Op+" operator")
	}
	return g.side(x.X, p, false, g.expr) + " " + x.Op + " " + g.side(x.Y, p, true, g.expr)
}

func (g *Generator) bitwise(op string, l, r ast.Expr) string {
	return "((" + g.operand(l) + " as i32) " + op + " (" + g.operand(r) + " as i32)) as f64"
}

func (g *Generator) equality(x *ast.BinaryExpr) string {
	eq := x.Op == "==" || x.Op == "==="
	op := "=="
	if !eq {
		op = "!="
	}
	l, r := x.X, x.Y
	if g.isNone(l) {
		l, r = r, l
	}
	if g.isNone(r) {
		if eq {
			return g.receiver(l) + ".is_none()"
		}
		return g.receiver(l) + ".is_some()"
	}
	if g.isString(l) && g.isValuedEnum(r) {
		return g.side(l, 5, false, g.expr) + " " + op + " " + g.receiver(r) + ".value()"
	}
	if g.isValuedEnum(l) && g.isString(r) {
		return g.receiver(l) + ".value() " + op + " " + g.side(r, 5, true, g.expr)
	}
	if g.isNullable(l) && !g.isNullable(r) {
		inner := g.valueExpr(r)
		if s, ok := ast.Unparen(r).(*ast.StringLit); ok {
			return g.receiver(l) + ".as_deref() " + op + " Some(" + quote(s.Value) + ")"
		}
		return g.receiver(l) + " " + op + " Some(" + inner + ")"
	}
	return g.side(l, 5, false, g.expr) + " " + op + " " + g.side(r, 5, true, g.expr)
}

func (g *Generator) isValuedEnum(x ast.Expr) bool {
	n, ok := g.typeOf(x).(*ir.NamedDescriptor)
	if !ok {
		return false
	}
	e := g.syms.enums[n.Name]
	return e != nil && e.Class == ast.ValuedEnum
}

// coalesce renders a ?? b, and a || b on an optional a. A left side of a
// known non-optional type never falls back, so b is dropped; a dynamic or
// unknown left side keeps b in a comment and is reported.
func (g *Generator) coalesce(x *ast.BinaryExpr) string {
	l := g.valueExpr(x.X)
	if g.precOf(x.X) != atomic || strings.HasPrefix(l, "-") {
		l = "(" + l + ")"
	}
	if !g.isNullable(x.X) {
		if td := g.typeOf(x.X); td == nil || ir.IsDynamic(td) {
			r := g.valueExpr(x.Y)
			g.warn(ir.CodeUnsupportedConstruct, x.Span, "left side of %s has no optional type; the fallback %s is not applied", x.Op, r)
			return l + " /* " + x.Op + " " + strings.ReplaceAll(r, "*/", "* /") + " */"
		}
		return l
	}
	want, _ := ir.Unwrap(g.typeOf(x.X))
	switch {
	case g.isNullable(x.Y) || g.isNone(x.Y):
		return l + ".or(" + g.valueExpr(x.Y) + ")"
	case isLiteral(x.Y):
		return l + ".unwrap_or(" + g.exprAs(x.Y, want) + ")"
	}
	return l + ".unwrap_or_else(|| " + g.exprAs(x.Y, want) + ")"
}

// concat renders a chain of string concatenations as one format!.
func (g *Generator) concat(x *ast.BinaryExpr) string {
	var parts []ast.Expr
	var flatten func(e ast.Expr)
	flatten = func(e ast.Expr) {
		if b, ok := e.(*ast.BinaryExpr); ok && b.Op == "+" && (g.isString(b.X) || g.isString(b.Y)) {
			flatten(b.X)
			parts = append(parts, b.Y)
			return
		}
		parts = append(parts, e)
	}
	flatten(x)
	var f strings.Builder
	var args []string
	for _, p := range parts {
		switch p := p.(type) {
		case *ast.StringLit:
			f.WriteString(escapeFormat(p.Value))
		case *ast.TemplateLit:
			for i, seg := range p.Segments {
				f.WriteString(escapeFormat(seg))
				if i < len(p.Exprs) {
					f.WriteString(g.placeholder(p.Exprs[i]))
					args = append(args, g.expr(p.Exprs[i]))
				}
			}
		default:
			f.WriteString(g.placeholder(p))
			args = append(args, g.expr(p))
		}
	}
	if len(args) == 0 {
		return `format!("` + f.String() + `")`
	}
	return `format!("` + f.String() + `", ` + strings.Join(args, ", ") + ")"
}

// assign renders an assignment without the trailing semicolon.
func (g *Generator) assign(x *ast.AssignExpr) string {
	if m, ok := ast.Unparen(x.Target).(*ast.MemberExpr); ok {
		if ci := g.classOf(m.X); ci != nil && ci.field(m.Name) == nil && ci.setters[m.Name] != nil {
			var want ir.TypeDescriptor
			if p := ci.setters[m.Name].Param; p != nil {
				want = p.Type
			}
			return g.receiver(m.X) + ".set_" + snakeCase(m.Name) + "(" + g.exprAs(x.Value, want) + ")"
		}
	}
	if ix, ok := ast.Unparen(x.Target).(*ast.IndexExpr); ok && x.Op == "=" && g.isMap(ix.X) {
		return g.receiver(ix.X) + ".insert(" + g.valueExpr(ix.Index) + ", " + g.valueExpr(x.Value) + ")"
	}
	target := g.expr(x.Target)
	want := g.typeOf(x.Target)
	switch x.Op {
	case "=":
		return target + " = " + g.exprAs(x.Value, want)
	case "+=":
		if g.isString(x.Target) {
			return target + ".push_str(" + g.strArg(x.Value) + ")"
		}
		return target + " += " + g.expr(x.Value)
	case "-=", "*=", "/=", "%=":
		return target + " " + x.Op + " " + g.expr(x.Value)
	case "**=":
		return target + " = " + target + ".powf(" + g.expr(x.Value) + ")"
	case "??=":
		inner, _ := ir.Unwrap(want)
		return "if " + target + ".is_none() { " + target + " = Some(" + g.exprAs(x.Value, inner) + "); }"
	case "||=", "&&=":
		op := x.Op[:2]
		return target + " = " + target + " " + op + " " + g.side(x.Value, rustPrec[op], true, g.cond)
	case ">>>=":
		return target + " = ((" + target + " as u32) >> (" + g.operand(x.Value) + " as u32)) as f64"
	}
	op := strings.TrimSuffix(x.Op, "=")
	return target + " = " + g.bitwise(op, x.Target, x.Value)
}

// strArg renders x as a &str argument.
func (g *Generator) strArg(x ast.Expr) string {
	switch e := ast.Unparen(x).(type) {
	case *ast.StringLit:
		return quote(e.Value)
	case *ast.TemplateLit:
		if len(e.Exprs) == 0 {
			return quote(e.Segments[0])
		}
	}
	return "&" + g.operand(x)
}

// refArg renders x as a borrowed argument for lookups.
func (g *Generator) refArg(x ast.Expr) string {
	if s, ok := ast.Unparen(x).(*ast.StringLit); ok {
		return quote(s.Value)
	}
	return "&" + g.operand(x)
}

var mathConsts = map[string]string{
	"PI":      "std::f64::consts::PI",
	"E":       "std::f64::consts::E",
	"LN2":     "std::f64::consts::LN_2",
	"LN10":    "std::f64::consts::LN_10",
	"LOG2E":   "std::f64::consts::LOG2_E",
	"LOG10E":  "std::f64::consts::LOG10_E",
	"SQRT2":   "std::f64::consts::SQRT_2",
	"SQRT1_2": "std::f64::consts::FRAC_1_SQRT_2",
}

var numberConsts = map[string]string{
	"MAX_SAFE_INTEGER":  "9007199254740991.0",
	"MIN_SAFE_INTEGER":  "-9007199254740991.0",
	"EPSILON":           "f64::EPSILON",
	"MAX_VALUE":         "f64::MAX",
	"MIN_VALUE":         "f64::MIN_POSITIVE",
	"POSITIVE_INFINITY": "f64::INFINITY",
	"NEGATIVE_INFINITY": "f64::NEG_INFINITY",
	"NaN":               "f64::NAN",
}

func (g *Generator) member(x *ast.MemberExpr) string {
	if id, ok := x.X.(*ast.Ident); ok && !g.isLocal(id.Name) {
		if g.syms.enums[id.Name] != nil {
			return typeName(id.Name) + "::" + pascalCase(x.Name)
		}
		if ci := g.syms.classes[id.Name]; ci != nil {
			return g.staticAccess(ci, x.Name)
		}
		switch id.Name {
		case "Math":
			if c, ok := mathConsts[x.Name]; ok {
				return c
			}
		case "Number":
			if c, ok := numberConsts[x.Name]; ok {
				return c
			}
		}
	}
	if _, ok := ast.Unparen(x.X).(*ast.SuperExpr); ok {
		return g.unsupportedExpr(x.Span, "super member access")
	}
	recv := g.receiver(x.X)
	if x.Optional {
		recvType, _ := ir.Unwrap(g.typeOf(x.X))
		access := "v." + snakeCase(x.Name)
		if x.Name == "length" {
			return recv + ".as_ref().map(|v| v.len() as f64)"
		}
		if _, nested := g.fieldOf(recvType, x.Name).(*ir.NullableDescriptor); nested {
			return recv + ".as_ref().and_then(|v| " + access + ".clone())"
		}
		return recv + ".as_ref().map(|v| " + access + ".clone())"
	}
	switch x.Name {
	case "length":
		if g.isString(x.X) {
			return "(" + recv + ".chars().count() as f64)"
		}
		if g.classOf(x.X) == nil {
			return "(" + recv + ".len() as f64)"
		}
	case "size":
		if g.isMap(x.X) || g.isSet(x.X) {
			return "(" + recv + ".len() as f64)"
		}
	}
	if ci := g.classOf(x.X); ci != nil && ci.field(x.Name) == nil && ci.getters[x.Name] != nil {
		return recv + "." + snakeCase(x.Name) + "()"
	}
	return recv + "." + snakeCase(x.Name)
}

// staticAccess renders Class.name for static members.
func (g *Generator) staticAccess(ci *classInfo, name string) string {
	prefix := typeName(ci.decl.Name) + "::"
	if p := ci.static(name); p != nil {
		if isStaticConst(p) {
			return prefix + screamingCase(name)
		}
		return prefix + snakeCase(name) + "()"
	}
	return prefix + snakeCase(name)
}

// isStaticConst reports whether a static property becomes an associated
// const.
func isStaticConst(p *ast.Property) bool {
	return p.Static && p.Readonly && literalType(p.Init) != nil
}

func (g *Generator) index(x *ast.IndexExpr) string {
	recv := g.receiver(x.X)
	recvType, _ := ir.Unwrap(g.typeOf(x.X))
	if x.Optional {
		return recv + ".as_ref().and_then(|v| v.get(" + g.usize(x.Index) + ").cloned())"
	}
	switch d := g.resolve(recvType).(type) {
	case *ir.TupleDescriptor:
		if n, ok := x.Index.(*ast.NumberLit); ok && n.Value >= 0 && n.Value == float64(int(n.Value)) {
			return recv + "." + strconv.Itoa(int(n.Value))
		}
	case *ir.PrimitiveDescriptor:
		if d.PrimitiveKind == ir.PrimitiveString {
			return recv + ".chars().nth(" + g.usize(x.Index) + ").map(|c| c.to_string()).unwrap_or_default()"
		}
	case *ir.NamedDescriptor:
		if builtinTypes[d.Name].name == "HashMap" {
			return recv + "[" + g.refArg(x.Index) + "]"
		}
	}
	return recv + "[" + g.usize(x.Index) + "]"
}

// usize renders a numeric index.
func (g *Generator) usize(x ast.Expr) string {
	if n, ok := x.(*ast.NumberLit); ok && n.Value >= 0 && n.Value == float64(int(n.Value)) {
		return strconv.Itoa(int(n.Value))
	}
	return g.operand(x) + " as usize"
}

func (g *Generator) isMap(x ast.Expr) bool {
	n, ok := g.resolve(unwrapped(g.typeOf(x))).(*ir.NamedDescriptor)
	return ok && builtinTypes[n.Name].name == "HashMap"
}

func (g *Generator) isSet(x ast.Expr) bool {
	n, ok := g.resolve(unwrapped(g.typeOf(x))).(*ir.NamedDescriptor)
	return ok && builtinTypes[n.Name].name == "HashSet"
}

func (g *Generator) isArray(x ast.Expr) bool {
	_, ok := g.resolve(unwrapped(g.typeOf(x))).(*ir.ArrayDescriptor)
	return ok
}

func unwrapped(td ir.TypeDescriptor) ir.TypeDescriptor {
	td, _ = ir.Unwrap(td)
	return td
}

// cond renders x as a bool, converting by JavaScript truthiness where the
// type is known.
func (g *Generator) cond(x ast.Expr) string {
	switch e := x.(type) {
	case *ast.ParenExpr:
		return "(" + g.cond(e.X) + ")"
	case *ast.UnaryExpr:
		if e.Op == "!" {
			return g.negate(e.X)
		}
	case *ast.BinaryExpr:
		if e.Op == "&&" || (e.Op == "||" && !g.isNullable(e.X)) {
			return g.binary(e)
		}
	}
	switch t := g.resolve(g.typeOf(x)).(type) {
	case *ir.NullableDescriptor:
		return g.receiver(x) + ".is_some()"
	case *ir.PrimitiveDescriptor:
		switch t.PrimitiveKind {
		case ir.PrimitiveString:
			return "!" + g.receiver(x) + ".is_empty()"
		case ir.PrimitiveNumber:
			return g.operand(x) + " != 0.0"
		}
	}
	return g.expr(x)
}

// negate renders the logical negation of x.
func (g *Generator) negate(x ast.Expr) string {
	switch t := g.resolve(g.typeOf(x)).(type) {
	case *ir.NullableDescriptor:
		return g.receiver(x) + ".is_none()"
	case *ir.PrimitiveDescriptor:
		switch t.PrimitiveKind {
		case ir.PrimitiveString:
			return g.receiver(x) + ".is_empty()"
		case ir.PrimitiveNumber:
			return g.operand(x) + " == 0.0"
		}
	}
	c := g.cond(x)
	switch x.(type) {
	case *ast.BinaryExpr, *ast.CondExpr, *ast.AssignExpr:
		return "!(" + c + ")"
	}
	return "!" + c
}

// exprAs renders x as a value of type want, adding the wrapping Rust needs:
// Some for optional targets, struct expressions for object literals,
// variant constructors for unions and boxes for closures and dynamic
// values.
func (g *Generator) exprAs(x ast.Expr, want ir.TypeDescriptor) string {
	if want == nil {
		return g.valueExpr(x)
	}
	if g.isNone(x) {
		return "None"
	}
	if n, ok := want.(*ir.NullableDescriptor); ok {
		if g.isNullable(x) {
			return g.valueExpr(x)
		}
		return "Some(" + g.exprAs(x, n.Element) + ")"
	}
	if ir.IsDynamic(want) {
		return g.dynamicValue(x)
	}
	resolved := g.resolve(want)
	switch e := ast.Unparen(x).(type) {
	case *ast.ObjectLit:
		if name, fields, ok := g.structFields(want); ok {
			return g.structLit(e, typeName(name), fields)
		}
		if n, ok := resolved.(*ir.NamedDescriptor); ok && builtinTypes[n.Name].name == "HashMap" {
			return g.mapLit(e, n)
		}
	case *ast.ArrayLit:
		switch d := resolved.(type) {
		case *ir.ArrayDescriptor:
			return g.array(e, d.Element)
		case *ir.TupleDescriptor:
			parts := make([]string, len(e.Elems))
			for i, el := range e.Elems {
				var td ir.TypeDescriptor
				if i < len(d.Elements) {
					td = d.Elements[i]
				}
				parts[i] = g.exprAs(el, td)
			}
			if len(parts) == 1 {
				return "(" + parts[0] + ",)"
			}
			return "(" + strings.Join(parts, ", ") + ")"
		}
	case *ast.FuncLit:
		if fn, ok := resolved.(*ir.FunctionDescriptor); ok {
			return "Box::new(" + g.closure(e, closureOpts{want: fn, move: true}) + ")"
		}
	case *ast.Ident:
		if _, ok := resolved.(*ir.FunctionDescriptor); ok && g.syms.funcs[e.Name] != nil && !g.isLocal(e.Name) {
			return "Box::new(" + snakeCase(e.Name) + ")"
		}
	}
	if u, ok := resolved.(*ir.UnionDescriptor); ok {
		return g.unionValue(x, u)
	}
	return g.valueExpr(x)
}

// dynamicValue boxes x into the dynamic type.
func (g *Generator) dynamicValue(x ast.Expr) string {
	if td := g.typeOf(x); td != nil && ir.IsDynamic(td) {
		return g.valueExpr(x)
	}
	v := g.valueExpr(x)
	switch {
	case g.opts.Runtime:
		return "Dynamic::from(" + v + ")"
	case g.opts.Serde:
		return "serde_json::json!(" + v + ")"
	}
	g.use("std::any::Any")
	return "Box::new(" + v + ") as Box<dyn Any>"
}

func (g *Generator) mapLit(x *ast.ObjectLit, n *ir.NamedDescriptor) string {
	g.use("std::collections::HashMap")
	var val ir.TypeDescriptor
	if len(n.Args) == 2 {
		val = n.Args[1]
	}
	var parts []string
	for _, p := range x.Props {
		if p.Spread {
			return g.unsupportedExpr(p.Span, "spread into a map literal")
		}
		parts = append(parts, "("+quote(p.Key)+".to_string(), "+g.exprAs(p.Value, val)+")")
	}
	return "HashMap::from([" + strings.Join(parts, ", ") + "])"
}

// unionVariants names the variants of a union enum after their member
// types, numbering repeats.
func unionVariants(u *ir.UnionDescriptor) []string {
	out := make([]string, len(u.Members))
	used := make(map[string]int)
	for i, m := range u.Members {
		name := pascalCase(typemap.Label(m))
		used[name]++
		if n := used[name]; n > 1 {
			name += strconv.Itoa(n)
		}
		out[i] = name
	}
	return out
}

// unionValue wraps x in the variant of u that matches its type.
func (g *Generator) unionValue(x ast.Expr, u *ir.UnionDescriptor) string {
	src := g.resolve(g.typeOf(x))
	if src != nil && ir.Equal(src, u) {
		return g.valueExpr(x)
	}
	variants := unionVariants(u)
	for i, m := range u.Members {
		if g.matches(x, src, m) {
			return typeName(u.Name) + "::" + variants[i] + "(" + g.exprAs(x, m) + ")"
		}
	}
	return g.valueExpr(x)
}

func (g *Generator) matches(x ast.Expr, src, member ir.TypeDescriptor) bool {
	rm := g.resolve(member)
	if src != nil && ir.Equal(src, rm) {
		return true
	}
	switch e := ast.Unparen(x).(type) {
	case *ast.ObjectLit:
		_, fields, ok := g.structFields(member)
		if !ok {
			return false
		}
		names := make(map[string]bool, len(fields))
		for _, f := range fields {
			names[f.Name] = true
		}
		for _, p := range e.Props {
			if !p.Spread && !names[p.Key] {
				return false
			}
		}
		return true
	case *ast.ArrayLit:
		_, ok := rm.(*ir.ArrayDescriptor)
		return ok && src == nil
	}
	return false
}
