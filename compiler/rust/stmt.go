package rust

import (
	"strconv"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// emitBody writes stmts. With tail set, a final return becomes the tail
// expression of the block.
func (g *Generator) emitBody(stmts []ast.Stmt, tail bool) {
	for i, s := range stmts {
		if tail && i == len(stmts)-1 {
			if r, ok := s.(*ast.ReturnStmt); ok && r.Result != nil {
				g.w.line(g.returnValue(r.Result))
				return
			}
		}
		g.stmt(s)
	}
}

// blockBody writes the body of a compound statement in its own scope.
func (g *Generator) blockBody(s ast.Stmt) {
	g.pushScope()
	defer g.popScope()
	if b, ok := s.(*ast.Block); ok {
		for _, st := range b.Stmts {
			g.stmt(st)
		}
		return
	}
	g.stmt(s)
}

func (g *Generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		g.w.open("{")
		g.blockBody(s)
		g.w.close("}")
	case *ast.ExprStmt:
		g.exprStmt(s.X)
	case *ast.VarDecl:
		g.varDecl(s)
	case *ast.ReturnStmt:
		if s.Result == nil {
			g.w.line("return;")
			return
		}
		g.w.line("return " + g.returnValue(s.Result) + ";")
	case *ast.IfStmt:
		g.ifStmt(s)
	case *ast.WhileStmt:
		g.loop("while "+g.cond(s.Cond)+" {", s.Body)
	case *ast.DoWhileStmt:
		g.fn.breaks = append(g.fn.breaks, "")
		g.w.open("loop {")
		g.blockBody(s.Body)
		g.w.line("if " + g.negate(s.Cond) + " {")
		g.w.line(indentUnit + "break;")
		g.w.line("}")
		g.w.close("}")
		g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1]
	case *ast.ForStmt:
		g.forStmt(s)
	case *ast.ForOfStmt:
		g.forOf(s)
	case *ast.BreakStmt:
		if s.Label != "" {
			g.warn(ir.CodeUnsupportedConstruct, s.Span, "labeled break is not supported; breaking the innermost loop")
		}
		if n := len(g.fn.breaks); n > 0 && g.fn.breaks[n-1] != "" {
			g.w.line("break " + g.fn.breaks[n-1] + ";")
			return
		}
		g.w.line("break;")
	case *ast.ContinueStmt:
		if s.Label != "" {
			g.warn(ir.CodeUnsupportedConstruct, s.Span, "labeled continue is not supported; continuing the innermost loop")
		}
		g.w.line("continue;")
	case *ast.ThrowStmt:
		g.throw(s)
	case *ast.SwitchStmt:
		g.switchStmt(s)
	case *ast.EmptyStmt:
	case *ast.FuncDecl:
		g.emitFuncDecl(s)
	case *ast.StmtDecl:
		g.stmt(s.Stmt)
	case *ast.ClassDecl, *ast.InterfaceDecl, *ast.EnumDecl, *ast.TypeAliasDecl:
		g.warn(ir.CodeUnsupportedConstruct, s.Pos(), "declaration inside a function is not supported; omitted from output")
		g.w.linef("// unsupported: nested declaration (line %d)", s.Pos().Line)
	case *ast.Unsupported:
		g.unsupported(s)
	default:
		g.warn(ir.CodeUnsupportedConstruct, s.Pos(), "statement is not supported; omitted from output")
	}
}

func (g *Generator) loop(head string, body ast.Stmt) {
	g.fn.breaks = append(g.fn.breaks, "")
	defer func() { g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1] }()
	g.w.open(head)
	g.blockBody(body)
	g.w.close("}")
}

func (g *Generator) ifStmt(s *ast.IfStmt) {
	g.w.open("if " + g.cond(s.Cond) + " {")
	g.blockBody(s.Then)
	for s.Else != nil {
		if next, ok := s.Else.(*ast.IfStmt); ok {
			g.w.mid("} else if " + g.cond(next.Cond) + " {")
			g.blockBody(next.Then)
			s = next
			continue
		}
		g.w.mid("} else {")
		g.blockBody(s.Else)
		break
	}
	g.w.close("}")
}

func (g *Generator) varDecl(d *ast.VarDecl) {
	for _, b := range d.Bindings {
		name := snakeCase(b.Name)
		mut := ""
		if g.fn.mutable[b.Name] {
			mut = "mut "
		}
		td := b.Type
		if td == nil {
			td = g.typeOf(b.Init)
		}
		switch {
		case b.Init == nil && b.Type == nil:
			g.w.line("let " + mut + name + ";")
		case b.Init == nil:
			if _, ok := b.Type.(*ir.NullableDescriptor); ok {
				g.w.line("let " + mut + name + ": " + g.rustType(b.Type) + " = None;")
			} else {
				g.w.line("let " + mut + name + ": " + g.rustType(b.Type) + ";")
			}
		case b.Type != nil:
			g.w.line("let " + mut + name + ": " + g.rustType(b.Type) + " = " + g.argAs(b.Init, b.Type) + ";")
		default:
			g.w.line("let " + mut + name + " = " + g.argAs(b.Init, nil) + ";")
		}
		g.declare(b.Name, td)
	}
}

// forStmt writes a three-clause loop. A continue in the body must still run
// the post expression, so such loops use a first-iteration flag.
func (g *Generator) forStmt(s *ast.ForStmt) {
	g.pushScope()
	defer g.popScope()
	scoped := false
	if s.Init != nil {
		if _, ok := s.Init.(*ast.VarDecl); ok {
			scoped = true
			g.w.open("{")
		}
		g.stmt(s.Init)
	}
	cond := "true"
	if s.Cond != nil {
		cond = g.cond(s.Cond)
	}
	switch {
	case s.Post != nil && hasContinue(s.Body):
		g.w.line("let mut __first = true;")
		g.fn.breaks = append(g.fn.breaks, "")
		g.w.open("loop {")
		g.w.open("if !__first {")
		g.w.line(g.exprStmtText(s.Post))
		g.w.close("}")
		g.w.line("__first = false;")
		if s.Cond != nil {
			g.w.line("if " + g.negate(s.Cond) + " {")
			g.w.line(indentUnit + "break;")
			g.w.line("}")
		}
		g.blockBody(s.Body)
		g.w.close("}")
		g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1]
	case s.Cond == nil:
		g.fn.breaks = append(g.fn.breaks, "")
		g.w.open("loop {")
		g.blockBody(s.Body)
		if s.Post != nil {
			g.w.line(g.exprStmtText(s.Post))
		}
		g.w.close("}")
		g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1]
	default:
		g.fn.breaks = append(g.fn.breaks, "")
		g.w.open("while " + cond + " {")
		g.blockBody(s.Body)
		if s.Post != nil {
			g.w.line(g.exprStmtText(s.Post))
		}
		g.w.close("}")
		g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1]
	}
	if scoped {
		g.w.close("}")
	}
}

// hasContinue reports whether body continues the loop it belongs to.
func hasContinue(body ast.Stmt) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.ContinueStmt:
			found = true
		case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForOfStmt, *ast.FuncLit, *ast.FuncDecl:
			return false
		}
		return !found
	})
	return found
}

func (g *Generator) forOf(s *ast.ForOfStmt) {
	name := snakeCase(s.Name)
	recvType, _ := ir.Unwrap(g.typeOf(s.Iter))
	var elem ir.TypeDescriptor
	iter := g.receiver(s.Iter)
	known := true
	switch d := g.resolve(recvType).(type) {
	case *ir.ArrayDescriptor:
		elem = d.Element
		if g.isCopy(elem) {
			iter += ".iter().copied()"
		} else {
			iter += ".iter().cloned()"
		}
	case *ir.PrimitiveDescriptor:
		if d.PrimitiveKind == ir.PrimitiveString {
			elem = ir.String()
			iter += ".chars().map(|c| c.to_string())"
		} else {
			known = false
		}
	case *ir.NamedDescriptor:
		switch builtinTypes[d.Name].name {
		case "HashMap":
			if len(d.Args) == 2 {
				elem = ir.TupleOf(d.Args[0], d.Args[1])
			}
			iter += ".iter().map(|(k, v)| (k.clone(), v.clone()))"
		case "HashSet":
			if len(d.Args) == 1 {
				elem = d.Args[0]
			}
			iter += ".iter().cloned()"
		default:
			known = false
		}
	default:
		known = false
	}
	if !known {
		if _, ok := ast.Unparen(s.Iter).(*ast.ArrayLit); ok {
			iter = g.expr(s.Iter)
		} else {
			iter = "&" + iter
		}
	}
	mut := ""
	if g.fn.mutable[s.Name] {
		mut = "mut "
	}
	g.pushScope()
	g.declare(s.Name, elem)
	g.loop("for "+mut+name+" in "+iter+" {", s.Body)
	g.popScope()
}

func (g *Generator) throw(s *ast.ThrowStmt) {
	if n, ok := s.X.(*ast.NewExpr); ok {
		if id, ok := n.Ctor.(*ast.Ident); ok && errorTypes[id.Name] {
			switch {
			case len(n.Args) == 0:
				g.w.line(`panic!("` + id.Name + `");`)
				return
			case len(n.Args) == 1:
				if lit, ok := n.Args[0].(*ast.StringLit); ok {
					g.w.line(`panic!("` + escapeFormat(lit.Value) + `");`)
					return
				}
				if tpl, ok := n.Args[0].(*ast.TemplateLit); ok {
					g.w.line("panic!(" + g.fmtArgs([]ast.Expr{tpl}) + ");")
					return
				}
				g.w.line(`panic!("{}", ` + g.expr(n.Args[0]) + ");")
				return
			}
		}
	}
	g.w.line(`panic!(` + g.placeholderArgs(s.X) + ");")
}

func (g *Generator) placeholderArgs(x ast.Expr) string {
	if lit, ok := x.(*ast.StringLit); ok {
		return `"` + escapeFormat(lit.Value) + `"`
	}
	return `"` + g.placeholder(x) + `", ` + g.expr(x)
}

// switchGroup is a run of case labels sharing one body.
type switchGroup struct {
	tests     []ast.Expr
	isDefault bool
	body      []ast.Stmt
}

func groupCases(s *ast.SwitchStmt) []*switchGroup {
	var out []*switchGroup
	cur := &switchGroup{}
	for _, c := range s.Cases {
		if c.Test == nil {
			cur.isDefault = true
		} else {
			cur.tests = append(cur.tests, c.Test)
		}
		if len(c.Body) == 0 {
			continue
		}
		cur.body = c.Body
		out = append(out, cur)
		cur = &switchGroup{}
	}
	if len(cur.tests) > 0 || cur.isDefault {
		out = append(out, cur)
	}
	return out
}

// terminates reports whether control never leaves the end of stmts.
func terminates(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch last := stmts[len(stmts)-1].(type) {
	case *ast.BreakStmt, *ast.ReturnStmt, *ast.ThrowStmt, *ast.ContinueStmt:
		return true
	case *ast.Block:
		return terminates(last.Stmts)
	case *ast.IfStmt:
		return last.Else != nil && terminates([]ast.Stmt{last.Then}) && terminates([]ast.Stmt{last.Else})
	}
	return false
}

// breaksSwitch reports whether stmts break out of the enclosing switch
// anywhere other than at their end.
func breaksSwitch(stmts []ast.Stmt) bool {
	found := false
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			switch n.(type) {
			case *ast.BreakStmt:
				if n.(*ast.BreakStmt).Label == "" {
					found = true
				}
			case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForOfStmt, *ast.SwitchStmt, *ast.FuncLit, *ast.FuncDecl:
				return false
			}
			return !found
		})
	}
	return found
}

func (g *Generator) switchStmt(s *ast.SwitchStmt) {
	groups := groupCases(s)
	label := ""
	for i, grp := range groups {
		body := grp.body
		if n := len(body); n > 0 {
			if br, ok := body[n-1].(*ast.BreakStmt); ok && br.Label == "" {
				body = body[:n-1]
			} else if i < len(groups)-1 && !terminates(body) {
				g.warn(ir.CodeUnsupportedConstruct, s.Cases[0].Span, "switch case falls through; the following case is not executed")
			}
		}
		grp.body = body
		if breaksSwitch(body) {
			label = "'sw"
		}
	}
	if label != "" {
		depth := 0
		for _, b := range g.fn.breaks {
			if strings.HasPrefix(b, "'sw") {
				depth++
			}
		}
		if depth > 0 {
			label += strconv.Itoa(depth)
		}
		g.w.open(label + ": {")
	}
	g.fn.breaks = append(g.fn.breaks, label)
	if g.matchable(s, groups) {
		g.matchSwitch(s, groups)
	} else {
		g.ifSwitch(s, groups)
	}
	g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1]
	if label != "" {
		g.w.close("}")
	}
}

// matchable reports whether every case label is a string literal or a
// member of a same-file enum, so the switch can become a match.
func (g *Generator) matchable(s *ast.SwitchStmt, groups []*switchGroup) bool {
	str := g.isString(s.Tag)
	n := 0
	for _, grp := range groups {
		for _, t := range grp.tests {
			n++
			switch t := ast.Unparen(t).(type) {
			case *ast.StringLit:
				if !str {
					return false
				}
			case *ast.MemberExpr:
				id, ok := t.X.(*ast.Ident)
				if !ok || g.syms.enums[id.Name] == nil || str {
					return false
				}
			default:
				return false
			}
		}
	}
	return n > 0
}

func (g *Generator) matchSwitch(s *ast.SwitchStmt, groups []*switchGroup) {
	tag := g.receiver(s.Tag)
	if g.isString(s.Tag) {
		tag += ".as_str()"
	}
	g.w.open("match " + tag + " {")
	hasDefault := false
	for _, grp := range groups {
		var pats []string
		for _, t := range grp.tests {
			pats = append(pats, g.expr(t))
		}
		pat := strings.Join(pats, " | ")
		if grp.isDefault {
			pat = "_"
			hasDefault = true
		}
		if len(grp.body) == 0 {
			g.w.line(pat + " => {}")
			continue
		}
		g.w.open(pat + " => {")
		g.blockBody(&ast.Block{Stmts: grp.body})
		g.w.close("}")
	}
	if !hasDefault {
		g.w.line("_ => {}")
	}
	g.w.close("}")
}

func (g *Generator) ifSwitch(s *ast.SwitchStmt, groups []*switchGroup) {
	var def *switchGroup
	first := true
	for _, grp := range groups {
		if grp.isDefault {
			def = grp
			continue
		}
		var conds []string
		for _, t := range grp.tests {
			eq := &ast.BinaryExpr{Span: t.Pos(), Op: "===", X: s.Tag, Y: t}
			c := g.equality(eq)
			if len(grp.tests) > 1 {
				c = g.side(eq, rustPrec["||"], false, g.expr)
			}
			conds = append(conds, c)
		}
		head := "if " + strings.Join(conds, " || ") + " {"
		if first {
			g.w.open(head)
			first = false
		} else {
			g.w.mid("} else " + head)
		}
		g.blockBody(&ast.Block{Stmts: grp.body})
	}
	if def != nil {
		if first {
			g.w.open("{")
		} else {
			g.w.mid("} else {")
		}
		g.blockBody(&ast.Block{Stmts: def.body})
		first = false
	}
	if !first {
		g.w.close("}")
	}
}

func (g *Generator) exprStmt(x ast.Expr) {
	g.w.line(g.exprStmtText(x))
}

// exprStmtText renders an expression statement.
func (g *Generator) exprStmtText(x ast.Expr) string {
	switch e := x.(type) {
	case *ast.UpdateExpr:
		op := " += 1.0;"
		if e.Op == "--" {
			op = " -= 1.0;"
		}
		return g.expr(e.X) + op
	case *ast.AssignExpr:
		s := g.assign(e)
		if strings.HasPrefix(s, "if ") {
			return s
		}
		return s + ";"
	case *ast.CallExpr:
		if s, ok := g.chainAssign(e); ok {
			return s
		}
	case *ast.ParenExpr:
		return g.exprStmtText(e.X)
	}
	return g.expr(x) + ";"
}

// chainAssign rewrites a statement-level call chain ending in a chainable
// method, which consumes its receiver, into an assignment back to the root
// place.
func (g *Generator) chainAssign(x *ast.CallExpr) (string, bool) {
	m, ok := ast.Unparen(x.Fn).(*ast.MemberExpr)
	if !ok || m.Optional {
		return "", false
	}
	ci := g.classOf(m.X)
	if ci == nil || ci.kinds[m.Name] != Chainable || ci.method(m.Name) == nil {
		return "", false
	}
	root := m.X
	for {
		c, ok := ast.Unparen(root).(*ast.CallExpr)
		if !ok {
			break
		}
		inner, ok := ast.Unparen(c.Fn).(*ast.MemberExpr)
		if !ok {
			break
		}
		root = inner.X
	}
	call := g.expr(x)
	switch r := ast.Unparen(root).(type) {
	case *ast.ThisExpr:
		this := g.thisName()
		if g.fn.ctor || g.fn.kind == Chainable {
			return this + " = " + call + ";", true
		}
		return "*self = " + strings.Replace(call, "self.", "self.clone().", 1) + ";", true
	case *ast.Ident:
		if !g.isLocal(r.Name) {
			return "", false
		}
		return snakeCase(r.Name) + " = " + call + ";", true
	case *ast.MemberExpr:
		if !isPlace(r) {
			return "", false
		}
		return g.expr(r) + " = " + call + ";", true
	}
	return "", false
}

// returnValue renders the value of a return statement against the return
// type of the current function.
func (g *Generator) returnValue(x ast.Expr) string {
	if _, ok := ast.Unparen(x).(*ast.ThisExpr); ok {
		switch {
		case g.fn.ctor:
			return "this"
		case g.fn.kind == Chainable:
			return "self"
		}
		return "self.clone()"
	}
	want := g.fn.ret
	if n, ok := want.(*ir.NamedDescriptor); ok && n.Name == "Promise" && len(n.Args) == 1 && g.fn.async {
		want = n.Args[0]
	}
	if n, ok := want.(*ir.NamedDescriptor); ok && n.Name == "this" {
		want = nil
	}
	if ir.IsDynamic(want) && !ir.IsPrimitive(want, ir.PrimitiveAny) && !ir.IsPrimitive(want, ir.PrimitiveUnknown) {
		want = nil
	}
	return g.exprAs(x, want)
}
