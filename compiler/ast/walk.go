package ast

// Inspect traverses the tree below n depth-first, calling f for each node
// including n. If f returns false the children of that node are skipped.
// Function literals and nested function declarations are entered.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *ReturnStmt:
		inspectExpr(n.Result, f)
	case *IfStmt:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		inspectStmt(n.Else, f)
	case *WhileStmt:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *DoWhileStmt:
		Inspect(n.Body, f)
		Inspect(n.Cond, f)
	case *ForStmt:
		inspectStmt(n.Init, f)
		inspectExpr(n.Cond, f)
		inspectExpr(n.Post, f)
		Inspect(n.Body, f)
	case *ForOfStmt:
		Inspect(n.Iter, f)
		Inspect(n.Body, f)
	case *ThrowStmt:
		Inspect(n.X, f)
	case *SwitchStmt:
		Inspect(n.Tag, f)
		for _, c := range n.Cases {
			inspectExpr(c.Test, f)
			for _, s := range c.Body {
				Inspect(s, f)
			}
		}
	case *VarDecl:
		for _, b := range n.Bindings {
			inspectExpr(b.Init, f)
		}
	case *FuncDecl:
		inspectParams(n.Params, f)
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *StmtDecl:
		Inspect(n.Stmt, f)
	case *ExportDecl:
		if n.Decl != nil {
			Inspect(n.Decl, f)
		}
		inspectExpr(n.Value, f)

	case *TemplateLit:
		for _, x := range n.Exprs {
			Inspect(x, f)
		}
	case *ArrayLit:
		for _, x := range n.Elems {
			Inspect(x, f)
		}
	case *ObjectLit:
		for _, p := range n.Props {
			Inspect(p.Value, f)
		}
	case *UnaryExpr:
		Inspect(n.X, f)
	case *UpdateExpr:
		Inspect(n.X, f)
	case *BinaryExpr:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *AssignExpr:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *CondExpr:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *MemberExpr:
		Inspect(n.X, f)
	case *IndexExpr:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *CallExpr:
		Inspect(n.Fn, f)
		for _, x := range n.Args {
			Inspect(x, f)
		}
	case *NewExpr:
		Inspect(n.Ctor, f)
		for _, x := range n.Args {
			Inspect(x, f)
		}
	case *FuncLit:
		inspectParams(n.Params, f)
		if n.Body != nil {
			Inspect(n.Body, f)
		}
		inspectExpr(n.ExprBody, f)
	case *AsExpr:
		Inspect(n.X, f)
	case *NonNullExpr:
		Inspect(n.X, f)
	case *SpreadExpr:
		Inspect(n.X, f)
	case *ParenExpr:
		Inspect(n.X, f)
	}
}

func inspectParams(params []*Param, f func(Node) bool) {
	for _, p := range params {
		inspectExpr(p.Default, f)
	}
}

func inspectExpr(x Expr, f func(Node) bool) {
	if x != nil {
		Inspect(x, f)
	}
}

func inspectStmt(s Stmt, f func(Node) bool) {
	if s != nil {
		Inspect(s, f)
	}
}

// isNil catches typed nil pointers stored in interfaces.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Block:
		return n == nil
	case *Ident:
		return n == nil
	}
	return false
}
