package rust

import (
	"github.com/ts2rs/ts2rs/compiler/ast"
)

// MethodKind is the receiver chosen for a class method.
type MethodKind int

const (
	// Static methods never touch this and become associated functions.
	Static MethodKind = iota
	// Reader methods only read fields and take &self.
	Reader
	// Mutator methods write fields and take &mut self.
	Mutator
	// Chainable methods mutate and then return this; they take mut self
	// and return Self so calls can be chained.
	Chainable
)

func (k MethodKind) String() string {
	switch k {
	case Reader:
		return "reader"
	case Mutator:
		return "mutator"
	case Chainable:
		return "chainable"
	default:
		return "static"
	}
}

// mutatingMethods are the built-in collection and string-builder methods
// that modify their receiver.
var mutatingMethods = map[string]bool{
	"push":       true,
	"pop":        true,
	"shift":      true,
	"unshift":    true,
	"splice":     true,
	"sort":       true,
	"reverse":    true,
	"fill":       true,
	"copyWithin": true,
	"set":        true,
	"add":        true,
	"delete":     true,
	"clear":      true,
}

// bodyFacts are the receiver uses found by one linear scan of a method body.
type bodyFacts struct {
	usesThis   bool
	writesThis bool
	calls      []string
	returnThis bool
}

// scanBody records how body uses this. Nested function expressions and
// declarations rebind this and are not entered; arrow functions are.
func scanBody(body *ast.Block) bodyFacts {
	var f bodyFacts
	if body == nil {
		return f
	}
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return n.Arrow
		case *ast.FuncDecl, *ast.ClassDecl:
			return false
		case *ast.ThisExpr:
			f.usesThis = true
		case *ast.AssignExpr:
			if rootedAtThis(n.Target) {
				f.writesThis = true
			}
		case *ast.UpdateExpr:
			if rootedAtThis(n.X) {
				f.writesThis = true
			}
		case *ast.UnaryExpr:
			if n.Op == "delete" && rootedAtThis(n.X) {
				f.writesThis = true
			}
		case *ast.CallExpr:
			m, ok := ast.Unparen(n.Fn).(*ast.MemberExpr)
			if !ok {
				break
			}
			if _, onThis := ast.Unparen(m.X).(*ast.ThisExpr); onThis {
				f.calls = append(f.calls, m.Name)
			} else if mutatingMethods[m.Name] && rootedAtThis(m.X) {
				f.writesThis = true
			}
		}
		return true
	})
	if n := len(body.Stmts); n > 0 {
		if r, ok := body.Stmts[n-1].(*ast.ReturnStmt); ok && r.Result != nil {
			_, f.returnThis = ast.Unparen(r.Result).(*ast.ThisExpr)
		}
	}
	return f
}

// rootedAtThis reports whether x is this.a, this.a.b, this.a[i] and so on.
func rootedAtThis(x ast.Expr) bool {
	for {
		switch e := ast.Unparen(x).(type) {
		case *ast.MemberExpr:
			if _, ok := ast.Unparen(e.X).(*ast.ThisExpr); ok {
				return true
			}
			x = e.X
		case *ast.IndexExpr:
			if _, ok := ast.Unparen(e.X).(*ast.ThisExpr); ok {
				return true
			}
			x = e.X
		default:
			return false
		}
	}
}

// ClassifyMethods returns the receiver kind of every method of class that
// has a body, keyed by name.
func ClassifyMethods(class *ast.ClassDecl) map[string]MethodKind {
	var methods []*ast.Method
	for _, m := range class.Methods() {
		if m.Body != nil {
			methods = append(methods, m)
		}
	}
	return classifyMethods(methods, nil)
}

// classifyMethods classifies methods in three steps: a linear scan of each
// body, a fixpoint that turns readers calling mutators on this into
// mutators, and the chainable check on the final return. Setter calls
// through ci count as writes.
func classifyMethods(methods []*ast.Method, ci *classInfo) map[string]MethodKind {
	kinds := make(map[string]MethodKind, len(methods))
	facts := make(map[string]bodyFacts, len(methods))
	for _, m := range methods {
		f := scanBody(m.Body)
		if ci != nil && !f.writesThis && writesThroughSetter(m.Body, ci) {
			f.writesThis = true
		}
		facts[m.Name] = f
		switch {
		case m.Static || !f.usesThis:
			kinds[m.Name] = Static
		case f.writesThis:
			kinds[m.Name] = Mutator
		default:
			kinds[m.Name] = Reader
		}
	}
	for changed := true; changed; {
		changed = false
		for _, m := range methods {
			if kinds[m.Name] != Reader {
				continue
			}
			for _, callee := range facts[m.Name].calls {
				if k, ok := kinds[callee]; ok && (k == Mutator || k == Chainable) {
					kinds[m.Name] = Mutator
					changed = true
					break
				}
			}
		}
	}
	for _, m := range methods {
		if kinds[m.Name] == Mutator && facts[m.Name].returnThis {
			kinds[m.Name] = Chainable
		}
	}
	return kinds
}

func writesThroughSetter(body *ast.Block, ci *classInfo) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		if a, ok := n.(*ast.AssignExpr); ok {
			if name, onThis := ast.IsThisMember(a.Target); onThis && ci.setters[name] != nil {
				found = true
			}
		}
		return !found
	})
	return found
}
